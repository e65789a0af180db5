package bot

import (
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
	"strings"
)

const anyCantonText = "Не указывать"

var cantons = []string{
	"AG", "AI", "AR", "BE", "BL", "BS", "FR", "GE", "GL", "GR", "JU", "LU", "NE",
	"NW", "OW", "SG", "SH", "SO", "SZ", "TG", "TI", "UR", "VD", "VS", "ZG", "ZH",
}

type cantonInput struct {
	chatID   int64
	onFinish func(canton string)
}

func newCantonInput(chatID int64, onFinish func(canton string)) *cantonInput {
	return &cantonInput{chatID: chatID, onFinish: onFinish}
}

func (a *cantonInput) InitMessage() botApi.Chattable {
	msg := botApi.NewMessage(a.chatID, "Выберите кантон.")
	msg.ReplyMarkup = cantonKeyboard()
	return msg
}

func (a *cantonInput) HandleInput(input string) botApi.Chattable {

	if input == anyCantonText {
		a.onFinish("")
		return nil
	}

	canton := strings.ToUpper(strings.TrimSpace(input))
	if !lo.Contains(cantons, canton) {
		return botApi.NewMessage(a.chatID, "Кантон не найден.")
	}

	a.onFinish(canton)
	return nil
}

func cantonKeyboard() botApi.ReplyKeyboardMarkup {
	var rows [][]botApi.KeyboardButton

	for _, chunk := range lo.Chunk(cantons, 6) {
		rows = append(rows, lo.Map(chunk, func(canton string, _ int) botApi.KeyboardButton {
			return botApi.NewKeyboardButton(canton)
		}))
	}
	rows = append(rows, botApi.NewKeyboardButtonRow(
		botApi.NewKeyboardButton(anyCantonText),
		botApi.NewKeyboardButton(backToMenuCommandName),
	))

	return botApi.NewReplyKeyboard(rows...)
}
