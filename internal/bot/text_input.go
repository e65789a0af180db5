package bot

import (
	"fmt"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"strings"
	"unicode/utf8"
)

// inputHandler is one step of a multi-step command.
type inputHandler interface {
	InitMessage() botApi.Chattable
	HandleInput(input string) botApi.Chattable
}

type validation struct {
	function     func(input string) bool
	errorMessage string
}

// textInput accepts free text. Input is trimmed before it is validated and passed on.
type textInput struct {
	chatID      int64
	prompt      string
	maxLength   int
	onFinish    func(input string)
	validations []validation
}

func newTextInput(chatID int64, prompt string, onFinish func(input string)) *textInput {
	return &textInput{chatID: chatID, prompt: prompt, onFinish: onFinish}
}

func (t *textInput) Required(errorMessage string) *textInput {
	t.validations = append(t.validations, validation{
		function:     func(input string) bool { return input != "" },
		errorMessage: errorMessage,
	})
	return t
}

func (t *textInput) MaxLength(length int) *textInput {
	t.maxLength = length
	return t
}

func (t *textInput) InitMessage() botApi.Chattable {
	msg := botApi.NewMessage(t.chatID, t.prompt)
	msg.ReplyMarkup = keyboardWithExit()
	return msg
}

func (t *textInput) HandleInput(input string) botApi.Chattable {

	input = strings.TrimSpace(input)

	if t.maxLength > 0 && utf8.RuneCountInString(input) > t.maxLength {
		return botApi.NewMessage(t.chatID, fmt.Sprintf("Слишком длинный текст, максимум %d символов.", t.maxLength))
	}

	for _, v := range t.validations {
		if !v.function(input) {
			return botApi.NewMessage(t.chatID, v.errorMessage)
		}
	}

	t.onFinish(input)
	return nil
}
