package bot

import (
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"github.com/pkg/errors"
	"strconv"
)

var errorNoFavorites = errors.New("user has no favorites")

type favoriteInput struct {
	chatID    int64
	favorites []models.FavoriteEntry
	onFinish  func(entry models.FavoriteEntry)
}

func newFavoriteInput(chatID int64, favorites []models.FavoriteEntry, onFinish func(entry models.FavoriteEntry)) (*favoriteInput, error) {
	if len(favorites) == 0 {
		return nil, errorNoFavorites
	}
	return &favoriteInput{chatID: chatID, favorites: favorites, onFinish: onFinish}, nil
}

func (s *favoriteInput) InitMessage() botApi.Chattable {

	text := "Введите номер вакансии:\n"
	text += favoritesToText(s.favorites)

	msg := botApi.NewMessage(s.chatID, text)
	msg.ReplyMarkup = keyboardWithExit()
	msg.DisableWebPagePreview = true
	return msg
}

func (s *favoriteInput) HandleInput(input string) botApi.Chattable {

	number, err := strconv.Atoi(input)
	if err != nil {
		return botApi.NewMessage(s.chatID, "Введите число!")
	}

	if number < 1 || number > len(s.favorites) {
		return botApi.NewMessage(s.chatID, "Нет вакансии с таким номером.")
	}

	s.onFinish(s.favorites[number-1])
	return nil
}
