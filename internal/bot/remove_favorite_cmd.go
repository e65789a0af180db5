package bot

import (
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
)

const removeFavoriteCommandName = "Удалить из избранного"

type favoritesToggler interface {
	List() []models.FavoriteEntry
	Toggle(listing models.Listing) models.FavoritesCollection
}

type removeFavoriteCommand struct {
	api                  apiInterface
	chatID               int64
	favorites            favoritesToggler
	input                inputHandler
	entry                models.FavoriteEntry
	inputFinished        bool
	finishCallback       func()
	finalMessageKeyboard *botApi.ReplyKeyboardMarkup
}

func newRemoveFavoriteCommand(api apiInterface, chatID int64, favorites favoritesToggler) (*removeFavoriteCommand, error) {

	cmd := removeFavoriteCommand{api: api, chatID: chatID, favorites: favorites}
	input, err := newFavoriteInput(chatID, favorites.List(), func(entry models.FavoriteEntry) {
		cmd.entry = entry
		cmd.inputFinished = true
	})
	if err != nil {
		return nil, err
	}
	cmd.input = input
	return &cmd, nil
}

func (c *removeFavoriteCommand) WithFinishCallback(callback func()) {
	c.finishCallback = callback
}

func (c *removeFavoriteCommand) WithKeyboardOnFinalMessage(keyboard botApi.ReplyKeyboardMarkup) {
	c.finalMessageKeyboard = &keyboard
}

func (c *removeFavoriteCommand) Run() {
	_ = send(c.api, c.input.InitMessage())
}

func (c *removeFavoriteCommand) OnUserInput(input string) {

	msg := c.input.HandleInput(input)

	if !c.inputFinished {
		_ = send(c.api, msg)
		return
	}

	c.removeFavorite()

	if c.finishCallback != nil {
		c.finishCallback()
	}
}

func (c *removeFavoriteCommand) removeFavorite() {

	msg := botApi.NewMessage(c.chatID, "")
	if c.finalMessageKeyboard != nil {
		msg.ReplyMarkup = c.finalMessageKeyboard
	}

	if collection := c.favorites.List(); !containsEntry(collection, c.entry.ListingID) {
		msg.Text = "Вакансия уже удалена из избранного."
		_ = send(c.api, msg)
		return
	}

	c.favorites.Toggle(c.entry.Listing())
	msg.Text = "Вакансия удалена из избранного."
	_ = send(c.api, msg)
}

func containsEntry(entries []models.FavoriteEntry, listingID string) bool {
	for _, entry := range entries {
		if entry.ListingID == listingID {
			return true
		}
	}
	return false
}
