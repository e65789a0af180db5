package bot

import (
	"context"
	"encoding/json"
	"errors"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"github.com/maxaizer/jobs-finder/internal/logger"
	"github.com/maxaizer/jobs-finder/internal/services"
	log "github.com/sirupsen/logrus"
	"time"
)

const searchCommandName = "Поиск вакансий"

const (
	searchTimeout  = 30 * time.Second
	maxQueryLength = 200
)

type searcher interface {
	Search(ctx context.Context, query, region string, userInitiated bool) ([]models.Listing, error)
}

type searchCommand struct {
	api                  apiInterface
	chatID               int64
	session              searcher
	onResults            func(filter models.FilterKey, listings []models.Listing)
	inputHandlers        []inputHandler
	curHandlerIndex      int
	query                string
	canton               string
	finishCallback       func()
	finalMessageKeyboard *botApi.ReplyKeyboardMarkup
}

func newSearchCommand(api apiInterface, chatID int64, session searcher,
	onResults func(filter models.FilterKey, listings []models.Listing)) *searchCommand {

	cmd := &searchCommand{api: api, chatID: chatID, session: session, onResults: onResults}

	query := newQueryInput(chatID, func(query string) {
		cmd.query = query
		cmd.curHandlerIndex++
	})

	canton := newCantonInput(chatID, func(canton string) {
		cmd.canton = canton
		cmd.curHandlerIndex++
	})

	cmd.inputHandlers = []inputHandler{query, canton}
	return cmd
}

func (c *searchCommand) WithFinishCallback(callback func()) {
	c.finishCallback = callback
}

func (c *searchCommand) WithKeyboardOnFinalMessage(keyboard botApi.ReplyKeyboardMarkup) {
	c.finalMessageKeyboard = &keyboard
}

func (c *searchCommand) SaveState() ([]byte, error) {
	return json.Marshal(&struct {
		CurHandlerIndex int
		Query           string
		Canton          string
	}{
		CurHandlerIndex: c.curHandlerIndex,
		Query:           c.query,
		Canton:          c.canton,
	})
}

func (c *searchCommand) LoadState(data []byte) error {

	aux := &struct {
		CurHandlerIndex int
		Query           string
		Canton          string
	}{}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	c.curHandlerIndex = aux.CurHandlerIndex
	c.query = aux.Query
	c.canton = aux.Canton
	return nil
}

func (c *searchCommand) Run() {
	_ = send(c.api, c.inputHandlers[0].InitMessage())
}

func (c *searchCommand) OnUserInput(input string) {

	previousIndex := c.curHandlerIndex
	msg := c.inputHandlers[c.curHandlerIndex].HandleInput(input)

	handlerChanged := previousIndex != c.curHandlerIndex
	allHandlersFinished := c.curHandlerIndex >= len(c.inputHandlers)

	if !handlerChanged {
		_ = send(c.api, msg)
		return
	}

	if !allHandlersFinished {
		_ = send(c.api, c.inputHandlers[c.curHandlerIndex].InitMessage())
		return
	}

	c.search()
	if c.finishCallback != nil {
		c.finishCallback()
	}
}

func (c *searchCommand) search() {

	msg := botApi.NewMessage(c.chatID, "")
	if c.finalMessageKeyboard != nil {
		msg.ReplyMarkup = c.finalMessageKeyboard
	}

	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()

	listings, err := c.session.Search(ctx, c.query, c.canton, true)
	if err != nil {
		if errors.Is(err, services.ErrSuperseded) {
			return
		}
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeBackendApi).Errorf("search failed: %v", err)
		msg.Text = "Не удалось выполнить поиск, попробуйте позже."
		_ = send(c.api, msg)
		return
	}

	filter := models.NewFilterKey(c.query, c.canton)
	if c.onResults != nil {
		c.onResults(filter, listings)
	}

	msg.Text = listingsToText(filter, listings)
	msg.DisableWebPagePreview = true
	_ = send(c.api, msg)
}

func newQueryInput(chatID int64, onFinish func(input string)) *textInput {
	return newTextInput(chatID, "Введите ключевые слова для поиска. Например, \"Golang\" или \"Pflegefachfrau\".", onFinish).
		Required("Запрос не может быть пустым.").
		MaxLength(maxQueryLength)
}
