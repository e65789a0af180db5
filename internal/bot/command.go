package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobs-finder/internal/logger"
	log "github.com/sirupsen/logrus"
)

type apiInterface interface {
	Send(chattable tgbotapi.Chattable) (tgbotapi.Message, error)
}

// command is a multi-step dialog. Run sends its first prompt, every following
// user message goes to OnUserInput until the finish callback fires.
type command interface {
	WithKeyboardOnFinalMessage(tgbotapi.ReplyKeyboardMarkup)
	WithFinishCallback(func())
	Run()
	OnUserInput(input string)
}

// saveable commands survive a restart in the middle of the dialog.
type saveable interface {
	SaveState() ([]byte, error)
	LoadState(data []byte) error
}

// send delivers a message and logs failures. A nil chattable is a no-op.
func send(api apiInterface, chattable tgbotapi.Chattable) error {
	if chattable == nil {
		return nil
	}

	_, err := api.Send(chattable)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).
			Errorf("can't send message: %v", err)
	}
	return err
}
