package bot

import (
	"encoding/json"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"sync"
)

type userContext struct {
	mu              sync.Mutex
	chatID          int64
	curCommand      command
	curCommandName  string
	curCommandState []byte
	stateMu         sync.RWMutex
	filter          models.FilterKey
	results         []models.Listing
}

func newUserContext(chatID int64) *userContext {
	return &userContext{chatID: chatID}
}

func (u *userContext) RunCommand(command command, name string) {
	u.setCommand(command, name)
	u.curCommand.Run()
}

func (u *userContext) ResumeCommandAfterBotRestart(command command) {
	u.setCommand(command, u.curCommandName)
}

func (u *userContext) HasRunningCommand() bool {
	return u.curCommand != nil
}

func (u *userContext) OnUserInput(input string) {
	u.curCommand.OnUserInput(input)
}

func (u *userContext) CancelCommand() {
	u.curCommand = nil
	u.curCommandName = ""
	u.curCommandState = nil
}

// Filter is the filter of the last completed search. Watches read it on every tick.
func (u *userContext) Filter() models.FilterKey {
	u.stateMu.RLock()
	defer u.stateMu.RUnlock()
	return u.filter
}

func (u *userContext) SetResults(filter models.FilterKey, results []models.Listing) {
	u.stateMu.Lock()
	defer u.stateMu.Unlock()
	u.filter = filter
	u.results = results
}

// Result returns the listing shown under the given 1-based number.
func (u *userContext) Result(number int) (models.Listing, bool) {
	u.stateMu.RLock()
	defer u.stateMu.RUnlock()
	if number < 1 || number > len(u.results) {
		return models.Listing{}, false
	}
	return u.results[number-1], true
}

func (u *userContext) MarshalJSON() ([]byte, error) {

	var cmdState []byte
	var err error
	if u.curCommand != nil {
		if saveableCmd, ok := u.curCommand.(saveable); ok {
			cmdState, err = saveableCmd.SaveState()
		}
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(&struct {
		ChatID          int64            `json:"chatID"`
		CurCommandName  string           `json:"curCommandName"`
		CurCommandState []byte           `json:"curCommandState"`
		Filter          models.FilterKey `json:"filter"`
	}{
		ChatID:          u.chatID,
		CurCommandName:  u.curCommandName,
		CurCommandState: cmdState,
		Filter:          u.Filter(),
	})
}

func (u *userContext) UnmarshalJSON(data []byte) error {

	aux := &struct {
		ChatID          int64            `json:"chatID"`
		CurCommandName  string           `json:"curCommandName"`
		CurCommandState []byte           `json:"curCommandState"`
		Filter          models.FilterKey `json:"filter"`
	}{}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	u.chatID = aux.ChatID
	u.curCommandName = aux.CurCommandName
	u.curCommandState = aux.CurCommandState
	u.filter = aux.Filter
	return nil
}

func (u *userContext) setCommand(command command, name string) {
	u.curCommand = command
	u.curCommandName = name
	u.curCommand.WithFinishCallback(func() {
		u.curCommand = nil
		u.curCommandName = ""
	})
	u.curCommand.WithKeyboardOnFinalMessage(defaultReplyKeyboard())
}
