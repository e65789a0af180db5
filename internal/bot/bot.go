package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobs-finder/internal/domain/events"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"github.com/maxaizer/jobs-finder/internal/logger"
	"github.com/maxaizer/jobs-finder/internal/notifier"
	"github.com/maxaizer/jobs-finder/internal/repositories"
	"github.com/maxaizer/jobs-finder/internal/services"
	log "github.com/sirupsen/logrus"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type applicationDrafter interface {
	DraftApplication(ctx context.Context, listing models.Listing, language string) (string, error)
}

type Dependencies struct {
	Workspaces *services.Workspaces
	Store      repositories.KeyValueStore
	// Drafter is optional, without it /apply is disabled.
	Drafter applicationDrafter
}

type Bot struct {
	tg           *botApi.BotAPI
	api          apiInterface
	bus          EventBus.Bus
	workspaces   *services.Workspaces
	store        repositories.KeyValueStore
	drafter      applicationDrafter
	mu           sync.Mutex
	userContexts map[int64]*userContext
	notifiers    map[int64]*chatNotifier
	watchesMu    sync.Mutex
	stopping     atomic.Bool
}

const (
	backToMenuCommandName     = "В главное меню"
	favoritesCommandName      = "Избранное"
	watchCommandName          = "Следить за поиском"
	unwatchCommandName        = "Остановить слежение"
	topSearchesCommandName    = "Топ запросов"
	favoriteCommandName       = "fav"
	applyCommandName          = "apply"
	userContextsKey           = "bot:user_contexts"
	watchesKey                = "bot:watches"
	applicationDraftTimeout   = time.Minute
	topSearchesRefreshTimeout = 15 * time.Second
)

var globalCommands = []string{searchCommandName, favoritesCommandName, removeFavoriteCommandName, watchCommandName,
	unwatchCommandName, topSearchesCommandName, backToMenuCommandName, allowNotificationsText, denyNotificationsText}

func NewBot(token string, bus EventBus.Bus, deps Dependencies) (*Bot, error) {

	api, err := botApi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on account %s", api.Self.UserName)

	err = botApi.SetLogger(log.StandardLogger())
	if err != nil {
		return nil, err
	}

	createdBot, err := newBot(api, bus, deps)
	if err != nil {
		return nil, err
	}
	createdBot.tg = api
	return createdBot, nil
}

func newBot(api apiInterface, bus EventBus.Bus, deps Dependencies) (*Bot, error) {

	if bus == nil {
		return nil, errors.New("bus is nil")
	}

	if deps.Workspaces == nil {
		return nil, errors.New("workspaces are nil")
	}

	if deps.Store == nil {
		return nil, errors.New("store is nil")
	}

	createdBot := &Bot{
		api:          api,
		bus:          bus,
		workspaces:   deps.Workspaces,
		store:        deps.Store,
		drafter:      deps.Drafter,
		userContexts: make(map[int64]*userContext),
		notifiers:    make(map[int64]*chatNotifier),
	}

	err := bus.Subscribe(events.WatchStateChangedTopic, createdBot.onWatchStateChanged)
	if err != nil {
		return nil, err
	}
	return createdBot, nil
}

func (b *Bot) Run() {

	err := b.loadUserContexts()
	if err != nil {
		log.Errorf("Error loading user contexts: %v", err)
	}
	b.restoreWatches()

	updateConfig := botApi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.tg.GetUpdatesChan(updateConfig)

	for update := range updates {

		if update.Message == nil {
			continue
		}

		if update.Message.Chat.IsGroup() || update.Message.Chat.IsSuperGroup() {
			continue
		}

		go b.handleMessage(update.Message)
	}
}

// Stop saves user contexts. Watches stopped after it stay persisted and resume on the next Run.
func (b *Bot) Stop() {
	b.stopping.Store(true)
	if b.tg != nil {
		b.tg.StopReceivingUpdates()
	}

	err := b.saveUserContexts()
	if err != nil {
		log.Errorf("Error saving user contexts: %v", err)
	}
}

func (b *Bot) handleMessage(message *botApi.Message) {

	cmd := message.Command()
	if cmd == "" && slices.Contains(globalCommands, message.Text) {
		cmd = message.Text
	}

	ctx := b.userContext(message.Chat.ID)
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if cmd != "" {
		b.handleCommand(ctx, cmd, message.CommandArguments())
	} else {
		b.handleInput(ctx, message.Text)
	}
}

func (b *Bot) handleCommand(ctx *userContext, command string, args string) {

	var response botApi.Chattable
	var err error
	chatID := ctx.chatID

	switch command {
	case "start":
		messageResponse := botApi.NewMessage(chatID, "Привет! Я ищу вакансии в Швейцарии и слежу за новыми.")
		messageResponse.ReplyMarkup = defaultReplyKeyboard()
		response = messageResponse
		ctx.CancelCommand()
	case searchCommandName, removeFavoriteCommandName:
		cmd, cmdErr := b.createCommand(command, ctx)
		if cmdErr != nil {
			err = fmt.Errorf("couldn't create %s: %w", command, cmdErr)
		} else {
			ctx.RunCommand(cmd, command)
		}
	case favoritesCommandName:
		response = b.favoritesMessage(ctx)
	case favoriteCommandName:
		response = b.toggleFavorite(ctx, args)
	case applyCommandName:
		response = b.draftApplication(ctx, args)
	case watchCommandName:
		response = b.startWatch(ctx)
	case unwatchCommandName:
		response = b.stopWatch(ctx)
	case topSearchesCommandName:
		response = b.topSearchesMessage(ctx)
	case allowNotificationsText, denyNotificationsText:
		response = b.setPermission(ctx, command == allowNotificationsText)
	case backToMenuCommandName:
		messageResponse := botApi.NewMessage(chatID, "Вы были успешно перенесены в главное меню")
		messageResponse.ReplyMarkup = defaultReplyKeyboard()
		response = messageResponse
		ctx.CancelCommand()
	default:
		response = botApi.NewMessage(chatID, "Неизвестная команда!")
	}

	if err != nil {
		if errors.Is(err, errorNoFavorites) {
			response = botApi.NewMessage(chatID, "В избранном пока ничего нет.")
		} else {
			response = botApi.NewMessage(chatID, "Внутренняя ошибка!")
			log.Error(err)
		}
	}

	_ = send(b.api, response)
}

func (b *Bot) createCommand(name string, ctx *userContext) (command, error) {

	workspace := b.workspace(ctx.chatID)

	switch name {
	case searchCommandName:
		return newSearchCommand(b.api, ctx.chatID, workspace.Session, ctx.SetResults), nil
	case removeFavoriteCommandName:
		return newRemoveFavoriteCommand(b.api, ctx.chatID, workspace.Favorites)
	default:
		return nil, fmt.Errorf("unknown command: %v", name)
	}
}

func (b *Bot) handleInput(ctx *userContext, input string) {

	var response botApi.Chattable

	if ctx.HasRunningCommand() {
		ctx.OnUserInput(input)
	} else {
		response = botApi.NewMessage(ctx.chatID, "Ожидается команда.")
	}

	_ = send(b.api, response)
}

func (b *Bot) favoritesMessage(ctx *userContext) botApi.Chattable {
	entries := b.workspace(ctx.chatID).Favorites.List()
	if len(entries) == 0 {
		return botApi.NewMessage(ctx.chatID, "В избранном пока ничего нет.")
	}

	msg := botApi.NewMessage(ctx.chatID, "Избранное:\n"+favoritesToText(entries))
	msg.DisableWebPagePreview = true
	return msg
}

func (b *Bot) toggleFavorite(ctx *userContext, args string) botApi.Chattable {
	listing, ok := b.resultByArgs(ctx, args)
	if !ok {
		return botApi.NewMessage(ctx.chatID, "Укажите номер вакансии из последнего поиска, например /fav 2")
	}

	collection := b.workspace(ctx.chatID).Favorites.Toggle(listing)
	if collection.Contains(listing.Key()) {
		return botApi.NewMessage(ctx.chatID, "Добавлено в избранное: "+listing.Title)
	}
	return botApi.NewMessage(ctx.chatID, "Удалено из избранного: "+listing.Title)
}

func (b *Bot) draftApplication(ctx *userContext, args string) botApi.Chattable {
	if b.drafter == nil {
		return botApi.NewMessage(ctx.chatID, "Черновики откликов недоступны.")
	}

	listing, ok := b.resultByArgs(ctx, args)
	if !ok {
		return botApi.NewMessage(ctx.chatID, "Укажите номер вакансии из последнего поиска, например /apply 2 en")
	}

	language := "ru"
	if fields := strings.Fields(args); len(fields) > 1 {
		language = strings.ToLower(fields[1])
	}

	draftCtx, cancel := context.WithTimeout(context.Background(), applicationDraftTimeout)
	defer cancel()

	draft, err := b.drafter.DraftApplication(draftCtx, listing, language)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).Errorf("failed to draft application: %v", err)
		return botApi.NewMessage(ctx.chatID, "Не удалось подготовить черновик, попробуйте позже.")
	}
	return botApi.NewMessage(ctx.chatID, draft)
}

func (b *Bot) resultByArgs(ctx *userContext, args string) (models.Listing, bool) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return models.Listing{}, false
	}

	number, err := strconv.Atoi(fields[0])
	if err != nil {
		return models.Listing{}, false
	}
	return ctx.Result(number)
}

func (b *Bot) startWatch(ctx *userContext) botApi.Chattable {
	owner := ownerOf(ctx.chatID)

	_, err := b.workspace(ctx.chatID).Watcher.Start(owner, ctx.Filter, b.notifier(ctx.chatID))
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			return botApi.NewMessage(ctx.chatID, "Сначала выполните поиск.")
		}
		log.Errorf("failed to start watch for %s: %v", owner, err)
		return botApi.NewMessage(ctx.chatID, "Внутренняя ошибка!")
	}

	return botApi.NewMessage(ctx.chatID, fmt.Sprintf("Слежу за запросом «%s». Сообщу о новых вакансиях.", ctx.Filter().Query))
}

func (b *Bot) stopWatch(ctx *userContext) botApi.Chattable {
	watcher := b.workspace(ctx.chatID).Watcher

	current := watcher.Current()
	if current == nil {
		return botApi.NewMessage(ctx.chatID, "Слежение не запущено.")
	}

	watcher.Stop(current)
	return botApi.NewMessage(ctx.chatID, "Слежение остановлено.")
}

func (b *Bot) topSearchesMessage(ctx *userContext) botApi.Chattable {
	session := b.workspace(ctx.chatID).Session

	top := session.TopSearches()
	if top == nil {
		refreshCtx, cancel := context.WithTimeout(context.Background(), topSearchesRefreshTimeout)
		defer cancel()

		var err error
		top, err = session.RefreshTopSearches(refreshCtx)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeBackendApi).Errorf("failed to get top searches: %v", err)
			return botApi.NewMessage(ctx.chatID, "Не удалось получить популярные запросы.")
		}
	}

	return botApi.NewMessage(ctx.chatID, topSearchesToText(top))
}

func (b *Bot) setPermission(ctx *userContext, granted bool) botApi.Chattable {
	permission := notifier.PermissionDenied
	text := "Уведомления отключены."
	if granted {
		permission = notifier.PermissionGranted
		text = "Уведомления включены."
	}

	b.notifier(ctx.chatID).SetPermission(permission)

	msg := botApi.NewMessage(ctx.chatID, text)
	msg.ReplyMarkup = defaultReplyKeyboard()
	return msg
}

func (b *Bot) userContext(chatID int64) *userContext {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx := b.userContexts[chatID]
	if ctx == nil {
		ctx = newUserContext(chatID)
		b.userContexts[chatID] = ctx
	}
	return ctx
}

func (b *Bot) notifier(chatID int64) *chatNotifier {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.notifiers[chatID]
	if n == nil {
		n = newChatNotifier(b.api, chatID, repositories.NewScoped(b.store, ownerOf(chatID)))
		b.notifiers[chatID] = n
	}
	return n
}

func (b *Bot) workspace(chatID int64) *services.Workspace {
	return b.workspaces.Get(ownerOf(chatID))
}

func ownerOf(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func (b *Bot) saveUserContexts() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := json.Marshal(b.userContexts)
	if err != nil {
		return err
	}
	b.store.Set(userContextsKey, string(data))
	return nil
}

func (b *Bot) loadUserContexts() error {
	data, found := b.store.Get(userContextsKey)
	if !found {
		return nil
	}
	b.store.Remove(userContextsKey)

	loaded := make(map[int64]*userContext)
	if err := json.Unmarshal([]byte(data), &loaded); err != nil {
		return err
	}

	var errs []error
	for i, ctx := range loaded {

		if ctx.curCommandName == "" {
			continue
		}

		cmd, err := b.createCommand(ctx.curCommandName, ctx)
		if err != nil {
			errs = append(errs, err)
			ctx.CancelCommand()
			continue
		}

		saveableCmd, ok := cmd.(saveable)
		if !ok {
			ctx.ResumeCommandAfterBotRestart(cmd)
			continue
		}

		err = saveableCmd.LoadState(ctx.curCommandState)
		if err != nil {
			errs = append(errs, err)
			delete(loaded, i)
			continue
		}

		ctx.ResumeCommandAfterBotRestart(cmd)
	}

	b.mu.Lock()
	b.userContexts = loaded
	b.mu.Unlock()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (b *Bot) onWatchStateChanged(event events.WatchStateChanged) {
	if b.stopping.Load() {
		return
	}

	b.watchesMu.Lock()
	defer b.watchesMu.Unlock()

	watches := b.loadWatches()
	if event.Watching {
		watches[event.Owner] = event.Filter
	} else {
		delete(watches, event.Owner)
	}

	data, err := json.Marshal(watches)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).Errorf("failed to encode watches: %v", err)
		return
	}
	b.store.Set(watchesKey, string(data))
}

func (b *Bot) loadWatches() map[string]models.FilterKey {
	watches := make(map[string]models.FilterKey)

	data, found := b.store.Get(watchesKey)
	if !found {
		return watches
	}
	if err := json.Unmarshal([]byte(data), &watches); err != nil {
		log.Warnf("ignoring malformed watches: %v", err)
		return make(map[string]models.FilterKey)
	}
	return watches
}

func (b *Bot) restoreWatches() {
	b.watchesMu.Lock()
	watches := b.loadWatches()
	b.watchesMu.Unlock()

	for owner, filter := range watches {
		chatID, err := strconv.ParseInt(owner, 10, 64)
		if err != nil {
			log.Warnf("skipping watch of unknown owner %q", owner)
			continue
		}

		ctx := b.userContext(chatID)
		if ctx.Filter().IsEmpty() {
			ctx.SetResults(filter, nil)
		}

		if _, err = b.workspace(chatID).Watcher.Start(owner, ctx.Filter, b.notifier(chatID)); err != nil {
			log.Errorf("failed to resume watch for %s: %v", owner, err)
			continue
		}
		log.Infof("resumed watch for %s", owner)
	}
}

func defaultReplyKeyboard() botApi.ReplyKeyboardMarkup {
	return botApi.NewReplyKeyboard(
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(searchCommandName),
			botApi.NewKeyboardButton(favoritesCommandName),
		),
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(watchCommandName),
			botApi.NewKeyboardButton(unwatchCommandName),
		),
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(topSearchesCommandName),
			botApi.NewKeyboardButton(removeFavoriteCommandName),
		),
	)
}

func keyboardWithExit() botApi.ReplyKeyboardMarkup {
	return botApi.NewReplyKeyboard(
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(backToMenuCommandName),
		),
	)
}
