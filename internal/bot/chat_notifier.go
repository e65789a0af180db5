package bot

import (
	"context"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobs-finder/internal/notifier"
	"github.com/maxaizer/jobs-finder/internal/repositories"
	"sync"
)

const (
	permissionKey          = "notifications_permission"
	allowNotificationsText = "Разрешить уведомления"
	denyNotificationsText  = "Запретить уведомления"
)

// chatNotifier delivers watch notifications to a chat. The user is asked once,
// the answer is kept in the chat's store.
type chatNotifier struct {
	api    apiInterface
	chatID int64
	store  repositories.KeyValueStore
	mu     sync.Mutex
}

func newChatNotifier(api apiInterface, chatID int64, store repositories.KeyValueStore) *chatNotifier {
	return &chatNotifier{api: api, chatID: chatID, store: store}
}

func (n *chatNotifier) RequestPermission(context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.permission() != notifier.PermissionDefault {
		return
	}

	msg := botApi.NewMessage(n.chatID, "Присылать уведомления о новых вакансиях?")
	msg.ReplyMarkup = botApi.NewReplyKeyboard(
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(allowNotificationsText),
			botApi.NewKeyboardButton(denyNotificationsText),
		),
	)
	_ = send(n.api, msg)
}

func (n *chatNotifier) Permission() notifier.Permission {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.permission()
}

func (n *chatNotifier) SetPermission(permission notifier.Permission) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.store.Set(permissionKey, string(permission))
}

func (n *chatNotifier) Notify(_ context.Context, title, body string) error {
	return send(n.api, botApi.NewMessage(n.chatID, title+"\n"+body))
}

func (n *chatNotifier) permission() notifier.Permission {
	value, found := n.store.Get(permissionKey)
	if !found {
		return notifier.PermissionDefault
	}

	switch permission := notifier.Permission(value); permission {
	case notifier.PermissionGranted, notifier.PermissionDenied:
		return permission
	default:
		return notifier.PermissionDefault
	}
}
