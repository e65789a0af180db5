package notifier

import "context"

type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Host is the user-facing notification capability of the environment a watch runs in.
type Host interface {
	// RequestPermission asks the user once. It may block until the user answers.
	RequestPermission(ctx context.Context)
	Permission() Permission
	Notify(ctx context.Context, title, body string) error
}
