package notifier

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Console prints notifications to a writer. Permission is always granted.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) RequestPermission(context.Context) {}

func (c *Console) Permission() Permission {
	return PermissionGranted
}

func (c *Console) Notify(_ context.Context, title, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.out, "🔔 %s\n%s\n", title, body)
	return err
}
