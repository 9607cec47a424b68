// Package notify delivers user-facing notices raised by the dealer client.
package notify

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Notification is a short message meant for the person driving the client.
type Notification struct {
	Title   string
	Message string
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Recorder keeps notifications in memory until they are drained.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}

// Drain returns the recorded notifications and clears the buffer.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}

// Logger writes notifications to a slog logger at warn level.
type Logger struct {
	Log *slog.Logger
}

func (l Logger) Notify(ctx context.Context, n Notification) {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	log.WarnContext(ctx, n.Title, "message", n.Message)
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(context.Context, Notification) {}
