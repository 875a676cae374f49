// Package notifier delivers operational events about classified failures and
// usage to external sinks (a Telegram channel, a NATS subject). Request
// handling never blocks on delivery.
package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventKind classifies a notification.
type EventKind string

const (
	// EventInvalidUsername fires when the public page can not be parsed for
	// a username, the primary "does not exist" signal.
	EventInvalidUsername EventKind = "invalid_username"
	// EventFloodWait fires when a single client gets rate-limited.
	EventFloodWait EventKind = "flood_wait"
	// EventAllFlooded fires when a fetch exhausts every client in the pool.
	EventAllFlooded EventKind = "all_flooded"
	// EventUsernameNotFound fires when the authoritative API reports an
	// unknown username.
	EventUsernameNotFound EventKind = "username_not_found"
	// EventInternalError fires on unclassified failures at the request boundary.
	EventInternalError EventKind = "internal_error"
	// EventUsageReport carries the periodic per-consumer call counts.
	EventUsageReport EventKind = "usage_report"
)

// Event is a single notification.
type Event struct {
	ID       string    `json:"id"`
	Kind     EventKind `json:"kind"`
	Username string    `json:"username,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	Seconds  int       `json:"seconds,omitempty"`
	At       time.Time `json:"at"`
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(kind EventKind, username, detail string) Event {
	return Event{
		ID:       uuid.NewString(),
		Kind:     kind,
		Username: username,
		Detail:   detail,
		At:       time.Now().UTC(),
	}
}

// Notifier delivers events. Implementations must not block the caller beyond
// the context deadline and must never panic the request path.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Nop discards all events.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Event) {}

// Multi fans an event out to several sinks.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, n := range m {
		n.Notify(ctx, ev)
	}
}
