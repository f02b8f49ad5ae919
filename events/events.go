// Package events provides the in-process task change notification bus.
package events

import (
	"context"
	"time"
)

// Type identifies the kind of task change.
type Type string

const (
	TypeCreated   Type = "created"
	TypeCompleted Type = "completed"
	TypeEdited    Type = "edited"
	TypeDeleted   Type = "deleted"
)

// Event records a successful task mutation.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	TaskID    int64     `json:"task_id"`
	Title     string    `json:"title,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler processes a published event.
type Handler func(ctx context.Context, ev *Event) error

// Bus delivers task events to subscribers. Delivery is synchronous: Publish
// returns after every handler has run.
type Bus interface {
	// Publish delivers ev to all subscribers and records it in the history.
	Publish(ctx context.Context, ev *Event) error

	// Subscribe registers a handler. Returns an unsubscribe function.
	Subscribe(handler Handler) (unsubscribe func())

	// History returns up to limit of the most recent events, oldest first.
	// A limit of zero returns the whole history.
	History(limit int) []*Event
}
