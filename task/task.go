// Package task defines the to-do item model and its SQLite persistence.
package task

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a task. The values are the
// literals stored in the status column.
type Status string

const (
	StatusPending   Status = "pendiente"
	StatusCompleted Status = "completada"
)

// Valid reports whether s is one of the two stored status values.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Name returns the English name of the status ("pending" or "completed").
func (s Status) Name() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	}
	return string(s)
}

// ParseStatus accepts either the English name or the stored literal,
// case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", string(StatusPending):
		return StatusPending, nil
	case "completed", string(StatusCompleted):
		return StatusCompleted, nil
	}
	return "", &ValidationError{
		Field:  "status",
		Reason: fmt.Sprintf("invalid status %q: must be pending or completed", s),
	}
}

// Task is a single to-do item.
type Task struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record is a tasks row exactly as stored. NULL timestamps are nil.
type Record struct {
	ID        int64
	Title     string
	Status    string
	CreatedAt *string
	UpdatedAt *string
}

// Edit describes the fields replaced by Store.Edit. Title is always
// required. Nil pointers leave the column untouched, except UpdatedAt which
// is refreshed to the current time when nil.
type Edit struct {
	Title     string
	Status    *Status
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// Store persists and retrieves tasks.
type Store interface {
	// Initialize creates the tasks table if absent and verifies its layout.
	Initialize() error

	// Create persists a new pending task and returns its assigned ID.
	Create(title string) (int64, error)

	// List returns every task ordered by ascending ID. Stored timestamps
	// that cannot be parsed read as the zero time.
	List() ([]Task, error)

	// Records returns every row with its column values unparsed.
	Records() ([]Record, error)

	// MarkCompleted sets the task's status to completed. Unknown IDs are a no-op.
	MarkCompleted(id int64) error

	// Edit replaces the fields described by e. Unknown IDs are a no-op.
	Edit(id int64, e Edit) error

	// Delete removes a task by ID. Unknown IDs are a no-op.
	Delete(id int64) error
}

// Timestamps are written without a zone suffix; UTC is implied.
const (
	timestampLayout      = "2006-01-02T15:04:05"
	timestampLayoutMicro = "2006-01-02T15:04:05.000000"
)

// FormatTimestamp renders t in UTC as an ISO-8601 string without zone
// suffix. The microsecond part is only written when non-zero.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(timestampLayout)
	}
	return t.Format(timestampLayoutMicro)
}

var parseLayouts = []string{
	timestampLayout, // also accepts a fractional second
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone are
// taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: not ISO-8601", s)
}
