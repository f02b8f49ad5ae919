// Package controller mediates between a front-end and the task store. It
// validates user input before it reaches storage and shapes results for
// display.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/GoCodeAlone/todo/events"
	"github.com/GoCodeAlone/todo/task"
)

// ErrNotConfirmed is returned by DeleteTask when the front-end did not
// confirm the deletion.
var ErrNotConfirmed = errors.New("delete not confirmed")

// Options toggles optional controller behaviour.
type Options struct {
	// AllowTimestampEdit lets EditTask overwrite created_at/updated_at.
	AllowTimestampEdit bool
}

// Fields holds the raw user input for EditTask. Empty optional fields are
// left untouched.
type Fields struct {
	Title     string
	Status    string
	CreatedAt string
	UpdatedAt string
}

// Controller runs the task operations a front-end can trigger.
type Controller struct {
	store  task.Store
	bus    events.Bus
	logger *slog.Logger
	opts   Options
}

// New returns a Controller over store. bus may be nil; logger defaults to
// slog.Default().
func New(store task.Store, bus events.Bus, logger *slog.Logger, opts Options) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{store: store, bus: bus, logger: logger, opts: opts}
}

// AddTask creates a task from rawTitle and returns its ID.
func (c *Controller) AddTask(rawTitle string) (int64, error) {
	title := strings.TrimSpace(rawTitle)
	if title == "" {
		return 0, &task.ValidationError{Field: "title", Reason: "title required"}
	}
	id, err := c.store.Create(title)
	if err != nil {
		c.logger.Error("add task", slog.Any("err", err))
		return 0, err
	}
	c.logger.Info("task added", slog.Int64("id", id))
	c.publish(events.TypeCreated, id, title)
	return id, nil
}

// ListTasks returns every task in ascending ID order.
func (c *Controller) ListTasks() (*Listing, error) {
	tasks, err := c.store.List()
	if err != nil {
		c.logger.Error("list tasks", slog.Any("err", err))
		return nil, err
	}
	return &Listing{Tasks: tasks, Count: len(tasks)}, nil
}

// Records returns the stored rows without interpretation, for inspecting
// the database file.
func (c *Controller) Records() ([]task.Record, error) {
	records, err := c.store.Records()
	if err != nil {
		c.logger.Error("read rows", slog.Any("err", err))
		return nil, err
	}
	return records, nil
}

// CompleteTask marks the selected task completed. id <= 0 means nothing
// is selected.
func (c *Controller) CompleteTask(id int64) error {
	if id <= 0 {
		return &task.SelectionError{Op: "complete task"}
	}
	if err := c.store.MarkCompleted(id); err != nil {
		c.logger.Error("complete task", slog.Int64("id", id), slog.Any("err", err))
		return err
	}
	c.logger.Info("task completed", slog.Int64("id", id))
	c.publish(events.TypeCompleted, id, "")
	return nil
}

// EditTask validates f and applies it to the selected task.
func (c *Controller) EditTask(id int64, f Fields) error {
	if id <= 0 {
		return &task.SelectionError{Op: "edit task"}
	}
	edit, err := c.buildEdit(f)
	if err != nil {
		return err
	}
	if err := c.store.Edit(id, edit); err != nil {
		c.logger.Error("edit task", slog.Int64("id", id), slog.Any("err", err))
		return err
	}
	c.logger.Info("task edited", slog.Int64("id", id))
	c.publish(events.TypeEdited, id, edit.Title)
	return nil
}

func (c *Controller) buildEdit(f Fields) (task.Edit, error) {
	edit := task.Edit{Title: strings.TrimSpace(f.Title)}
	if edit.Title == "" {
		return edit, &task.ValidationError{Field: "title", Reason: "title required"}
	}
	if strings.TrimSpace(f.Status) != "" {
		status, err := task.ParseStatus(f.Status)
		if err != nil {
			return edit, err
		}
		edit.Status = &status
	}

	var err error
	if edit.CreatedAt, err = c.timestampField("created_at", f.CreatedAt); err != nil {
		return edit, err
	}
	if edit.UpdatedAt, err = c.timestampField("updated_at", f.UpdatedAt); err != nil {
		return edit, err
	}
	return edit, nil
}

func (c *Controller) timestampField(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	if !c.opts.AllowTimestampEdit {
		return nil, &task.ValidationError{Field: field, Reason: field + " cannot be edited"}
	}
	ts, err := task.ParseTimestamp(raw)
	if err != nil {
		return nil, &task.ValidationError{Field: field, Reason: "invalid " + field + ": " + err.Error()}
	}
	return &ts, nil
}

// DeleteTask removes the selected task once the front-end has confirmed it.
func (c *Controller) DeleteTask(id int64, confirmed bool) error {
	if id <= 0 {
		return &task.SelectionError{Op: "delete task"}
	}
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := c.store.Delete(id); err != nil {
		c.logger.Error("delete task", slog.Int64("id", id), slog.Any("err", err))
		return err
	}
	c.logger.Info("task deleted", slog.Int64("id", id))
	c.publish(events.TypeDeleted, id, "")
	return nil
}

// publish notifies subscribers. The mutation has already been committed, so
// handler failures are only logged.
func (c *Controller) publish(typ events.Type, id int64, title string) {
	if c.bus == nil {
		return
	}
	ev := &events.Event{Type: typ, TaskID: id, Title: title}
	if err := c.bus.Publish(context.Background(), ev); err != nil {
		c.logger.Warn("publish task event", slog.String("type", string(typ)), slog.Any("err", err))
	}
}
