package controller

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/GoCodeAlone/todo/task"
)

// Listing is the result of ListTasks.
type Listing struct {
	Tasks []task.Task
	Count int
}

// Row is a task rendered as display strings.
type Row struct {
	ID        int64
	Title     string
	Status    string
	CreatedAt string
	UpdatedAt string
}

// Rows renders every task for display.
func (l *Listing) Rows() []Row {
	title := cases.Title(language.English)
	rows := make([]Row, 0, len(l.Tasks))
	for _, t := range l.Tasks {
		rows = append(rows, Row{
			ID:        t.ID,
			Title:     t.Title,
			Status:    title.String(t.Status.Name()),
			CreatedAt: displayTime(t.CreatedAt),
			UpdatedAt: displayTime(t.UpdatedAt),
		})
	}
	return rows
}

func displayTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return task.FormatTimestamp(t)
}
