package task

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Schema is the tasks table layout. Existing database files written by
// earlier versions of the application use exactly this table.
const Schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL CHECK(status IN ('pendiente','completada')) DEFAULT 'pendiente',
	created_at TEXT,
	updated_at TEXT
);
`

// columnTypes lists the declared type every tasks column must have.
var columnTypes = map[string]string{
	"id":         "INTEGER",
	"title":      "TEXT",
	"status":     "TEXT",
	"created_at": "TEXT",
	"updated_at": "TEXT",
}

// SQLiteStore persists tasks in a SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithClock replaces the time source used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

// WithLogger sets the logger used to report unreadable stored values.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLiteStore) { s.logger = logger }
}

// NewSQLiteStore opens (or creates) the SQLite database at dbPath. The
// schema is not touched until Initialize is called. The caller is
// responsible for calling Close.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &StorageError{Op: "open " + dbPath, Err: err}
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open " + dbPath, Err: err}
	}
	s := &SQLiteStore{db: db, now: time.Now, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Initialize creates the tasks table if absent. It is safe to call on
// every startup.
func (s *SQLiteStore) Initialize() error {
	return s.InitializeScript(Schema)
}

// InitializeScript executes a schema script (which may hold several
// statements) and then verifies that the resulting tasks table is usable.
func (s *SQLiteStore) InitializeScript(script string) error {
	if _, err := s.db.Exec(script); err != nil {
		return &StorageError{Op: "create schema", Err: err}
	}
	return s.checkSchema()
}

func (s *SQLiteStore) checkSchema() error {
	rows, err := s.db.Query("PRAGMA table_info(tasks)")
	if err != nil {
		return &StorageError{Op: "inspect schema", Err: err}
	}
	defer rows.Close()

	found := make(map[string]string, len(columnTypes))
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return &StorageError{Op: "inspect schema", Err: err}
		}
		found[strings.ToLower(name)] = strings.ToUpper(typ)
	}
	if err := rows.Err(); err != nil {
		return &StorageError{Op: "inspect schema", Err: err}
	}

	if len(found) == 0 {
		return &SchemaError{Reason: "table tasks does not exist"}
	}
	for _, col := range []string{"id", "title", "status", "created_at", "updated_at"} {
		typ, ok := found[col]
		if !ok {
			return &SchemaError{Reason: fmt.Sprintf("missing column %s", col)}
		}
		if want := columnTypes[col]; typ != want {
			return &SchemaError{Reason: fmt.Sprintf("column %s has type %s, want %s", col, typ, want)}
		}
	}
	return nil
}

// timestamp returns the current time truncated to the stored precision.
func (s *SQLiteStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create persists a new pending task with the trimmed title and returns its ID.
func (s *SQLiteStore) Create(title string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, titleRequired()
	}
	now := FormatTimestamp(s.timestamp())
	res, err := s.db.Exec(
		`INSERT INTO tasks (title, status, created_at, updated_at) VALUES (?,?,?,?)`,
		title, string(StatusPending), now, now,
	)
	if err != nil {
		return 0, &StorageError{Op: "insert task", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &StorageError{Op: "insert task", Err: err}
	}
	return id, nil
}

const selectColumns = `SELECT id, title, status, created_at, updated_at FROM tasks`

// List returns every task ordered by ascending ID.
func (s *SQLiteStore) List() ([]Task, error) {
	rows, err := s.db.Query(selectColumns + ` ORDER BY id`)
	if err != nil {
		return nil, &StorageError{Op: "list tasks", Err: err}
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := s.scanTask(rows)
		if err != nil {
			return nil, &StorageError{Op: "list tasks", Err: err}
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list tasks", Err: err}
	}
	return tasks, nil
}

// MarkCompleted sets the task's status to completed and refreshes updated_at.
func (s *SQLiteStore) MarkCompleted(id int64) error {
	_, err := s.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(StatusCompleted), FormatTimestamp(s.timestamp()), id,
	)
	if err != nil {
		return &StorageError{Op: "complete task", Err: err}
	}
	return nil
}

// Edit replaces the title and any optional fields set in e. updated_at is
// refreshed unless e.UpdatedAt is given, in which case it is stored as is.
func (s *SQLiteStore) Edit(id int64, e Edit) error {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return titleRequired()
	}
	if e.Status != nil && !e.Status.Valid() {
		return &ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("invalid status %q: must be %s or %s", *e.Status, StatusPending, StatusCompleted),
		}
	}

	sets := []string{"title = ?"}
	args := []any{title}
	if e.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*e.Status))
	}
	if e.CreatedAt != nil {
		sets = append(sets, "created_at = ?")
		args = append(args, FormatTimestamp(*e.CreatedAt))
	}
	updatedAt := s.timestamp()
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, FormatTimestamp(updatedAt), id)

	_, err := s.db.Exec(`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return &StorageError{Op: "edit task", Err: err}
	}
	return nil
}

// Delete removes a task by ID.
func (s *SQLiteStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return &StorageError{Op: "delete task", Err: err}
	}
	return nil
}

// Records returns every row exactly as stored, ordered by ascending ID.
func (s *SQLiteStore) Records() ([]Record, error) {
	rows, err := s.db.Query(selectColumns + ` ORDER BY id`)
	if err != nil {
		return nil, &StorageError{Op: "read rows", Err: err}
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			r                    Record
			createdAt, updatedAt sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Status, &createdAt, &updatedAt); err != nil {
			return nil, &StorageError{Op: "read rows", Err: err}
		}
		r.CreatedAt = nullString(createdAt)
		r.UpdatedAt = nullString(updatedAt)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "read rows", Err: err}
	}
	return records, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// scanner abstracts sql.Row and sql.Rows for scanTask.
type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanTask(sc scanner) (*Task, error) {
	var t Task
	var status string
	var createdAt, updatedAt sql.NullString

	if err := sc.Scan(&t.ID, &t.Title, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Status = Status(status)
	t.CreatedAt = s.nullTimestamp(t.ID, "created_at", createdAt)
	t.UpdatedAt = s.nullTimestamp(t.ID, "updated_at", updatedAt)
	return &t, nil
}

// nullTimestamp parses a stored timestamp. NULL, empty and unparseable
// values read as the zero time; the row itself stays readable.
func (s *SQLiteStore) nullTimestamp(id int64, column string, ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	t, err := ParseTimestamp(ns.String)
	if err != nil {
		s.logger.Warn("unreadable timestamp",
			slog.Int64("id", id),
			slog.String("column", column),
			slog.String("value", ns.String),
		)
		return time.Time{}
	}
	return t
}
