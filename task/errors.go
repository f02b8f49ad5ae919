package task

import "fmt"

// ValidationError reports input that failed a precondition before any
// storage mutation took place.
type ValidationError struct {
	Field  string // "title", "status", "created_at", "updated_at"
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// SelectionError reports a mutating operation invoked without a target task.
type SelectionError struct {
	Op string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("%s: no task selected", e.Op)
}

// StorageError wraps a failure of the backing database file. The operation
// did not take effect.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// SchemaError reports an existing tasks table whose layout is incompatible.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return "incompatible tasks table: " + e.Reason }

func titleRequired() *ValidationError {
	return &ValidationError{Field: "title", Reason: "title required"}
}
