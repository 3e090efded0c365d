package models

import "fmt"

// TaskErrorKind classifies a per-symbol task failure.
type TaskErrorKind string

const (
	TaskErrorValidation  TaskErrorKind = "validation"
	TaskErrorFetch       TaskErrorKind = "fetch"
	TaskErrorEmptyData   TaskErrorKind = "empty_data"
	TaskErrorTransform   TaskErrorKind = "transform"
	TaskErrorPersistence TaskErrorKind = "persistence"
)

// TaskError is the tagged failure outcome of one fetch+transform task.
// Failures are always scoped to a single symbol; they never abort sibling
// tasks or the run.
type TaskError struct {
	Kind    TaskErrorKind
	Symbol  string
	Message string
	Err     error
}

func (e *TaskError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error for %s: %s: %v", e.Kind, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error for %s: %s", e.Kind, e.Symbol, e.Message)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Detail returns the failure description without the symbol, for use in
// reports already keyed by symbol. The kind stays in front so a fetch
// failure reads differently from an empty result.
func (e *TaskError) Detail() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewTaskError builds a task error for a symbol.
func NewTaskError(kind TaskErrorKind, symbol, message string, err error) *TaskError {
	return &TaskError{Kind: kind, Symbol: symbol, Message: message, Err: err}
}
