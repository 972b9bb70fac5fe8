package history

import (
	"errors"
	"fmt"
)

var (
	// ErrNothingToUndo is returned by Undo when the past stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned by Redo when the future stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
	// ErrInvalidSelection is returned when a Delete targets no row.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrDiverged is returned under PolicyStrict when the table no longer
	// matches the state a command recorded.
	ErrDiverged = errors.New("table diverged from history")
	// ErrAlreadyPerformed is returned when a command instance is performed twice.
	ErrAlreadyPerformed = errors.New("command already performed")
	// ErrNilCommand is returned when Perform is handed a nil command.
	ErrNilCommand = errors.New("nil command")
)

// DivergedError describes why a command refused to undo or redo.
type DivergedError struct {
	CommandID string
	Kind      Kind
	Op        string // "undo" or "redo"
	Index     int
	Reason    string
}

func (e *DivergedError) Error() string {
	return fmt.Sprintf("%s %s at index %d: %s: %v", e.Op, e.Kind, e.Index, e.Reason, ErrDiverged)
}

func (e *DivergedError) Unwrap() error {
	return ErrDiverged
}
