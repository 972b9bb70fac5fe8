package history

import (
	"fmt"

	"github.com/zjrosen/tabula/internal/table"
)

// isNil reports whether cmd is nil or a nil command pointer.
func isNil(cmd Command) bool {
	switch c := cmd.(type) {
	case nil:
		return true
	case *Insert:
		return c == nil
	case *Delete:
		return c == nil
	}
	return false
}

func execute(cmd Command, t *table.Table) error {
	switch c := cmd.(type) {
	case *Insert:
		return c.execute(t)
	case *Delete:
		return c.execute(t)
	}
	panic(fmt.Sprintf("history: unknown command type %T", cmd))
}

func undo(cmd Command, t *table.Table, policy Policy) error {
	switch c := cmd.(type) {
	case *Insert:
		return c.undo(t, policy)
	case *Delete:
		return c.undo(t, policy)
	}
	panic(fmt.Sprintf("history: unknown command type %T", cmd))
}

func redo(cmd Command, t *table.Table, policy Policy) error {
	switch c := cmd.(type) {
	case *Insert:
		return c.redo(t, policy)
	case *Delete:
		return c.redo(t, policy)
	}
	panic(fmt.Sprintf("history: unknown command type %T", cmd))
}
