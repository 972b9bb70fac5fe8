package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/tabula/internal/log"
	"github.com/zjrosen/tabula/internal/table"
)

// Kind identifies a command variant.
type Kind string

const (
	KindInsert Kind = "insert"
	KindDelete Kind = "delete"
)

func (k Kind) String() string {
	return string(k)
}

// Command is a reversible mutation of a table. The only implementations are
// *Insert and *Delete.
type Command interface {
	// ID returns a unique identifier used for logging and tracing.
	ID() string
	// Kind returns the command variant.
	Kind() Kind
	// CreatedAt returns when the command was created.
	CreatedAt() time.Time
	// Describe returns a short human-readable summary.
	Describe() string

	sealed()
}

// base holds the fields shared by every command.
type base struct {
	id        string
	createdAt time.Time
	performed bool
}

func newBase() base {
	return base{
		id:        uuid.New().String(),
		createdAt: time.Now(),
	}
}

func (b *base) ID() string           { return b.id }
func (b *base) CreatedAt() time.Time { return b.createdAt }
func (b *base) sealed()              {}

// Insert appends a generated row.
type Insert struct {
	base
	ids    table.IDSource
	prefix string

	row   table.Row
	index int
}

// NewInsert creates an Insert that draws its row id from ids and derives
// content with prefix.
func NewInsert(ids table.IDSource, prefix string) *Insert {
	return &Insert{
		base:   newBase(),
		ids:    ids,
		prefix: prefix,
		index:  -1,
	}
}

// Kind implements Command.
func (c *Insert) Kind() Kind { return KindInsert }

// Row returns the row generated at execute time.
func (c *Insert) Row() table.Row { return c.row }

// Index returns the index the row was inserted at, or -1 before execution.
func (c *Insert) Index() int { return c.index }

// Describe implements Command.
func (c *Insert) Describe() string {
	if !c.performed {
		return "insert (pending)"
	}
	return fmt.Sprintf("insert %s at %d", c.row, c.index)
}

func (c *Insert) execute(t *table.Table) error {
	if c.performed {
		return ErrAlreadyPerformed
	}
	if c.ids == nil {
		return fmt.Errorf("insert: no id source")
	}
	c.row = table.NewRow(c.ids.NextID(), c.prefix)
	c.index = t.Append(c.row)
	c.performed = true
	return nil
}

func (c *Insert) undo(t *table.Table, policy Policy) error {
	if policy == PolicyLenient {
		if c.index >= t.Len() {
			log.Warn(log.CatHistory, "insert undo skipped, table shrank", "command", c.id, "index", c.index, "rows", t.Len())
			return nil
		}
		_, err := t.RemoveAt(c.index)
		return err
	}

	current, err := t.RowAt(c.index)
	if err != nil {
		return c.diverged("undo", "row no longer exists")
	}
	if current != c.row {
		return c.diverged("undo", fmt.Sprintf("expected %q, found %q", c.row, current))
	}
	_, err = t.RemoveAt(c.index)
	return err
}

func (c *Insert) redo(t *table.Table, policy Policy) error {
	if policy == PolicyLenient {
		c.index = t.Append(c.row)
		return nil
	}

	if c.index > t.Len() {
		return c.diverged("redo", fmt.Sprintf("table has only %d rows", t.Len()))
	}
	return t.InsertAt(c.index, c.row)
}

func (c *Insert) diverged(op, reason string) error {
	return &DivergedError{CommandID: c.id, Kind: KindInsert, Op: op, Index: c.index, Reason: reason}
}

// Delete removes the row at an index chosen by the caller.
type Delete struct {
	base
	index int
	row   table.Row
}

// NewDelete creates a Delete for the row at index. A negative index means
// nothing is selected; executing it fails with ErrInvalidSelection.
func NewDelete(index int) *Delete {
	return &Delete{
		base:  newBase(),
		index: index,
	}
}

// Kind implements Command.
func (c *Delete) Kind() Kind { return KindDelete }

// Index returns the targeted index.
func (c *Delete) Index() int { return c.index }

// Row returns the row captured at execute time.
func (c *Delete) Row() table.Row { return c.row }

// Describe implements Command.
func (c *Delete) Describe() string {
	if !c.performed {
		return fmt.Sprintf("delete row %d (pending)", c.index)
	}
	return fmt.Sprintf("delete %s at %d", c.row, c.index)
}

func (c *Delete) execute(t *table.Table) error {
	if c.performed {
		return ErrAlreadyPerformed
	}
	if c.index < 0 || c.index >= t.Len() {
		return fmt.Errorf("%w: index %d, table has %d rows", ErrInvalidSelection, c.index, t.Len())
	}
	row, err := t.RemoveAt(c.index)
	if err != nil {
		return err
	}
	c.row = row
	c.performed = true
	return nil
}

func (c *Delete) undo(t *table.Table, policy Policy) error {
	if policy == PolicyStrict && c.index > t.Len() {
		return c.diverged("undo", fmt.Sprintf("table has only %d rows", t.Len()))
	}
	return t.InsertAt(c.index, c.row)
}

func (c *Delete) redo(t *table.Table, policy Policy) error {
	current, err := t.RowAt(c.index)
	if policy == PolicyLenient {
		if err != nil {
			return err
		}
		c.row = current
		_, err = t.RemoveAt(c.index)
		return err
	}

	if err != nil {
		return c.diverged("redo", "row no longer exists")
	}
	if current != c.row {
		return c.diverged("redo", fmt.Sprintf("expected %q, found %q", c.row, current))
	}
	_, err = t.RemoveAt(c.index)
	return err
}

func (c *Delete) diverged(op, reason string) error {
	return &DivergedError{CommandID: c.id, Kind: KindDelete, Op: op, Index: c.index, Reason: reason}
}
