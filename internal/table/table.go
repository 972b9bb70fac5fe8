// Package table provides the ordered row store that history commands mutate.
//
// A Table is a plain data container: rows are kept in insertion order with
// contiguous indices 0..Len()-1. It has no locking; the owner (normally a
// history.Manager) serialises access.
package table

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// ErrIndexOutOfRange is returned when an index falls outside the valid range
// for the requested operation.
var ErrIndexOutOfRange = errors.New("index out of range")

// IndexError describes a bound violation. It wraps ErrIndexOutOfRange.
type IndexError struct {
	Op    string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	if e.Op == "insert" {
		return fmt.Sprintf("table %s: index %d out of range [0, %d]", e.Op, e.Index, e.Len)
	}
	return fmt.Sprintf("table %s: index %d out of range [0, %d)", e.Op, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// Row is one record in the table.
type Row struct {
	ID      int
	Content string
}

// NewRow builds a row whose content is derived from its id ("<prefix> <id>").
func NewRow(id int, prefix string) Row {
	if prefix == "" {
		return Row{ID: id, Content: strconv.Itoa(id)}
	}
	return Row{ID: id, Content: prefix + " " + strconv.Itoa(id)}
}

// String renders the row as "id: content".
func (r Row) String() string {
	return strconv.Itoa(r.ID) + ": " + r.Content
}

// Table is the ordered row store.
type Table struct {
	rows []Row
}

// New creates a table holding a copy of rows.
func New(rows ...Row) *Table {
	return &Table{rows: slices.Clone(rows)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// RowAt returns the row at index.
func (t *Table) RowAt(index int) (Row, error) {
	if index < 0 || index >= len(t.rows) {
		return Row{}, &IndexError{Op: "row", Index: index, Len: len(t.rows)}
	}
	return t.rows[index], nil
}

// InsertAt inserts row at index, shifting later rows right.
// index may equal Len(), which appends.
func (t *Table) InsertAt(index int, row Row) error {
	if index < 0 || index > len(t.rows) {
		return &IndexError{Op: "insert", Index: index, Len: len(t.rows)}
	}
	t.rows = slices.Insert(t.rows, index, row)
	return nil
}

// Append adds row at the end and returns its index.
func (t *Table) Append(row Row) int {
	t.rows = append(t.rows, row)
	return len(t.rows) - 1
}

// RemoveAt removes and returns the row at index, shifting later rows left.
func (t *Table) RemoveAt(index int) (Row, error) {
	if index < 0 || index >= len(t.rows) {
		return Row{}, &IndexError{Op: "remove", Index: index, Len: len(t.rows)}
	}
	row := t.rows[index]
	t.rows = slices.Delete(t.rows, index, index+1)
	return row, nil
}

// Rows returns a copy of all rows in order.
func (t *Table) Rows() []Row {
	return slices.Clone(t.rows)
}

// Reset replaces the table contents with a copy of rows.
func (t *Table) Reset(rows ...Row) {
	t.rows = slices.Clone(rows)
}

// Equal reports whether the table holds exactly rows, in order.
func (t *Table) Equal(rows []Row) bool {
	return slices.Equal(t.rows, rows)
}
