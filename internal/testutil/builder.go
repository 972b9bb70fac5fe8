// Package testutil builds tables, managers and snapshot stores for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tabula/internal/history"
	"github.com/zjrosen/tabula/internal/infrastructure/sqlite"
	"github.com/zjrosen/tabula/internal/table"
)

// Builder accumulates rows and manager options.
type Builder struct {
	t      *testing.T
	rows   []table.Row
	prefix string
	opts   []history.Option
}

// NewBuilder creates a builder with the default content prefix.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t, prefix: history.DefaultContentPrefix}
}

// WithPrefix sets the content prefix for rows and inserts.
func (b *Builder) WithPrefix(prefix string) *Builder {
	b.prefix = prefix
	return b
}

// WithRows appends rows with the given ids.
func (b *Builder) WithRows(ids ...int) *Builder {
	for _, id := range ids {
		b.rows = append(b.rows, table.NewRow(id, b.prefix))
	}
	return b
}

// WithPolicy sets the manager's divergence policy.
func (b *Builder) WithPolicy(p history.Policy) *Builder {
	b.opts = append(b.opts, history.WithPolicy(p))
	return b
}

// WithOptions adds raw manager options.
func (b *Builder) WithOptions(opts ...history.Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// Rows returns a copy of the accumulated rows.
func (b *Builder) Rows() []table.Row {
	return append([]table.Row(nil), b.rows...)
}

// Table returns a table holding the rows.
func (b *Builder) Table() *table.Table {
	return table.New(b.Rows()...)
}

// Manager returns a manager over the rows. Insert ids continue after the
// largest row id.
func (b *Builder) Manager() *history.Manager {
	ids := table.NewSequenceIDs(1)
	ids.Skip(b.rows)
	opts := append([]history.Option{history.WithContentPrefix(b.prefix)}, b.opts...)
	return history.NewManager(b.Table(), ids, opts...)
}

// Store opens a snapshot store in a temp dir and saves the rows into it
// when there are any. The store is closed when the test completes.
func (b *Builder) Store() table.Repository {
	b.t.Helper()
	db := NewTestDB(b.t)
	repo := db.RowRepository()
	if len(b.rows) > 0 {
		require.NoError(b.t, repo.Save(context.Background(), b.Rows()))
	}
	return repo
}

// NewTestDB opens an empty snapshot database in a temp dir.
func NewTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "rows.db"))
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() { _ = db.Close() })
	return db
}
