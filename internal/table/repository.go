package table

import (
	"context"
	"time"
)

// Snapshot is a saved copy of the table contents.
type Snapshot struct {
	Rows    []Row
	SavedAt time.Time
}

// Repository persists table snapshots. Only rows are stored; undo history
// always starts empty after a load.
type Repository interface {
	Save(ctx context.Context, rows []Row) error
	Load(ctx context.Context) (Snapshot, error)
	Clear(ctx context.Context) error
}
