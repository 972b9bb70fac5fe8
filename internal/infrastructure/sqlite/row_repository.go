package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/tabula/internal/log"
	"github.com/zjrosen/tabula/internal/table"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot saved")

// rowRepository implements table.Repository using SQLite.
type rowRepository struct {
	db  *sql.DB
	now func() time.Time
}

// newRowRepository creates a new rowRepository instance.
func newRowRepository(db *sql.DB) *rowRepository {
	return &rowRepository{db: db, now: time.Now}
}

// Ensure rowRepository implements table.Repository.
var _ table.Repository = (*rowRepository)(nil)

// Save replaces the stored snapshot with rows in one transaction.
func (r *rowRepository) Save(ctx context.Context, rows []table.Row) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM rows`); err != nil {
		return fmt.Errorf("failed to clear rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rows (position, row_id, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range toRowModels(rows) {
		if _, err = stmt.ExecContext(ctx, m.Position, m.RowID, m.Content); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", m.Position, err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, row_count, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET row_count = excluded.row_count, saved_at = excluded.saved_at`,
		len(rows), r.now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("failed to update snapshot meta: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	log.Debug(log.CatDB, "Saved snapshot", "rows", len(rows))
	return nil
}

// Load returns the stored snapshot in row order.
// Returns ErrNoSnapshot if Save was never called.
func (r *rowRepository) Load(ctx context.Context) (table.Snapshot, error) {
	var count int
	var savedAt int64
	err := r.db.QueryRowContext(ctx, `SELECT row_count, saved_at FROM snapshot_meta WHERE id = 1`).Scan(&count, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return table.Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return table.Snapshot{}, fmt.Errorf("failed to read snapshot meta: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT position, row_id, content FROM rows ORDER BY position`)
	if err != nil {
		return table.Snapshot{}, fmt.Errorf("failed to query rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]table.Row, 0, count)
	for rows.Next() {
		var m RowModel
		if err := rows.Scan(&m.Position, &m.RowID, &m.Content); err != nil {
			return table.Snapshot{}, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, m.toDomain())
	}
	if err := rows.Err(); err != nil {
		return table.Snapshot{}, fmt.Errorf("failed to iterate rows: %w", err)
	}
	if len(result) != count {
		return table.Snapshot{}, fmt.Errorf("snapshot is inconsistent: meta says %d rows, found %d", count, len(result))
	}

	return table.Snapshot{Rows: result, SavedAt: time.UnixMilli(savedAt)}, nil
}

// Clear removes the stored snapshot.
func (r *rowRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rows; DELETE FROM snapshot_meta;`); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}
