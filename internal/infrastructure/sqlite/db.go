// Package sqlite stores table snapshots in a local SQLite database.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/tabula/internal/log"
	"github.com/zjrosen/tabula/internal/table"
)

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

// schema creates the snapshot tables. position keeps row order; ids are not
// unique so they cannot be the key.
const schema = `
CREATE TABLE IF NOT EXISTS rows (
	position INTEGER PRIMARY KEY,
	row_id   INTEGER NOT NULL,
	content  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_meta (
	id        INTEGER PRIMARY KEY CHECK (id = 1),
	row_count INTEGER NOT NULL,
	saved_at  INTEGER NOT NULL
);
`

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens (creating if needed) the snapshot database at path.
// WAL mode, foreign keys and a 5s busy timeout are set per connection.
// An existing file is copied to <path>.bak before its schema is upgraded.
func NewDB(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	_, statErr := os.Stat(path)
	existed := statErr == nil

	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(existed); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Debug(log.CatDB, "Opened snapshot database", "path", path)
	return db, nil
}

// migrate brings the schema to schemaVersion.
func (db *DB) migrate(existed bool) error {
	var version int
	if err := db.conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	if existed {
		if err := backup(db.path); err != nil {
			return fmt.Errorf("backing up database: %w", err)
		}
	}

	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if _, err := db.conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}
	log.Info(log.CatDB, "Database schema upgraded", "from", version, "to", schemaVersion)
	return nil
}

// backup copies the database file to path+".bak".
func backup(path string) error {
	src, err := os.Open(path) //nolint:gosec // G304: path is the configured store path
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(path+".bak", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) //nolint:gosec // G304: derived from store path
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Connection returns the underlying *sql.DB.
func (db *DB) Connection() *sql.DB {
	return db.conn
}

// RowRepository returns the snapshot repository backed by this database.
func (db *DB) RowRepository() table.Repository {
	return newRowRepository(db.conn)
}

// IsNotFound reports whether err means no snapshot has been saved yet.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoSnapshot)
}
