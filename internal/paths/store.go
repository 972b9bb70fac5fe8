// Package paths provides path resolution utilities.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// StoreDirName is the per-project directory holding config and rows.db.
const StoreDirName = ".tabula"

// StoreFileName is the snapshot database file name.
const StoreFileName = "rows.db"

// ResolveStorePath resolves the snapshot database path from user input.
// It accepts a database file, a .tabula directory or a project directory,
// and follows redirect files so git worktrees can share one store.
//
// Input normalization:
//   - "" -> "./.tabula/rows.db"
//   - "/path/to/project" -> "/path/to/project/.tabula/rows.db"
//   - "/path/to/project/.tabula" -> "/path/to/project/.tabula/rows.db"
//   - "/path/to/other.db" -> "/path/to/other.db"
//
// A .tabula/redirect file containing a relative or absolute directory
// replaces the .tabula directory it sits in.
func ResolveStorePath(path string) string {
	if path == "" {
		path = "."
	}
	path = filepath.Clean(path)

	if filepath.Ext(path) == ".db" {
		return path
	}

	// An existing regular file is used as is, whatever its extension
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}

	dir := path
	if filepath.Base(path) != StoreDirName {
		dir = filepath.Join(path, StoreDirName)
	}
	return filepath.Join(followRedirect(dir), StoreFileName)
}

// followRedirect checks for a redirect file and follows it if present.
func followRedirect(storeDir string) string {
	content, err := os.ReadFile(filepath.Join(storeDir, "redirect")) //nolint:gosec // redirect path is within the store dir
	if err != nil {
		return storeDir
	}

	target := strings.TrimSpace(string(content))
	if target == "" {
		return storeDir
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(storeDir, target))
}
