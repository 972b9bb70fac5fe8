package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveStorePath_Empty(t *testing.T) {
	require.Equal(t, filepath.Join(".tabula", "rows.db"), ResolveStorePath(""))
}

func TestResolveStorePath_ProjectDir(t *testing.T) {
	dir := t.TempDir()
	require.Equal(t, filepath.Join(dir, ".tabula", "rows.db"), ResolveStorePath(dir))
}

func TestResolveStorePath_StoreDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".tabula")
	require.Equal(t, filepath.Join(dir, "rows.db"), ResolveStorePath(dir))
}

func TestResolveStorePath_DatabaseFile(t *testing.T) {
	require.Equal(t, filepath.Join("data", "other.db"), ResolveStorePath("data/./other.db"))

	existing := filepath.Join(t.TempDir(), "snapshot.sqlite")
	require.NoError(t, os.WriteFile(existing, nil, 0o600))
	require.Equal(t, existing, ResolveStorePath(existing))
}

func TestResolveStorePath_FollowsRelativeRedirect(t *testing.T) {
	root := t.TempDir()
	storeDir := filepath.Join(root, "worktree", ".tabula")
	require.NoError(t, os.MkdirAll(storeDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "redirect"), []byte("../../main/.tabula\n"), 0o600))

	got := ResolveStorePath(filepath.Join(root, "worktree"))
	require.Equal(t, filepath.Join(root, "main", ".tabula", "rows.db"), got)
}

func TestResolveStorePath_FollowsAbsoluteRedirect(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "shared")
	storeDir := filepath.Join(root, "project", ".tabula")
	require.NoError(t, os.MkdirAll(storeDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "redirect"), []byte(target), 0o600))

	require.Equal(t, filepath.Join(target, "rows.db"), ResolveStorePath(storeDir))
}

func TestResolveStorePath_EmptyRedirectIgnored(t *testing.T) {
	storeDir := filepath.Join(t.TempDir(), ".tabula")
	require.NoError(t, os.MkdirAll(storeDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "redirect"), []byte("  \n"), 0o600))

	require.Equal(t, filepath.Join(storeDir, "rows.db"), ResolveStorePath(storeDir))
}
