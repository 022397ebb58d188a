package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go-file-duplicates/internal/usecases"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type fixture struct {
	root string
	db   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "tree")
	files := map[string]string{
		"a.txt":     "same text content",
		"b.txt":     "same text content",
		"sub/c.txt": "same text content",
		"d.bin":     "other",
		"e.bin":     "other",
		"f.dat":     "unique file",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return fixture{root: root, db: filepath.Join(dir, "deduper.db")}
}

func (f fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	argv := append([]string{"deduper", "--db", f.db, "--log-level", "error"}, args...)
	err := newApp(&stdout, &stderr).RunContext(context.Background(), argv)
	return stdout.String(), err
}

func (f fixture) path(name string) string {
	return filepath.Join(f.root, name)
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestScanCommand(t *testing.T) {
	f := newFixture(t)

	t.Run("text", func(t *testing.T) {
		out, err := f.run(t, "scan", f.root)
		require.NoError(t, err)
		assert.Contains(t, out, "group 0: 3 files")
		assert.Contains(t, out, "group 1: 2 files")
		assert.Contains(t, out, f.path("sub/c.txt"))
		assert.NotContains(t, out, f.path("f.dat"))
		assert.Contains(t, out, "files scanned:    6")
		assert.Contains(t, out, "2 group(s)")
	})

	t.Run("json", func(t *testing.T) {
		out, err := f.run(t, "scan", "--json", f.root)
		require.NoError(t, err)

		var response struct {
			Persisted bool `json:"persisted"`
			Scan      struct {
				Root        string `json:"root"`
				TotalGroups int    `json:"totalGroups"`
			} `json:"scan"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &response))
		assert.True(t, response.Persisted)
		assert.Equal(t, f.root, response.Scan.Root)
		assert.Equal(t, 2, response.Scan.TotalGroups)
	})

	t.Run("top level only", func(t *testing.T) {
		out, err := f.run(t, "--no-recursive", "scan", f.root)
		require.NoError(t, err)
		assert.Contains(t, out, "group 0: 2 files")
		assert.NotContains(t, out, f.path("sub/c.txt"))
		assert.Contains(t, out, "files scanned:    5")
	})

	t.Run("followed link to a listed file", func(t *testing.T) {
		link := f.path("link.txt")
		if err := os.Symlink(f.path("a.txt"), link); err != nil {
			t.Skipf("symlinks not supported: %v", err)
		}
		t.Cleanup(func() { _ = os.Remove(link) })

		out, err := f.run(t, "--follow-symlinks", "scan", f.root)
		require.NoError(t, err)
		assert.Contains(t, out, "group 0: 3 files")
		assert.NotContains(t, out, link)
	})

	t.Run("missing root argument", func(t *testing.T) {
		_, err := f.run(t, "scan")
		assert.Error(t, err)
	})

	t.Run("invalid prefix", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := newApp(&stdout, &stderr).RunContext(context.Background(), []string{
			"deduper", "--no-db", "--prefix-bytes", "0", "scan", f.root,
		})
		assert.ErrorIs(t, err, usecases.ErrInvalidOptions)
	})
}

func TestDeleteCommand(t *testing.T) {
	t.Run("dry run", func(t *testing.T) {
		f := newFixture(t)
		out, err := f.run(t, "delete", "--dry-run", f.root)
		require.NoError(t, err)
		assert.Contains(t, out, "would delete "+f.path("b.txt"))
		assert.Contains(t, out, "dry run: 3 file(s) would be deleted")
		assert.True(t, exists(t, f.path("b.txt")))
		assert.True(t, exists(t, f.path("e.bin")))
	})

	t.Run("keep last of one group", func(t *testing.T) {
		f := newFixture(t)
		out, err := f.run(t, "delete", "--keep", "last", "--group", "0", f.root)
		require.NoError(t, err)
		assert.Contains(t, out, "keeping "+f.path("sub/c.txt"))
		assert.Contains(t, out, "2 file(s) deleted")

		assert.False(t, exists(t, f.path("a.txt")))
		assert.False(t, exists(t, f.path("b.txt")))
		assert.True(t, exists(t, f.path("sub/c.txt")))
		assert.True(t, exists(t, f.path("d.bin")))
		assert.True(t, exists(t, f.path("e.bin")))
	})

	t.Run("without persistence", func(t *testing.T) {
		f := newFixture(t)
		var stdout, stderr bytes.Buffer
		err := newApp(&stdout, &stderr).RunContext(context.Background(), []string{
			"deduper", "--no-db", "--log-level", "error", "delete", "--keep", "first", f.root,
		})
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "3 file(s) deleted")
		assert.True(t, exists(t, f.path("a.txt")))
		assert.True(t, exists(t, f.path("d.bin")))
		assert.False(t, exists(t, f.path("e.bin")))
		assert.NoFileExists(t, f.db)
	})

	t.Run("invalid rule", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.run(t, "delete", "--keep", "largest", f.root)
		assert.Error(t, err)
		assert.True(t, exists(t, f.path("b.txt")))
	})

	t.Run("repeated group", func(t *testing.T) {
		f := newFixture(t)
		out, err := f.run(t, "delete", "--group", "1", "--group", "1", f.root)
		require.NoError(t, err)
		assert.Contains(t, out, "1 file(s) deleted")
		assert.NotContains(t, out, "failed")
		assert.True(t, exists(t, f.path("d.bin")))
		assert.False(t, exists(t, f.path("e.bin")))
	})

	t.Run("unknown group", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.run(t, "delete", "--group", "7", f.root)
		assert.ErrorIs(t, err, usecases.ErrGroupNotFound)
	})
}

func TestStatsAndHistoryCommands(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "stats", f.root)
	assert.ErrorIs(t, err, errNoStoredScan)

	_, err = f.run(t, "scan", f.root)
	require.NoError(t, err)

	out, err := f.run(t, "stats", f.root)
	require.NoError(t, err)
	assert.Contains(t, out, "of "+f.root)
	assert.Contains(t, out, "duplicate files:  5")

	out, err = f.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, f.root)
	assert.Contains(t, out, "2 group(s)")

	_, err = f.run(t, "history", "--clear")
	require.NoError(t, err)

	out, err = f.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "no stored scans")

	_, err = f.run(t, "history", "--forget", "not-a-uuid")
	assert.Error(t, err)
}
