package entities

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecords(size int64, paths ...string) []*FileRecord {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]*FileRecord, len(paths))
	for i, path := range paths {
		records[i] = NewFileRecord(path, size, base.Add(time.Duration(i)*time.Hour))
	}
	return records
}

func TestNewDuplicateGroup_SortsMembersByPath(t *testing.T) {
	group, err := NewDuplicateGroup("abc", newRecords(10, "/r/c", "/r/a", "/r/b"))
	require.NoError(t, err)

	assert.Equal(t, []string{"/r/a", "/r/b", "/r/c"}, group.Paths())
	assert.Equal(t, int64(10), group.Size)
	assert.Equal(t, 3, group.Count())
}

func TestNewDuplicateGroup_DoesNotReorderInput(t *testing.T) {
	input := newRecords(1, "/z", "/a")
	_, err := NewDuplicateGroup("h", input)
	require.NoError(t, err)
	assert.Equal(t, "/z", input[0].Path)
}

func TestNewDuplicateGroup_RejectsInvalidMembers(t *testing.T) {
	t.Run("single_member", func(t *testing.T) {
		_, err := NewDuplicateGroup("h", newRecords(10, "/a"))
		assert.True(t, errors.Is(err, ErrInvalidGroup))
	})

	t.Run("size_mismatch", func(t *testing.T) {
		records := newRecords(10, "/a", "/b")
		records[1] = NewFileRecord("/b", 11, time.Now())
		_, err := NewDuplicateGroup("h", records)
		assert.True(t, errors.Is(err, ErrInvalidGroup))
	})

	t.Run("repeated_path", func(t *testing.T) {
		_, err := NewDuplicateGroup("h", newRecords(10, "/a", "/a"))
		assert.True(t, errors.Is(err, ErrInvalidGroup))
	})
}

func TestDuplicateGroup_SizeQueries(t *testing.T) {
	tests := []struct {
		name   string
		size   int64
		count  int
		total  int64
		wasted int64
	}{
		{name: "pair", size: 10, count: 2, total: 20, wasted: 10},
		{name: "triple", size: 4096, count: 3, total: 12288, wasted: 8192},
		{name: "empty_files", size: 0, count: 5, total: 0, wasted: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := make([]string, tt.count)
			for i := range paths {
				paths[i] = string(rune('a' + i))
			}
			group, err := NewDuplicateGroup("h", newRecords(tt.size, paths...))
			require.NoError(t, err)

			assert.Equal(t, tt.total, group.GetTotalSize())
			assert.Equal(t, tt.wasted, group.GetWastedSpace())
			assert.Equal(t, group.GetTotalSize()-group.Size, group.GetWastedSpace())
		})
	}
}

func TestDuplicateGroup_OldestAndNewest(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	group, err := NewDuplicateGroup("h", []*FileRecord{
		NewFileRecord("/a", 1, base.Add(time.Hour)),
		NewFileRecord("/b", 1, base),
		NewFileRecord("/c", 1, base.Add(2*time.Hour)),
		NewFileRecord("/d", 1, base.Add(2*time.Hour)),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, group.GetOldestIndex())
	assert.Equal(t, 2, group.GetNewestIndex(), "ties resolve to the lowest index")
}

func TestDuplicateGroup_Lookup(t *testing.T) {
	group, err := NewDuplicateGroup("h", newRecords(3, "/x", "/y"))
	require.NoError(t, err)

	assert.Equal(t, 1, group.IndexOf("/y"))
	assert.Equal(t, -1, group.IndexOf("/missing"))

	file, err := group.GetFile(0)
	require.NoError(t, err)
	assert.Equal(t, "/x", file.Path)

	_, err = group.GetFile(2)
	assert.True(t, errors.Is(err, ErrRetentionIndex))

	rest := group.GetFilesExcept(0)
	require.Len(t, rest, 1)
	assert.Equal(t, "/y", rest[0].Path)
}

func TestFileRecord_GetFileExtension(t *testing.T) {
	assert.Equal(t, ".jpg", NewFileRecord("/p/IMG.JPG", 1, time.Now()).GetFileExtension())
	assert.Equal(t, "", NewFileRecord("/p/Makefile", 1, time.Now()).GetFileExtension())
	assert.Equal(t, ".gz", NewFileRecord("/p/a.tar.gz", 1, time.Now()).GetFileExtension())
}
