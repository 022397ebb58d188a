package entities

import (
	"fmt"
	"slices"
	"strings"
)

// DuplicateGroup represents a set of files proven byte-identical by content hash.
// Members are ordered by path so repeated scans of an unchanged tree produce identical groups.
type DuplicateGroup struct {
	ID    int           `json:"id,omitempty"`
	Hash  string        `json:"hash"`
	Size  int64         `json:"size"`
	Files []*FileRecord `json:"files"`
}

// NewDuplicateGroup creates a duplicate group from at least two records of equal size.
// The input slice is copied and sorted by path.
func NewDuplicateGroup(hash string, files []*FileRecord) (*DuplicateGroup, error) {
	if len(files) < 2 {
		return nil, fmt.Errorf("%w: %d member(s), need at least 2", ErrInvalidGroup, len(files))
	}

	size := files[0].Size
	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		if file.Size != size {
			return nil, fmt.Errorf("%w: %s has size %d, group size is %d", ErrInvalidGroup, file.Path, file.Size, size)
		}
		if _, exists := seen[file.Path]; exists {
			return nil, fmt.Errorf("%w: %s appears more than once", ErrInvalidGroup, file.Path)
		}
		seen[file.Path] = struct{}{}
	}

	members := slices.Clone(files)
	slices.SortFunc(members, func(a, b *FileRecord) int {
		return strings.Compare(a.Path, b.Path)
	})

	return &DuplicateGroup{
		Hash:  hash,
		Size:  size,
		Files: members,
	}, nil
}

// Count returns the number of members
func (dg *DuplicateGroup) Count() int {
	return len(dg.Files)
}

// GetTotalSize returns the bytes occupied by all members
func (dg *DuplicateGroup) GetTotalSize() int64 {
	return dg.Size * int64(len(dg.Files))
}

// GetWastedSpace returns the amount of space wasted by duplicates (total size minus one copy)
func (dg *DuplicateGroup) GetWastedSpace() int64 {
	if len(dg.Files) <= 1 {
		return 0
	}
	return dg.Size * int64(len(dg.Files)-1)
}

// IsValid returns true if the group has more than one file (actual duplicates)
func (dg *DuplicateGroup) IsValid() bool {
	return len(dg.Files) > 1
}

// GetFile returns the member at the given position
func (dg *DuplicateGroup) GetFile(index int) (*FileRecord, error) {
	if index < 0 || index >= len(dg.Files) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrRetentionIndex, index, len(dg.Files))
	}
	return dg.Files[index], nil
}

// IndexOf returns the position of path in the group, or -1
func (dg *DuplicateGroup) IndexOf(path string) int {
	for i, file := range dg.Files {
		if file.Path == path {
			return i
		}
	}
	return -1
}

// Paths returns member paths in group order
func (dg *DuplicateGroup) Paths() []string {
	paths := make([]string, len(dg.Files))
	for i, file := range dg.Files {
		paths[i] = file.Path
	}
	return paths
}

// GetOldestIndex returns the index of the member with the earliest modification time.
// Ties resolve to the lowest index.
func (dg *DuplicateGroup) GetOldestIndex() int {
	if len(dg.Files) == 0 {
		return -1
	}

	oldest := 0
	for i, file := range dg.Files[1:] {
		if file.ModifiedTime.Before(dg.Files[oldest].ModifiedTime) {
			oldest = i + 1
		}
	}
	return oldest
}

// GetNewestIndex returns the index of the member with the latest modification time.
// Ties resolve to the lowest index.
func (dg *DuplicateGroup) GetNewestIndex() int {
	if len(dg.Files) == 0 {
		return -1
	}

	newest := 0
	for i, file := range dg.Files[1:] {
		if file.ModifiedTime.After(dg.Files[newest].ModifiedTime) {
			newest = i + 1
		}
	}
	return newest
}

// GetFilesExcept returns all members except the one at the given index
func (dg *DuplicateGroup) GetFilesExcept(index int) []*FileRecord {
	result := make([]*FileRecord, 0, len(dg.Files))
	for i, file := range dg.Files {
		if i != index {
			result = append(result, file)
		}
	}
	return result
}
