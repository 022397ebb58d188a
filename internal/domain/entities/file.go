package entities

import (
	"path/filepath"
	"strings"
	"time"
)

// FileRecord represents one regular file observed during a scan.
// Records are produced by the storage provider and never modified afterwards.
type FileRecord struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	ModifiedTime time.Time `json:"modifiedTime"`
}

// NewFileRecord creates a new FileRecord entity
func NewFileRecord(path string, size int64, modifiedTime time.Time) *FileRecord {
	return &FileRecord{
		Path:         path,
		Size:         size,
		ModifiedTime: modifiedTime,
	}
}

// GetName returns the base name of the file
func (f *FileRecord) GetName() string {
	return filepath.Base(f.Path)
}

// GetFileExtension returns the lower-cased extension including the dot, or "" when there is none
func (f *FileRecord) GetFileExtension() string {
	return strings.ToLower(filepath.Ext(f.GetName()))
}

// IsEmpty returns true for zero-byte files
func (f *FileRecord) IsEmpty() bool {
	return f.Size == 0
}

// GetSizeCategory returns the size category of the file
func (f *FileRecord) GetSizeCategory() string {
	const (
		mb = 1024 * 1024
		gb = mb * 1024
	)

	switch {
	case f.Size == 0:
		return "empty"
	case f.Size < mb:
		return "small"
	case f.Size < 100*mb:
		return "medium"
	case f.Size < gb:
		return "large"
	default:
		return "very_large"
	}
}

// IsLargeFile returns true if the file is considered large (>100MB)
func (f *FileRecord) IsLargeFile() bool {
	return f.Size > 100*1024*1024
}
