package services

import (
	"context"
	"errors"
	"go-file-duplicates/internal/domain/entities"
	"io"
	"os"
)

// ErrInvalidRoot is returned by ListFiles when the scan root is missing or not a directory
var ErrInvalidRoot = errors.New("invalid scan root")

// ListOptions controls which files a storage provider yields
type ListOptions struct {
	// Recursive descends into subdirectories; otherwise only files directly under root are listed
	Recursive bool
	// FollowSymlinks records a symlink whose target is a regular file under the link path.
	// A link is dropped when its target is already listed under another path.
	// Symlinked directories are never descended.
	FollowSymlinks bool
	// MinFileSize excludes files smaller than this many bytes
	MinFileSize int64
}

// StorageProvider abstracts the filesystem the engine scans and deletes from
type StorageProvider interface {
	// ListFiles walks root and returns one record per regular file, sorted by path.
	// Unreadable entries are returned as traversal warnings; only an unusable root is an error.
	ListFiles(ctx context.Context, root string, opts ListOptions) ([]*entities.FileRecord, []*entities.ScanWarning, error)

	// OpenFile opens a file for reading
	OpenFile(ctx context.Context, path string) (io.ReadCloser, error)

	// StatFile describes path without following symlinks
	StatFile(ctx context.Context, path string) (os.FileInfo, error)

	// DeleteFile removes a single file
	DeleteFile(ctx context.Context, path string) error

	GetProviderName() string
}
