package entities

import "errors"

var (
	ErrInvalidGroup           = errors.New("invalid duplicate group")
	ErrRetentionIndex         = errors.New("retention index out of range")
	ErrUnknownRetentionPolicy = errors.New("unknown retention policy")

	// Pre-deletion re-validation failures.
	ErrFileMissing         = errors.New("file no longer exists")
	ErrNotRegularFile      = errors.New("path is no longer a regular file")
	ErrSizeMismatch        = errors.New("file size changed since scan")
	ErrContentChanged      = errors.New("file content changed since scan")
	ErrRetainedUnavailable = errors.New("retained copy unavailable")
)
