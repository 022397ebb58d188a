package services

import (
	"context"
	"go-file-duplicates/internal/domain/entities"
	"io"
)

// HashMode selects how much of a file is hashed
type HashMode int

const (
	// HashPartial hashes the first PrefixBytes of each file with the partial algorithm
	HashPartial HashMode = iota
	// HashFull hashes the entire file with the full algorithm
	HashFull
)

func (m HashMode) String() string {
	if m == HashPartial {
		return "partial"
	}
	return "full"
}

// HashRequest describes a batch of files to hash on a bounded worker pool
type HashRequest struct {
	Files       []*entities.FileRecord
	Mode        HashMode
	PrefixBytes int64
	Workers     int
}

// HashResult is the outcome of hashing one file
type HashResult struct {
	File      *entities.FileRecord
	Hash      string
	BytesRead int64
	Error     error
}

// HashService defines the domain service for content hashing.
// Digests are rendered as "<algorithm>:<hex>" so they can be re-verified later.
type HashService interface {
	// CalculateHashes hashes every file of the request. Results follow the input order.
	// Per-file failures are reported in HashResult.Error; only cancellation aborts the batch.
	CalculateHashes(ctx context.Context, req HashRequest, onResult func(*HashResult)) ([]*HashResult, error)

	CalculatePartialHash(ctx context.Context, file *entities.FileRecord, prefixBytes int64) (string, int64, error)
	CalculateFullHash(ctx context.Context, file *entities.FileRecord) (string, int64, error)
	CalculateHashFromReader(ctx context.Context, algorithm string, reader io.Reader) (string, int64, error)

	// VerifyFile re-hashes the whole file with the algorithm named in digest and compares
	VerifyFile(ctx context.Context, file *entities.FileRecord, digest string) (bool, error)

	// EmptyContentHash returns the full-algorithm digest of zero bytes
	EmptyContentHash() string

	// IsPartialHashFinal reports whether a partial digest that covers a whole file proves identity
	IsPartialHashFinal() bool

	GetSupportedAlgorithms() []string
	GetPartialAlgorithm() string
	GetFullAlgorithm() string
}
