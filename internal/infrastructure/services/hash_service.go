package services

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"go-file-duplicates/internal/domain/entities"
	"go-file-duplicates/internal/domain/services"
	"hash"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// HashAlgorithm describes one registered digest
type HashAlgorithm struct {
	Name          string
	New           func() hash.Hash
	Cryptographic bool
}

var algorithms = map[string]HashAlgorithm{
	"md5":    {Name: "md5", New: md5.New, Cryptographic: true},
	"sha1":   {Name: "sha1", New: sha1.New, Cryptographic: true},
	"sha256": {Name: "sha256", New: sha256.New, Cryptographic: true},
	"sha512": {Name: "sha512", New: sha512.New, Cryptographic: true},
	"xxhash": {Name: "xxhash", New: func() hash.Hash { return xxhash.New() }},
}

// LookupAlgorithm returns the registered algorithm with the given name
func LookupAlgorithm(name string) (HashAlgorithm, error) {
	algorithm, ok := algorithms[strings.ToLower(name)]
	if !ok {
		return HashAlgorithm{}, fmt.Errorf("unsupported hash algorithm: %s", name)
	}
	return algorithm, nil
}

// SupportedAlgorithms returns the registered algorithm names in sorted order
func SupportedAlgorithms() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type HashService struct {
	storageProvider services.StorageProvider
	partial         HashAlgorithm
	full            HashAlgorithm
	bufferSize      int
	workerCount     int
}

// NewHashService creates a hash service reading through storageProvider.
// The full algorithm must be cryptographic; the partial one may be any registered algorithm.
func NewHashService(storageProvider services.StorageProvider, partialAlgorithm, fullAlgorithm string) (*HashService, error) {
	partial, err := LookupAlgorithm(partialAlgorithm)
	if err != nil {
		return nil, err
	}
	full, err := LookupAlgorithm(fullAlgorithm)
	if err != nil {
		return nil, err
	}
	if !full.Cryptographic {
		return nil, fmt.Errorf("full hash algorithm must be cryptographic: %s", full.Name)
	}

	return &HashService{
		storageProvider: storageProvider,
		partial:         partial,
		full:            full,
		bufferSize:      64 * 1024, // 64KB buffer
		workerCount:     4,
	}, nil
}

func (h *HashService) SetWorkerCount(count int) {
	if count > 0 {
		h.workerCount = count
	}
}

func (h *HashService) SetBufferSize(size int) {
	if size > 0 {
		h.bufferSize = size
	}
}

func (h *HashService) CalculatePartialHash(ctx context.Context, file *entities.FileRecord, prefixBytes int64) (string, int64, error) {
	if prefixBytes <= 0 {
		return "", 0, fmt.Errorf("prefix size must be positive: %d", prefixBytes)
	}
	return h.hashFile(ctx, file, h.partial, prefixBytes)
}

func (h *HashService) CalculateFullHash(ctx context.Context, file *entities.FileRecord) (string, int64, error) {
	return h.hashFile(ctx, file, h.full, -1)
}

func (h *HashService) CalculateHashFromReader(ctx context.Context, algorithm string, reader io.Reader) (string, int64, error) {
	alg, err := LookupAlgorithm(algorithm)
	if err != nil {
		return "", 0, err
	}
	return h.digest(ctx, alg, reader)
}

func (h *HashService) VerifyFile(ctx context.Context, file *entities.FileRecord, digest string) (bool, error) {
	name, _, found := strings.Cut(digest, ":")
	if !found {
		return false, fmt.Errorf("digest has no algorithm prefix: %q", digest)
	}
	alg, err := LookupAlgorithm(name)
	if err != nil {
		return false, err
	}

	calculated, _, err := h.hashFile(ctx, file, alg, -1)
	if err != nil {
		return false, err
	}
	return calculated == digest, nil
}

func (h *HashService) EmptyContentHash() string {
	return formatDigest(h.full, h.full.New())
}

func (h *HashService) IsPartialHashFinal() bool {
	return h.partial.Cryptographic
}

func (h *HashService) GetSupportedAlgorithms() []string {
	return SupportedAlgorithms()
}

func (h *HashService) GetPartialAlgorithm() string {
	return h.partial.Name
}

func (h *HashService) GetFullAlgorithm() string {
	return h.full.Name
}

// CalculateHashes runs the request on a jobs/results worker pool
func (h *HashService) CalculateHashes(ctx context.Context, req services.HashRequest, onResult func(*services.HashResult)) ([]*services.HashResult, error) {
	if len(req.Files) == 0 {
		return nil, nil
	}

	workers := req.Workers
	if workers <= 0 {
		workers = h.workerCount
	}
	if workers > len(req.Files) {
		workers = len(req.Files)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobChan := make(chan int)
	resultChan := make(chan int, len(req.Files))
	results := make([]*services.HashResult, len(req.Files))
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.hashWorker(ctx, req, jobChan, resultChan, results)
		}()
	}

	// Send jobs
	go func() {
		defer close(jobChan)
		for i := range req.Files {
			select {
			case jobChan <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer close(resultChan)
		wg.Wait()
	}()

	// Collect results
	for index := range resultChan {
		if onResult != nil {
			onResult(results[index])
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Worker function for hash calculation
func (h *HashService) hashWorker(ctx context.Context, req services.HashRequest, jobChan <-chan int, resultChan chan<- int, results []*services.HashResult) {
	for index := range jobChan {
		if ctx.Err() != nil {
			return
		}

		file := req.Files[index]
		var (
			digest string
			read   int64
			err    error
		)
		if req.Mode == services.HashPartial {
			digest, read, err = h.CalculatePartialHash(ctx, file, req.PrefixBytes)
		} else {
			digest, read, err = h.CalculateFullHash(ctx, file)
		}

		results[index] = &services.HashResult{
			File:      file,
			Hash:      digest,
			BytesRead: read,
			Error:     err,
		}
		resultChan <- index
	}
}

// hashFile digests at most limit bytes of file, or all of it when limit is negative
func (h *HashService) hashFile(ctx context.Context, file *entities.FileRecord, alg HashAlgorithm, limit int64) (string, int64, error) {
	reader, err := h.storageProvider.OpenFile(ctx, file.Path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	var source io.Reader = reader
	if limit >= 0 {
		source = io.LimitReader(reader, limit)
	}
	return h.digest(ctx, alg, source)
}

func (h *HashService) digest(ctx context.Context, alg HashAlgorithm, reader io.Reader) (string, int64, error) {
	hasher := alg.New()
	buffer := make([]byte, h.bufferSize)
	totalRead := int64(0)

	for {
		// Check context cancellation
		if err := ctx.Err(); err != nil {
			return "", totalRead, err
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
			totalRead += int64(n)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return "", totalRead, fmt.Errorf("error reading file: %w", err)
		}
	}

	return formatDigest(alg, hasher), totalRead, nil
}

func formatDigest(alg HashAlgorithm, hasher hash.Hash) string {
	return alg.Name + ":" + hex.EncodeToString(hasher.Sum(nil))
}
