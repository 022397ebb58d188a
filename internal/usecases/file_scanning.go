package usecases

import (
	"context"
	"errors"
	"fmt"
	"go-file-duplicates/internal/domain/entities"
	"go-file-duplicates/internal/domain/services"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidOptions is returned before any work starts when scan options are unusable
	ErrInvalidOptions = errors.New("invalid scan options")

	ErrNoScanRepository = errors.New("scan repository not configured")
	ErrScanNotFound     = errors.New("scan not found")
	ErrGroupNotFound    = errors.New("duplicate group not found")
)

const (
	DefaultPrefixBytes = 8192
	DefaultWorkerCount = 4
)

// ScanOptions configures a duplicate scan
type ScanOptions struct {
	PrefixBytes     int64 `json:"prefixBytes"`
	Recursive       bool  `json:"recursive"`
	FollowSymlinks  bool  `json:"followSymlinks"`
	MinFileSize     int64 `json:"minFileSize"`
	Workers         int   `json:"workers"`
	GroupEmptyFiles bool  `json:"groupEmptyFiles"`
}

// DefaultScanOptions returns the options used when the caller supplies none
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		PrefixBytes:     DefaultPrefixBytes,
		Recursive:       true,
		FollowSymlinks:  false,
		MinFileSize:     0,
		Workers:         DefaultWorkerCount,
		GroupEmptyFiles: true,
	}
}

// Validate reports the first unusable option
func (o ScanOptions) Validate() error {
	if o.PrefixBytes <= 0 {
		return fmt.Errorf("%w: prefix bytes must be positive, got %d", ErrInvalidOptions, o.PrefixBytes)
	}
	if o.MinFileSize < 0 {
		return fmt.Errorf("%w: minimum file size must not be negative, got %d", ErrInvalidOptions, o.MinFileSize)
	}
	if o.Workers <= 0 {
		return fmt.Errorf("%w: worker count must be positive, got %d", ErrInvalidOptions, o.Workers)
	}
	return nil
}

// FileScanningUseCase walks a directory tree and produces the file records the pipeline consumes
type FileScanningUseCase struct {
	storageProvider services.StorageProvider
	logger          logrus.FieldLogger
}

// NewFileScanningUseCase creates a new file scanning use case
func NewFileScanningUseCase(storageProvider services.StorageProvider, logger logrus.FieldLogger) *FileScanningUseCase {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileScanningUseCase{
		storageProvider: storageProvider,
		logger:          logger,
	}
}

// ScanFiles lists every regular file under root that passes the options' filters
func (uc *FileScanningUseCase) ScanFiles(ctx context.Context, root string, opts ScanOptions, progress *entities.ScanProgress) ([]*entities.FileRecord, []*entities.ScanWarning, error) {
	log := uc.logger.WithField("root", root)
	log.Info("📁 파일 목록 수집 시작")

	progress.SetStage(entities.StageTraversal, 0)

	records, warnings, err := uc.storageProvider.ListFiles(ctx, root, services.ListOptions{
		Recursive:      opts.Recursive,
		FollowSymlinks: opts.FollowSymlinks,
		MinFileSize:    opts.MinFileSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("파일 목록 수집 실패: %w", err)
	}

	for range records {
		progress.AddFileSeen()
	}
	for range warnings {
		progress.AddWarning()
	}

	log.WithFields(logrus.Fields{
		"files":    len(records),
		"warnings": len(warnings),
	}).Info("📊 파일 목록 수집 완료")

	return records, warnings, nil
}
