package usecases

import (
	"context"
	"fmt"
	"go-file-duplicates/internal/domain/entities"
	"go-file-duplicates/internal/domain/repositories"
	"go-file-duplicates/internal/domain/services"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DuplicateFindingUseCase runs the size / partial hash / full hash refinement pipeline
type DuplicateFindingUseCase struct {
	scanner     *FileScanningUseCase
	hashService services.HashService
	scanRepo    repositories.ScanRepository
	logger      logrus.FieldLogger
}

// NewDuplicateFindingUseCase creates a new duplicate finding use case.
// scanRepo may be nil, in which case results are never persisted.
func NewDuplicateFindingUseCase(
	scanner *FileScanningUseCase,
	hashService services.HashService,
	scanRepo repositories.ScanRepository,
	logger logrus.FieldLogger,
) *DuplicateFindingUseCase {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DuplicateFindingUseCase{
		scanner:     scanner,
		hashService: hashService,
		scanRepo:    scanRepo,
		logger:      logger,
	}
}

// FindDuplicatesRequest represents the request for finding duplicates
type FindDuplicatesRequest struct {
	Root             string                          `json:"root"`
	Options          ScanOptions                     `json:"options"`
	Persist          bool                            `json:"persist"`
	ProgressCallback func(entities.ProgressSnapshot) `json:"-"`
}

// FindDuplicatesResponse represents the response for finding duplicates
type FindDuplicatesResponse struct {
	Scan             *entities.ScanResult      `json:"scan"`
	Progress         entities.ProgressSnapshot `json:"progress"`
	TotalGroups      int                       `json:"totalGroups"`
	TotalFiles       int                       `json:"totalFiles"`
	TotalWastedSpace int64                     `json:"totalWastedSpace"`
	Persisted        bool                      `json:"persisted"`
}

// FindDuplicates scans root and returns every group of byte-identical files.
// Per-file problems are returned as warnings on the scan; invalid options and
// cancellation are returned as errors and no partial result is produced.
func (uc *DuplicateFindingUseCase) FindDuplicates(ctx context.Context, req *FindDuplicatesRequest) (*FindDuplicatesResponse, error) {
	opts := req.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	log := uc.logger.WithField("root", req.Root)
	log.Info("🔍 중복 파일 검색 시작")

	progress := entities.NewScanProgress(req.ProgressCallback)
	progress.Start()

	scan := entities.NewScanResult(req.Root)
	groups, records, err := uc.runPipeline(ctx, req.Root, opts, scan, progress)
	if err != nil {
		progress.Fail(err)
		log.WithError(err).Error("❌ 중복 검색 실패")
		return nil, err
	}

	scan.Groups = groups
	scan.Statistics = entities.NewScanStatistics(records, groups, len(scan.Warnings))
	scan.CompletedAt = time.Now()
	progress.Complete()

	persisted := false
	if req.Persist && uc.scanRepo != nil {
		if err := uc.scanRepo.Save(ctx, scan); err != nil {
			return nil, fmt.Errorf("스캔 결과 저장 실패: %w", err)
		}
		persisted = true
		log.WithField("scan_id", scan.ID).Info("💾 스캔 결과 저장 완료")
	}

	response := &FindDuplicatesResponse{
		Scan:             scan,
		Progress:         progress.Snapshot(),
		TotalGroups:      len(groups),
		TotalFiles:       scan.GetDuplicateFileCount(),
		TotalWastedSpace: scan.GetTotalWastedSpace(),
		Persisted:        persisted,
	}

	log.WithFields(logrus.Fields{
		"groups":   response.TotalGroups,
		"files":    response.TotalFiles,
		"warnings": len(scan.Warnings),
	}).Infof("✅ 중복 검색 완료: %s 절약 가능", entities.FormatFileSize(response.TotalWastedSpace))

	return response, nil
}

// runPipeline returns the final groups and every record traversal produced
func (uc *DuplicateFindingUseCase) runPipeline(ctx context.Context, root string, opts ScanOptions, scan *entities.ScanResult, progress *entities.ScanProgress) ([]*entities.DuplicateGroup, []*entities.FileRecord, error) {
	records, warnings, err := uc.scanner.ScanFiles(ctx, root, opts, progress)
	if err != nil {
		return nil, nil, err
	}
	scan.Warnings = append(scan.Warnings, warnings...)

	// Size stage
	progress.SetStage(entities.StageSize, len(records))
	var empty, sized []*entities.FileRecord
	for _, record := range records {
		if record.IsEmpty() {
			if opts.GroupEmptyFiles {
				empty = append(empty, record)
			}
			continue
		}
		sized = append(sized, record)
	}
	sizeGroups := Partition(sized, func(f *entities.FileRecord) (int64, bool) {
		return f.Size, true
	})
	uc.logger.WithFields(logrus.Fields{
		"stage":      entities.StageSize,
		"partitions": len(sizeGroups),
	}).Debug("📏 크기별 분류 완료")

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	// Partial hash stage
	partialGroups, err := uc.refine(ctx, sizeGroups, services.HashPartial, opts, scan, progress)
	if err != nil {
		return nil, nil, err
	}

	var final []*entities.DuplicateGroup
	var needFull [][]*entities.FileRecord
	for _, partition := range partialGroups {
		members := partition.files
		if members[0].Size <= opts.PrefixBytes && uc.hashService.IsPartialHashFinal() {
			group, err := entities.NewDuplicateGroup(partition.hash, members)
			if err != nil {
				return nil, nil, err
			}
			final = append(final, group)
			continue
		}
		needFull = append(needFull, members)
	}

	// Full hash stage
	fullGroups, err := uc.refine(ctx, needFull, services.HashFull, opts, scan, progress)
	if err != nil {
		return nil, nil, err
	}
	for _, partition := range fullGroups {
		group, err := entities.NewDuplicateGroup(partition.hash, partition.files)
		if err != nil {
			return nil, nil, err
		}
		final = append(final, group)
	}

	if len(empty) > 1 {
		group, err := entities.NewDuplicateGroup(uc.hashService.EmptyContentHash(), empty)
		if err != nil {
			return nil, nil, err
		}
		final = append(final, group)
	}

	sortGroups(final)
	return final, records, nil
}

type hashedPartition struct {
	hash  string
	files []*entities.FileRecord
}

// refine hashes every member of every partition on the worker pool, then sub-partitions each
// partition by digest. Hashing for the whole stage completes before any sub-partitioning.
func (uc *DuplicateFindingUseCase) refine(ctx context.Context, partitions [][]*entities.FileRecord, mode services.HashMode, opts ScanOptions, scan *entities.ScanResult, progress *entities.ScanProgress) ([]hashedPartition, error) {
	stage := entities.StagePartialHash
	if mode == services.HashFull {
		stage = entities.StageFullHash
	}

	var candidates []*entities.FileRecord
	for _, partition := range partitions {
		candidates = append(candidates, partition...)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	progress.SetStage(stage, len(candidates))

	uc.logger.WithFields(logrus.Fields{
		"stage": stage,
		"files": len(candidates),
	}).Info("🔐 해시 계산 시작")

	results, err := uc.hashService.CalculateHashes(ctx, services.HashRequest{
		Files:       candidates,
		Mode:        mode,
		PrefixBytes: opts.PrefixBytes,
		Workers:     opts.Workers,
	}, func(result *services.HashResult) {
		progress.AddHashed(result.BytesRead)
	})
	if err != nil {
		return nil, err
	}

	digests := make(map[*entities.FileRecord]string, len(results))
	for _, result := range results {
		readErr := result.Error
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
		} else if want := expectedRead(result.File, mode, opts.PrefixBytes); result.BytesRead != want {
			// The file changed size after listing; its digest does not describe the recorded file.
			readErr = fmt.Errorf("%w: expected %d bytes, read %d", entities.ErrSizeMismatch, want, result.BytesRead)
		}
		if readErr != nil {
			warning := entities.NewScanWarning(entities.WarningRead, stage, result.File.Path, readErr)
			scan.Warnings = append(scan.Warnings, warning)
			progress.AddWarning()
			uc.logger.WithFields(logrus.Fields{
				"stage": stage,
				"path":  result.File.Path,
			}).WithError(readErr).Warn("⚠️ 파일 읽기 실패, 제외됨")
			continue
		}
		digests[result.File] = result.Hash
	}

	var refined []hashedPartition
	for _, partition := range partitions {
		subGroups := Partition(partition, func(f *entities.FileRecord) (string, bool) {
			digest, ok := digests[f]
			return digest, ok
		})
		for _, members := range subGroups {
			refined = append(refined, hashedPartition{
				hash:  digests[members[0]],
				files: members,
			})
		}
	}
	return refined, nil
}

// expectedRead is the number of bytes a hash of file reads when it still matches its listing
func expectedRead(file *entities.FileRecord, mode services.HashMode, prefixBytes int64) int64 {
	if mode == services.HashPartial && file.Size > prefixBytes {
		return prefixBytes
	}
	return file.Size
}

// sortGroups orders groups by wasted space, largest first, then by first member path
func sortGroups(groups []*entities.DuplicateGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		wi, wj := groups[i].GetWastedSpace(), groups[j].GetWastedSpace()
		if wi != wj {
			return wi > wj
		}
		return groups[i].Files[0].Path < groups[j].Files[0].Path
	})
}

// GetScan returns a persisted scan by ID
func (uc *DuplicateFindingUseCase) GetScan(ctx context.Context, id uuid.UUID) (*entities.ScanResult, error) {
	if uc.scanRepo == nil {
		return nil, ErrNoScanRepository
	}
	scan, err := uc.scanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("스캔 조회 실패: %w", err)
	}
	return scan, nil
}

// GetLatestScan returns the most recent persisted scan of root, or of any root when root is empty
func (uc *DuplicateFindingUseCase) GetLatestScan(ctx context.Context, root string) (*entities.ScanResult, error) {
	if uc.scanRepo == nil {
		return nil, ErrNoScanRepository
	}
	scan, err := uc.scanRepo.GetLatest(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("최근 스캔 조회 실패: %w", err)
	}
	return scan, nil
}

// ListScans returns summaries of persisted scans, newest first
func (uc *DuplicateFindingUseCase) ListScans(ctx context.Context, limit int) ([]*repositories.ScanSummary, error) {
	if uc.scanRepo == nil {
		return nil, ErrNoScanRepository
	}
	summaries, err := uc.scanRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("스캔 목록 조회 실패: %w", err)
	}
	return summaries, nil
}

// DeleteScan removes a persisted scan together with its groups and deletion reports
func (uc *DuplicateFindingUseCase) DeleteScan(ctx context.Context, id uuid.UUID) error {
	if uc.scanRepo == nil {
		return ErrNoScanRepository
	}
	if err := uc.scanRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("스캔 삭제 실패: %w", err)
	}
	uc.logger.WithField("scan_id", id).Info("🗑️ 스캔 기록 삭제")
	return nil
}

// ClearScans removes every persisted scan
func (uc *DuplicateFindingUseCase) ClearScans(ctx context.Context) error {
	if uc.scanRepo == nil {
		return ErrNoScanRepository
	}
	if err := uc.scanRepo.Clear(ctx); err != nil {
		return fmt.Errorf("스캔 기록 초기화 실패: %w", err)
	}
	uc.logger.Info("🧹 모든 스캔 기록 삭제")
	return nil
}
