package usecases

import (
	"context"
	"errors"
	"fmt"
	"go-file-duplicates/internal/domain/entities"
	"go-file-duplicates/internal/domain/repositories"
	"go-file-duplicates/internal/domain/services"
	"io/fs"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// FileCleanupUseCase removes redundant copies from duplicate groups
type FileCleanupUseCase struct {
	storageProvider services.StorageProvider
	hashService     services.HashService
	scanRepo        repositories.ScanRepository
	logger          logrus.FieldLogger

	// Configuration
	workerCount   int
	verifyContent bool
}

// NewFileCleanupUseCase creates a new file cleanup use case.
// scanRepo may be nil; DeleteFromScan then fails and reports are not persisted.
func NewFileCleanupUseCase(
	storageProvider services.StorageProvider,
	hashService services.HashService,
	scanRepo repositories.ScanRepository,
	logger logrus.FieldLogger,
) *FileCleanupUseCase {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileCleanupUseCase{
		storageProvider: storageProvider,
		hashService:     hashService,
		scanRepo:        scanRepo,
		logger:          logger,
		workerCount:     2,
	}
}

// SetWorkerCount bounds how many groups are deleted concurrently
func (uc *FileCleanupUseCase) SetWorkerCount(count int) {
	if count > 0 {
		uc.workerCount = count
	}
}

// SetVerifyContent enables re-hashing each member against the group digest before removal
func (uc *FileCleanupUseCase) SetVerifyContent(verify bool) {
	uc.verifyContent = verify
}

// DeleteFromScanRequest represents the request for deleting duplicates of a persisted scan
type DeleteFromScanRequest struct {
	ScanID       uuid.UUID              `json:"scanId"`
	GroupIndexes []int                  `json:"groupIndexes,omitempty"` // empty means every group
	Retention    entities.RetentionRule `json:"retention"`
	DryRun       bool                   `json:"dryRun"`
}

// DeleteFilesResponse represents the response for deleting files
type DeleteFilesResponse struct {
	TotalGroups  int                        `json:"totalGroups"`
	TotalFiles   int                        `json:"totalFiles"`
	DeletedFiles int                        `json:"deletedFiles"`
	PlannedFiles int                        `json:"plannedFiles,omitempty"`
	FailedFiles  int                        `json:"failedFiles"`
	SpaceSaved   int64                      `json:"spaceSaved"`
	DryRun       bool                       `json:"dryRun"`
	Reports      []*entities.DeletionReport `json:"reports"`
	Errors       []string                   `json:"errors,omitempty"`
}

// DeleteDuplicates removes every member of group except the one chosen by rule.
// An invalid rule is returned as an error before anything is touched; per-member
// failures are recorded in the report and never stop the remaining members.
func (uc *FileCleanupUseCase) DeleteDuplicates(ctx context.Context, group *entities.DuplicateGroup, rule entities.RetentionRule, dryRun bool) (*entities.DeletionReport, error) {
	retainedIndex, err := rule.Select(group)
	if err != nil {
		return nil, err
	}
	return uc.deleteGroup(ctx, group, retainedIndex, dryRun), nil
}

// DeleteGroups applies DeleteDuplicates to every group, running independent groups concurrently.
// The rule is checked against every group first so that an invalid index deletes nothing.
func (uc *FileCleanupUseCase) DeleteGroups(ctx context.Context, groups []*entities.DuplicateGroup, rule entities.RetentionRule, dryRun bool) ([]*entities.DeletionReport, error) {
	retained := make([]int, len(groups))
	for i, group := range groups {
		index, err := rule.Select(group)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		retained[i] = index
	}

	reports := make([]*entities.DeletionReport, len(groups))
	g := new(errgroup.Group)
	g.SetLimit(uc.workerCount)
	for i, group := range groups {
		g.Go(func() error {
			reports[i] = uc.deleteGroup(ctx, group, retained[i], dryRun)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// SelectGroups returns the groups of scan at indexes, in first-mention order with repeats dropped.
// No indexes selects every group.
func SelectGroups(scan *entities.ScanResult, indexes []int) ([]*entities.DuplicateGroup, error) {
	if len(indexes) == 0 {
		return scan.Groups, nil
	}
	groups := make([]*entities.DuplicateGroup, 0, len(indexes))
	seen := make(map[int]bool, len(indexes))
	for _, index := range indexes {
		if seen[index] {
			continue
		}
		seen[index] = true
		group := scan.GetGroup(index)
		if group == nil {
			return nil, fmt.Errorf("%w: %d", ErrGroupNotFound, index)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// DeleteFromScan deletes duplicates from the selected groups of a persisted scan and records the outcomes
func (uc *FileCleanupUseCase) DeleteFromScan(ctx context.Context, req *DeleteFromScanRequest) (*DeleteFilesResponse, error) {
	if uc.scanRepo == nil {
		return nil, ErrNoScanRepository
	}

	scan, err := uc.scanRepo.GetByID(ctx, req.ScanID)
	if err != nil {
		return nil, fmt.Errorf("스캔 조회 실패: %w", err)
	}
	if scan == nil {
		return nil, fmt.Errorf("%w: %s", ErrScanNotFound, req.ScanID)
	}

	groups, err := SelectGroups(scan, req.GroupIndexes)
	if err != nil {
		return nil, err
	}

	uc.logger.WithFields(logrus.Fields{
		"scan_id":   scan.ID,
		"groups":    len(groups),
		"retention": req.Retention.String(),
		"dry_run":   req.DryRun,
	}).Info("🗑️ 중복 파일 삭제 시작")

	reports, err := uc.DeleteGroups(ctx, groups, req.Retention, req.DryRun)
	if err != nil {
		return nil, err
	}

	response := NewDeleteFilesResponse(reports, req.DryRun)
	for _, report := range reports {
		if err := uc.scanRepo.SaveDeletionReport(ctx, scan.ID, report); err != nil {
			response.Errors = append(response.Errors, fmt.Sprintf("삭제 결과 저장 실패 [%s]: %v", report.GroupHash, err))
		}
	}

	uc.logger.WithFields(logrus.Fields{
		"deleted": response.DeletedFiles,
		"failed":  response.FailedFiles,
	}).Infof("✅ 삭제 완료: %s 확보", entities.FormatFileSize(response.SpaceSaved))

	return response, nil
}

// GetDeletionReports returns the deletion reports recorded against a persisted scan
func (uc *FileCleanupUseCase) GetDeletionReports(ctx context.Context, scanID uuid.UUID) ([]*entities.DeletionReport, error) {
	if uc.scanRepo == nil {
		return nil, ErrNoScanRepository
	}
	reports, err := uc.scanRepo.GetDeletionReports(ctx, scanID)
	if err != nil {
		return nil, fmt.Errorf("삭제 결과 조회 실패: %w", err)
	}
	return reports, nil
}

// NewDeleteFilesResponse aggregates deletion reports
func NewDeleteFilesResponse(reports []*entities.DeletionReport, dryRun bool) *DeleteFilesResponse {
	response := &DeleteFilesResponse{
		TotalGroups: len(reports),
		DryRun:      dryRun,
		Reports:     reports,
		Errors:      make([]string, 0),
	}
	for _, report := range reports {
		response.TotalFiles += len(report.Outcomes)
		response.DeletedFiles += report.GetDeletedCount()
		response.PlannedFiles += report.GetPlannedCount()
		response.FailedFiles += report.GetFailedCount()
		response.SpaceSaved += report.GetFreedSpace()
		for _, failure := range report.Failures() {
			response.Errors = append(response.Errors, fmt.Sprintf("%s: %s", failure.Path, failure.Reason))
		}
	}
	return response
}

func (uc *FileCleanupUseCase) deleteGroup(ctx context.Context, group *entities.DuplicateGroup, retainedIndex int, dryRun bool) *entities.DeletionReport {
	report := entities.NewDeletionReport(group, retainedIndex, dryRun)
	defer report.Complete()

	log := uc.logger.WithField("hash", group.Hash)
	retained := group.Files[retainedIndex]

	// Without an intact retained copy no member may be removed.
	if err := uc.validateFile(ctx, retained, group.Hash); err != nil {
		log.WithField("path", retained.Path).WithError(err).Warn("⚠️ 보존 파일 확인 실패, 그룹 삭제 건너뜀")
		for i, file := range group.Files {
			if i == retainedIndex {
				report.Record(file, entities.DeletionRetained, err)
				continue
			}
			report.Record(file, entities.DeletionFailed, fmt.Errorf("%w: %w", entities.ErrRetainedUnavailable, err))
		}
		return report
	}

	for i, file := range group.Files {
		if i == retainedIndex {
			report.Record(file, entities.DeletionRetained, nil)
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Record(file, entities.DeletionFailed, err)
			continue
		}
		if err := uc.validateFile(ctx, file, group.Hash); err != nil {
			log.WithField("path", file.Path).WithError(err).Warn("⚠️ 삭제 전 확인 실패")
			report.Record(file, entities.DeletionFailed, err)
			continue
		}
		if dryRun {
			report.Record(file, entities.DeletionPlanned, nil)
			continue
		}
		if err := uc.storageProvider.DeleteFile(ctx, file.Path); err != nil {
			log.WithField("path", file.Path).WithError(err).Error("❌ 파일 삭제 실패")
			report.Record(file, entities.DeletionFailed, fmt.Errorf("삭제 실패: %w", err))
			continue
		}
		log.WithField("path", file.Path).Debug("🗑️ 파일 삭제됨")
		report.Record(file, entities.DeletionDeleted, nil)
	}

	return report
}

// validateFile re-checks a member immediately before deletion: it must still exist,
// still be a regular file and still have the recorded size.
func (uc *FileCleanupUseCase) validateFile(ctx context.Context, file *entities.FileRecord, digest string) error {
	info, err := uc.storageProvider.StatFile(ctx, file.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entities.ErrFileMissing
		}
		return fmt.Errorf("상태 확인 실패: %w", err)
	}
	if !info.Mode().IsRegular() {
		return entities.ErrNotRegularFile
	}
	if info.Size() != file.Size {
		return fmt.Errorf("%w: recorded %d bytes, found %d", entities.ErrSizeMismatch, file.Size, info.Size())
	}

	if uc.verifyContent {
		same, err := uc.hashService.VerifyFile(ctx, file, digest)
		if err != nil {
			return fmt.Errorf("내용 확인 실패: %w", err)
		}
		if !same {
			return entities.ErrContentChanged
		}
	}
	return nil
}
