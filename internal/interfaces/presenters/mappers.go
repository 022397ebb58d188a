package presenters

import (
	"fmt"
	"go-file-duplicates/internal/domain/entities"
	"go-file-duplicates/internal/domain/repositories"
	"go-file-duplicates/internal/usecases"
	"time"
)

// Entity to DTO mappers

// ToProgressDTO converts a progress snapshot to ProgressDTO
func ToProgressDTO(snapshot entities.ProgressSnapshot) *ProgressDTO {
	dto := &ProgressDTO{
		Stage:                string(snapshot.Stage),
		FilesSeen:            snapshot.FilesSeen,
		StageTotal:           snapshot.StageTotal,
		StageDone:            snapshot.StageDone,
		BytesHashed:          snapshot.BytesHashed,
		BytesHashedFormatted: FormatFileSize(snapshot.BytesHashed),
		Warnings:             snapshot.Warnings,
		Percentage:           snapshot.Percentage,
		ErrorMessage:         snapshot.ErrorMessage,
		StartTime:            snapshot.StartTime,
		EndTime:              snapshot.EndTime,
	}

	if snapshot.EndTime != nil {
		dto.Duration = formatDuration(snapshot.EndTime.Sub(snapshot.StartTime))
	} else if !snapshot.StartTime.IsZero() {
		dto.Duration = formatDuration(time.Since(snapshot.StartTime))
	}

	return dto
}

// ToFileDTO converts a FileRecord to FileDTO
func ToFileDTO(file *entities.FileRecord, index int) *FileDTO {
	if file == nil {
		return nil
	}

	return &FileDTO{
		Index:         index,
		Path:          file.Path,
		Name:          file.GetName(),
		Extension:     file.GetFileExtension(),
		Size:          file.Size,
		SizeFormatted: FormatFileSize(file.Size),
		SizeCategory:  file.GetSizeCategory(),
		ModifiedTime:  file.ModifiedTime,
	}
}

// ToDuplicateGroupDTO converts a DuplicateGroup to DuplicateGroupDTO.
// index is the position of the group in its scan, the handle deletion requests use.
func ToDuplicateGroupDTO(group *entities.DuplicateGroup, index int) *DuplicateGroupDTO {
	if group == nil {
		return nil
	}

	files := make([]*FileDTO, len(group.Files))
	for i, file := range group.Files {
		files[i] = ToFileDTO(file, i)
	}

	dto := &DuplicateGroupDTO{
		Index:                index,
		Hash:                 group.Hash,
		Size:                 group.Size,
		Files:                files,
		Count:                group.Count(),
		TotalSize:            group.GetTotalSize(),
		TotalSizeFormatted:   FormatFileSize(group.GetTotalSize()),
		WastedSpace:          group.GetWastedSpace(),
		WastedSpaceFormatted: FormatFileSize(group.GetWastedSpace()),
	}

	if oldest := group.GetOldestIndex(); oldest >= 0 {
		dto.OldestFile = files[oldest]
	}
	if newest := group.GetNewestIndex(); newest >= 0 {
		dto.NewestFile = files[newest]
	}

	return dto
}

// ToDuplicateGroupDTOList converts a slice of DuplicateGroup entities, preserving scan order
func ToDuplicateGroupDTOList(groups []*entities.DuplicateGroup) []*DuplicateGroupDTO {
	dtos := make([]*DuplicateGroupDTO, 0, len(groups))
	for i, group := range groups {
		if dto := ToDuplicateGroupDTO(group, i); dto != nil {
			dtos = append(dtos, dto)
		}
	}
	return dtos
}

// ToWarningDTOList converts scan warnings
func ToWarningDTOList(warnings []*entities.ScanWarning) []*WarningDTO {
	dtos := make([]*WarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		dtos = append(dtos, &WarningDTO{
			Kind:       string(warning.Kind),
			Stage:      string(warning.Stage),
			Path:       warning.Path,
			Message:    warning.Message,
			OccurredAt: warning.OccurredAt,
		})
	}
	return dtos
}

// ToStatisticsDTO converts ScanStatistics to StatisticsDTO
func ToStatisticsDTO(stats *entities.ScanStatistics) *StatisticsDTO {
	if stats == nil {
		return nil
	}

	return &StatisticsDTO{
		TotalFiles:               stats.TotalFiles,
		TotalSize:                stats.TotalSize,
		TotalSizeFormatted:       FormatFileSize(stats.TotalSize),
		AverageFileSize:          stats.GetAverageFileSize(),
		AverageFileSizeFormatted: FormatFileSize(stats.GetAverageFileSize()),
		DuplicateGroups:          stats.DuplicateGroups,
		DuplicateFiles:           stats.DuplicateFiles,
		UniqueFiles:              stats.UniqueFiles,
		WastedSpace:              stats.WastedSpace,
		WastedSpaceFormatted:     FormatFileSize(stats.WastedSpace),
		DuplicationRatio:         stats.GetDuplicationRatio(),
		Warnings:                 stats.Warnings,
		FilesBySize:              stats.FilesBySize,
		SizesBySize:              stats.SizesBySize,
		TopExtensions:            ToExtensionStatsDTOList(stats.GetTopExtensions(10)),
		GeneratedAt:              stats.GeneratedAt,
	}
}

// ToExtensionStatsDTO converts ExtensionStats to ExtensionStatsDTO
func ToExtensionStatsDTO(stats *entities.ExtensionStats) *ExtensionStatsDTO {
	if stats == nil {
		return nil
	}

	return &ExtensionStatsDTO{
		Extension:          stats.Extension,
		Count:              stats.Count,
		TotalSize:          stats.TotalSize,
		TotalSizeFormatted: FormatFileSize(stats.TotalSize),
		AvgSize:            stats.AvgSize,
		AvgSizeFormatted:   FormatFileSize(stats.AvgSize),
		DuplicateFiles:     stats.DuplicateFiles,
	}
}

// ToExtensionStatsDTOList converts a slice of ExtensionStats entities
func ToExtensionStatsDTOList(statsList []*entities.ExtensionStats) []*ExtensionStatsDTO {
	dtos := make([]*ExtensionStatsDTO, 0, len(statsList))
	for _, stats := range statsList {
		if dto := ToExtensionStatsDTO(stats); dto != nil {
			dtos = append(dtos, dto)
		}
	}
	return dtos
}

// ToScanDTO converts a ScanResult to ScanDTO
func ToScanDTO(scan *entities.ScanResult) *ScanDTO {
	if scan == nil {
		return nil
	}

	return &ScanDTO{
		ID:                        scan.ID.String(),
		Root:                      scan.Root,
		Groups:                    ToDuplicateGroupDTOList(scan.Groups),
		TotalGroups:               len(scan.Groups),
		TotalFiles:                scan.GetDuplicateFileCount(),
		TotalWastedSpace:          scan.GetTotalWastedSpace(),
		TotalWastedSpaceFormatted: FormatFileSize(scan.GetTotalWastedSpace()),
		Warnings:                  ToWarningDTOList(scan.Warnings),
		Statistics:                ToStatisticsDTO(scan.Statistics),
		StartedAt:                 scan.StartedAt,
		CompletedAt:               scan.CompletedAt,
		Duration:                  formatDuration(scan.GetDuration()),
	}
}

// ToScanSummaryDTOList converts scan history entries
func ToScanSummaryDTOList(summaries []*repositories.ScanSummary) []*ScanSummaryDTO {
	dtos := make([]*ScanSummaryDTO, 0, len(summaries))
	for _, summary := range summaries {
		dtos = append(dtos, &ScanSummaryDTO{
			ID:                   summary.ID.String(),
			Root:                 summary.Root,
			GroupCount:           summary.GroupCount,
			FileCount:            summary.FileCount,
			WastedSpace:          summary.WastedSpace,
			WastedSpaceFormatted: FormatFileSize(summary.WastedSpace),
			StartedAt:            summary.StartedAt,
			CompletedAt:          summary.CompletedAt,
		})
	}
	return dtos
}

// ToDeletionReportDTO converts a DeletionReport to DeletionReportDTO
func ToDeletionReportDTO(report *entities.DeletionReport) *DeletionReportDTO {
	if report == nil {
		return nil
	}

	outcomes := make([]*DeletionOutcomeDTO, len(report.Outcomes))
	for i, outcome := range report.Outcomes {
		outcomes[i] = &DeletionOutcomeDTO{
			Path:   outcome.Path,
			Size:   outcome.Size,
			Status: string(outcome.Status),
			Reason: outcome.Reason,
		}
	}

	return &DeletionReportDTO{
		GroupHash:           report.GroupHash,
		RetainedIndex:       report.RetainedIndex,
		RetainedPath:        report.RetainedPath,
		DryRun:              report.DryRun,
		Outcomes:            outcomes,
		DeletedCount:        report.GetDeletedCount(),
		FailedCount:         report.GetFailedCount(),
		SpaceSaved:          report.GetFreedSpace(),
		SpaceSavedFormatted: FormatFileSize(report.GetFreedSpace()),
	}
}

// Use case response to DTO mappers

// ToScanResponseDTO converts FindDuplicatesResponse to ScanResponseDTO
func ToScanResponseDTO(response *usecases.FindDuplicatesResponse) *ScanResponseDTO {
	return &ScanResponseDTO{
		Scan:      ToScanDTO(response.Scan),
		Progress:  ToProgressDTO(response.Progress),
		Persisted: response.Persisted,
	}
}

// ToDeleteResponseDTO converts DeleteFilesResponse to DeleteResponseDTO
func ToDeleteResponseDTO(response *usecases.DeleteFilesResponse) *DeleteResponseDTO {
	reports := make([]*DeletionReportDTO, 0, len(response.Reports))
	for _, report := range response.Reports {
		reports = append(reports, ToDeletionReportDTO(report))
	}

	return &DeleteResponseDTO{
		TotalGroups:         response.TotalGroups,
		TotalFiles:          response.TotalFiles,
		DeletedFiles:        response.DeletedFiles,
		PlannedFiles:        response.PlannedFiles,
		FailedFiles:         response.FailedFiles,
		SpaceSaved:          response.SpaceSaved,
		SpaceSavedFormatted: FormatFileSize(response.SpaceSaved),
		DryRun:              response.DryRun,
		Reports:             reports,
		Errors:              response.Errors,
	}
}

// Utility functions

// FormatFileSize formats file size in human readable format
func FormatFileSize(bytes int64) string {
	return entities.FormatFileSize(bytes)
}

// formatDuration formats duration in human readable format
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	} else {
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}

// CreateErrorResponse creates a standard error response
func CreateErrorResponse(err error, code string) *ErrorResponse {
	response := &ErrorResponse{
		Error: err.Error(),
		Code:  code,
	}
	return response
}

// CreateSuccessResponse creates a standard success response
func CreateSuccessResponse(message string, data interface{}) *SuccessResponse {
	return &SuccessResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}
