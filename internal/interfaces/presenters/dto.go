package presenters

import (
	"time"
)

// Common DTOs for API requests and responses

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ProgressDTO represents the final progress of a scan
type ProgressDTO struct {
	Stage                string     `json:"stage"`
	FilesSeen            int64      `json:"filesSeen"`
	StageTotal           int64      `json:"stageTotal"`
	StageDone            int64      `json:"stageDone"`
	BytesHashed          int64      `json:"bytesHashed"`
	BytesHashedFormatted string     `json:"bytesHashedFormatted"`
	Warnings             int64      `json:"warnings"`
	Percentage           float64    `json:"percentage"`
	ErrorMessage         string     `json:"errorMessage,omitempty"`
	StartTime            time.Time  `json:"startTime"`
	EndTime              *time.Time `json:"endTime,omitempty"`
	Duration             string     `json:"duration"`
}

// FileDTO represents one member of a duplicate group
type FileDTO struct {
	Index         int       `json:"index"`
	Path          string    `json:"path"`
	Name          string    `json:"name"`
	Extension     string    `json:"extension,omitempty"`
	Size          int64     `json:"size"`
	SizeFormatted string    `json:"sizeFormatted"`
	SizeCategory  string    `json:"sizeCategory"`
	ModifiedTime  time.Time `json:"modifiedTime"`
}

// DuplicateGroupDTO represents a group of duplicate files
type DuplicateGroupDTO struct {
	Index                int        `json:"index"`
	Hash                 string     `json:"hash"`
	Size                 int64      `json:"size"`
	Files                []*FileDTO `json:"files"`
	Count                int        `json:"count"`
	TotalSize            int64      `json:"totalSize"`
	TotalSizeFormatted   string     `json:"totalSizeFormatted"`
	WastedSpace          int64      `json:"wastedSpace"`
	WastedSpaceFormatted string     `json:"wastedSpaceFormatted"`
	OldestFile           *FileDTO   `json:"oldestFile,omitempty"`
	NewestFile           *FileDTO   `json:"newestFile,omitempty"`
}

// WarningDTO represents a file excluded from a scan
type WarningDTO struct {
	Kind       string    `json:"kind"`
	Stage      string    `json:"stage,omitempty"`
	Path       string    `json:"path"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
}

// StatisticsDTO represents scan statistics
type StatisticsDTO struct {
	TotalFiles               int                  `json:"totalFiles"`
	TotalSize                int64                `json:"totalSize"`
	TotalSizeFormatted       string               `json:"totalSizeFormatted"`
	AverageFileSize          int64                `json:"averageFileSize"`
	AverageFileSizeFormatted string               `json:"averageFileSizeFormatted"`
	DuplicateGroups          int                  `json:"duplicateGroups"`
	DuplicateFiles           int                  `json:"duplicateFiles"`
	UniqueFiles              int                  `json:"uniqueFiles"`
	WastedSpace              int64                `json:"wastedSpace"`
	WastedSpaceFormatted     string               `json:"wastedSpaceFormatted"`
	DuplicationRatio         float64              `json:"duplicationRatio"`
	Warnings                 int                  `json:"warnings"`
	FilesBySize              map[string]int       `json:"filesBySize"`
	SizesBySize              map[string]int64     `json:"sizesBySize"`
	TopExtensions            []*ExtensionStatsDTO `json:"topExtensions"`
	GeneratedAt              time.Time            `json:"generatedAt"`
}

// ExtensionStatsDTO represents statistics for a file extension
type ExtensionStatsDTO struct {
	Extension          string `json:"extension"`
	Count              int    `json:"count"`
	TotalSize          int64  `json:"totalSize"`
	TotalSizeFormatted string `json:"totalSizeFormatted"`
	AvgSize            int64  `json:"avgSize"`
	AvgSizeFormatted   string `json:"avgSizeFormatted"`
	DuplicateFiles     int    `json:"duplicateFiles"`
}

// ScanDTO represents a complete scan result
type ScanDTO struct {
	ID                        string               `json:"id"`
	Root                      string               `json:"root"`
	Groups                    []*DuplicateGroupDTO `json:"groups"`
	TotalGroups               int                  `json:"totalGroups"`
	TotalFiles                int                  `json:"totalFiles"`
	TotalWastedSpace          int64                `json:"totalWastedSpace"`
	TotalWastedSpaceFormatted string               `json:"totalWastedSpaceFormatted"`
	Warnings                  []*WarningDTO        `json:"warnings"`
	Statistics                *StatisticsDTO       `json:"statistics,omitempty"`
	StartedAt                 time.Time            `json:"startedAt"`
	CompletedAt               time.Time            `json:"completedAt"`
	Duration                  string               `json:"duration"`
}

// ScanSummaryDTO represents one entry of the scan history
type ScanSummaryDTO struct {
	ID                   string    `json:"id"`
	Root                 string    `json:"root"`
	GroupCount           int       `json:"groupCount"`
	FileCount            int       `json:"fileCount"`
	WastedSpace          int64     `json:"wastedSpace"`
	WastedSpaceFormatted string    `json:"wastedSpaceFormatted"`
	StartedAt            time.Time `json:"startedAt"`
	CompletedAt          time.Time `json:"completedAt"`
}

// DeletionOutcomeDTO represents what happened to one group member
type DeletionOutcomeDTO struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// DeletionReportDTO represents the deletion result for one group
type DeletionReportDTO struct {
	GroupHash           string                `json:"groupHash"`
	RetainedIndex       int                   `json:"retainedIndex"`
	RetainedPath        string                `json:"retainedPath"`
	DryRun              bool                  `json:"dryRun"`
	Outcomes            []*DeletionOutcomeDTO `json:"outcomes"`
	DeletedCount        int                   `json:"deletedCount"`
	FailedCount         int                   `json:"failedCount"`
	SpaceSaved          int64                 `json:"spaceSaved"`
	SpaceSavedFormatted string                `json:"spaceSavedFormatted"`
}

// Request DTOs

// ScanRequestDTO represents a scan request. Zero values fall back to the configured defaults.
type ScanRequestDTO struct {
	Root           string `json:"root"`
	PrefixBytes    int64  `json:"prefixBytes,omitempty"`
	MinFileSize    int64  `json:"minFileSize,omitempty"`
	Recursive      *bool  `json:"recursive,omitempty"`
	FollowSymlinks *bool  `json:"followSymlinks,omitempty"`
	Workers        int    `json:"workers,omitempty"`
	Persist        *bool  `json:"persist,omitempty"`
}

// DeleteRequestDTO represents a duplicate deletion request against a persisted scan.
// GroupIndex and GroupIndexes are merged; when both are empty every group is processed.
type DeleteRequestDTO struct {
	ScanID       string `json:"scanId"`
	GroupIndex   *int   `json:"groupIndex,omitempty"`
	GroupIndexes []int  `json:"groupIndexes,omitempty"`
	Keep         string `json:"keep,omitempty"`
	DryRun       bool   `json:"dryRun"`
}

// Response DTOs

// ScanResponseDTO represents a scan response
type ScanResponseDTO struct {
	Scan      *ScanDTO     `json:"scan"`
	Progress  *ProgressDTO `json:"progress"`
	Persisted bool         `json:"persisted"`
}

// DeleteResponseDTO represents a duplicate deletion response
type DeleteResponseDTO struct {
	TotalGroups         int                  `json:"totalGroups"`
	TotalFiles          int                  `json:"totalFiles"`
	DeletedFiles        int                  `json:"deletedFiles"`
	PlannedFiles        int                  `json:"plannedFiles"`
	FailedFiles         int                  `json:"failedFiles"`
	SpaceSaved          int64                `json:"spaceSaved"`
	SpaceSavedFormatted string               `json:"spaceSavedFormatted"`
	DryRun              bool                 `json:"dryRun"`
	Reports             []*DeletionReportDTO `json:"reports"`
	Errors              []string             `json:"errors,omitempty"`
}
