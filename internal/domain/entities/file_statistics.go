package entities

import (
	"fmt"
	"sort"
	"time"
)

// ScanStatistics summarizes the files seen by a scan and the duplicates found among them
type ScanStatistics struct {
	TotalFiles      int   `json:"totalFiles"`
	TotalSize       int64 `json:"totalSize"`
	DuplicateGroups int   `json:"duplicateGroups"`
	DuplicateFiles  int   `json:"duplicateFiles"`
	UniqueFiles     int   `json:"uniqueFiles"`
	WastedSpace     int64 `json:"wastedSpace"`
	Warnings        int   `json:"warnings"`

	// Size distribution
	FilesBySize map[string]int   `json:"filesBySize"` // empty, small, medium, large, very_large
	SizesBySize map[string]int64 `json:"sizesBySize"`

	Extensions []*ExtensionStats `json:"extensions"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// ExtensionStats represents statistics for a file extension
type ExtensionStats struct {
	Extension      string `json:"extension"`
	Count          int    `json:"count"`
	TotalSize      int64  `json:"totalSize"`
	AvgSize        int64  `json:"avgSize"`
	DuplicateFiles int    `json:"duplicateFiles"`
}

// NewScanStatistics computes statistics from the scanned records and the resulting groups
func NewScanStatistics(records []*FileRecord, groups []*DuplicateGroup, warnings int) *ScanStatistics {
	stats := &ScanStatistics{
		FilesBySize: make(map[string]int),
		SizesBySize: make(map[string]int64),
		Warnings:    warnings,
		GeneratedAt: time.Now(),
	}

	duplicated := make(map[string]struct{})
	for _, group := range groups {
		stats.DuplicateGroups++
		stats.DuplicateFiles += group.Count()
		stats.WastedSpace += group.GetWastedSpace()
		for _, file := range group.Files {
			duplicated[file.Path] = struct{}{}
		}
	}

	byExtension := make(map[string]*ExtensionStats)
	for _, record := range records {
		stats.TotalFiles++
		stats.TotalSize += record.Size

		category := record.GetSizeCategory()
		stats.FilesBySize[category]++
		stats.SizesBySize[category] += record.Size

		ext := record.GetFileExtension()
		extStats, ok := byExtension[ext]
		if !ok {
			extStats = &ExtensionStats{Extension: ext}
			byExtension[ext] = extStats
		}
		extStats.Count++
		extStats.TotalSize += record.Size
		if _, ok := duplicated[record.Path]; ok {
			extStats.DuplicateFiles++
		}
	}
	stats.UniqueFiles = stats.TotalFiles - stats.DuplicateFiles

	for _, extStats := range byExtension {
		if extStats.Count > 0 {
			extStats.AvgSize = extStats.TotalSize / int64(extStats.Count)
		}
		stats.Extensions = append(stats.Extensions, extStats)
	}
	sort.Slice(stats.Extensions, func(i, j int) bool {
		if stats.Extensions[i].Count != stats.Extensions[j].Count {
			return stats.Extensions[i].Count > stats.Extensions[j].Count
		}
		return stats.Extensions[i].Extension < stats.Extensions[j].Extension
	})

	return stats
}

// GetAverageFileSize returns the average file size
func (s *ScanStatistics) GetAverageFileSize() int64 {
	if s.TotalFiles == 0 {
		return 0
	}
	return s.TotalSize / int64(s.TotalFiles)
}

// GetDuplicationRatio returns the share of scanned bytes that is redundant (0-100)
func (s *ScanStatistics) GetDuplicationRatio() float64 {
	if s.TotalSize == 0 {
		return 0
	}
	return float64(s.WastedSpace) / float64(s.TotalSize) * 100
}

// GetTopExtensions returns up to n extensions ordered by file count
func (s *ScanStatistics) GetTopExtensions(n int) []*ExtensionStats {
	if n <= 0 || n >= len(s.Extensions) {
		return s.Extensions
	}
	return s.Extensions[:n]
}

// FormatFileSize renders a byte count with binary units
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
