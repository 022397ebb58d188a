package entities

import (
	"time"

	"github.com/google/uuid"
)

// ScanResult is the output of one duplicate scan over a directory tree
type ScanResult struct {
	ID          uuid.UUID         `json:"id"`
	Root        string            `json:"root"`
	Groups      []*DuplicateGroup `json:"groups"`
	Warnings    []*ScanWarning    `json:"warnings,omitempty"`
	Statistics  *ScanStatistics   `json:"statistics"`
	StartedAt   time.Time         `json:"startedAt"`
	CompletedAt time.Time         `json:"completedAt"`
}

// NewScanResult creates an empty result for root
func NewScanResult(root string) *ScanResult {
	return &ScanResult{
		ID:        uuid.New(),
		Root:      root,
		Groups:    make([]*DuplicateGroup, 0),
		StartedAt: time.Now(),
	}
}

// GetTotalWastedSpace returns the sum of wasted space across all groups
func (s *ScanResult) GetTotalWastedSpace() int64 {
	var total int64
	for _, group := range s.Groups {
		total += group.GetWastedSpace()
	}
	return total
}

// GetDuplicateFileCount returns the number of files that belong to a group
func (s *ScanResult) GetDuplicateFileCount() int {
	count := 0
	for _, group := range s.Groups {
		count += group.Count()
	}
	return count
}

// GetGroup returns the group at index, or nil
func (s *ScanResult) GetGroup(index int) *DuplicateGroup {
	if index < 0 || index >= len(s.Groups) {
		return nil
	}
	return s.Groups[index]
}

// GetDuration returns how long the scan took
func (s *ScanResult) GetDuration() time.Duration {
	if s.CompletedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.CompletedAt.Sub(s.StartedAt)
}
