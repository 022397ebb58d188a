package entities

import (
	"time"
)

// DeletionStatus is the per-member result of a deletion pass
type DeletionStatus string

const (
	DeletionDeleted  DeletionStatus = "deleted"
	DeletionRetained DeletionStatus = "retained"
	DeletionFailed   DeletionStatus = "failed"
	DeletionPlanned  DeletionStatus = "would_delete"
)

// DeletionOutcome records what happened to one member of a group
type DeletionOutcome struct {
	Path   string         `json:"path"`
	Size   int64          `json:"size"`
	Status DeletionStatus `json:"status"`
	Reason string         `json:"reason,omitempty"`
	Err    error          `json:"-"`
}

// DeletionReport collects the outcomes of deleting one duplicate group.
// Outcomes follow the member order of the group.
type DeletionReport struct {
	GroupHash     string            `json:"groupHash"`
	RetainedIndex int               `json:"retainedIndex"`
	RetainedPath  string            `json:"retainedPath"`
	DryRun        bool              `json:"dryRun"`
	Outcomes      []DeletionOutcome `json:"outcomes"`
	StartedAt     time.Time         `json:"startedAt"`
	CompletedAt   time.Time         `json:"completedAt"`
}

// NewDeletionReport creates an empty report for the group
func NewDeletionReport(group *DuplicateGroup, retainedIndex int, dryRun bool) *DeletionReport {
	report := &DeletionReport{
		GroupHash:     group.Hash,
		RetainedIndex: retainedIndex,
		DryRun:        dryRun,
		Outcomes:      make([]DeletionOutcome, 0, len(group.Files)),
		StartedAt:     time.Now(),
	}
	if retainedIndex >= 0 && retainedIndex < len(group.Files) {
		report.RetainedPath = group.Files[retainedIndex].Path
	}
	return report
}

// Record appends an outcome
func (r *DeletionReport) Record(file *FileRecord, status DeletionStatus, err error) {
	outcome := DeletionOutcome{
		Path:   file.Path,
		Size:   file.Size,
		Status: status,
		Err:    err,
	}
	if err != nil {
		outcome.Reason = err.Error()
	}
	r.Outcomes = append(r.Outcomes, outcome)
}

// Complete stamps the completion time
func (r *DeletionReport) Complete() {
	r.CompletedAt = time.Now()
}

// GetDeletedCount returns how many members were removed
func (r *DeletionReport) GetDeletedCount() int {
	return r.countStatus(DeletionDeleted)
}

// GetFailedCount returns how many members could not be removed
func (r *DeletionReport) GetFailedCount() int {
	return r.countStatus(DeletionFailed)
}

// GetPlannedCount returns how many members a dry run would remove
func (r *DeletionReport) GetPlannedCount() int {
	return r.countStatus(DeletionPlanned)
}

// GetFreedSpace returns the bytes released by removed members
func (r *DeletionReport) GetFreedSpace() int64 {
	var freed int64
	for _, outcome := range r.Outcomes {
		if outcome.Status == DeletionDeleted {
			freed += outcome.Size
		}
	}
	return freed
}

// HasFailures returns true if any member failed
func (r *DeletionReport) HasFailures() bool {
	return r.GetFailedCount() > 0
}

// Failures returns the failed outcomes
func (r *DeletionReport) Failures() []DeletionOutcome {
	var failures []DeletionOutcome
	for _, outcome := range r.Outcomes {
		if outcome.Status == DeletionFailed {
			failures = append(failures, outcome)
		}
	}
	return failures
}

// GetOutcome returns the outcome recorded for path
func (r *DeletionReport) GetOutcome(path string) (DeletionOutcome, bool) {
	for _, outcome := range r.Outcomes {
		if outcome.Path == path {
			return outcome, true
		}
	}
	return DeletionOutcome{}, false
}

func (r *DeletionReport) countStatus(status DeletionStatus) int {
	count := 0
	for _, outcome := range r.Outcomes {
		if outcome.Status == status {
			count++
		}
	}
	return count
}
