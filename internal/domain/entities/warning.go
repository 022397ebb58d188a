package entities

import (
	"fmt"
	"time"
)

// WarningKind classifies a non-fatal per-file problem encountered during a scan
type WarningKind string

const (
	WarningTraversal WarningKind = "traversal"
	WarningRead      WarningKind = "read"
)

// ScanWarning is a per-file error that excluded the file from the scan without aborting it
type ScanWarning struct {
	Kind       WarningKind `json:"kind"`
	Path       string      `json:"path"`
	Stage      ScanStage   `json:"stage,omitempty"`
	Message    string      `json:"message"`
	Err        error       `json:"-"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// NewScanWarning creates a warning for path
func NewScanWarning(kind WarningKind, stage ScanStage, path string, err error) *ScanWarning {
	warning := &ScanWarning{
		Kind:       kind,
		Path:       path,
		Stage:      stage,
		Err:        err,
		OccurredAt: time.Now(),
	}
	if err != nil {
		warning.Message = err.Error()
	}
	return warning
}

func (w *ScanWarning) Error() string {
	return fmt.Sprintf("%s warning [%s]: %s", w.Kind, w.Path, w.Message)
}

func (w *ScanWarning) Unwrap() error {
	return w.Err
}
