package entities

import (
	"sync"
	"sync/atomic"
	"time"
)

// ScanStage identifies the pipeline stage a scan is in
type ScanStage string

const (
	StagePending     ScanStage = "pending"
	StageTraversal   ScanStage = "traversal"
	StageSize        ScanStage = "size"
	StagePartialHash ScanStage = "partial_hash"
	StageFullHash    ScanStage = "full_hash"
	StageCompleted   ScanStage = "completed"
	StageFailed      ScanStage = "failed"
)

// ScanProgress tracks a running scan. Counters are safe for concurrent use by hash workers.
// All methods are no-ops on a nil receiver so callers may pass nil when progress is not needed.
type ScanProgress struct {
	mu           sync.RWMutex
	stage        ScanStage
	errorMessage string
	startTime    time.Time
	endTime      *time.Time

	filesSeen   atomic.Int64
	stageTotal  atomic.Int64
	stageDone   atomic.Int64
	bytesHashed atomic.Int64
	warnings    atomic.Int64

	callback func(ProgressSnapshot)
}

// ProgressSnapshot is a point-in-time copy of ScanProgress
type ProgressSnapshot struct {
	Stage        ScanStage  `json:"stage"`
	FilesSeen    int64      `json:"filesSeen"`
	StageTotal   int64      `json:"stageTotal"`
	StageDone    int64      `json:"stageDone"`
	BytesHashed  int64      `json:"bytesHashed"`
	Warnings     int64      `json:"warnings"`
	Percentage   float64    `json:"percentage"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
}

// NewScanProgress creates a progress tracker. callback may be nil; when set it is
// invoked from hash workers and must be safe for concurrent use.
func NewScanProgress(callback func(ProgressSnapshot)) *ScanProgress {
	return &ScanProgress{
		stage:     StagePending,
		startTime: time.Now(),
		callback:  callback,
	}
}

// Start marks the progress as started
func (p *ScanProgress) Start() {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.stage = StageTraversal
	p.startTime = time.Now()
	p.mu.Unlock()
	p.notify()
}

// SetStage moves to a new stage with the given number of work items
func (p *ScanProgress) SetStage(stage ScanStage, total int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.stage = stage
	p.mu.Unlock()
	p.stageTotal.Store(int64(total))
	p.stageDone.Store(0)
	p.notify()
}

// AddFileSeen counts one file yielded by traversal
func (p *ScanProgress) AddFileSeen() {
	if p == nil {
		return
	}
	p.filesSeen.Add(1)
}

// AddHashed counts one hashed file and the bytes read for it
func (p *ScanProgress) AddHashed(bytes int64) {
	if p == nil {
		return
	}
	p.stageDone.Add(1)
	p.bytesHashed.Add(bytes)
	p.notify()
}

// AddWarning counts one warning
func (p *ScanProgress) AddWarning() {
	if p == nil {
		return
	}
	p.warnings.Add(1)
}

// Complete marks the progress as completed
func (p *ScanProgress) Complete() {
	if p == nil {
		return
	}
	now := time.Now()
	p.mu.Lock()
	p.stage = StageCompleted
	p.endTime = &now
	p.mu.Unlock()
	p.notify()
}

// Fail marks the progress as failed with an error message
func (p *ScanProgress) Fail(err error) {
	if p == nil {
		return
	}
	now := time.Now()
	p.mu.Lock()
	p.stage = StageFailed
	if err != nil {
		p.errorMessage = err.Error()
	}
	p.endTime = &now
	p.mu.Unlock()
	p.notify()
}

// GetStage returns the current stage
func (p *ScanProgress) GetStage() ScanStage {
	if p == nil {
		return StagePending
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stage
}

// GetDuration returns the duration of the scan
func (p *ScanProgress) GetDuration() time.Duration {
	if p == nil {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.endTime != nil {
		return p.endTime.Sub(p.startTime)
	}
	return time.Since(p.startTime)
}

// Snapshot returns a consistent copy of the counters
func (p *ScanProgress) Snapshot() ProgressSnapshot {
	if p == nil {
		return ProgressSnapshot{Stage: StagePending}
	}
	p.mu.RLock()
	snapshot := ProgressSnapshot{
		Stage:        p.stage,
		ErrorMessage: p.errorMessage,
		StartTime:    p.startTime,
		EndTime:      p.endTime,
	}
	p.mu.RUnlock()

	snapshot.FilesSeen = p.filesSeen.Load()
	snapshot.StageTotal = p.stageTotal.Load()
	snapshot.StageDone = p.stageDone.Load()
	snapshot.BytesHashed = p.bytesHashed.Load()
	snapshot.Warnings = p.warnings.Load()
	if snapshot.Stage == StageCompleted {
		snapshot.Percentage = 100
	} else if snapshot.StageTotal > 0 {
		snapshot.Percentage = float64(snapshot.StageDone) / float64(snapshot.StageTotal) * 100
	}
	return snapshot
}

func (p *ScanProgress) notify() {
	if p.callback != nil {
		p.callback(p.Snapshot())
	}
}
