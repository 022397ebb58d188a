package repositories

import (
	"context"
	"go-file-duplicates/internal/domain/entities"
	"time"

	"github.com/google/uuid"
)

// ScanSummary is a lightweight listing entry for a persisted scan
type ScanSummary struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Root        string    `json:"root" db:"root"`
	GroupCount  int       `json:"groupCount" db:"group_count"`
	FileCount   int       `json:"fileCount" db:"file_count"`
	WastedSpace int64     `json:"wastedSpace" db:"wasted_space"`
	StartedAt   time.Time `json:"startedAt" db:"started_at"`
	CompletedAt time.Time `json:"completedAt" db:"completed_at"`
}

// ScanRepository persists scan results and the deletion reports produced from them
type ScanRepository interface {
	Save(ctx context.Context, scan *entities.ScanResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.ScanResult, error)
	GetLatest(ctx context.Context, root string) (*entities.ScanResult, error)
	List(ctx context.Context, limit int) ([]*ScanSummary, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context) error

	SaveDeletionReport(ctx context.Context, scanID uuid.UUID, report *entities.DeletionReport) error
	GetDeletionReports(ctx context.Context, scanID uuid.UUID) ([]*entities.DeletionReport, error)
}
