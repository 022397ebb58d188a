package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"go-file-duplicates/internal/domain/entities"
	"go-file-duplicates/internal/domain/repositories"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ScanRepository struct {
	db *sqlx.DB
}

func NewScanRepository(db *sqlx.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

var _ repositories.ScanRepository = (*ScanRepository)(nil)

type scanRow struct {
	ID          uuid.UUID      `db:"id"`
	Root        string         `db:"root"`
	Statistics  sql.NullString `db:"statistics"`
	StartedAt   time.Time      `db:"started_at"`
	CompletedAt time.Time      `db:"completed_at"`
}

type groupRow struct {
	ID   int    `db:"id"`
	Hash string `db:"hash"`
	Size int64  `db:"size"`
}

type groupFileRow struct {
	GroupID      int       `db:"group_id"`
	Path         string    `db:"path"`
	Size         int64     `db:"size"`
	ModifiedTime time.Time `db:"modified_time"`
}

type warningRow struct {
	Kind       string         `db:"kind"`
	Stage      sql.NullString `db:"stage"`
	Path       string         `db:"path"`
	Message    sql.NullString `db:"message"`
	OccurredAt time.Time      `db:"occurred_at"`
}

type reportRow struct {
	ID            int       `db:"id"`
	GroupHash     string    `db:"group_hash"`
	RetainedIndex int       `db:"retained_index"`
	RetainedPath  string    `db:"retained_path"`
	DryRun        bool      `db:"dry_run"`
	StartedAt     time.Time `db:"started_at"`
	CompletedAt   time.Time `db:"completed_at"`
}

type outcomeRow struct {
	ReportID int            `db:"report_id"`
	Path     string         `db:"path"`
	Size     int64          `db:"size"`
	Status   string         `db:"status"`
	Reason   sql.NullString `db:"reason"`
}

// Save stores the scan with its groups and warnings in a single transaction
func (r *ScanRepository) Save(ctx context.Context, scan *entities.ScanResult) error {
	var statistics sql.NullString
	if scan.Statistics != nil {
		data, err := json.Marshal(scan.Statistics)
		if err != nil {
			return fmt.Errorf("failed to encode statistics: %w", err)
		}
		statistics = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
	INSERT INTO scans (id, root, group_count, file_count, wasted_space, statistics, started_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		scan.ID, scan.Root, len(scan.Groups), scan.GetDuplicateFileCount(), scan.GetTotalWastedSpace(),
		statistics, scan.StartedAt.UTC(), scan.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	for position, group := range scan.Groups {
		result, err := tx.ExecContext(ctx, `
		INSERT INTO duplicate_groups (scan_id, position, hash, size, count, wasted_space)
		VALUES (?, ?, ?, ?, ?, ?)
		`, scan.ID, position, group.Hash, group.Size, group.Count(), group.GetWastedSpace())
		if err != nil {
			return fmt.Errorf("failed to insert duplicate group: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		group.ID = int(id)

		for filePosition, file := range group.Files {
			_, err := tx.ExecContext(ctx, `
			INSERT INTO duplicate_group_files (group_id, position, path, size, modified_time)
			VALUES (?, ?, ?, ?, ?)
			`, group.ID, filePosition, file.Path, file.Size, file.ModifiedTime.UTC())
			if err != nil {
				return fmt.Errorf("failed to insert group member: %w", err)
			}
		}
	}

	for _, warning := range scan.Warnings {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO scan_warnings (scan_id, kind, stage, path, message, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
		`, scan.ID, string(warning.Kind), string(warning.Stage), warning.Path, warning.Message, warning.OccurredAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert warning: %w", err)
		}
	}

	return tx.Commit()
}

// GetByID returns the scan, or nil if it does not exist
func (r *ScanRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.ScanResult, error) {
	var row scanRow
	err := r.db.GetContext(ctx, &row, `
	SELECT id, root, statistics, started_at, completed_at
	FROM scans WHERE id = ?
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r.load(ctx, row)
}

// GetLatest returns the most recent scan of root, or of any root when root is empty
func (r *ScanRepository) GetLatest(ctx context.Context, root string) (*entities.ScanResult, error) {
	query := "SELECT id, root, statistics, started_at, completed_at FROM scans"
	var args []interface{}
	if root != "" {
		query += " WHERE root = ?"
		args = append(args, root)
	}
	query += " ORDER BY started_at DESC, rowid DESC LIMIT 1"

	var row scanRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r.load(ctx, row)
}

// List returns scan summaries, newest first. A non-positive limit returns every scan.
func (r *ScanRepository) List(ctx context.Context, limit int) ([]*repositories.ScanSummary, error) {
	query := `
	SELECT id, root, group_count, file_count, wasted_space, started_at, completed_at
	FROM scans ORDER BY started_at DESC, rowid DESC
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	summaries := make([]*repositories.ScanSummary, 0)
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Delete removes a scan and everything recorded for it
func (r *ScanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	statements := []string{
		"DELETE FROM deletion_outcomes WHERE report_id IN (SELECT id FROM deletion_reports WHERE scan_id = ?)",
		"DELETE FROM deletion_reports WHERE scan_id = ?",
		"DELETE FROM duplicate_group_files WHERE group_id IN (SELECT id FROM duplicate_groups WHERE scan_id = ?)",
		"DELETE FROM duplicate_groups WHERE scan_id = ?",
		"DELETE FROM scan_warnings WHERE scan_id = ?",
		"DELETE FROM scans WHERE id = ?",
	}
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Clear removes every stored scan
func (r *ScanRepository) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tables := []string{"deletion_outcomes", "deletion_reports", "duplicate_group_files", "duplicate_groups", "scan_warnings", "scans"}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// SaveDeletionReport records the outcome of deleting one group of the scan
func (r *ScanRepository) SaveDeletionReport(ctx context.Context, scanID uuid.UUID, report *entities.DeletionReport) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO deletion_reports (scan_id, group_hash, retained_index, retained_path, dry_run, started_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, scanID, report.GroupHash, report.RetainedIndex, report.RetainedPath, report.DryRun,
		report.StartedAt.UTC(), report.CompletedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert deletion report: %w", err)
	}
	reportID, err := result.LastInsertId()
	if err != nil {
		return err
	}

	for position, outcome := range report.Outcomes {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO deletion_outcomes (report_id, position, path, size, status, reason)
		VALUES (?, ?, ?, ?, ?, ?)
		`, reportID, position, outcome.Path, outcome.Size, string(outcome.Status), outcome.Reason)
		if err != nil {
			return fmt.Errorf("failed to insert deletion outcome: %w", err)
		}
	}

	return tx.Commit()
}

// GetDeletionReports returns the reports recorded for a scan in the order they were saved
func (r *ScanRepository) GetDeletionReports(ctx context.Context, scanID uuid.UUID) ([]*entities.DeletionReport, error) {
	var rows []reportRow
	err := r.db.SelectContext(ctx, &rows, `
	SELECT id, group_hash, retained_index, retained_path, dry_run, started_at, completed_at
	FROM deletion_reports WHERE scan_id = ? ORDER BY id
	`, scanID)
	if err != nil {
		return nil, err
	}

	var outcomes []outcomeRow
	err = r.db.SelectContext(ctx, &outcomes, `
	SELECT o.report_id, o.path, o.size, o.status, o.reason
	FROM deletion_outcomes o JOIN deletion_reports dr ON o.report_id = dr.id
	WHERE dr.scan_id = ? ORDER BY o.report_id, o.position
	`, scanID)
	if err != nil {
		return nil, err
	}

	byReport := make(map[int][]entities.DeletionOutcome)
	for _, o := range outcomes {
		byReport[o.ReportID] = append(byReport[o.ReportID], entities.DeletionOutcome{
			Path:   o.Path,
			Size:   o.Size,
			Status: entities.DeletionStatus(o.Status),
			Reason: o.Reason.String,
		})
	}

	reports := make([]*entities.DeletionReport, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, &entities.DeletionReport{
			GroupHash:     row.GroupHash,
			RetainedIndex: row.RetainedIndex,
			RetainedPath:  row.RetainedPath,
			DryRun:        row.DryRun,
			Outcomes:      byReport[row.ID],
			StartedAt:     row.StartedAt,
			CompletedAt:   row.CompletedAt,
		})
	}
	return reports, nil
}

// load assembles a scan from its row and child tables
func (r *ScanRepository) load(ctx context.Context, row scanRow) (*entities.ScanResult, error) {
	scan := &entities.ScanResult{
		ID:          row.ID,
		Root:        row.Root,
		Groups:      make([]*entities.DuplicateGroup, 0),
		StartedAt:   row.StartedAt,
		CompletedAt: row.CompletedAt,
	}

	if row.Statistics.Valid {
		var stats entities.ScanStatistics
		if err := json.Unmarshal([]byte(row.Statistics.String), &stats); err != nil {
			return nil, fmt.Errorf("failed to decode statistics: %w", err)
		}
		scan.Statistics = &stats
	}

	var groups []groupRow
	err := r.db.SelectContext(ctx, &groups, `
	SELECT id, hash, size FROM duplicate_groups WHERE scan_id = ? ORDER BY position
	`, row.ID)
	if err != nil {
		return nil, err
	}

	var files []groupFileRow
	err = r.db.SelectContext(ctx, &files, `
	SELECT f.group_id, f.path, f.size, f.modified_time
	FROM duplicate_group_files f JOIN duplicate_groups g ON f.group_id = g.id
	WHERE g.scan_id = ? ORDER BY f.group_id, f.position
	`, row.ID)
	if err != nil {
		return nil, err
	}

	members := make(map[int][]*entities.FileRecord)
	for _, f := range files {
		members[f.GroupID] = append(members[f.GroupID], entities.NewFileRecord(f.Path, f.Size, f.ModifiedTime))
	}

	for _, g := range groups {
		scan.Groups = append(scan.Groups, &entities.DuplicateGroup{
			ID:    g.ID,
			Hash:  g.Hash,
			Size:  g.Size,
			Files: members[g.ID],
		})
	}

	var warnings []warningRow
	err = r.db.SelectContext(ctx, &warnings, `
	SELECT kind, stage, path, message, occurred_at
	FROM scan_warnings WHERE scan_id = ? ORDER BY id
	`, row.ID)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		scan.Warnings = append(scan.Warnings, &entities.ScanWarning{
			Kind:       entities.WarningKind(w.Kind),
			Stage:      entities.ScanStage(w.Stage.String),
			Path:       w.Path,
			Message:    w.Message.String,
			OccurredAt: w.OccurredAt,
		})
	}

	return scan, nil
}
