package controllers

import (
	"context"
	"encoding/json"
	"go-file-duplicates/internal/domain/entities"
	"go-file-duplicates/internal/interfaces/presenters"
	"go-file-duplicates/internal/usecases"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DuplicateController handles HTTP requests related to duplicate scans
type DuplicateController struct {
	duplicateFindingUseCase *usecases.DuplicateFindingUseCase
	defaults                usecases.ScanOptions
	scanTimeout             time.Duration
	logger                  logrus.FieldLogger
}

// NewDuplicateController creates a new duplicate controller.
// defaults fill in every option a scan request leaves unset.
func NewDuplicateController(duplicateFindingUseCase *usecases.DuplicateFindingUseCase, defaults usecases.ScanOptions, scanTimeout time.Duration, logger logrus.FieldLogger) *DuplicateController {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DuplicateController{
		duplicateFindingUseCase: duplicateFindingUseCase,
		defaults:                defaults,
		scanTimeout:             scanTimeout,
		logger:                  logger,
	}
}

// Scan handles the scan endpoint: POST /api/scan
func (c *DuplicateController) Scan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req presenters.ScanRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if req.Root == "" {
		badRequest(w, "root is required")
		return
	}

	opts := c.defaults
	if req.PrefixBytes != 0 {
		opts.PrefixBytes = req.PrefixBytes
	}
	if req.MinFileSize != 0 {
		opts.MinFileSize = req.MinFileSize
	}
	if req.Recursive != nil {
		opts.Recursive = *req.Recursive
	}
	if req.FollowSymlinks != nil {
		opts.FollowSymlinks = *req.FollowSymlinks
	}
	if req.Workers != 0 {
		opts.Workers = req.Workers
	}
	persist := true
	if req.Persist != nil {
		persist = *req.Persist
	}

	ctx, cancel := context.WithTimeout(r.Context(), c.scanTimeout)
	defer cancel()

	response, err := c.duplicateFindingUseCase.FindDuplicates(ctx, &usecases.FindDuplicatesRequest{
		Root:    req.Root,
		Options: opts,
		Persist: persist,
		ProgressCallback: func(snapshot entities.ProgressSnapshot) {
			c.logger.WithFields(logrus.Fields{
				"stage": snapshot.Stage,
				"done":  snapshot.StageDone,
				"total": snapshot.StageTotal,
			}).Trace("scan progress")
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, presenters.ToScanResponseDTO(response))
}

// GetDuplicates handles GET /api/duplicates?id=&root=&page=&limit=.
// Without id the latest scan (of root, when given) is returned.
func (c *DuplicateController) GetDuplicates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}

	scan, ok := c.loadScan(w, r)
	if !ok {
		return
	}

	dto := presenters.ToScanDTO(scan)
	start := (page - 1) * limit
	if start > len(dto.Groups) {
		start = len(dto.Groups)
	}
	end := start + limit
	if end > len(dto.Groups) {
		end = len(dto.Groups)
	}
	dto.Groups = dto.Groups[start:end]

	writeJSON(w, http.StatusOK, dto)
}

// GetStats handles GET /api/stats?id=&root=
func (c *DuplicateController) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	scan, ok := c.loadScan(w, r)
	if !ok {
		return
	}

	stats := scan.Statistics
	if stats == nil {
		// Only the grouped files are known for a scan stored without statistics.
		var records []*entities.FileRecord
		for _, group := range scan.Groups {
			records = append(records, group.Files...)
		}
		stats = entities.NewScanStatistics(records, scan.Groups, len(scan.Warnings))
	}
	writeJSON(w, http.StatusOK, presenters.ToStatisticsDTO(stats))
}

// ListScans handles GET /api/scans?limit=
func (c *DuplicateController) ListScans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	summaries, err := c.duplicateFindingUseCase.ListScans(ctx, queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, presenters.ToScanSummaryDTOList(summaries))
}

// loadScan resolves the scan addressed by the id or root query parameters and writes
// the error response itself when it cannot.
func (c *DuplicateController) loadScan(w http.ResponseWriter, r *http.Request) (*entities.ScanResult, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var (
		scan *entities.ScanResult
		err  error
	)
	if idStr := r.URL.Query().Get("id"); idStr != "" {
		id, parseErr := uuid.Parse(idStr)
		if parseErr != nil {
			badRequest(w, "Invalid scan ID")
			return nil, false
		}
		scan, err = c.duplicateFindingUseCase.GetScan(ctx, id)
	} else {
		scan, err = c.duplicateFindingUseCase.GetLatestScan(ctx, r.URL.Query().Get("root"))
	}
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if scan == nil {
		writeError(w, usecases.ErrScanNotFound)
		return nil, false
	}
	return scan, true
}
