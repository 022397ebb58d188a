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
)

// CleanupController handles HTTP requests related to duplicate deletion
type CleanupController struct {
	fileCleanupUseCase *usecases.FileCleanupUseCase
	defaultRule        entities.RetentionRule
	timeout            time.Duration
}

// NewCleanupController creates a new cleanup controller.
// defaultRule applies when a request names no retention policy.
func NewCleanupController(fileCleanupUseCase *usecases.FileCleanupUseCase, defaultRule entities.RetentionRule, timeout time.Duration) *CleanupController {
	return &CleanupController{
		fileCleanupUseCase: fileCleanupUseCase,
		defaultRule:        defaultRule,
		timeout:            timeout,
	}
}

// Delete handles the delete endpoint: POST /api/delete
func (c *CleanupController) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req presenters.DeleteRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	scanID, err := uuid.Parse(req.ScanID)
	if err != nil {
		badRequest(w, "scanId is required")
		return
	}

	rule := c.defaultRule
	if req.Keep != "" {
		rule, err = entities.ParseRetentionRule(req.Keep)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	indexes := req.GroupIndexes
	if req.GroupIndex != nil {
		indexes = append([]int{*req.GroupIndex}, indexes...)
	}

	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	response, err := c.fileCleanupUseCase.DeleteFromScan(ctx, &usecases.DeleteFromScanRequest{
		ScanID:       scanID,
		GroupIndexes: indexes,
		Retention:    rule,
		DryRun:       req.DryRun,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, presenters.ToDeleteResponseDTO(response))
}

// GetReports handles GET /api/delete/reports?scanId=
func (c *CleanupController) GetReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	scanID, err := uuid.Parse(r.URL.Query().Get("scanId"))
	if err != nil {
		badRequest(w, "Invalid scan ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	reports, err := c.fileCleanupUseCase.GetDeletionReports(ctx, scanID)
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]*presenters.DeletionReportDTO, 0, len(reports))
	for _, report := range reports {
		dtos = append(dtos, presenters.ToDeletionReportDTO(report))
	}
	writeJSON(w, http.StatusOK, dtos)
}
