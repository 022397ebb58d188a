package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"go-file-duplicates/internal/domain/entities"
	"go-file-duplicates/internal/domain/services"
	"go-file-duplicates/internal/interfaces/presenters"
	"go-file-duplicates/internal/usecases"
	"net/http"
	"strconv"
)

// writeJSON encodes data with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeError maps use case errors onto HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	statusCode, code := errorStatus(err)
	writeJSON(w, statusCode, presenters.CreateErrorResponse(err, code))
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, usecases.ErrInvalidOptions),
		errors.Is(err, services.ErrInvalidRoot),
		errors.Is(err, entities.ErrRetentionIndex),
		errors.Is(err, entities.ErrUnknownRetentionPolicy),
		errors.Is(err, entities.ErrInvalidGroup):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, usecases.ErrScanNotFound),
		errors.Is(err, usecases.ErrGroupNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, usecases.ErrNoScanRepository):
		return http.StatusServiceUnavailable, "PERSISTENCE_DISABLED"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "CANCELLED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, &presenters.ErrorResponse{Error: message, Code: "INVALID_REQUEST"})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, &presenters.ErrorResponse{Error: "Method not allowed", Code: "METHOD_NOT_ALLOWED"})
}

// queryInt reads a positive integer query parameter, falling back when absent or invalid
func queryInt(r *http.Request, name string, fallback int) int {
	if value := r.URL.Query().Get(name); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
