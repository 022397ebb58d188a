package middleware

import (
	"encoding/json"
	"go-file-duplicates/internal/interfaces/presenters"
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// maxRequestSize limits request bodies to 1MB; scan and delete requests are small JSON documents.
const maxRequestSize = 1 << 20

// ErrorHandlerMiddleware recovers from panics and answers with a JSON 500
func ErrorHandlerMiddleware(logger logrus.FieldLogger) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.WithFields(logrus.Fields{
						"method": r.Method,
						"path":   r.URL.Path,
						"panic":  err,
						"stack":  string(debug.Stack()),
					}).Error("❌ Panic recovered")

					sendErrorResponse(w, logger, "Internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
				}
			}()

			next(w, r)
		}
	}
}

// ValidationMiddleware validates common request parameters
func ValidationMiddleware(logger logrus.FieldLogger) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut {
				contentType := r.Header.Get("Content-Type")
				if contentType != "" && contentType != "application/json" {
					sendErrorResponse(w, logger, "Unsupported Content-Type", "INVALID_CONTENT_TYPE", http.StatusUnsupportedMediaType)
					return
				}
			}

			if r.ContentLength > maxRequestSize {
				sendErrorResponse(w, logger, "Request too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

			next(w, r)
		}
	}
}

// SecurityHeadersMiddleware adds security-related headers
func SecurityHeadersMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next(w, r)
	}
}

// Chain applies middlewares so that the first one listed runs first
func Chain(handler http.HandlerFunc, middlewares ...Middleware) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, logger logrus.FieldLogger, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := &presenters.ErrorResponse{Error: message, Code: code}
	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		logger.WithError(err).Error("❌ Failed to encode error response")
	}
}
