package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Middleware wraps a handler
type Middleware func(http.HandlerFunc) http.HandlerFunc

// LoggingMiddleware logs HTTP requests and responses
func LoggingMiddleware(logger logrus.FieldLogger) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			log := requestLogger(logger, r)
			log.Debug("🔵 요청 수신")

			recorder := NewResponseRecorder(w)
			next(recorder, r)

			entry := log.WithFields(logrus.Fields{
				"status":      recorder.StatusCode,
				"duration_ms": time.Since(startTime).Milliseconds(),
				"bytes":       recorder.Body.Len(),
			})
			message := getStatusEmoji(recorder.StatusCode) + " " + r.Method + " " + r.URL.Path

			switch {
			case recorder.StatusCode >= 500:
				entry.WithField("response", recorder.Body.String()).Error(message)
			case recorder.StatusCode >= 400:
				entry.WithField("response", recorder.Body.String()).Warn(message)
			default:
				entry.Info(message)
			}
		}
	}
}

// DetailedLoggingMiddleware also logs small request and response bodies at debug level
func DetailedLoggingMiddleware(logger logrus.FieldLogger) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			log := requestLogger(logger, r).WithField("user_agent", r.UserAgent())

			if r.Method == http.MethodPost || r.Method == http.MethodPut {
				requestBody, _ := io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewBuffer(requestBody))

				if len(requestBody) > 0 && len(requestBody) < 1000 {
					log.WithField("body", string(requestBody)).Debug("📤 Request Body")
				}
			}

			recorder := NewResponseRecorder(w)
			next(recorder, r)

			if recorder.Body.Len() > 0 && recorder.Body.Len() < 500 {
				log.WithField("body", recorder.Body.String()).Debug("📥 Response Body")
			}
		}
	}
}

func requestLogger(logger logrus.FieldLogger, r *http.Request) logrus.FieldLogger {
	fields := logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"remote_addr": r.RemoteAddr,
	}
	if r.URL.RawQuery != "" {
		fields["query"] = r.URL.RawQuery
	}
	return logger.WithFields(fields)
}

// ResponseRecorder captures response data for logging
type ResponseRecorder struct {
	http.ResponseWriter
	StatusCode int
	Body       *bytes.Buffer
}

// NewResponseRecorder wraps w with a recorder defaulting to 200 OK
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{
		ResponseWriter: w,
		StatusCode:     http.StatusOK,
		Body:           &bytes.Buffer{},
	}
}

func (rr *ResponseRecorder) WriteHeader(statusCode int) {
	rr.StatusCode = statusCode
	rr.ResponseWriter.WriteHeader(statusCode)
}

func (rr *ResponseRecorder) Write(data []byte) (int, error) {
	rr.Body.Write(data)
	return rr.ResponseWriter.Write(data)
}

// getStatusEmoji returns an emoji based on HTTP status code
func getStatusEmoji(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "✅"
	case statusCode >= 300 && statusCode < 400:
		return "🔄"
	case statusCode >= 400 && statusCode < 500:
		return "⚠️"
	case statusCode >= 500:
		return "❌"
	default:
		return "📋"
	}
}
