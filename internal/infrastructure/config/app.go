package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-file-duplicates/internal/interfaces/middleware"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// Application represents the HTTP server application
type Application struct {
	container *Container
	server    *http.Server
	config    *Config
	logger    *logrus.Logger
}

// route documents one endpoint on the index page
type route struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

var routes = []route{
	{http.MethodGet, "/health", "Server health check"},
	{http.MethodGet, "/health/db", "Database connectivity check"},
	{http.MethodPost, "/api/scan", "Scan a directory tree for duplicate files"},
	{http.MethodGet, "/api/duplicates", "Duplicate groups of a stored scan (id, root, page, limit)"},
	{http.MethodGet, "/api/stats", "Statistics of a stored scan (id, root)"},
	{http.MethodGet, "/api/scans", "Stored scan history (limit)"},
	{http.MethodPost, "/api/delete", "Delete duplicates of a stored scan, keeping one copy per group"},
	{http.MethodGet, "/api/delete/reports", "Deletion reports recorded for a scan (scanId)"},
}

// NewApplication loads configuration from configPath and creates a new application instance
func NewApplication(configPath string) (*Application, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewApplicationWithConfig(config)
}

// NewApplicationWithConfig creates a new application instance from a loaded configuration
func NewApplicationWithConfig(config *Config) (*Application, error) {
	container, err := NewContainer(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	return newApplication(container), nil
}

func newApplication(container *Container) *Application {
	config := container.Config
	app := &Application{
		container: container,
		config:    config,
		logger:    container.Logger,
		server: &http.Server{
			Addr:         config.GetAddress(),
			ReadTimeout:  config.Server.GetReadTimeout(),
			WriteTimeout: config.Server.GetWriteTimeout(),
			IdleTimeout:  config.Server.GetIdleTimeout(),
		},
	}
	app.setupRoutes()
	return app
}

// Handler returns the fully wrapped HTTP handler
func (app *Application) Handler() http.Handler {
	return app.server.Handler
}

// setupRoutes configures all HTTP routes and middleware
func (app *Application) setupRoutes() {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("/health", app.handleHealth)
	mux.HandleFunc("/health/db", app.handleDBHealth)

	duplicates := app.container.DuplicateController
	mux.HandleFunc("/api/scan", duplicates.Scan)
	mux.HandleFunc("/api/duplicates", duplicates.GetDuplicates)
	mux.HandleFunc("/api/stats", duplicates.GetStats)
	mux.HandleFunc("/api/scans", duplicates.ListScans)

	cleanup := app.container.CleanupController
	mux.HandleFunc("/api/delete", cleanup.Delete)
	mux.HandleFunc("/api/delete/reports", cleanup.GetReports)

	mux.HandleFunc("/", app.handleIndex)

	app.server.Handler = app.applyMiddleware(mux)
}

// applyMiddleware applies middleware to the handler; the first listed runs first
func (app *Application) applyMiddleware(handler http.Handler) http.Handler {
	chain := []middleware.Middleware{
		middleware.ErrorHandlerMiddleware(app.logger),
		middleware.SecurityHeadersMiddleware,
		middleware.ValidationMiddleware(app.logger),
		middleware.LoggingMiddleware(app.logger),
	}
	if app.logger.IsLevelEnabled(logrus.DebugLevel) {
		chain = append(chain, middleware.DetailedLoggingMiddleware(app.logger))
	}
	return middleware.Chain(handler.ServeHTTP, chain...)
}

// Run starts the application and blocks until SIGINT or SIGTERM
func (app *Application) Run() error {
	app.logger.WithFields(logrus.Fields{
		"address":        app.server.Addr,
		"database":       app.databaseDescription(),
		"partial_hash":   app.config.Hash.PartialAlgorithm,
		"full_hash":      app.config.Hash.FullAlgorithm,
		"prefix_bytes":   app.config.Scan.PrefixBytes,
		"hash_workers":   app.config.Hash.WorkerCount,
		"delete_workers": app.config.Deletion.WorkerCount,
	}).Info("🚀 Starting server")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
		app.logger.Info("📴 Shutting down server...")
	case err := <-serverErr:
		app.logger.WithError(err).Error("❌ Server error")
		app.container.Close()
		return err
	}

	return app.Shutdown()
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.GetShutdownTimeout())
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.WithError(err).Error("❌ Error shutting down server")
	}

	app.logger.Info("✅ Server shut down successfully")

	if err := app.container.Close(); err != nil {
		return fmt.Errorf("failed to close resources: %w", err)
	}
	return nil
}

func (app *Application) databaseDescription() string {
	if !app.config.Database.Enabled {
		return "disabled"
	}
	return app.config.Database.Path
}

// Health check handlers

func (app *Application) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

func (app *Application) handleDBHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := app.container.CheckDatabaseHealth(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"healthy","service":"database"}`)
}

func (app *Application) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"service":   "go-file-duplicates",
		"endpoints": routes,
	})
}
