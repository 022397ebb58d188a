package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Options configures the SQLite connection pool
type Options struct {
	Path         string
	MaxOpenConns int
	MaxIdleConns int
}

// Open connects to the SQLite database at opts.Path, creating its directory if needed
func Open(opts Options, logger logrus.FieldLogger) (*sqlx.DB, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if opts.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", opts.Path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",  // 64MB cache
		"PRAGMA busy_timeout = 30000", // 30 second timeout
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			logger.WithError(err).Warnf("Failed to set pragma %s", pragma)
		}
	}

	return db, nil
}
