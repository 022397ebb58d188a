package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, tx *sqlx.Tx) error
	Down        func(ctx context.Context, tx *sqlx.Tx) error
}

// Migrator handles database migrations
type Migrator struct {
	db         *sqlx.DB
	logger     logrus.FieldLogger
	migrations []Migration
}

// NewMigrator creates a new database migrator
func NewMigrator(db *sqlx.DB, logger logrus.FieldLogger) *Migrator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	migrator := &Migrator{
		db:     db,
		logger: logger,
	}

	migrator.addMigrations()
	return migrator
}

func execAll(ctx context.Context, tx *sqlx.Tx, statements ...string) error {
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}

// addMigrations adds all migration definitions
func (m *Migrator) addMigrations() {
	m.migrations = append(m.migrations, Migration{
		Version:     1,
		Description: "Create scans table",
		Up: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS scans (
					id TEXT PRIMARY KEY,
					root TEXT NOT NULL,
					group_count INTEGER NOT NULL DEFAULT 0,
					file_count INTEGER NOT NULL DEFAULT 0,
					wasted_space INTEGER NOT NULL DEFAULT 0,
					statistics TEXT, -- JSON
					started_at DATETIME NOT NULL,
					completed_at DATETIME NOT NULL
				)`,
				"CREATE INDEX IF NOT EXISTS idx_scans_root_started ON scans(root, started_at)",
			)
		},
		Down: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx, "DROP TABLE IF EXISTS scans")
		},
	})

	m.migrations = append(m.migrations, Migration{
		Version:     2,
		Description: "Create duplicate group tables",
		Up: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS duplicate_groups (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					scan_id TEXT NOT NULL,
					position INTEGER NOT NULL,
					hash TEXT NOT NULL,
					size INTEGER NOT NULL,
					count INTEGER NOT NULL,
					wasted_space INTEGER NOT NULL,
					UNIQUE (scan_id, position),
					FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
				)`, `
				CREATE TABLE IF NOT EXISTS duplicate_group_files (
					group_id INTEGER NOT NULL,
					position INTEGER NOT NULL,
					path TEXT NOT NULL,
					size INTEGER NOT NULL,
					modified_time DATETIME NOT NULL,
					PRIMARY KEY (group_id, position),
					FOREIGN KEY (group_id) REFERENCES duplicate_groups(id) ON DELETE CASCADE
				)`,
				"CREATE INDEX IF NOT EXISTS idx_duplicate_groups_hash ON duplicate_groups(hash)",
				"CREATE INDEX IF NOT EXISTS idx_duplicate_group_files_path ON duplicate_group_files(path)",
			)
		},
		Down: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx,
				"DROP TABLE IF EXISTS duplicate_group_files",
				"DROP TABLE IF EXISTS duplicate_groups",
			)
		},
	})

	m.migrations = append(m.migrations, Migration{
		Version:     3,
		Description: "Create scan_warnings table",
		Up: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS scan_warnings (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					scan_id TEXT NOT NULL,
					kind TEXT NOT NULL,
					stage TEXT,
					path TEXT NOT NULL,
					message TEXT,
					occurred_at DATETIME NOT NULL,
					FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
				)`,
				"CREATE INDEX IF NOT EXISTS idx_scan_warnings_scan ON scan_warnings(scan_id)",
			)
		},
		Down: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx, "DROP TABLE IF EXISTS scan_warnings")
		},
	})

	m.migrations = append(m.migrations, Migration{
		Version:     4,
		Description: "Create deletion report tables",
		Up: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS deletion_reports (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					scan_id TEXT NOT NULL,
					group_hash TEXT NOT NULL,
					retained_index INTEGER NOT NULL,
					retained_path TEXT NOT NULL,
					dry_run BOOLEAN NOT NULL DEFAULT FALSE,
					started_at DATETIME NOT NULL,
					completed_at DATETIME NOT NULL,
					FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
				)`, `
				CREATE TABLE IF NOT EXISTS deletion_outcomes (
					report_id INTEGER NOT NULL,
					position INTEGER NOT NULL,
					path TEXT NOT NULL,
					size INTEGER NOT NULL,
					status TEXT NOT NULL,
					reason TEXT,
					PRIMARY KEY (report_id, position),
					FOREIGN KEY (report_id) REFERENCES deletion_reports(id) ON DELETE CASCADE
				)`,
				"CREATE INDEX IF NOT EXISTS idx_deletion_reports_scan ON deletion_reports(scan_id)",
			)
		},
		Down: func(ctx context.Context, tx *sqlx.Tx) error {
			return execAll(ctx, tx,
				"DROP TABLE IF EXISTS deletion_outcomes",
				"DROP TABLE IF EXISTS deletion_reports",
			)
		},
	})
}

// Migrations returns every known migration in version order
func (m *Migrator) Migrations() []Migration {
	return m.migrations
}

// LatestVersion returns the highest known migration version
func (m *Migrator) LatestVersion() int {
	if len(m.migrations) == 0 {
		return 0
	}
	return m.migrations[len(m.migrations)-1].Version
}

// Run executes all pending migrations
func (m *Migrator) Run(ctx context.Context) error {
	m.logger.Info("🔄 Starting database migrations...")

	if err := m.ensureMigrationsTable(ctx); err != nil {
		return err
	}

	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	m.logger.WithField("version", currentVersion).Info("📊 Current schema version")

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		log := m.logger.WithField("version", migration.Version)
		log.Infof("⬆️  Applying migration: %s", migration.Description)

		if err := m.apply(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		log.Info("✅ Migration completed successfully")
	}

	newVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	m.logger.WithField("version", newVersion).Info("🎉 Database migrations completed")
	return nil
}

// Rollback reverts every applied migration newer than target
func (m *Migrator) Rollback(ctx context.Context, target int) error {
	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= target {
			continue
		}

		m.logger.WithField("version", migration.Version).Infof("⬇️  Reverting migration: %s", migration.Description)

		tx, err := m.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		if err := migration.Down(ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("rollback of migration %d failed: %w", migration.Version, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = ?", migration.Version); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Pending returns the migrations that Run would apply
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return nil, err
	}
	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

// CurrentVersion returns the current schema version, or 0 for a fresh database
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	var exists int
	err := m.db.GetContext(ctx, &exists, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_migrations'")
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, nil
	}

	var version int
	if err := m.db.GetContext(ctx, &version, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return 0, err
	}
	return version, nil
}

func (m *Migrator) ensureMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

// apply runs one migration and records it in the same transaction
func (m *Migrator) apply(ctx context.Context, migration Migration) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := migration.Up(ctx, tx); err != nil {
		return err
	}

	query := "INSERT INTO schema_migrations (version, description) VALUES (?, ?)"
	if _, err := tx.ExecContext(ctx, query, migration.Version, migration.Description); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}

// BackupDatabase creates a backup of the current database
func (m *Migrator) BackupDatabase(ctx context.Context, backupPath string) error {
	m.logger.WithField("path", backupPath).Info("💾 Creating database backup")

	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", backupPath); err != nil {
		return fmt.Errorf("failed to create database backup: %w", err)
	}

	m.logger.Info("✅ Database backup created successfully")
	return nil
}
