package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go-file-duplicates/internal/infrastructure/database"

	"github.com/sirupsen/logrus"
)

const (
	defaultDBPath = "./data/deduper.db"
)

func main() {
	var (
		dbPath     = flag.String("db", defaultDBPath, "Path to SQLite database file")
		backup     = flag.Bool("backup", true, "Create backup before migration")
		backupPath = flag.String("backup-path", "", "Custom backup file path (default: deduper_backup_timestamp.db)")
		dryRun     = flag.Bool("dry-run", false, "Show what migrations would be applied without executing them")
		version    = flag.Bool("version", false, "Show current schema version")
		rollback   = flag.Int("rollback", -1, "Revert migrations newer than the given version")
		help       = flag.Bool("help", false, "Show help information")
	)
	flag.Parse()

	if *help {
		showHelp()
		os.Exit(0)
	}

	printBanner()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if _, err := os.Stat(*dbPath); os.IsNotExist(err) {
		logger.WithField("path", *dbPath).Fatal("❌ Database file does not exist")
	}

	// SQLite migrations run on a single connection
	db, err := database.Open(database.Options{Path: *dbPath, MaxOpenConns: 1, MaxIdleConns: 1}, logger)
	if err != nil {
		logger.WithError(err).Fatal("❌ Failed to connect to database")
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *version {
		showCurrentVersion(ctx, migrator, logger)
		return
	}

	if *dryRun {
		showPendingMigrations(ctx, migrator, logger)
		return
	}

	if *backup {
		backupFile := *backupPath
		if backupFile == "" {
			timestamp := time.Now().Format("20060102_150405")
			backupFile = fmt.Sprintf("deduper_backup_%s.db", timestamp)
		}

		if err := migrator.BackupDatabase(ctx, backupFile); err != nil {
			logger.WithError(err).Fatal("❌ Failed to create backup")
		}
	}

	if *rollback >= 0 {
		if err := migrator.Rollback(ctx, *rollback); err != nil {
			logger.WithError(err).Fatal("❌ Rollback failed")
		}
		logger.WithField("version", *rollback).Info("⏪ Rollback completed")
		return
	}

	if err := migrator.Run(ctx); err != nil {
		logger.WithError(err).Fatal("❌ Migration failed")
	}

	logger.Info("🎉 All migrations completed successfully!")
}

func printBanner() {
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║     Database Migration Tool          ║")
	fmt.Println("║                                      ║")
	fmt.Println("║    Go File Duplicates v2.0           ║")
	fmt.Println("║         Clean Architecture           ║")
	fmt.Println("╚══════════════════════════════════════╝")
	fmt.Println("")
}

func showHelp() {
	fmt.Printf("Database Migration Tool for Go File Duplicates\n")
	fmt.Printf("\n")
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s [options]\n", os.Args[0])
	fmt.Printf("\n")
	fmt.Printf("Options:\n")
	fmt.Printf("  -db string\n")
	fmt.Printf("        Path to SQLite database file (default: %s)\n", defaultDBPath)
	fmt.Printf("  -backup\n")
	fmt.Printf("        Create backup before migration (default: true)\n")
	fmt.Printf("  -backup-path string\n")
	fmt.Printf("        Custom backup file path (default: auto-generated)\n")
	fmt.Printf("  -dry-run\n")
	fmt.Printf("        Show what migrations would be applied without executing them\n")
	fmt.Printf("  -version\n")
	fmt.Printf("        Show current schema version\n")
	fmt.Printf("  -rollback int\n")
	fmt.Printf("        Revert migrations newer than the given version\n")
	fmt.Printf("  -help\n")
	fmt.Printf("        Show this help message\n")
	fmt.Printf("\n")
	fmt.Printf("Examples:\n")
	fmt.Printf("  # Show current schema version\n")
	fmt.Printf("  %s -version\n", os.Args[0])
	fmt.Printf("\n")
	fmt.Printf("  # Show pending migrations without applying them\n")
	fmt.Printf("  %s -dry-run\n", os.Args[0])
	fmt.Printf("\n")
	fmt.Printf("  # Run migrations without backup\n")
	fmt.Printf("  %s -backup=false\n", os.Args[0])
	fmt.Printf("\n")
	fmt.Printf("  # Revert to schema version 1\n")
	fmt.Printf("  %s -rollback 1\n", os.Args[0])
	fmt.Printf("\n")
}

func showCurrentVersion(ctx context.Context, migrator *database.Migrator, logger *logrus.Logger) {
	current, err := migrator.CurrentVersion(ctx)
	if err != nil {
		logger.WithError(err).Fatal("❌ Failed to read schema version")
	}
	logger.WithFields(logrus.Fields{
		"current": current,
		"latest":  migrator.LatestVersion(),
	}).Info("📊 Schema version")
}

func showPendingMigrations(ctx context.Context, migrator *database.Migrator, logger *logrus.Logger) {
	pending, err := migrator.Pending(ctx)
	if err != nil {
		logger.WithError(err).Fatal("❌ Failed to list pending migrations")
	}
	if len(pending) == 0 {
		logger.Info("✅ Schema is up to date")
		return
	}

	fmt.Println("📋 The following migrations would be applied:")
	for _, migration := range pending {
		fmt.Printf("   %d. %s\n", migration.Version, migration.Description)
	}
	fmt.Println("")
	fmt.Println("💡 Run without -dry-run to apply these migrations")
}
