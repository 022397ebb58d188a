package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go-file-duplicates/internal/infrastructure/config"

	"github.com/sirupsen/logrus"
)

const (
	defaultConfigPath = "./config/app.yaml"
	appName           = "Go File Duplicates"
	appVersion        = "2.0.0"
)

func main() {
	var (
		configPath = flag.String("config", defaultConfigPath, "Path to configuration file (supports .json, .yaml, .yml)")
		version    = flag.Bool("version", false, "Show version information")
		help       = flag.Bool("help", false, "Show help information")
	)
	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", appName, appVersion)
		os.Exit(0)
	}

	if *help {
		showHelp()
		os.Exit(0)
	}

	printBanner()

	if err := os.MkdirAll(filepath.Dir(*configPath), 0755); err != nil {
		logrus.WithError(err).Fatal("❌ Failed to create config directory")
	}

	app, err := config.NewApplication(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("❌ Failed to create application")
	}

	if err := app.Run(); err != nil {
		logrus.WithError(err).Fatal("❌ Application error")
	}
}

func printBanner() {
	fmt.Println("==========================================")
	fmt.Printf("        %s v%s\n", appName, appVersion)
	fmt.Println("")
	fmt.Println("      Local Duplicate File Finder")
	fmt.Println("         Clean Architecture")
	fmt.Println("==========================================")
	fmt.Println("")
}

func showHelp() {
	fmt.Printf("%s v%s\n", appName, appVersion)
	fmt.Printf("Duplicate file finder and cleaner for local directory trees\n")
	fmt.Printf("\n")
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s [options]\n", os.Args[0])
	fmt.Printf("\n")
	fmt.Printf("Options:\n")
	fmt.Printf("  -config string\n")
	fmt.Printf("        Path to configuration file (supports .json, .yaml, .yml) (default: %s)\n", defaultConfigPath)
	fmt.Printf("  -version\n")
	fmt.Printf("        Show version information\n")
	fmt.Printf("  -help\n")
	fmt.Printf("        Show this help message\n")
	fmt.Printf("\n")
	fmt.Printf("Environment Variables (override the configuration file):\n")
	fmt.Printf("  DEDUPER_SERVER_HOST            Server host (default: localhost)\n")
	fmt.Printf("  DEDUPER_SERVER_PORT            Server port (default: 8080)\n")
	fmt.Printf("  DEDUPER_DATABASE_ENABLED       Store scans in SQLite (default: true)\n")
	fmt.Printf("  DEDUPER_DATABASE_PATH          SQLite database path\n")
	fmt.Printf("  DEDUPER_SCAN_PREFIX_BYTES      Bytes hashed in the partial stage (default: 8192)\n")
	fmt.Printf("  DEDUPER_SCAN_MIN_FILE_SIZE     Ignore files smaller than this\n")
	fmt.Printf("  DEDUPER_SCAN_FOLLOW_SYMLINKS   Follow symbolic links\n")
	fmt.Printf("  DEDUPER_HASH_FULL_ALGORITHM    Full hash algorithm (md5, sha1, sha256, sha512)\n")
	fmt.Printf("  DEDUPER_HASH_WORKER_COUNT      Number of hashing workers\n")
	fmt.Printf("  DEDUPER_DELETION_RETENTION     Default retention rule (first, last, oldest, newest, index:N)\n")
	fmt.Printf("  DEDUPER_LOG_LEVEL              Log level (trace, debug, info, warn, error)\n")
	fmt.Printf("  DEDUPER_LOG_FORMAT             Log format (text, json)\n")
	fmt.Printf("\n")
	fmt.Printf("Examples:\n")
	fmt.Printf("  # Start with default configuration\n")
	fmt.Printf("  %s\n", os.Args[0])
	fmt.Printf("\n")
	fmt.Printf("  # Start with custom configuration file\n")
	fmt.Printf("  %s -config /path/to/config.yaml\n", os.Args[0])
	fmt.Printf("\n")
	fmt.Printf("  # Start with environment overrides\n")
	fmt.Printf("  DEDUPER_SERVER_PORT=9090 DEDUPER_LOG_LEVEL=debug %s\n", os.Args[0])
	fmt.Printf("\n")
	fmt.Printf("API Endpoints:\n")
	fmt.Printf("  GET  /health                 - Health check\n")
	fmt.Printf("  GET  /health/db              - Database health\n")
	fmt.Printf("\n")
	fmt.Printf("  POST /api/scan               - Scan a directory tree\n")
	fmt.Printf("  GET  /api/duplicates         - Duplicate groups of a stored scan\n")
	fmt.Printf("  GET  /api/stats              - Statistics of a stored scan\n")
	fmt.Printf("  GET  /api/scans              - Scan history\n")
	fmt.Printf("\n")
	fmt.Printf("  POST /api/delete             - Delete duplicates, keeping one copy per group\n")
	fmt.Printf("  GET  /api/delete/reports     - Deletion reports of a scan\n")
	fmt.Printf("\n")
}
