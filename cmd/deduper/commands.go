package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"go-file-duplicates/internal/domain/entities"
	"go-file-duplicates/internal/infrastructure/config"
	"go-file-duplicates/internal/interfaces/presenters"
	"go-file-duplicates/internal/usecases"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

var errNoStoredScan = errors.New("no stored scan; run scan first")

func withContainer(action func(*config.Container, *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		container, err := config.NewContainer(cfg)
		if err != nil {
			return err
		}
		defer container.Close()

		return action(container, ctx)
	}
}

// loadConfig reads the configuration file and environment, then applies the global flags
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	path := ctx.String("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if ctx.IsSet("db") {
		cfg.Database.Path = ctx.String("db")
		cfg.Database.Enabled = true
	}
	if ctx.Bool("no-db") {
		cfg.Database.Enabled = false
	}
	if ctx.IsSet("prefix-bytes") {
		cfg.Scan.PrefixBytes = ctx.Int64("prefix-bytes")
	}
	if ctx.IsSet("min-size") {
		cfg.Scan.MinFileSize = ctx.Int64("min-size")
	}
	if ctx.Bool("no-recursive") {
		cfg.Scan.Recursive = false
	}
	if ctx.IsSet("follow-symlinks") {
		cfg.Scan.FollowSymlinks = ctx.Bool("follow-symlinks")
	}
	if ctx.IsSet("workers") {
		cfg.Hash.WorkerCount = ctx.Int("workers")
	}
	if ctx.IsSet("log-level") || path == "" {
		cfg.Logging.Level = ctx.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func rootArg(ctx *cli.Context) (string, error) {
	if ctx.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one ROOT argument, got %d", ctx.NArg())
	}
	return filepath.Abs(ctx.Args().First())
}

func runScan(c *config.Container, ctx *cli.Context, root string) (*usecases.FindDuplicatesResponse, error) {
	req := &usecases.FindDuplicatesRequest{
		Root:    root,
		Options: c.Config.ScanOptions(),
		Persist: c.Config.Database.Enabled,
	}
	if ctx.Bool("progress") {
		req.ProgressCallback = NewPrinter(ctx.App.ErrWriter).StageNotifier()
	}
	return c.DuplicateFindingUseCase.FindDuplicates(ctx.Context, req)
}

func scanAction(c *config.Container, ctx *cli.Context) error {
	root, err := rootArg(ctx)
	if err != nil {
		return err
	}

	response, err := runScan(c, ctx, root)
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		encoder := json.NewEncoder(ctx.App.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(presenters.ToScanResponseDTO(response))
	}

	printer := NewPrinter(ctx.App.Writer)
	printer.Groups(response.Scan.Groups)
	printer.Warnings(response.Scan.Warnings)
	printer.Statistics(response.Scan.Statistics)
	printer.ScanSummary(response.Scan, response.Persisted)
	return nil
}

func deleteAction(c *config.Container, ctx *cli.Context) error {
	root, err := rootArg(ctx)
	if err != nil {
		return err
	}

	rule := c.Config.RetentionRule()
	if keep := ctx.String("keep"); keep != "" {
		if rule, err = entities.ParseRetentionRule(keep); err != nil {
			return err
		}
	}

	scanned, err := runScan(c, ctx, root)
	if err != nil {
		return err
	}

	dryRun := ctx.Bool("dry-run")
	indexes := ctx.IntSlice("group")

	var response *usecases.DeleteFilesResponse
	if scanned.Persisted {
		response, err = c.FileCleanupUseCase.DeleteFromScan(ctx.Context, &usecases.DeleteFromScanRequest{
			ScanID:       scanned.Scan.ID,
			GroupIndexes: indexes,
			Retention:    rule,
			DryRun:       dryRun,
		})
		if err != nil {
			return err
		}
	} else {
		groups, err := usecases.SelectGroups(scanned.Scan, indexes)
		if err != nil {
			return err
		}
		reports, err := c.FileCleanupUseCase.DeleteGroups(ctx.Context, groups, rule, dryRun)
		if err != nil {
			return err
		}
		response = usecases.NewDeleteFilesResponse(reports, dryRun)
	}

	printer := NewPrinter(ctx.App.Writer)
	if len(response.Reports) == 0 {
		printer.Groups(nil)
		return nil
	}
	printer.DeletionReports(response.Reports)
	printer.DeletionTotals(response)

	if response.FailedFiles > 0 {
		return fmt.Errorf("%d deletion(s) failed", response.FailedFiles)
	}
	return nil
}

func statsAction(c *config.Container, ctx *cli.Context) error {
	var (
		scan *entities.ScanResult
		err  error
	)
	if idStr := ctx.String("id"); idStr != "" {
		id, parseErr := uuid.Parse(idStr)
		if parseErr != nil {
			return fmt.Errorf("invalid scan ID: %w", parseErr)
		}
		scan, err = c.DuplicateFindingUseCase.GetScan(ctx.Context, id)
	} else {
		root := ""
		if ctx.NArg() > 0 {
			if root, err = rootArg(ctx); err != nil {
				return err
			}
		}
		scan, err = c.DuplicateFindingUseCase.GetLatestScan(ctx.Context, root)
	}
	if err != nil {
		return err
	}
	if scan == nil {
		return errNoStoredScan
	}

	printer := NewPrinter(ctx.App.Writer)
	fmt.Fprintf(ctx.App.Writer, "scan %s of %s\n", scan.ID, scan.Root)
	printer.Statistics(scan.Statistics)
	printer.ScanSummary(scan, true)
	return nil
}

func historyAction(c *config.Container, ctx *cli.Context) error {
	finder := c.DuplicateFindingUseCase

	if ctx.Bool("clear") {
		return finder.ClearScans(ctx.Context)
	}
	if idStr := ctx.String("forget"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return fmt.Errorf("invalid scan ID: %w", err)
		}
		return finder.DeleteScan(ctx.Context, id)
	}

	summaries, err := finder.ListScans(ctx.Context, ctx.Int("limit"))
	if err != nil {
		return err
	}
	NewPrinter(ctx.App.Writer).History(summaries)
	return nil
}
