package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go-file-duplicates/internal/domain/entities"
	"go-file-duplicates/internal/domain/repositories"
	"go-file-duplicates/internal/usecases"

	"github.com/fatih/color"
)

var (
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
)

// Printer renders scan and deletion results for a terminal
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) Printer {
	return Printer{w: w}
}

func (p Printer) Groups(groups []*entities.DuplicateGroup) {
	if len(groups) == 0 {
		green.Fprintln(p.w, "no duplicate files found")
		return
	}

	for i, group := range groups {
		bold.Fprintf(
			p.w,
			"group %d: %d files @ %s each, %s wasted\n",
			i,
			group.Count(),
			entities.FormatFileSize(group.Size),
			entities.FormatFileSize(group.GetWastedSpace()),
		)
		faint.Fprintf(p.w, "  %s\n", shortHash(group.Hash))
		for j, file := range group.Files {
			fmt.Fprintf(p.w, "  [%d] %s\n", j, file.Path)
		}
	}
}

func (p Printer) Warnings(warnings []*entities.ScanWarning) {
	if len(warnings) == 0 {
		return
	}
	yellow.Fprintf(p.w, "\n%d file(s) skipped:\n", len(warnings))
	for _, warning := range warnings {
		yellow.Fprintf(p.w, "  %s: %s\n", warning.Path, warning.Message)
	}
}

func (p Printer) Statistics(stats *entities.ScanStatistics) {
	if stats == nil {
		return
	}
	bold.Fprintln(p.w, "\nstatistics")
	fmt.Fprintf(p.w, "  files scanned:    %d (%s)\n", stats.TotalFiles, entities.FormatFileSize(stats.TotalSize))
	fmt.Fprintf(p.w, "  duplicate groups: %d\n", stats.DuplicateGroups)
	fmt.Fprintf(p.w, "  duplicate files:  %d\n", stats.DuplicateFiles)
	fmt.Fprintf(p.w, "  unique files:     %d\n", stats.UniqueFiles)
	fmt.Fprintf(p.w, "  wasted space:     %s\n", entities.FormatFileSize(stats.WastedSpace))
	if stats.Warnings > 0 {
		yellow.Fprintf(p.w, "  warnings:         %d\n", stats.Warnings)
	}

	top := stats.GetTopExtensions(5)
	if len(top) == 0 {
		return
	}
	fmt.Fprintln(p.w, "  top extensions:")
	for _, ext := range top {
		name := ext.Extension
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(
			p.w,
			"    %-10s %5d files %10s  %d duplicated\n",
			name,
			ext.Count,
			entities.FormatFileSize(ext.TotalSize),
			ext.DuplicateFiles,
		)
	}
}

func (p Printer) ScanSummary(scan *entities.ScanResult, persisted bool) {
	summary := fmt.Sprintf(
		"\n%d group(s), %s reclaimable in %s",
		len(scan.Groups),
		entities.FormatFileSize(scan.GetTotalWastedSpace()),
		scan.GetDuration().Round(time.Millisecond),
	)
	if persisted {
		summary += fmt.Sprintf(" (scan %s)", scan.ID)
	}
	bold.Fprintln(p.w, summary)
}

func (p Printer) DeletionReports(reports []*entities.DeletionReport) {
	for _, report := range reports {
		bold.Fprintf(p.w, "keeping %s\n", report.RetainedPath)
		for _, outcome := range report.Outcomes {
			switch outcome.Status {
			case entities.DeletionDeleted:
				green.Fprintf(p.w, "  deleted      %s\n", outcome.Path)
			case entities.DeletionPlanned:
				yellow.Fprintf(p.w, "  would delete %s\n", outcome.Path)
			case entities.DeletionFailed:
				red.Fprintf(p.w, "  failed       %s: %s\n", outcome.Path, outcome.Reason)
			}
		}
	}
}

func (p Printer) DeletionTotals(response *usecases.DeleteFilesResponse) {
	if response.DryRun {
		var planned int64
		for _, report := range response.Reports {
			for _, outcome := range report.Outcomes {
				if outcome.Status == entities.DeletionPlanned {
					planned += outcome.Size
				}
			}
		}
		yellow.Fprintf(p.w, "\ndry run: %d file(s) would be deleted, freeing %s\n", response.PlannedFiles, entities.FormatFileSize(planned))
		return
	}
	green.Fprintf(p.w, "\n%d file(s) deleted, %s freed\n", response.DeletedFiles, entities.FormatFileSize(response.SpaceSaved))
	if response.FailedFiles > 0 {
		red.Fprintf(p.w, "%d deletion(s) failed\n", response.FailedFiles)
	}
}

func (p Printer) History(summaries []*repositories.ScanSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(p.w, "no stored scans")
		return
	}
	for _, summary := range summaries {
		fmt.Fprintf(
			p.w,
			"%s  %s  %s  %d group(s)  %s wasted\n",
			summary.ID,
			summary.StartedAt.Local().Format(time.DateTime),
			summary.Root,
			summary.GroupCount,
			entities.FormatFileSize(summary.WastedSpace),
		)
	}
}

// StageNotifier returns a progress callback that prints each stage once.
// The callback is invoked from hash workers.
func (p Printer) StageNotifier() func(entities.ProgressSnapshot) {
	var (
		mu   sync.Mutex
		last entities.ScanStage
	)
	return func(snapshot entities.ProgressSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		if snapshot.Stage == last {
			return
		}
		last = snapshot.Stage
		faint.Fprintf(
			p.w,
			"%s %s (%d files seen)\n",
			time.Now().Format(time.TimeOnly),
			snapshot.Stage,
			snapshot.FilesSeen,
		)
	}
}

func shortHash(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
