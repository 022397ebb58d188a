package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		logrus.WithError(err).Fatal("deduper failed")
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "deduper",
		Usage:     "find and remove duplicate files",
		Version:   "2.0.0",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (.yaml, .yml or .json); created with defaults when missing",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite database that stores scans",
			},
			&cli.BoolFlag{
				Name:  "no-db",
				Usage: "do not store scans",
			},
			&cli.Int64Flag{
				Name:  "prefix-bytes",
				Usage: "bytes hashed by the partial stage",
			},
			&cli.Int64Flag{
				Name:  "min-size",
				Usage: "ignore files smaller than this many bytes",
			},
			&cli.BoolFlag{
				Name:  "no-recursive",
				Usage: "only scan files directly under ROOT",
			},
			&cli.BoolFlag{
				Name:  "follow-symlinks",
				Usage: "follow symbolic links while walking",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "number of concurrent hash workers",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn or error",
				Value: "warn",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "print pipeline stages to stderr",
			},
		},
		Commands: []*cli.Command{{
			Name:      "scan",
			Usage:     "report duplicate files under ROOT",
			ArgsUsage: "ROOT",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "json",
					Usage: "print the result as JSON",
				},
			},
			Action: withContainer(scanAction),
		}, {
			Name:      "delete",
			Usage:     "delete duplicate files under ROOT, keeping one copy per group",
			ArgsUsage: "ROOT",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "keep",
					Usage: "member to keep: first, last, oldest, newest or index:N",
				},
				&cli.BoolFlag{
					Name:  "dry-run",
					Usage: "report what would be deleted without deleting",
				},
				&cli.IntSliceFlag{
					Name:  "group",
					Usage: "only delete from these group indexes",
				},
			},
			Action: withContainer(deleteAction),
		}, {
			Name:      "stats",
			Usage:     "show statistics of the latest stored scan of ROOT",
			ArgsUsage: "[ROOT]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "id",
					Usage: "stored scan ID",
				},
			},
			Action: withContainer(statsAction),
		}, {
			Name:  "history",
			Usage: "list stored scans",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "limit",
					Usage: "maximum number of scans to list",
					Value: 20,
				},
				&cli.StringFlag{
					Name:  "forget",
					Usage: "delete the stored scan with this ID",
				},
				&cli.BoolFlag{
					Name:  "clear",
					Usage: "delete every stored scan",
				},
			},
			Action: withContainer(historyAction),
		}},
	}
}
