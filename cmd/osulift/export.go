package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/osulift/osulift/pkg/config"
	"github.com/osulift/osulift/pkg/library"
	"github.com/osulift/osulift/pkg/log"
	"github.com/osulift/osulift/pkg/resolve"
	"github.com/osulift/osulift/pkg/transfer"
)

// failures shown directly on the console; the rest go to the log only.
const maxConsoleFailures = 5

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Resolve the library and transfer every file",
		Long: `Export runs the full pipeline:
1. Read beatmap sets and file rows from the client database
2. Compute one (source, destination) pair per file
3. Copy or link every pair into the output directory
4. Report completed and errored transfers`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context())
		},
	}
}

func runExport(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	console := log.New(os.Stdout, *logger)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	console.Header("migrating " + cfg.LazerDir + " -> " + cfg.OutputDir)

	res, err := resolveLibrary(ctx, cfg, console)
	if err != nil {
		return err
	}

	if len(res.Pairs) == 0 {
		console.Warning("nothing to transfer")
		return nil
	}

	// Destination root failure is fatal: abort before any transfer.
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return errors.Errorf("creating output directory: %w", err)
	}

	m := transfer.ParseMode(cfg.Mode)
	bar, err := log.StartProgress(len(res.Pairs), "transferring ("+m.String()+")")
	if err != nil {
		return errors.Errorf("starting progress bar: %w", err)
	}

	exec := transfer.New(transfer.Options{
		Mode:     m,
		Workers:  cfg.Workers,
		Progress: bar.Update,
	})
	report, runErr := exec.Run(ctx, res.Pairs)
	bar.Stop()
	if runErr != nil {
		return runErr
	}

	if report.Errors > 0 {
		for i, f := range report.Failures {
			if i == maxConsoleFailures {
				break
			}
			console.Error(f.Dest + ": " + f.Err.Error())
		}
		console.Warningf("transferred %d of %d files, %d errored (see log for details)",
			report.Completed-report.Errors, report.Completed, report.Errors)
	} else {
		console.Successf("transferred %d files", report.Completed)
	}

	return nil
}

// resolveLibrary opens the client database, resolves the full pair list, and
// closes the database again before any transfer starts.
func resolveLibrary(ctx context.Context, cfg *config.Config, console *log.Console) (resolve.Result, error) {
	logger := zerolog.Ctx(ctx)

	lib, err := library.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return resolve.Result{}, errors.Errorf("opening library: %w", err)
	}
	defer lib.Close()

	if n, err := lib.TableCount(ctx, "BeatmapSetFileInfo"); err == nil {
		logger.Debug().Int64("file_rows", n).Msg("library opened")
	}

	res, err := resolve.Resolve(ctx, lib, cfg.ContentRoot(), cfg.OutputDir, resolve.Options{
		Exclude: cfg.Exclude,
	})
	if err != nil {
		return resolve.Result{}, errors.Errorf("resolving paths: %w", err)
	}

	if res.Skipped > 0 {
		console.Warningf("skipped %d rows with inconsistent data", res.Skipped)
	}

	return res, nil
}
