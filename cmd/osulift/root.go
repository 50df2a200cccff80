package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/osulift/osulift/pkg/config"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile string
	debug      bool
	lazerDir   string
	outputDir  string
	mode       string
	workers    int
	exclude    []string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "osulift",
		Short: "Migrate an osu!lazer library into the stable folder layout",
		Long: `osulift reads the lazer client database, reconstructs the
one-folder-per-set layout the stable client expects, and materializes each
file out of the content-addressed store by copying or linking it.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".osulift.yaml", "config file path")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&lazerDir, "lazer-dir", "", "lazer data directory (client.db + files/)")
	cmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "destination root for the migrated library")
	cmd.PersistentFlags().StringVar(&mode, "mode", "", "transfer mode: copy or symlink (default symlink)")
	cmd.PersistentFlags().IntVar(&workers, "workers", 0, "concurrent transfer workers (default sequential)")
	cmd.PersistentFlags().StringSliceVar(&exclude, "exclude", nil, "glob patterns for set-relative filenames to skip")

	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newPlanCmd())

	return cmd
}

// setupLogging configures zerolog and attaches it to the command context.
func setupLogging(cmd *cobra.Command) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).Level(level).With().Timestamp().Logger()
	cmd.SetContext(logger.WithContext(cmd.Context()))
}

// loadConfig loads the config file and applies flag overrides on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	if lazerDir != "" {
		cfg.LazerDir = lazerDir
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if mode != "" {
		cfg.Mode = mode
	}
	if workers != 0 {
		cfg.Workers = workers
	}
	if len(exclude) > 0 {
		cfg.Exclude = exclude
	}

	if err := config.Validate(cfg); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}
