package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/osulift/osulift/pkg/log"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the transfer plan without touching the filesystem",
		Long: `Plan resolves the full source -> destination pair list and prints it,
one pair per line, for auditing or dry runs. Nothing is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := zerolog.Ctx(ctx)
			console := log.New(os.Stderr, *logger)

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			res, err := resolveLibrary(ctx, cfg, console)
			if err != nil {
				return err
			}

			for _, p := range res.Pairs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", p.Source, p.Dest)
			}
			console.Successf("%d files planned", len(res.Pairs))

			return nil
		},
	}
}
