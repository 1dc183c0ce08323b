package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"anthingest/internal/config"
	"anthingest/internal/ingest"
	"anthingest/internal/ledger"
	"anthingest/internal/logging"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var videoDir string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Insert video reference tags for the videos in a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, closeLogs, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			defer closeLogs()

			dir, err := resolveVideoDir(videoDir, cfg)
			if err != nil {
				return err
			}

			var ledgerStore *ledger.Store
			if cfg.Ledger.Enabled {
				ledgerStore, err = ledger.Open(ledgerPath(cfg))
				if err != nil {
					return fmt.Errorf("open ledger: %w", err)
				}
				defer ledgerStore.Close()
			}

			report, err := ingest.Run(cmd.Context(), ingest.Options{
				VideoDir:       dir,
				DataDir:        cfg.Paths.DataDir,
				OnMissingPaper: cfg.Ingest.OnMissingPaper,
				SkipExisting:   cfg.Ingest.SkipExisting,
				Extensions:     cfg.Ingest.Extensions,
				Ledger:         ledgerStore,
				Logger:         logger,
			})
			if err != nil {
				return err
			}

			printReport(cmd.OutOrStdout(), report, stdoutIsTTY(), false)
			return nil
		},
	}

	cmd.Flags().StringVarP(&videoDir, "video-dir", "v", "", "Directory of videos to ingest (defaults to paths.video_dir)")
	return cmd
}

func resolveVideoDir(flagValue string, cfg *config.Config) (string, error) {
	dir := strings.TrimSpace(flagValue)
	if dir == "" {
		return cfg.Paths.VideoDir, nil
	}
	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return "", fmt.Errorf("resolve video directory: %w", err)
	}
	return expanded, nil
}
