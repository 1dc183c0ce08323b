package main

import (
	"github.com/spf13/cobra"

	"anthingest/internal/ingest"
	"anthingest/internal/logging"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var videoDir string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Preview an ingest without modifying any document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			dir, err := resolveVideoDir(videoDir, cfg)
			if err != nil {
				return err
			}

			report, err := ingest.Run(cmd.Context(), ingest.Options{
				VideoDir:       dir,
				DataDir:        cfg.Paths.DataDir,
				OnMissingPaper: cfg.Ingest.OnMissingPaper,
				SkipExisting:   cfg.Ingest.SkipExisting,
				Extensions:     cfg.Ingest.Extensions,
				DryRun:         true,
				Logger:         logging.NewNop(),
			})
			if err != nil {
				return err
			}

			printReport(cmd.OutOrStdout(), report, stdoutIsTTY(), true)
			return nil
		},
	}

	cmd.Flags().StringVarP(&videoDir, "video-dir", "v", "", "Directory of videos to scan (defaults to paths.video_dir)")
	return cmd
}
