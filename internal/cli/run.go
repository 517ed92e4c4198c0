package cli

import (
	"github.com/spf13/cobra"

	"github.com/annuityworks/kestrel/internal/batch"
	"github.com/annuityworks/kestrel/internal/loader"
	"github.com/annuityworks/kestrel/internal/screen"
	"github.com/annuityworks/kestrel/internal/sink"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one batch alert generation cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		screener, err := screen.New(cfg.Screens, logger)
		if err != nil {
			return err
		}
		logger.Info("eligibility screens compiled", "count", screener.Count())

		snap, err := loader.New(cfg.Batch.InputDir, logger).Load()
		if err != nil {
			return err
		}

		out, err := batch.New(cfg, screener, logger).Run(ctx, snap)
		if err != nil {
			return err
		}

		dest, err := sink.New(cfg.Sink)
		if err != nil {
			return err
		}
		defer dest.Close()

		if err := dest.Write(ctx, out); err != nil {
			return err
		}
		logger.Info("batch output written", "sink", cfg.Sink.Kind)
		return nil
	},
}
