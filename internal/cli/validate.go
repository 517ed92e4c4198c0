package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/annuityworks/kestrel/internal/loader"
	"github.com/annuityworks/kestrel/internal/screen"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration, screens, and input snapshot without writing output",
	RunE: func(cmd *cobra.Command, args []string) error {
		screener, err := screen.New(cfg.Screens, logger)
		if err != nil {
			return fmt.Errorf("screens: %w", err)
		}

		snap, err := loader.New(cfg.Batch.InputDir, logger).Load()
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}

		fmt.Printf("configuration ok\n")
		fmt.Printf("  as_of:      %s\n", cfg.Batch.AsOf)
		fmt.Printf("  workers:    %d\n", cfg.Batch.Workers)
		fmt.Printf("  screens:    %d\n", screener.Count())
		fmt.Printf("  policies:   %d\n", len(snap.Policies))
		fmt.Printf("  clients:    %d\n", len(snap.Clients))
		fmt.Printf("  products:   %d\n", len(snap.Products))
		fmt.Printf("  portfolios: %d\n", len(snap.Portfolios))
		if n := snap.SkippedTotal(); n > 0 {
			fmt.Printf("  skipped:    %d malformed records\n", n)
		}
		return nil
	},
}
