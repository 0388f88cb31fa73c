package cliodyn

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundprediction/cliodyn/pkg/config"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the core pattern vocabulary, baseline indicators and sample timeline",
	Long: `Seed the ledger store with the embedded core pattern vocabulary, the
baseline world indicator set and the sample timeline. Seeding is
idempotent: entries already present by name are skipped.`,
	RunE: runSeed,
}

var (
	seedPatterns   bool
	seedIndicators bool
	seedEvents     bool
)

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().BoolVar(&seedPatterns, "patterns", true, "Seed the core pattern vocabulary")
	seedCmd.Flags().BoolVar(&seedIndicators, "indicators", true, "Seed the baseline indicator set")
	seedCmd.Flags().BoolVar(&seedEvents, "events", true, "Seed the sample timeline events")
	seedCmd.Flags().String("db-driver", "badger", "Ledger store driver (badger, memory)")
	seedCmd.Flags().String("db-path", "./cliodyn_db", "Ledger store path")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("db-driver") {
		cfg.Database.Driver, _ = cmd.Flags().GetString("db-driver")
	}
	if cmd.Flags().Changed("db-path") {
		cfg.Database.Path, _ = cmd.Flags().GetString("db-path")
	}

	engine, err := initializeEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize Cliodyn: %w", err)
	}
	ctx := context.Background()
	defer engine.Close(ctx)

	if seedPatterns {
		created, err := engine.SeedCorePatterns(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed patterns: %w", err)
		}
		fmt.Printf("Seeded %d core patterns\n", len(created))
	}

	if seedIndicators {
		created, err := engine.SeedBaselineIndicators(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed indicators: %w", err)
		}
		fmt.Printf("Seeded %d baseline indicators\n", len(created))
	}

	if seedEvents {
		created, err := engine.SeedTimelineEvents(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed timeline events: %w", err)
		}
		fmt.Printf("Seeded %d timeline events\n", len(created))
	}

	return nil
}
