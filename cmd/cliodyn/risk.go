package cliodyn

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundprediction/cliodyn/pkg/alert"
	"github.com/soundprediction/cliodyn/pkg/config"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Compute the aggregate risk assessment",
	Long: `Match every stored pattern's preconditions against the current
indicator feed and print the severity-weighted risk rollup. With email
alerting configured, high and critical assessments are also mailed out.`,
	RunE: runRisk,
}

func init() {
	rootCmd.AddCommand(riskCmd)

	riskCmd.Flags().String("db-driver", "badger", "Ledger store driver (badger, memory)")
	riskCmd.Flags().String("db-path", "./cliodyn_db", "Ledger store path")
	riskCmd.Flags().Bool("alert", false, "Send an email alert for high or critical assessments")
}

func runRisk(cmd *cobra.Command, args []string) error {
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
	if sendAlert, _ := cmd.Flags().GetBool("alert"); sendAlert {
		cfg.Alert.Enabled = true
	}

	engine, err := initializeEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize Cliodyn: %w", err)
	}
	ctx := context.Background()
	defer engine.Close(ctx)

	assessment, err := engine.RiskScore(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute risk score: %w", err)
	}

	fmt.Printf("Overall risk: %.2f (%s)\n", assessment.OverallRiskScore, assessment.RiskLevel)
	fmt.Printf("Patterns matched: %d of %d\n", assessment.PatternsWithMatches, assessment.TotalPatternsChecked)
	for _, risk := range assessment.TopRisks {
		fmt.Printf("  %-30s %-15s weighted %.2f\n", risk.PatternName, risk.Category, risk.WeightedRisk)
	}

	var alerter alert.Alerter = &alert.NoOpAlerter{}
	if cfg.Alert.Enabled {
		alerter = alert.NewEmailAlerter(cfg.Alert)
	}
	if subject, body, ok := alert.RiskMessage(assessment); ok {
		if err := alerter.Alert(subject, body); err != nil {
			return fmt.Errorf("failed to send risk alert: %w", err)
		}
	}
	return nil
}
