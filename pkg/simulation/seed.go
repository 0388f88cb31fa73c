package simulation

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soundprediction/cliodyn/pkg/types"
)

//go:embed seed_indicators.yaml
var seedIndicatorsYAML []byte

type indicatorSeedFile struct {
	Indicators []indicatorSeed `yaml:"indicators"`
}

type indicatorSeed struct {
	Name        string   `yaml:"name"`
	Category    string   `yaml:"category"`
	Value       *float64 `yaml:"value"`
	Description string   `yaml:"description"`
	Source      string   `yaml:"source"`
}

// SeedBaselineIndicators loads the embedded baseline indicator set.
// Indicators are append-only observations, so reseeding adds a fresh
// snapshot rather than overwriting history; idempotence is checked
// against names already present in the feed.
func (e *Engine) SeedBaselineIndicators(ctx context.Context) ([]*types.Indicator, error) {
	var file indicatorSeedFile
	if err := yaml.Unmarshal(seedIndicatorsYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed indicators: %w", err)
	}

	existing, err := e.store.ListIndicators(ctx, "")
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(existing))
	for _, indicator := range existing {
		present[indicator.Name] = true
	}

	timestamp := time.Now().UTC()
	var created []*types.Indicator
	for _, seed := range file.Indicators {
		if present[seed.Name] {
			continue
		}
		indicator, err := e.AddIndicator(ctx, &types.Indicator{
			Name:        seed.Name,
			Category:    seed.Category,
			Value:       seed.Value,
			Description: seed.Description,
			Source:      seed.Source,
			Timestamp:   timestamp,
		})
		if err != nil {
			return nil, err
		}
		created = append(created, indicator)
	}
	e.logger.Info("baseline indicators seeded", "created", len(created))
	return created, nil
}
