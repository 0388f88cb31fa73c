package patterns

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/soundprediction/cliodyn/pkg/store"
	"github.com/soundprediction/cliodyn/pkg/types"
)

//go:embed seed_patterns.yaml
var seedPatternsYAML []byte

type seedFile struct {
	Patterns []seedPattern `yaml:"patterns"`
}

type seedPattern struct {
	Name                 string   `yaml:"name"`
	Description          string   `yaml:"description"`
	Category             string   `yaml:"category"`
	TypicalDurationYears *int     `yaml:"typical_duration_years"`
	Preconditions        []string `yaml:"preconditions"`
	Indicators           []string `yaml:"indicators"`
	Outcomes             []string `yaml:"outcomes"`
	Basis                string   `yaml:"basis"`
}

// SeedCorePatterns loads the embedded core pattern vocabulary into the
// store. Seeding is idempotent: patterns that already exist by name
// are skipped.
func (l *Library) SeedCorePatterns(ctx context.Context) ([]*types.Pattern, error) {
	var file seedFile
	if err := yaml.Unmarshal(seedPatternsYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed patterns: %w", err)
	}

	var created []*types.Pattern
	for _, seed := range file.Patterns {
		_, err := l.store.GetPatternByName(ctx, seed.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}

		pattern, err := l.CreatePattern(ctx, &types.Pattern{
			Name:                 seed.Name,
			Description:          seed.Description,
			Category:             seed.Category,
			TypicalDurationYears: seed.TypicalDurationYears,
			Preconditions:        seed.Preconditions,
			Indicators:           seed.Indicators,
			Outcomes:             seed.Outcomes,
			Basis:                seed.Basis,
		})
		if err != nil {
			return nil, err
		}
		created = append(created, pattern)
	}
	l.logger.Info("core patterns seeded", "created", len(created))
	return created, nil
}
