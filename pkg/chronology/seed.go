package chronology

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/soundprediction/cliodyn/pkg/store"
	"github.com/soundprediction/cliodyn/pkg/types"
)

//go:embed seed_events.yaml
var seedEventsYAML []byte

type eventSeedFile struct {
	Events []eventSeed `yaml:"events"`
}

type eventSeed struct {
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	YearStart    int            `yaml:"year_start"`
	YearEnd      *int           `yaml:"year_end"`
	YearStartMin *int           `yaml:"year_start_min"`
	YearStartMax *int           `yaml:"year_start_max"`
	Era          string         `yaml:"era"`
	EventType    string         `yaml:"event_type"`
	CanonSource  string         `yaml:"canon_source"`
	ExtraData    map[string]any `yaml:"extra_data"`
}

// SeedTimelineEvents loads the embedded sample timeline into the
// ledger. The ledger is append-only, so reseeding skips events already
// present by name rather than overwriting them.
func (e *Engine) SeedTimelineEvents(ctx context.Context) ([]*types.Event, error) {
	var file eventSeedFile
	if err := yaml.Unmarshal(seedEventsYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed events: %w", err)
	}

	existing, err := e.store.ListEvents(ctx, store.EventFilter{})
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(existing))
	for _, event := range existing {
		present[event.Name] = true
	}

	var created []*types.Event
	for _, seed := range file.Events {
		if present[seed.Name] {
			continue
		}
		event, err := e.AddEvent(ctx, &types.Event{
			Name:         seed.Name,
			Description:  seed.Description,
			YearStart:    seed.YearStart,
			YearEnd:      seed.YearEnd,
			YearStartMin: seed.YearStartMin,
			YearStartMax: seed.YearStartMax,
			Era:          types.Era(seed.Era),
			Type:         types.EventType(seed.EventType),
			CanonSource:  seed.CanonSource,
			ExtraData:    seed.ExtraData,
		})
		if err != nil {
			return nil, err
		}
		created = append(created, event)
	}
	e.logger.Info("timeline events seeded", "created", len(created))
	return created, nil
}
