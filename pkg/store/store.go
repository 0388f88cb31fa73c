package store

import (
	"context"
	"errors"

	"github.com/soundprediction/cliodyn/pkg/types"
)

// ErrNotFound is returned when a referenced record id is absent.
var ErrNotFound = errors.New("record not found")

// EventFilter constrains ListEvents scans. Nil fields mean unbounded.
type EventFilter struct {
	Era          *types.Era
	Type         *types.EventType
	YearStartMin *int
	YearStartMax *int
}

// Store is the transactional persistence boundary for the engine. It
// exposes filtered scans, ordered scans, single-row lookup by identity
// and inserts over the five core entities plus forecast tracking.
//
// Every engine operation runs as one synchronous read/compute/write
// pass against a Store; failures propagate unchanged to the caller
// with no retry or partial-rollback logic.
type Store interface {
	// Events
	CreateEvent(ctx context.Context, event *types.Event) error
	GetEvent(ctx context.Context, id string) (*types.Event, error)
	// ListEvents returns events matching the filter ordered by
	// year_start ascending.
	ListEvents(ctx context.Context, filter EventFilter) ([]*types.Event, error)

	// Patterns. ListPatterns preserves insertion order; detection
	// tie-breaks depend on it.
	CreatePattern(ctx context.Context, pattern *types.Pattern) error
	GetPattern(ctx context.Context, id string) (*types.Pattern, error)
	GetPatternByName(ctx context.Context, name string) (*types.Pattern, error)
	ListPatterns(ctx context.Context) ([]*types.Pattern, error)

	// Pattern links
	CreateLink(ctx context.Context, link *types.PatternMatch) error
	ListLinksByPattern(ctx context.Context, patternID string) ([]*types.PatternMatch, error)
	ListLinksByEvent(ctx context.Context, eventID string) ([]*types.PatternMatch, error)

	// Indicators. ListIndicators returns newest-first; the feed is
	// append-only.
	CreateIndicator(ctx context.Context, indicator *types.Indicator) error
	GetIndicator(ctx context.Context, id string) (*types.Indicator, error)
	ListIndicators(ctx context.Context, category string) ([]*types.Indicator, error)

	// Scenarios. Immutable once created; ListScenarios returns
	// newest-first.
	CreateScenario(ctx context.Context, scenario *types.Scenario) error
	GetScenario(ctx context.Context, id string) (*types.Scenario, error)
	ListScenarios(ctx context.Context) ([]*types.Scenario, error)

	// Forecast records and fulfillments
	CreateForecastRecord(ctx context.Context, record *types.ForecastRecord) error
	GetForecastRecord(ctx context.Context, id string) (*types.ForecastRecord, error)
	ListForecastRecords(ctx context.Context) ([]*types.ForecastRecord, error)
	CreateFulfillment(ctx context.Context, fulfillment *types.Fulfillment) error
	ListFulfillments(ctx context.Context, recordID string) ([]*types.Fulfillment, error)

	// Close releases all resources held by the store.
	Close() error
}
