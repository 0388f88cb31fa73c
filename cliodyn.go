package cliodyn

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/soundprediction/cliodyn/pkg/assist"
	"github.com/soundprediction/cliodyn/pkg/chronology"
	"github.com/soundprediction/cliodyn/pkg/forecast"
	"github.com/soundprediction/cliodyn/pkg/mirror"
	"github.com/soundprediction/cliodyn/pkg/patterns"
	"github.com/soundprediction/cliodyn/pkg/simulation"
	"github.com/soundprediction/cliodyn/pkg/store"
	"github.com/soundprediction/cliodyn/pkg/types"
)

// ErrAssistDisabled is returned by SuggestAnnotations when no assist
// client was configured.
var ErrAssistDisabled = errors.New("assist is not configured")

// Cliodyn is the main interface for the temporal-pattern analytics
// engine: an interval-indexed event ledger, a pattern vocabulary with
// recurrence statistics, and a simulation projector over both.
type Cliodyn interface {
	// AddEvent validates and appends an event to the ledger.
	AddEvent(ctx context.Context, event *types.Event) (*types.Event, error)

	// Event retrieves a single event by identity.
	Event(ctx context.Context, id string) (*types.Event, error)

	// Events lists ledger events matching the filter, year_start ascending.
	Events(ctx context.Context, filter store.EventFilter) ([]*types.Event, error)

	// EventsInRange returns events overlapping [startYear, endYear],
	// optionally admitting events via their uncertainty bounds.
	EventsInRange(ctx context.Context, startYear, endYear int, includeUncertain bool) ([]*types.Event, error)

	// EventsByYear returns events near one year within a tolerance.
	EventsByYear(ctx context.Context, year, tolerance int) ([]*types.Event, error)

	// EventsByEra returns all events of one era.
	EventsByEra(ctx context.Context, era types.Era) ([]*types.Event, error)

	// Contemporaneous returns events within a window of a given event.
	Contemporaneous(ctx context.Context, eventID string, windowYears int) ([]*types.Event, error)

	// TemporalDistance returns the signed year gap between two events,
	// or nil when either is missing.
	TemporalDistance(ctx context.Context, firstID, secondID string) (*int, error)

	// TimelineSummary aggregates era/type distributions over an
	// optionally bounded slice of the ledger.
	TimelineSummary(ctx context.Context, startYear, endYear *int) (*types.TimelineSummary, error)

	// SeedTimelineEvents loads the embedded sample timeline.
	SeedTimelineEvents(ctx context.Context) ([]*types.Event, error)

	// CreatePattern validates and inserts a pattern definition.
	CreatePattern(ctx context.Context, pattern *types.Pattern) (*types.Pattern, error)

	// Pattern retrieves a pattern by identity.
	Pattern(ctx context.Context, id string) (*types.Pattern, error)

	// Patterns lists all patterns in insertion order.
	Patterns(ctx context.Context) ([]*types.Pattern, error)

	// LinkEventToPattern records that an event exemplifies a pattern.
	LinkEventToPattern(ctx context.Context, eventID, patternID string, strength int) (*types.PatternMatch, error)

	// PatternInstances lists a pattern's linked events, oldest first.
	PatternInstances(ctx context.Context, patternID string) ([]types.Instance, error)

	// PatternRecurrence computes interval statistics for a pattern.
	PatternRecurrence(ctx context.Context, patternID string) (*types.Recurrence, error)

	// DetectPatterns scores every pattern against one event's text.
	DetectPatterns(ctx context.Context, eventID string) ([]types.Detection, error)

	// SeedCorePatterns loads the embedded core pattern vocabulary.
	SeedCorePatterns(ctx context.Context) ([]*types.Pattern, error)

	// AddIndicator appends a current-state observation.
	AddIndicator(ctx context.Context, indicator *types.Indicator) (*types.Indicator, error)

	// SeedBaselineIndicators loads the embedded baseline indicator set.
	SeedBaselineIndicators(ctx context.Context) ([]*types.Indicator, error)

	// AssessIndicators rolls up the indicator feed by category.
	AssessIndicators(ctx context.Context, category string) (*types.IndicatorAssessment, error)

	// MatchPreconditions scores current indicators against one
	// pattern's preconditions.
	MatchPreconditions(ctx context.Context, patternID string) (*types.PreconditionMatch, error)

	// ProjectTrajectory projects a pattern's next recurrence.
	ProjectTrajectory(ctx context.Context, patternID string, currentYear int) (*types.Trajectory, error)

	// RiskScore aggregates severity-weighted risk across all patterns.
	RiskScore(ctx context.Context) (*types.RiskAssessment, error)

	// CreateScenario composes and persists an immutable forecast scenario.
	CreateScenario(ctx context.Context, name, description string, indicatorIDs, patternIDs []string, assumptions map[string]any) (*types.Scenario, error)

	// Scenario retrieves a stored scenario.
	Scenario(ctx context.Context, id string) (*types.Scenario, error)

	// Scenarios lists stored scenarios newest-first.
	Scenarios(ctx context.Context) ([]*types.Scenario, error)

	// HistoricalAnalogs scores ledger events against current-condition
	// keywords.
	HistoricalAnalogs(ctx context.Context, keywords []string) ([]types.Analog, error)

	// CreateForecastRecord inserts a tracked forecast record.
	CreateForecastRecord(ctx context.Context, record *types.ForecastRecord) (*types.ForecastRecord, error)

	// ForecastRecords lists tracked records in insertion order.
	ForecastRecords(ctx context.Context) ([]*types.ForecastRecord, error)

	// AddFulfillment links a record to a ledger event with a typed tag.
	AddFulfillment(ctx context.Context, recordID, eventID, tag, explanation string, confidence *float64) (*types.Fulfillment, error)

	// Fulfillments lists a record's fulfillments.
	Fulfillments(ctx context.Context, recordID string) ([]*types.Fulfillment, error)

	// FulfillmentRollup classifies tracked records and selects the
	// narrative outlook.
	FulfillmentRollup(ctx context.Context) (*types.FulfillmentRollup, error)

	// SuggestAnnotations proposes extension keywords for an event via
	// the assist boundary, when configured.
	SuggestAnnotations(ctx context.Context, eventID string) (*assist.Suggestion, error)

	// Close closes the store and any mirror/assist connections.
	Close(ctx context.Context) error
}

// Client is the main implementation of the Cliodyn interface.
type Client struct {
	store      store.Store
	chronology *chronology.Engine
	patterns   *patterns.Library
	forecast   *forecast.Library
	simulation *simulation.Engine
	mirror     *mirror.Mirror
	assist     assist.Client
	logger     *slog.Logger
}

// Options configures optional subsystems on the client.
type Options struct {
	// Mirror, when non-nil, receives a one-way copy of every event,
	// pattern and link write. Mirror failures are logged, never fatal.
	Mirror *mirror.Mirror
	// Assist, when non-nil, backs SuggestAnnotations.
	Assist assist.Client
}

// NewClient assembles the engines over one store.
func NewClient(s store.Store, logger *slog.Logger, opts *Options) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	patternLib := patterns.NewLibrary(s, logger)
	client := &Client{
		store:      s,
		chronology: chronology.NewEngine(s, logger),
		patterns:   patternLib,
		forecast:   forecast.NewLibrary(s, logger),
		simulation: simulation.NewEngine(s, patternLib, logger),
		logger:     logger,
	}
	if opts != nil {
		client.mirror = opts.Mirror
		client.assist = opts.Assist
	}
	return client
}

func (c *Client) AddEvent(ctx context.Context, event *types.Event) (*types.Event, error) {
	created, err := c.chronology.AddEvent(ctx, event)
	if err != nil {
		return nil, err
	}
	if c.mirror != nil {
		if err := c.mirror.MirrorEvent(ctx, created); err != nil {
			c.logger.Warn("event mirror failed", "id", created.ID, "error", err)
		}
	}
	return created, nil
}

func (c *Client) Event(ctx context.Context, id string) (*types.Event, error) {
	return c.store.GetEvent(ctx, id)
}

func (c *Client) Events(ctx context.Context, filter store.EventFilter) ([]*types.Event, error) {
	return c.store.ListEvents(ctx, filter)
}

func (c *Client) EventsInRange(ctx context.Context, startYear, endYear int, includeUncertain bool) ([]*types.Event, error) {
	return c.chronology.EventsInRange(ctx, startYear, endYear, includeUncertain)
}

func (c *Client) EventsByYear(ctx context.Context, year, tolerance int) ([]*types.Event, error) {
	return c.chronology.EventsByYear(ctx, year, tolerance)
}

func (c *Client) EventsByEra(ctx context.Context, era types.Era) ([]*types.Event, error) {
	return c.chronology.EventsByEra(ctx, era)
}

func (c *Client) Contemporaneous(ctx context.Context, eventID string, windowYears int) ([]*types.Event, error) {
	return c.chronology.Contemporaneous(ctx, eventID, windowYears)
}

func (c *Client) TemporalDistance(ctx context.Context, firstID, secondID string) (*int, error) {
	return c.chronology.TemporalDistance(ctx, firstID, secondID)
}

func (c *Client) TimelineSummary(ctx context.Context, startYear, endYear *int) (*types.TimelineSummary, error) {
	return c.chronology.Summary(ctx, startYear, endYear)
}

func (c *Client) SeedTimelineEvents(ctx context.Context) ([]*types.Event, error) {
	return c.chronology.SeedTimelineEvents(ctx)
}

func (c *Client) CreatePattern(ctx context.Context, pattern *types.Pattern) (*types.Pattern, error) {
	created, err := c.patterns.CreatePattern(ctx, pattern)
	if err != nil {
		return nil, err
	}
	if c.mirror != nil {
		if err := c.mirror.MirrorPattern(ctx, created); err != nil {
			c.logger.Warn("pattern mirror failed", "id", created.ID, "error", err)
		}
	}
	return created, nil
}

func (c *Client) Pattern(ctx context.Context, id string) (*types.Pattern, error) {
	return c.patterns.Pattern(ctx, id)
}

func (c *Client) Patterns(ctx context.Context) ([]*types.Pattern, error) {
	return c.patterns.Patterns(ctx)
}

func (c *Client) LinkEventToPattern(ctx context.Context, eventID, patternID string, strength int) (*types.PatternMatch, error) {
	link, err := c.patterns.Link(ctx, eventID, patternID, strength)
	if err != nil {
		return nil, err
	}
	if c.mirror != nil {
		if err := c.mirror.MirrorLink(ctx, link); err != nil {
			c.logger.Warn("link mirror failed", "event", eventID, "pattern", patternID, "error", err)
		}
	}
	return link, nil
}

func (c *Client) PatternInstances(ctx context.Context, patternID string) ([]types.Instance, error) {
	return c.patterns.Instances(ctx, patternID)
}

func (c *Client) PatternRecurrence(ctx context.Context, patternID string) (*types.Recurrence, error) {
	return c.patterns.Recurrence(ctx, patternID)
}

func (c *Client) DetectPatterns(ctx context.Context, eventID string) ([]types.Detection, error) {
	return c.patterns.Detect(ctx, eventID)
}

func (c *Client) SeedCorePatterns(ctx context.Context) ([]*types.Pattern, error) {
	return c.patterns.SeedCorePatterns(ctx)
}

func (c *Client) AddIndicator(ctx context.Context, indicator *types.Indicator) (*types.Indicator, error) {
	return c.simulation.AddIndicator(ctx, indicator)
}

func (c *Client) SeedBaselineIndicators(ctx context.Context) ([]*types.Indicator, error) {
	return c.simulation.SeedBaselineIndicators(ctx)
}

func (c *Client) AssessIndicators(ctx context.Context, category string) (*types.IndicatorAssessment, error) {
	return c.simulation.AssessIndicators(ctx, category)
}

func (c *Client) MatchPreconditions(ctx context.Context, patternID string) (*types.PreconditionMatch, error) {
	return c.simulation.MatchPreconditions(ctx, patternID)
}

func (c *Client) ProjectTrajectory(ctx context.Context, patternID string, currentYear int) (*types.Trajectory, error) {
	if currentYear == 0 {
		currentYear = time.Now().Year()
	}
	return c.simulation.ProjectTrajectory(ctx, patternID, currentYear)
}

func (c *Client) RiskScore(ctx context.Context) (*types.RiskAssessment, error) {
	return c.simulation.RiskScore(ctx)
}

func (c *Client) CreateScenario(ctx context.Context, name, description string, indicatorIDs, patternIDs []string, assumptions map[string]any) (*types.Scenario, error) {
	return c.simulation.CreateScenario(ctx, name, description, indicatorIDs, patternIDs, assumptions)
}

func (c *Client) Scenario(ctx context.Context, id string) (*types.Scenario, error) {
	return c.simulation.Scenario(ctx, id)
}

func (c *Client) Scenarios(ctx context.Context) ([]*types.Scenario, error) {
	return c.simulation.Scenarios(ctx)
}

func (c *Client) HistoricalAnalogs(ctx context.Context, keywords []string) ([]types.Analog, error) {
	return c.simulation.HistoricalAnalogs(ctx, keywords)
}

func (c *Client) CreateForecastRecord(ctx context.Context, record *types.ForecastRecord) (*types.ForecastRecord, error) {
	return c.forecast.CreateRecord(ctx, record)
}

func (c *Client) ForecastRecords(ctx context.Context) ([]*types.ForecastRecord, error) {
	return c.forecast.Records(ctx)
}

func (c *Client) AddFulfillment(ctx context.Context, recordID, eventID, tag, explanation string, confidence *float64) (*types.Fulfillment, error) {
	return c.forecast.AddFulfillment(ctx, recordID, eventID, tag, explanation, confidence)
}

func (c *Client) Fulfillments(ctx context.Context, recordID string) ([]*types.Fulfillment, error) {
	return c.forecast.Fulfillments(ctx, recordID)
}

func (c *Client) FulfillmentRollup(ctx context.Context) (*types.FulfillmentRollup, error) {
	return c.simulation.FulfillmentRollup(ctx)
}

// SuggestAnnotations proposes extension keywords for an event. The
// pattern vocabulary (all precondition, indicator and outcome keywords)
// is offered to the model as the candidate set.
func (c *Client) SuggestAnnotations(ctx context.Context, eventID string) (*assist.Suggestion, error) {
	if c.assist == nil {
		return nil, ErrAssistDisabled
	}
	event, err := c.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	allPatterns, err := c.patterns.Patterns(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var vocabulary []string
	for _, pattern := range allPatterns {
		for _, group := range [][]string{pattern.Preconditions, pattern.Indicators, pattern.Outcomes} {
			for _, keyword := range group {
				if !seen[keyword] {
					seen[keyword] = true
					vocabulary = append(vocabulary, keyword)
				}
			}
		}
	}
	return c.assist.Suggest(ctx, event, vocabulary)
}

func (c *Client) Close(ctx context.Context) error {
	if c.assist != nil {
		if err := c.assist.Close(); err != nil {
			c.logger.Warn("assist close failed", "error", err)
		}
	}
	if c.mirror != nil {
		if err := c.mirror.Close(ctx); err != nil {
			c.logger.Warn("mirror close failed", "error", err)
		}
	}
	return c.store.Close()
}
