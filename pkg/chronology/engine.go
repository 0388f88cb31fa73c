// Package chronology is the temporal index over the event ledger. It
// answers interval, proximity and distance questions over uncertain
// dates without requiring exact-date matches.
package chronology

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/soundprediction/cliodyn/pkg/store"
	"github.com/soundprediction/cliodyn/pkg/types"
)

// Engine owns interval-overlap and proximity queries over the event
// ledger. It is stateless; every call is one synchronous pass against
// the store.
type Engine struct {
	store  store.Store
	logger *slog.Logger
}

// NewEngine creates a temporal index over the given store.
func NewEngine(s store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: s, logger: logger}
}

// AddEvent validates and inserts a new ledger event. The event is
// immutable once created.
func (e *Engine) AddEvent(ctx context.Context, event *types.Event) (*types.Event, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event %q: %w", event.Name, err)
	}
	if err := e.store.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	e.logger.Debug("event added", "id", event.ID, "name", event.Name, "year_start", event.YearStart)
	return event, nil
}

// Event looks up a single event by identity.
func (e *Engine) Event(ctx context.Context, id string) (*types.Event, error) {
	return e.store.GetEvent(ctx, id)
}

// overlapsDefinite applies the three-way interval test: the event
// starts inside the range, ends inside the range, or spans the entire
// range. An event with no closing year is a point event.
func overlapsDefinite(event *types.Event, yearStart, yearEnd int) bool {
	// Event starts within range.
	if event.YearStart >= yearStart && event.YearStart <= yearEnd {
		return true
	}
	// Event ends within range.
	if event.YearEnd != nil && *event.YearEnd >= yearStart && *event.YearEnd <= yearEnd {
		return true
	}
	// Event spans the entire range. A nil closing year is a point
	// event, not an open-ended span, so it never qualifies here.
	if event.YearStart <= yearStart && event.YearEnd != nil && *event.YearEnd >= yearEnd {
		return true
	}
	return false
}

// overlapsUncertain tests the uncertainty bounds against the range.
// The start-bound and end-bound sub-conditions are ORed: matching
// either side alone is enough, independent of the definite test.
func overlapsUncertain(event *types.Event, yearStart, yearEnd int) bool {
	if event.YearStartMin != nil && event.YearStartMax != nil &&
		*event.YearStartMin <= yearEnd && *event.YearStartMax >= yearStart {
		return true
	}
	if event.YearEndMin != nil && event.YearEndMax != nil &&
		*event.YearEndMin <= yearEnd && *event.YearEndMax >= yearStart {
		return true
	}
	return false
}

// EventsInRange returns all events whose definite interval intersects
// [yearStart, yearEnd]. With includeUncertain, events whose
// uncertainty bounds intersect the range are unioned in even when
// their nominal dates fall outside it. Results are deduplicated by
// identity and ordered by year_start ascending.
func (e *Engine) EventsInRange(ctx context.Context, yearStart, yearEnd int, includeUncertain bool) ([]*types.Event, error) {
	events, err := e.store.ListEvents(ctx, store.EventFilter{})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []*types.Event
	for _, event := range events {
		include := overlapsDefinite(event, yearStart, yearEnd)
		if !include && includeUncertain {
			// Computed independently of the definite filter: an event
			// can fail the nominal test and still qualify on bounds.
			include = overlapsUncertain(event, yearStart, yearEnd)
		}
		if include && !seen[event.ID] {
			seen[event.ID] = true
			out = append(out, event)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].YearStart < out[j].YearStart
	})
	return out, nil
}

// EventsByYear returns events falling within year ± tolerance. A
// tolerance of zero means exact/overlapping only.
func (e *Engine) EventsByYear(ctx context.Context, year, tolerance int) ([]*types.Event, error) {
	events, err := e.store.ListEvents(ctx, store.EventFilter{})
	if err != nil {
		return nil, err
	}
	var out []*types.Event
	for _, event := range events {
		if event.YearStart < year-tolerance {
			continue
		}
		if event.YearEnd != nil && *event.YearEnd > year+tolerance {
			continue
		}
		if event.YearEnd == nil && event.YearStart > year+tolerance {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

// EventsByEra is an exact categorical filter with no ordering contract
// beyond the store default.
func (e *Engine) EventsByEra(ctx context.Context, era types.Era) ([]*types.Event, error) {
	if !era.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidEra, era)
	}
	return e.store.ListEvents(ctx, store.EventFilter{Era: &era})
}

// Contemporaneous returns all other events with year_start within
// ±windowYears of the reference event's year_start. The reference is
// excluded by identity, never by value: a second event sharing the
// same year still surfaces. Fails with store.ErrNotFound when the
// reference is absent.
func (e *Engine) Contemporaneous(ctx context.Context, eventID string, windowYears int) ([]*types.Event, error) {
	ref, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	lo := ref.YearStart - windowYears
	hi := ref.YearStart + windowYears
	events, err := e.store.ListEvents(ctx, store.EventFilter{YearStartMin: &lo, YearStartMax: &hi})
	if err != nil {
		return nil, err
	}
	out := make([]*types.Event, 0, len(events))
	for _, event := range events {
		if event.ID == eventID {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

// TemporalDistance computes year_start(event2) − year_start(event1).
// The result is nil, not zero, when either event is missing so callers
// can distinguish "0 years apart" from "unknown".
func (e *Engine) TemporalDistance(ctx context.Context, eventID1, eventID2 string) (*int, error) {
	event1, err := e.store.GetEvent(ctx, eventID1)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	event2, err := e.store.GetEvent(ctx, eventID2)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	distance := event2.YearStart - event1.YearStart
	return &distance, nil
}

// Summary partitions the (optionally bounded) event set by era and
// type. An empty result set yields zero counts and a null year range.
func (e *Engine) Summary(ctx context.Context, startYear, endYear *int) (*types.TimelineSummary, error) {
	events, err := e.store.ListEvents(ctx, store.EventFilter{
		YearStartMin: startYear,
		YearStartMax: endYear,
	})
	if err != nil {
		return nil, err
	}

	summary := &types.TimelineSummary{
		TotalEvents:      len(events),
		EraDistribution:  make(map[types.Era]int),
		TypeDistribution: make(map[types.EventType]int),
	}
	for _, event := range events {
		summary.EraDistribution[event.Era]++
		summary.TypeDistribution[event.Type]++
	}

	summary.YearRange.Start = startYear
	summary.YearRange.End = endYear
	if len(events) > 0 {
		if summary.YearRange.Start == nil {
			first := events[0].YearStart
			summary.YearRange.Start = &first
		}
		if summary.YearRange.End == nil {
			last := events[len(events)-1].YearStart
			summary.YearRange.End = &last
		}
	}
	return summary, nil
}
