// Package patterns defines the reusable pattern vocabulary, links
// ledger events to patterns, and quantifies recurrence.
package patterns

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soundprediction/cliodyn/pkg/store"
	"github.com/soundprediction/cliodyn/pkg/types"
)

// Detection threshold and keyword weights. Preconditions are scanned
// against the event's serialized extension data while indicators and
// outcomes are scanned against name+description; the asymmetry
// reflects where those signals are expected to appear.
const (
	detectThreshold   = 3
	precondWeight     = 2
	indicatorWeight   = 3
	outcomeWeight     = 2
	confidenceDivisor = 10.0
	confidenceCeiling = 1.0
)

// Library is the pattern recognition and recurrence analysis engine.
type Library struct {
	store  store.Store
	logger *slog.Logger
}

// NewLibrary creates a pattern library over the given store.
func NewLibrary(s store.Store, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{store: s, logger: logger}
}

// CreatePattern validates and inserts a pattern definition.
func (l *Library) CreatePattern(ctx context.Context, pattern *types.Pattern) (*types.Pattern, error) {
	if pattern.ID == "" {
		pattern.ID = uuid.NewString()
	}
	if pattern.CreatedAt.IsZero() {
		pattern.CreatedAt = time.Now().UTC()
	}
	if err := pattern.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern.Name, err)
	}
	if err := l.store.CreatePattern(ctx, pattern); err != nil {
		return nil, err
	}
	l.logger.Debug("pattern created", "id", pattern.ID, "name", pattern.Name)
	return pattern, nil
}

// Pattern looks up a pattern by identity.
func (l *Library) Pattern(ctx context.Context, id string) (*types.Pattern, error) {
	return l.store.GetPattern(ctx, id)
}

// PatternByName looks up a pattern by its unique name.
func (l *Library) PatternByName(ctx context.Context, name string) (*types.Pattern, error) {
	return l.store.GetPatternByName(ctx, name)
}

// Patterns lists all patterns in insertion order.
func (l *Library) Patterns(ctx context.Context) ([]*types.Pattern, error) {
	return l.store.ListPatterns(ctx)
}

// Link records that an event exemplifies a pattern with the given
// strength. Both endpoints must exist; a dangling reference fails with
// store.ErrNotFound. Strength is validated to the [1,10] display
// range at this boundary.
func (l *Library) Link(ctx context.Context, eventID, patternID string, strength int) (*types.PatternMatch, error) {
	link := &types.PatternMatch{
		EventID:   eventID,
		PatternID: patternID,
		Strength:  strength,
		CreatedAt: time.Now().UTC(),
	}
	if err := link.ValidateStrength(); err != nil {
		return nil, err
	}
	if _, err := l.store.GetEvent(ctx, eventID); err != nil {
		return nil, fmt.Errorf("link event %s: %w", eventID, err)
	}
	if _, err := l.store.GetPattern(ctx, patternID); err != nil {
		return nil, fmt.Errorf("link pattern %s: %w", patternID, err)
	}
	if err := l.store.CreateLink(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// Instances returns all events linked to a pattern ordered by
// year_start ascending, each annotated with its link strength.
func (l *Library) Instances(ctx context.Context, patternID string) ([]types.Instance, error) {
	if _, err := l.store.GetPattern(ctx, patternID); err != nil {
		return nil, err
	}
	links, err := l.store.ListLinksByPattern(ctx, patternID)
	if err != nil {
		return nil, err
	}
	instances := make([]types.Instance, 0, len(links))
	for _, link := range links {
		event, err := l.store.GetEvent(ctx, link.EventID)
		if err != nil {
			// A link whose event endpoint vanished is dangling;
			// ignore it rather than fail the scan.
			continue
		}
		instances = append(instances, types.Instance{Event: event, Strength: link.Strength})
	}
	sort.SliceStable(instances, func(i, j int) bool {
		return instances[i].Event.YearStart < instances[j].Event.YearStart
	})
	return instances, nil
}

// Recurrence analyzes how often and across which eras a pattern
// recurs. Zero instances yields a well-formed empty result; fewer than
// two instances leaves AverageIntervalYears nil rather than zero.
func (l *Library) Recurrence(ctx context.Context, patternID string) (*types.Recurrence, error) {
	instances, err := l.Instances(ctx, patternID)
	if err != nil {
		return nil, err
	}

	recurrence := &types.Recurrence{
		PatternID:       patternID,
		TotalInstances:  len(instances),
		EraDistribution: make(map[types.Era]int),
	}
	if len(instances) == 0 {
		return recurrence, nil
	}

	years := make([]int, 0, len(instances))
	for _, instance := range instances {
		recurrence.EraDistribution[instance.Event.Era]++
		years = append(years, instance.Event.YearStart)
	}
	sort.Ints(years)

	intervals := make([]int, 0, len(years)-1)
	for i := 0; i+1 < len(years); i++ {
		intervals = append(intervals, years[i+1]-years[i])
	}
	if len(intervals) > 0 {
		sum := 0
		for _, interval := range intervals {
			sum += interval
		}
		avg := float64(sum) / float64(len(intervals))
		recurrence.AverageIntervalYears = &avg
	}

	recurrence.Years = years
	recurrence.Intervals = intervals
	recurrence.FirstOccurrence = &years[0]
	recurrence.MostRecentOccurrence = &years[len(years)-1]
	recurrence.Instances = instances
	return recurrence, nil
}

// Detect scores every pattern against one event: +2 per precondition
// keyword found in the serialized extension data, +3 per indicator
// keyword and +2 per outcome keyword found in name+description, all
// case-insensitive substring tests. Patterns scoring >= 3 are
// detected, sorted descending by confidence with ties left in pattern
// insertion order.
func (l *Library) Detect(ctx context.Context, eventID string) ([]types.Detection, error) {
	event, err := l.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	patterns, err := l.store.ListPatterns(ctx)
	if err != nil {
		return nil, err
	}

	eventText := strings.ToLower(event.Name + " " + event.Description)
	extraData := strings.ToLower(event.SerializedExtraData())

	var detections []types.Detection
	for _, pattern := range patterns {
		score := 0
		for _, precondition := range pattern.Preconditions {
			if strings.Contains(extraData, strings.ToLower(precondition)) {
				score += precondWeight
			}
		}
		for _, indicator := range pattern.Indicators {
			if strings.Contains(eventText, strings.ToLower(indicator)) {
				score += indicatorWeight
			}
		}
		for _, outcome := range pattern.Outcomes {
			if strings.Contains(eventText, strings.ToLower(outcome)) {
				score += outcomeWeight
			}
		}
		if score >= detectThreshold {
			detections = append(detections, types.Detection{
				PatternID:   pattern.ID,
				PatternName: pattern.Name,
				Score:       score,
				Confidence:  min(float64(score)/confidenceDivisor, confidenceCeiling),
			})
		}
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})
	return detections, nil
}
