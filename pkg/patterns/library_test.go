package patterns

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/cliodyn/pkg/store"
	"github.com/soundprediction/cliodyn/pkg/types"
)

func intPtr(v int) *int { return &v }

func newLibrary(t *testing.T) (*Library, context.Context) {
	t.Helper()
	return NewLibrary(store.NewMemoryStore(), nil), context.Background()
}

func addEvent(t *testing.T, lib *Library, ctx context.Context, event *types.Event) *types.Event {
	t.Helper()
	if event.Era == "" {
		event.Era = types.EraDividedKingdom
	}
	if event.Type == "" {
		event.Type = types.EventTypePolitical
	}
	if event.ID == "" {
		event.ID = "event-" + event.Name
	}
	require.NoError(t, lib.store.CreateEvent(ctx, event))
	return event
}

func addPattern(t *testing.T, lib *Library, ctx context.Context, pattern *types.Pattern) *types.Pattern {
	t.Helper()
	created, err := lib.CreatePattern(ctx, pattern)
	require.NoError(t, err)
	return created
}

func TestLinkValidation(t *testing.T) {
	lib, ctx := newLibrary(t)
	event := addEvent(t, lib, ctx, &types.Event{Name: "Fall", YearStart: -586})
	pattern := addPattern(t, lib, ctx, &types.Pattern{Name: "Judgment Cycle", Category: "judgment"})

	_, err := lib.Link(ctx, event.ID, pattern.ID, 0)
	require.ErrorIs(t, err, types.ErrStrengthOutOfRange)
	_, err = lib.Link(ctx, event.ID, pattern.ID, 11)
	require.ErrorIs(t, err, types.ErrStrengthOutOfRange)

	_, err = lib.Link(ctx, "missing-event", pattern.ID, 5)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = lib.Link(ctx, event.ID, "missing-pattern", 5)
	require.ErrorIs(t, err, store.ErrNotFound)

	link, err := lib.Link(ctx, event.ID, pattern.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, link.Strength)
}

func TestInstancesOrderedByYear(t *testing.T) {
	lib, ctx := newLibrary(t)
	pattern := addPattern(t, lib, ctx, &types.Pattern{Name: "Cycle", Category: "judgment"})

	late := addEvent(t, lib, ctx, &types.Event{Name: "Late", YearStart: -100})
	early := addEvent(t, lib, ctx, &types.Event{Name: "Early", YearStart: -900})
	mid := addEvent(t, lib, ctx, &types.Event{Name: "Mid", YearStart: -500})

	for _, event := range []*types.Event{late, early, mid} {
		_, err := lib.Link(ctx, event.ID, pattern.ID, 5)
		require.NoError(t, err)
	}

	instances, err := lib.Instances(ctx, pattern.ID)
	require.NoError(t, err)
	require.Len(t, instances, 3)
	assert.Equal(t, "Early", instances[0].Event.Name)
	assert.Equal(t, "Mid", instances[1].Event.Name)
	assert.Equal(t, "Late", instances[2].Event.Name)

	_, err = lib.Instances(ctx, "missing-pattern")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecurrence(t *testing.T) {
	lib, ctx := newLibrary(t)
	pattern := addPattern(t, lib, ctx, &types.Pattern{Name: "Cycle", Category: "fall"})

	t.Run("zero instances", func(t *testing.T) {
		recurrence, err := lib.Recurrence(ctx, pattern.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, recurrence.TotalInstances)
		assert.Nil(t, recurrence.AverageIntervalYears)
		assert.Nil(t, recurrence.FirstOccurrence)
	})

	single := addEvent(t, lib, ctx, &types.Event{Name: "Only", YearStart: -600})
	_, err := lib.Link(ctx, single.ID, pattern.ID, 5)
	require.NoError(t, err)

	t.Run("single instance has no interval", func(t *testing.T) {
		recurrence, err := lib.Recurrence(ctx, pattern.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, recurrence.TotalInstances)
		assert.Nil(t, recurrence.AverageIntervalYears, "one instance must leave the average nil, not zero")
		require.NotNil(t, recurrence.FirstOccurrence)
		assert.Equal(t, -600, *recurrence.FirstOccurrence)
		assert.Equal(t, -600, *recurrence.MostRecentOccurrence)
	})

	second := addEvent(t, lib, ctx, &types.Event{Name: "Second", YearStart: -400})
	third := addEvent(t, lib, ctx, &types.Event{Name: "Third", YearStart: -100, Era: types.EraExile})
	for _, event := range []*types.Event{second, third} {
		_, err := lib.Link(ctx, event.ID, pattern.ID, 5)
		require.NoError(t, err)
	}

	t.Run("intervals and distribution", func(t *testing.T) {
		recurrence, err := lib.Recurrence(ctx, pattern.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, recurrence.TotalInstances)
		assert.Equal(t, []int{-600, -400, -100}, recurrence.Years)
		assert.Equal(t, []int{200, 300}, recurrence.Intervals)
		require.NotNil(t, recurrence.AverageIntervalYears)
		assert.InDelta(t, 250.0, *recurrence.AverageIntervalYears, 1e-9)
		assert.Equal(t, -100, *recurrence.MostRecentOccurrence)
		assert.Equal(t, 2, recurrence.EraDistribution[types.EraDividedKingdom])
		assert.Equal(t, 1, recurrence.EraDistribution[types.EraExile])
	})
}

func TestDetectScoring(t *testing.T) {
	lib, ctx := newLibrary(t)

	addPattern(t, lib, ctx, &types.Pattern{
		Name:          "Moral Decay",
		Category:      "judgment",
		Preconditions: []string{"moral_relativism"},
		Indicators:    []string{"idolatry"},
		Outcomes:      []string{"exile"},
	})

	t.Run("single indicator meets threshold", func(t *testing.T) {
		event := addEvent(t, lib, ctx, &types.Event{
			Name:        "Golden Calf",
			Description: "Widespread idolatry at Sinai",
			YearStart:   -1446,
		})
		detections, err := lib.Detect(ctx, event.ID)
		require.NoError(t, err)
		require.Len(t, detections, 1)
		assert.Equal(t, 3, detections[0].Score)
		assert.InDelta(t, 0.3, detections[0].Confidence, 1e-9)
	})

	t.Run("single outcome stays below threshold", func(t *testing.T) {
		event := addEvent(t, lib, ctx, &types.Event{
			Name:        "Deportation",
			Description: "Sent into exile",
			YearStart:   -586,
		})
		detections, err := lib.Detect(ctx, event.ID)
		require.NoError(t, err)
		assert.Empty(t, detections, "score 2 must not reach the threshold of 3")
	})

	t.Run("precondition scans extra data only", func(t *testing.T) {
		// Keyword present in the name but not the extension bag: the
		// precondition loop must not see it.
		inName := addEvent(t, lib, ctx, &types.Event{
			Name:      "Age of moral_relativism",
			YearStart: -700,
		})
		detections, err := lib.Detect(ctx, inName.ID)
		require.NoError(t, err)
		assert.Empty(t, detections)

		inBag := addEvent(t, lib, ctx, &types.Event{
			Name:      "Era of Drift",
			YearStart: -690,
			ExtraData: map[string]any{"keywords": "moral_relativism rising", "note": "idolatry"},
		})
		detections, err = lib.Detect(ctx, inBag.ID)
		require.NoError(t, err)
		assert.Empty(t, detections, "indicator keyword in extra data must not score")

		both := addEvent(t, lib, ctx, &types.Event{
			Name:        "Era of Drift and Idols",
			Description: "idolatry spreads",
			YearStart:   -680,
			ExtraData:   map[string]any{"keywords": "moral_relativism"},
		})
		detections, err = lib.Detect(ctx, both.ID)
		require.NoError(t, err)
		require.Len(t, detections, 1)
		assert.Equal(t, 5, detections[0].Score)
	})

	t.Run("confidence is capped", func(t *testing.T) {
		addPattern(t, lib, ctx, &types.Pattern{
			Name:       "Keyword Heavy",
			Category:   "collapse",
			Indicators: []string{"plague", "famine", "invasion", "revolt"},
		})
		event := addEvent(t, lib, ctx, &types.Event{
			Name:        "Catastrophe",
			Description: "plague famine invasion revolt everywhere",
			YearStart:   -590,
		})
		detections, err := lib.Detect(ctx, event.ID)
		require.NoError(t, err)
		require.NotEmpty(t, detections)
		assert.Equal(t, 12, detections[0].Score)
		assert.Equal(t, 1.0, detections[0].Confidence)
	})
}

func TestDetectOrdering(t *testing.T) {
	lib, ctx := newLibrary(t)

	// Two patterns with equal scores keep insertion order; a stronger
	// third sorts first.
	addPattern(t, lib, ctx, &types.Pattern{Name: "Alpha", Indicators: []string{"schism"}})
	addPattern(t, lib, ctx, &types.Pattern{Name: "Beta", Indicators: []string{"schism"}})
	addPattern(t, lib, ctx, &types.Pattern{Name: "Gamma", Indicators: []string{"schism", "rivalry"}})

	event := addEvent(t, lib, ctx, &types.Event{
		Name:        "Great Schism",
		Description: "schism and rivalry between sees",
		YearStart:   1054,
	})

	detections, err := lib.Detect(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, detections, 3)
	assert.Equal(t, "Gamma", detections[0].PatternName)
	assert.Equal(t, "Alpha", detections[1].PatternName)
	assert.Equal(t, "Beta", detections[2].PatternName)
}

func TestSeedCorePatterns(t *testing.T) {
	lib, ctx := newLibrary(t)

	created, err := lib.SeedCorePatterns(ctx)
	require.NoError(t, err)
	assert.Len(t, created, 6)

	// Reseeding is a no-op.
	again, err := lib.SeedCorePatterns(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	pattern, err := lib.PatternByName(ctx, "Exile → Restoration")
	require.NoError(t, err)
	assert.Equal(t, "restoration", pattern.Category)
	require.NotNil(t, pattern.TypicalDurationYears)
	assert.Equal(t, 2000, *pattern.TypicalDurationYears)
}
