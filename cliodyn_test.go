package cliodyn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/cliodyn/pkg/assist"
	"github.com/soundprediction/cliodyn/pkg/store"
	"github.com/soundprediction/cliodyn/pkg/types"
)

type fakeAssist struct {
	vocabulary []string
}

func (f *fakeAssist) Suggest(ctx context.Context, event *types.Event, vocabulary []string) (*assist.Suggestion, error) {
	f.vocabulary = vocabulary
	return &assist.Suggestion{
		Keywords:  []string{"idolatry"},
		Category:  "religious",
		Rationale: "keyword appears in the event description",
	}, nil
}

func (f *fakeAssist) Close() error { return nil }

func newTestClient(t *testing.T, opts *Options) (*Client, context.Context) {
	t.Helper()
	client := NewClient(store.NewMemoryStore(), nil, opts)
	t.Cleanup(func() { _ = client.Close(context.Background()) })
	return client, context.Background()
}

func TestFullWorkflow(t *testing.T) {
	client, ctx := newTestClient(t, nil)

	// Seed the vocabularies.
	patterns, err := client.SeedCorePatterns(ctx)
	require.NoError(t, err)
	require.Len(t, patterns, 6)
	indicators, err := client.SeedBaselineIndicators(ctx)
	require.NoError(t, err)
	require.Len(t, indicators, 25)

	// Ledger.
	fall, err := client.AddEvent(ctx, &types.Event{
		Name:        "Fall of Jerusalem",
		Description: "Babylonian siege ends in exile and judgment",
		YearStart:   -586,
		Era:         types.EraExile,
		Type:        types.EventTypeMilitary,
	})
	require.NoError(t, err)

	ret, err := client.AddEvent(ctx, &types.Event{
		Name:        "Return from Exile",
		Description: "Restoration under the decree of Cyrus",
		YearStart:   -538,
		Era:         types.EraPostExile,
		Type:        types.EventTypePolitical,
	})
	require.NoError(t, err)

	inRange, err := client.EventsInRange(ctx, -600, -550, false)
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.Equal(t, fall.ID, inRange[0].ID)

	distance, err := client.TemporalDistance(ctx, fall.ID, ret.ID)
	require.NoError(t, err)
	require.NotNil(t, distance)
	assert.Equal(t, 48, *distance)

	// Pattern linkage and recurrence.
	cycle, err := client.CreatePattern(ctx, &types.Pattern{
		Name:          "Siege Cycle",
		Category:      "judgment",
		Preconditions: []string{"military_pressure"},
		Indicators:    []string{"siege"},
		Outcomes:      []string{"deportation"},
	})
	require.NoError(t, err)

	_, err = client.LinkEventToPattern(ctx, fall.ID, cycle.ID, 9)
	require.NoError(t, err)

	instances, err := client.PatternInstances(ctx, cycle.ID)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, 9, instances[0].Strength)

	recurrence, err := client.PatternRecurrence(ctx, cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, recurrence.TotalInstances)
	assert.Nil(t, recurrence.AverageIntervalYears)

	// Detection against the seeded vocabulary.
	detections, err := client.DetectPatterns(ctx, fall.ID)
	require.NoError(t, err)
	require.NotEmpty(t, detections)
	assert.Equal(t, "Siege Cycle", detections[0].PatternName)

	// Simulation over seeded indicators.
	risk, err := client.RiskScore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, risk.TotalPatternsChecked)

	scenario, err := client.CreateScenario(ctx, "Baseline", "seeded run",
		nil, []string{cycle.ID}, nil)
	require.NoError(t, err)

	stored, err := client.Scenario(ctx, scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, "Baseline", stored.Name)

	analogs, err := client.HistoricalAnalogs(ctx, []string{"exile"})
	require.NoError(t, err)
	require.NotEmpty(t, analogs)
	assert.Equal(t, fall.ID, analogs[0].EventID)

	// Forecast tracking.
	record, err := client.CreateForecastRecord(ctx, &types.ForecastRecord{
		Reference: "Jeremiah 25:11",
		Text:      "Seventy years of servitude",
	})
	require.NoError(t, err)

	_, err = client.AddFulfillment(ctx, record.ID, ret.ID, "complete", "Exile ended", nil)
	require.NoError(t, err)

	rollup, err := client.FulfillmentRollup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rollup.Complete)
	assert.Equal(t, "All tracked records fulfilled - forecast horizon closing", rollup.Outlook)
}

func TestSuggestAnnotations(t *testing.T) {
	t.Run("disabled without a client", func(t *testing.T) {
		client, ctx := newTestClient(t, nil)
		event, err := client.AddEvent(ctx, &types.Event{
			Name: "Golden Calf", YearStart: -1446,
			Era: types.EraExodusToJudges, Type: types.EventTypeReligious,
		})
		require.NoError(t, err)
		_, err = client.SuggestAnnotations(ctx, event.ID)
		require.ErrorIs(t, err, ErrAssistDisabled)
	})

	t.Run("vocabulary drawn from patterns", func(t *testing.T) {
		fake := &fakeAssist{}
		client, ctx := newTestClient(t, &Options{Assist: fake})

		_, err := client.SeedCorePatterns(ctx)
		require.NoError(t, err)
		event, err := client.AddEvent(ctx, &types.Event{
			Name: "Golden Calf", Description: "idolatry at Sinai", YearStart: -1446,
			Era: types.EraExodusToJudges, Type: types.EventTypeReligious,
		})
		require.NoError(t, err)

		suggestion, err := client.SuggestAnnotations(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"idolatry"}, suggestion.Keywords)
		assert.NotEmpty(t, fake.vocabulary, "pattern keywords are offered as candidates")

		seen := make(map[string]int)
		for _, keyword := range fake.vocabulary {
			seen[keyword]++
		}
		for keyword, count := range seen {
			assert.Equal(t, 1, count, "keyword %q offered more than once", keyword)
		}

		_, err = client.SuggestAnnotations(ctx, "missing-event")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestProjectTrajectoryDefaultsCurrentYear(t *testing.T) {
	client, ctx := newTestClient(t, nil)

	pattern, err := client.CreatePattern(ctx, &types.Pattern{Name: "Sparse"})
	require.NoError(t, err)

	// With no instances the projection degrades to the distinguished
	// insufficient-data result regardless of the year.
	trajectory, err := client.ProjectTrajectory(ctx, pattern.ID, 0)
	require.NoError(t, err)
	assert.True(t, trajectory.InsufficientData)
}
