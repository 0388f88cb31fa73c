package chronology

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/cliodyn/pkg/store"
	"github.com/soundprediction/cliodyn/pkg/types"
)

func intPtr(v int) *int { return &v }

func newEngine(t *testing.T) (*Engine, context.Context) {
	t.Helper()
	return NewEngine(store.NewMemoryStore(), nil), context.Background()
}

func addEvent(t *testing.T, engine *Engine, ctx context.Context, name string, yearStart int, yearEnd *int) *types.Event {
	t.Helper()
	event, err := engine.AddEvent(ctx, &types.Event{
		Name:      name,
		YearStart: yearStart,
		YearEnd:   yearEnd,
		Era:       types.EraDividedKingdom,
		Type:      types.EventTypePolitical,
	})
	require.NoError(t, err)
	return event
}

func TestAddEventValidation(t *testing.T) {
	engine, ctx := newEngine(t)

	_, err := engine.AddEvent(ctx, &types.Event{
		Name:      "Backwards",
		YearStart: -500,
		YearEnd:   intPtr(-600),
		Era:       types.EraExile,
		Type:      types.EventTypeMilitary,
	})
	require.ErrorIs(t, err, types.ErrYearEndBeforeStart)

	event := addEvent(t, engine, ctx, "Exile Begins", -586, nil)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestEventsInRangeOverlap(t *testing.T) {
	engine, ctx := newEngine(t)

	// Spans -1050..-930, overlapping a query that starts mid-reign.
	monarchy := addEvent(t, engine, ctx, "United Monarchy", -1050, intPtr(-930))
	// Point event inside the range.
	division := addEvent(t, engine, ctx, "Kingdom Divides", -931, nil)
	// Entirely before the range.
	addEvent(t, engine, ctx, "Judges Period", -1380, intPtr(-1060))

	events, err := engine.EventsInRange(ctx, -1000, -900, false)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// year_start ascending
	assert.Equal(t, monarchy.ID, events[0].ID)
	assert.Equal(t, division.ID, events[1].ID)
}

func TestEventsInRangeSpanning(t *testing.T) {
	engine, ctx := newEngine(t)

	// An event spanning the entire queried window must match even
	// though neither endpoint falls inside it.
	span := addEvent(t, engine, ctx, "Egyptian Bondage", -1800, intPtr(-1446))

	events, err := engine.EventsInRange(ctx, -1700, -1500, false)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, span.ID, events[0].ID)

	// Open-ended event starting before the window spans it too.
	engine2, ctx2 := newEngine(t)
	addEvent(t, engine2, ctx2, "Before Window", -2000, nil)
	events, err = engine2.EventsInRange(ctx2, -1000, -900, false)
	require.NoError(t, err)
	assert.Empty(t, events, "point event before window must not span it")
}

func TestEventsInRangePointEventBeforeWindow(t *testing.T) {
	engine, ctx := newEngine(t)

	// A nil closing year makes this a point event at -1000, not an
	// open-ended span: a window starting one year later excludes it.
	division := addEvent(t, engine, ctx, "Kingdom Divides", -1000, nil)

	events, err := engine.EventsInRange(ctx, -999, -900, false)
	require.NoError(t, err)
	assert.Empty(t, events)

	// A window containing the point year includes it.
	events, err = engine.EventsInRange(ctx, -1000, -900, false)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, division.ID, events[0].ID)

	// The same start year with a closing interval does span the window.
	spanning := addEvent(t, engine, ctx, "Divided Kingdom", -1000, intPtr(-722))
	events, err = engine.EventsInRange(ctx, -999, -900, false)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, spanning.ID, events[0].ID)
}

func TestEventsInRangeUncertainAdditive(t *testing.T) {
	engine, ctx := newEngine(t)

	// Nominal date outside the window, but uncertainty bounds reach in.
	uncertain, err := engine.AddEvent(ctx, &types.Event{
		Name:         "Disputed Conquest",
		YearStart:    -1406,
		YearStartMin: intPtr(-1410),
		YearStartMax: intPtr(-1200),
		Era:          types.EraExodusToJudges,
		Type:         types.EventTypeMilitary,
	})
	require.NoError(t, err)

	// Without uncertainty the window misses it entirely.
	events, err := engine.EventsInRange(ctx, -1300, -1250, false)
	require.NoError(t, err)
	assert.Empty(t, events)

	// With uncertainty it is admitted; nothing from the definite pass
	// is ever removed.
	events, err = engine.EventsInRange(ctx, -1300, -1250, true)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uncertain.ID, events[0].ID)
}

func TestEventsInRangeNoDuplicates(t *testing.T) {
	engine, ctx := newEngine(t)

	// Qualifies on both the definite interval and the bounds; must
	// appear exactly once.
	_, err := engine.AddEvent(ctx, &types.Event{
		Name:         "Doubly Qualified",
		YearStart:    -950,
		YearStartMin: intPtr(-960),
		YearStartMax: intPtr(-940),
		Era:          types.EraUnitedMonarchy,
		Type:         types.EventTypeReligious,
	})
	require.NoError(t, err)

	events, err := engine.EventsInRange(ctx, -1000, -900, true)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestEventsByYear(t *testing.T) {
	engine, ctx := newEngine(t)

	addEvent(t, engine, ctx, "Temple Founded", -966, nil)
	addEvent(t, engine, ctx, "Far Away", -1446, nil)

	events, err := engine.EventsByYear(ctx, -960, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Temple Founded", events[0].Name)

	events, err = engine.EventsByYear(ctx, -960, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventsByEra(t *testing.T) {
	engine, ctx := newEngine(t)
	addEvent(t, engine, ctx, "Divided", -931, nil)

	_, err := engine.EventsByEra(ctx, "iron_age")
	require.ErrorIs(t, err, types.ErrInvalidEra)

	events, err := engine.EventsByEra(ctx, types.EraDividedKingdom)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = engine.EventsByEra(ctx, types.EraExile)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestContemporaneous(t *testing.T) {
	engine, ctx := newEngine(t)

	ref := addEvent(t, engine, ctx, "Reference", -600, nil)
	atEdge := addEvent(t, engine, ctx, "At Window Edge", -550, nil)
	sameYear := addEvent(t, engine, ctx, "Same Year", -600, nil)
	addEvent(t, engine, ctx, "Outside", -540, nil)

	events, err := engine.Contemporaneous(ctx, ref.ID, 50)
	require.NoError(t, err)
	require.Len(t, events, 2)

	ids := []string{events[0].ID, events[1].ID}
	assert.Contains(t, ids, atEdge.ID, "window is inclusive at the edge")
	assert.Contains(t, ids, sameYear.ID, "same-year event excluded only by identity")
	assert.NotContains(t, ids, ref.ID)

	_, err = engine.Contemporaneous(ctx, "missing-id", 50)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestTemporalDistance(t *testing.T) {
	engine, ctx := newEngine(t)

	exodus := addEvent(t, engine, ctx, "Exodus", -1446, nil)
	temple := addEvent(t, engine, ctx, "Temple Construction", -960, nil)

	distance, err := engine.TemporalDistance(ctx, exodus.ID, temple.ID)
	require.NoError(t, err)
	require.NotNil(t, distance)
	assert.Equal(t, 486, *distance)

	// Reversed order flips the sign.
	distance, err = engine.TemporalDistance(ctx, temple.ID, exodus.ID)
	require.NoError(t, err)
	require.NotNil(t, distance)
	assert.Equal(t, -486, *distance)

	// A missing endpoint yields nil, not zero and not an error.
	distance, err = engine.TemporalDistance(ctx, exodus.ID, "missing-id")
	require.NoError(t, err)
	assert.Nil(t, distance)
}

func TestSummary(t *testing.T) {
	engine, ctx := newEngine(t)

	summary, err := engine.Summary(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalEvents)
	assert.Nil(t, summary.YearRange.Start)
	assert.Nil(t, summary.YearRange.End)

	addEvent(t, engine, ctx, "First", -1000, nil)
	addEvent(t, engine, ctx, "Second", -500, nil)

	summary, err = engine.Summary(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalEvents)
	assert.Equal(t, 2, summary.EraDistribution[types.EraDividedKingdom])
	assert.Equal(t, 2, summary.TypeDistribution[types.EventTypePolitical])
	require.NotNil(t, summary.YearRange.Start)
	require.NotNil(t, summary.YearRange.End)
	assert.Equal(t, -1000, *summary.YearRange.Start)
	assert.Equal(t, -500, *summary.YearRange.End)

	bounded, err := engine.Summary(ctx, intPtr(-700), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, bounded.TotalEvents)
	assert.Equal(t, -700, *bounded.YearRange.Start)
}
