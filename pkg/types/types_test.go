package types

import (
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

func validEvent() *Event {
	return &Event{
		Name:      "Fall of Jerusalem",
		YearStart: -586,
		Era:       EraExile,
		Type:      EventTypeMilitary,
	}
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid minimal event", func(t *testing.T) {
		if err := validEvent().Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		event := validEvent()
		event.Name = ""
		if err := event.Validate(); !errors.Is(err, ErrEmptyName) {
			t.Errorf("expected ErrEmptyName, got %v", err)
		}
	})

	t.Run("unknown era", func(t *testing.T) {
		event := validEvent()
		event.Era = "bronze_age"
		if err := event.Validate(); !errors.Is(err, ErrInvalidEra) {
			t.Errorf("expected ErrInvalidEra, got %v", err)
		}
	})

	t.Run("unknown event type", func(t *testing.T) {
		event := validEvent()
		event.Type = "astronomical"
		if err := event.Validate(); !errors.Is(err, ErrInvalidEventType) {
			t.Errorf("expected ErrInvalidEventType, got %v", err)
		}
	})

	t.Run("year_end before year_start", func(t *testing.T) {
		event := validEvent()
		event.YearEnd = intPtr(-600)
		if err := event.Validate(); !errors.Is(err, ErrYearEndBeforeStart) {
			t.Errorf("expected ErrYearEndBeforeStart, got %v", err)
		}
	})

	t.Run("equal start and end is allowed", func(t *testing.T) {
		event := validEvent()
		event.YearEnd = intPtr(-586)
		if err := event.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("bounds must bracket nominal year", func(t *testing.T) {
		event := validEvent()
		event.YearStartMin = intPtr(-580)
		event.YearStartMax = intPtr(-570)
		if err := event.Validate(); !errors.Is(err, ErrInvalidUncertaintyBound) {
			t.Errorf("expected ErrInvalidUncertaintyBound, got %v", err)
		}
	})

	t.Run("half-open bound is rejected", func(t *testing.T) {
		event := validEvent()
		event.YearStartMin = intPtr(-600)
		if err := event.Validate(); !errors.Is(err, ErrInvalidUncertaintyBound) {
			t.Errorf("expected ErrInvalidUncertaintyBound, got %v", err)
		}
	})

	t.Run("valid bounds", func(t *testing.T) {
		event := validEvent()
		event.YearStartMin = intPtr(-590)
		event.YearStartMax = intPtr(-580)
		if err := event.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestSerializedExtraDataDeterministic(t *testing.T) {
	t.Parallel()
	event := validEvent()
	event.ExtraData = map[string]any{
		"keywords":  "moral_relativism injustice",
		"campaign":  "babylonian",
		"intensity": 9,
	}
	first := event.SerializedExtraData()
	for i := 0; i < 10; i++ {
		if got := event.SerializedExtraData(); got != first {
			t.Fatalf("serialization not stable: %q vs %q", first, got)
		}
	}

	empty := validEvent()
	if got := empty.SerializedExtraData(); got != "{}" {
		t.Errorf("expected {} for empty bag, got %q", got)
	}
}

func TestParseFulfillmentType(t *testing.T) {
	t.Parallel()
	for _, tag := range []string{"complete", "partial", "repeated", "conditional", "pending", "symbolic"} {
		if _, err := ParseFulfillmentType(tag); err != nil {
			t.Errorf("tag %q should parse, got %v", tag, err)
		}
	}
	if _, err := ParseFulfillmentType("fulfilled"); !errors.Is(err, ErrInvalidFulfillmentType) {
		t.Errorf("expected ErrInvalidFulfillmentType, got %v", err)
	}
	if _, err := ParseFulfillmentType(""); !errors.Is(err, ErrInvalidFulfillmentType) {
		t.Errorf("expected ErrInvalidFulfillmentType for empty tag, got %v", err)
	}
}

func TestValidateStrength(t *testing.T) {
	t.Parallel()
	for _, strength := range []int{0, -1, 11, 100} {
		link := &PatternMatch{EventID: "e", PatternID: "p", Strength: strength}
		if err := link.ValidateStrength(); !errors.Is(err, ErrStrengthOutOfRange) {
			t.Errorf("strength %d should fail, got %v", strength, err)
		}
	}
	for _, strength := range []int{1, 10} {
		link := &PatternMatch{EventID: "e", PatternID: "p", Strength: strength}
		if err := link.ValidateStrength(); err != nil {
			t.Errorf("strength %d should pass, got %v", strength, err)
		}
	}
}

func TestRiskLevelForScore(t *testing.T) {
	t.Parallel()
	cases := []struct {
		score float64
		want  RiskLevel
	}{
		{1.0, RiskCritical},
		{0.8, RiskCritical},
		{0.7999, RiskHigh},
		{0.6, RiskHigh},
		{0.59, RiskModerate},
		{0.3, RiskModerate},
		{0.29999, RiskLow},
		{0.0, RiskLow},
	}
	for _, tc := range cases {
		if got := RiskLevelForScore(tc.score); got != tc.want {
			t.Errorf("score %v: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}
