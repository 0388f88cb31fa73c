package types

import (
	"encoding/json"
	"errors"
	"time"
)

// Validation errors
var (
	ErrEmptyName               = errors.New("name cannot be empty")
	ErrEmptyID                 = errors.New("id cannot be empty")
	ErrInvalidEra              = errors.New("unrecognized era")
	ErrInvalidEventType        = errors.New("unrecognized event type")
	ErrInvalidFulfillmentType  = errors.New("unrecognized fulfillment type")
	ErrYearEndBeforeStart      = errors.New("year_end must be >= year_start")
	ErrInvalidUncertaintyBound = errors.New("uncertainty bound min must be <= max and bracket the nominal year")
	ErrStrengthOutOfRange      = errors.New("link strength must be in [1,10]")
)

// Event is a single occurrence on the primary timeline. Years are
// signed: negative is BC-equivalent. Events are immutable once created
// except for pattern/actor link additions.
type Event struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" mapstructure:"description"`

	YearStart int  `json:"year_start" mapstructure:"year_start"`
	YearEnd   *int `json:"year_end,omitempty" mapstructure:"year_end"`

	// Uncertainty bounds bracket the nominal years when exact dating
	// is unknown.
	YearStartMin *int `json:"year_start_min,omitempty" mapstructure:"year_start_min"`
	YearStartMax *int `json:"year_start_max,omitempty" mapstructure:"year_start_max"`
	YearEndMin   *int `json:"year_end_min,omitempty" mapstructure:"year_end_min"`
	YearEndMax   *int `json:"year_end_max,omitempty" mapstructure:"year_end_max"`

	Era  Era       `json:"era" mapstructure:"era"`
	Type EventType `json:"event_type" mapstructure:"event_type"`

	// Free-form source annotations.
	CanonSource      string `json:"canon_source,omitempty" mapstructure:"canon_source"`
	HistoricalSource string `json:"historical_source,omitempty" mapstructure:"historical_source"`

	// ExtraData is an open key/value extension bag.
	ExtraData map[string]any `json:"extra_data,omitempty" mapstructure:"extra_data"`

	CreatedAt time.Time `json:"created_at" mapstructure:"created_at"`
}

// Validate checks the Event invariants: a closing year never precedes
// the start, and uncertainty bounds must bracket the nominal value.
func (e *Event) Validate() error {
	if e.Name == "" {
		return ErrEmptyName
	}
	if !e.Era.Valid() {
		return ErrInvalidEra
	}
	if !e.Type.Valid() {
		return ErrInvalidEventType
	}
	if e.YearEnd != nil && *e.YearEnd < e.YearStart {
		return ErrYearEndBeforeStart
	}
	if err := validateBound(e.YearStartMin, e.YearStartMax, e.YearStart); err != nil {
		return err
	}
	if e.YearEnd != nil {
		if err := validateBound(e.YearEndMin, e.YearEndMax, *e.YearEnd); err != nil {
			return err
		}
	}
	return nil
}

func validateBound(min, max *int, nominal int) error {
	if min == nil && max == nil {
		return nil
	}
	if min == nil || max == nil {
		return ErrInvalidUncertaintyBound
	}
	if *min > *max || nominal < *min || nominal > *max {
		return ErrInvalidUncertaintyBound
	}
	return nil
}

// SerializedExtraData renders the extension bag as deterministic JSON.
// encoding/json emits map keys in sorted order, which keeps keyword
// detection scores reproducible across runs.
func (e *Event) SerializedExtraData() string {
	if len(e.ExtraData) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(e.ExtraData)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// Pattern is a reusable structural template: a named cycle with
// triggering preconditions, observable indicators and typical outcomes.
type Pattern struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`

	// Category tags the pattern's severity family (decline, collapse,
	// judgment, fall, fragmentation, ...).
	Category             string `json:"category" mapstructure:"category"`
	TypicalDurationYears *int   `json:"typical_duration_years,omitempty" mapstructure:"typical_duration_years"`

	Preconditions []string `json:"preconditions,omitempty" mapstructure:"preconditions"`
	Indicators    []string `json:"indicators,omitempty" mapstructure:"indicators"`
	Outcomes      []string `json:"outcomes,omitempty" mapstructure:"outcomes"`

	// Basis is the free-text doctrinal/contextual grounding.
	Basis string `json:"basis,omitempty" mapstructure:"basis"`

	CreatedAt time.Time `json:"created_at" mapstructure:"created_at"`
}

// Validate checks required Pattern fields.
func (p *Pattern) Validate() error {
	if p.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// PatternMatch is a strength-weighted edge recording that an event
// exemplifies a pattern. It exists only while both endpoints exist.
type PatternMatch struct {
	EventID   string    `json:"event_id" mapstructure:"event_id"`
	PatternID string    `json:"pattern_id" mapstructure:"pattern_id"`
	Strength  int       `json:"strength" mapstructure:"strength"`
	CreatedAt time.Time `json:"created_at" mapstructure:"created_at"`
}

// ValidateStrength enforces the [1,10] display range at the caller
// boundary.
func (m *PatternMatch) ValidateStrength() error {
	if m.Strength < 1 || m.Strength > 10 {
		return ErrStrengthOutOfRange
	}
	return nil
}

// Indicator is a timestamped observation of current-state conditions.
// Indicators are append-only; history is never mutated.
type Indicator struct {
	ID          string         `json:"id" mapstructure:"id"`
	Name        string         `json:"name" mapstructure:"name"`
	Category    string         `json:"category" mapstructure:"category"`
	Value       *float64       `json:"value,omitempty" mapstructure:"value"`
	Description string         `json:"description,omitempty" mapstructure:"description"`
	Source      string         `json:"source,omitempty" mapstructure:"source"`
	Timestamp   time.Time      `json:"timestamp" mapstructure:"timestamp"`
	ExtraData   map[string]any `json:"extra_data,omitempty" mapstructure:"extra_data"`
}

// Validate checks required Indicator fields.
func (i *Indicator) Validate() error {
	if i.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// IndicatorSnapshot is the frozen copy of an indicator embedded in a
// scenario. Scenarios never hold live references, so later indicator
// appends cannot alter a stored forecast.
type IndicatorSnapshot struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Value       *float64 `json:"value,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Scenario is an immutable stored forecast: the audit unit combining
// an indicator snapshot, matched patterns and a projected trajectory.
type Scenario struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" mapstructure:"description"`

	InputIndicators []IndicatorSnapshot `json:"input_indicators" mapstructure:"input_indicators"`
	Assumptions     map[string]any      `json:"assumptions,omitempty" mapstructure:"assumptions"`
	MatchedPatterns []PreconditionMatch `json:"matched_patterns,omitempty" mapstructure:"matched_patterns"`
	Trajectory      ScenarioTrajectory  `json:"trajectory" mapstructure:"trajectory"`
	ConfidenceScore float64             `json:"confidence_score" mapstructure:"confidence_score"`

	CreatedAt time.Time `json:"created_at" mapstructure:"created_at"`
}

// ForecastRecord is a tracked declaration with discrete predictive
// elements, classified over time by its fulfillments.
type ForecastRecord struct {
	ID           string    `json:"id" mapstructure:"id"`
	Reference    string    `json:"reference" mapstructure:"reference"`
	Text         string    `json:"text" mapstructure:"text"`
	DeclaredYear *int      `json:"declared_year,omitempty" mapstructure:"declared_year"`
	RecordType   string    `json:"record_type,omitempty" mapstructure:"record_type"`
	Scope        string    `json:"scope,omitempty" mapstructure:"scope"`
	Elements     []string  `json:"elements,omitempty" mapstructure:"elements"`
	CreatedAt    time.Time `json:"created_at" mapstructure:"created_at"`
}

// Validate checks required ForecastRecord fields.
func (r *ForecastRecord) Validate() error {
	if r.Reference == "" {
		return ErrEmptyName
	}
	return nil
}

// Fulfillment links a forecast record to a historical event with a
// typed classification of how the event satisfies the record.
type Fulfillment struct {
	ID          string          `json:"id" mapstructure:"id"`
	RecordID    string          `json:"record_id" mapstructure:"record_id"`
	EventID     string          `json:"event_id" mapstructure:"event_id"`
	Type        FulfillmentType `json:"fulfillment_type" mapstructure:"fulfillment_type"`
	Confidence  *float64        `json:"confidence,omitempty" mapstructure:"confidence"`
	Explanation string          `json:"explanation" mapstructure:"explanation"`
	CreatedAt   time.Time       `json:"created_at" mapstructure:"created_at"`
}
