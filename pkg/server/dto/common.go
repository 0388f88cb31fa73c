package dto

import (
	"errors"
	"strings"
)

// Result represents a generic API result
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// CreateEventRequest is the payload for adding a ledger event.
type CreateEventRequest struct {
	Name             string         `json:"name" binding:"required"`
	Description      string         `json:"description"`
	YearStart        int            `json:"year_start"`
	YearEnd          *int           `json:"year_end"`
	YearStartMin     *int           `json:"year_start_min"`
	YearStartMax     *int           `json:"year_start_max"`
	YearEndMin       *int           `json:"year_end_min"`
	YearEndMax       *int           `json:"year_end_max"`
	Era              string         `json:"era" binding:"required"`
	EventType        string         `json:"event_type" binding:"required"`
	CanonSource      string         `json:"canon_source"`
	HistoricalSource string         `json:"historical_source"`
	ExtraData        map[string]any `json:"extra_data"`
}

// CreatePatternRequest is the payload for defining a pattern.
type CreatePatternRequest struct {
	Name                 string   `json:"name" binding:"required"`
	Description          string   `json:"description"`
	Category             string   `json:"category"`
	TypicalDurationYears *int     `json:"typical_duration_years"`
	Preconditions        []string `json:"preconditions"`
	Indicators           []string `json:"indicators"`
	Outcomes             []string `json:"outcomes"`
	Basis                string   `json:"basis"`
}

// LinkRequest records that an event exemplifies a pattern.
type LinkRequest struct {
	EventID   string `json:"event_id" binding:"required"`
	PatternID string `json:"pattern_id" binding:"required"`
	Strength  int    `json:"strength" binding:"required"`
}

// CreateIndicatorRequest is the payload for a current-state observation.
type CreateIndicatorRequest struct {
	Name        string         `json:"name" binding:"required"`
	Category    string         `json:"category"`
	Value       *float64       `json:"value"`
	Description string         `json:"description"`
	Source      string         `json:"source"`
	ExtraData   map[string]any `json:"extra_data"`
}

// CreateScenarioRequest composes a stored forecast scenario.
type CreateScenarioRequest struct {
	Name         string         `json:"name" binding:"required"`
	Description  string         `json:"description"`
	IndicatorIDs []string       `json:"indicator_ids"`
	PatternIDs   []string       `json:"pattern_ids"`
	Assumptions  map[string]any `json:"assumptions"`
}

// CreateForecastRecordRequest is the payload for a tracked record.
type CreateForecastRecordRequest struct {
	Reference    string   `json:"reference" binding:"required"`
	Text         string   `json:"text"`
	DeclaredYear *int     `json:"declared_year"`
	RecordType   string   `json:"record_type"`
	Scope        string   `json:"scope"`
	Elements     []string `json:"elements"`
}

// AddFulfillmentRequest links a record to an event.
type AddFulfillmentRequest struct {
	EventID     string   `json:"event_id" binding:"required"`
	Type        string   `json:"fulfillment_type" binding:"required"`
	Explanation string   `json:"explanation"`
	Confidence  *float64 `json:"confidence"`
}

// AnalogsRequest holds the current-condition keywords to score.
type AnalogsRequest struct {
	Keywords []string `json:"keywords" binding:"required"`
}

// Validate rejects empty keyword lists before they reach the engine.
func (r *AnalogsRequest) Validate() error {
	for _, keyword := range r.Keywords {
		if strings.TrimSpace(keyword) != "" {
			return nil
		}
	}
	return errors.New("keywords must contain at least one non-empty entry")
}
