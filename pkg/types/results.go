package types

// Computed result types returned by the chronology, pattern and
// simulation engines. These are read models only; none of them are
// persisted except where embedded in a Scenario.

// YearRange is an optionally-open span of years.
type YearRange struct {
	Start *int `json:"start"`
	End   *int `json:"end"`
}

// TimelineSummary holds counts partitioned by era and type over an
// optionally bounded slice of the ledger.
type TimelineSummary struct {
	TotalEvents      int               `json:"total_events"`
	EraDistribution  map[Era]int       `json:"era_distribution"`
	TypeDistribution map[EventType]int `json:"type_distribution"`
	YearRange        YearRange         `json:"year_range"`
}

// Instance is a pattern-linked event annotated with its link strength.
type Instance struct {
	Event    *Event `json:"event"`
	Strength int    `json:"strength"`
}

// Recurrence summarizes how often and across which eras a pattern
// recurs. AverageIntervalYears is nil, not zero, when fewer than two
// instances exist; callers must branch on that, not treat it as 0.
type Recurrence struct {
	PatternID            string      `json:"pattern_id"`
	TotalInstances       int         `json:"total_instances"`
	EraDistribution      map[Era]int `json:"era_distribution"`
	Years                []int       `json:"years,omitempty"`
	Intervals            []int       `json:"intervals,omitempty"`
	AverageIntervalYears *float64    `json:"average_interval_years,omitempty"`
	FirstOccurrence      *int        `json:"first_occurrence,omitempty"`
	MostRecentOccurrence *int        `json:"most_recent_occurrence,omitempty"`
	Instances            []Instance  `json:"instances,omitempty"`
}

// Detection is a scored hypothesis that an event exemplifies a pattern.
type Detection struct {
	PatternID   string  `json:"pattern_id"`
	PatternName string  `json:"pattern_name"`
	Score       int     `json:"score"`
	Confidence  float64 `json:"confidence"`
}

// PreconditionMatch reports how well current indicators satisfy a
// pattern's preconditions.
type PreconditionMatch struct {
	PatternID            string    `json:"pattern_id"`
	PatternName          string    `json:"pattern_name"`
	Category             string    `json:"category"`
	TotalPreconditions   int       `json:"total_preconditions"`
	MatchedPreconditions []string  `json:"matched_preconditions,omitempty"`
	MissingPreconditions []string  `json:"missing_preconditions,omitempty"`
	MatchScore           float64   `json:"match_score"`
	RiskLevel            RiskLevel `json:"risk_level"`
	TypicalDurationYears *int      `json:"typical_duration_years,omitempty"`
}

// TrajectoryPhase is one segment of a projected pattern cycle.
type TrajectoryPhase struct {
	Phase           string   `json:"phase"`
	Timeframe       string   `json:"timeframe"`
	Characteristics []string `json:"characteristics"`
	YearsRange      [2]int   `json:"years_range"`
}

// Trajectory is a forward projection of a pattern's next recurrence.
// InsufficientData marks the distinguished zero-confidence result when
// no historical instances exist; it is a successful outcome, not an
// error.
type Trajectory struct {
	PatternID            string            `json:"pattern_id"`
	PatternName          string            `json:"pattern_name"`
	Category             string            `json:"category"`
	InsufficientData     bool              `json:"insufficient_data,omitempty"`
	HistoricalInstances  int               `json:"historical_instances"`
	AverageIntervalYears float64           `json:"average_interval_years,omitempty"`
	LastOccurrence       *int              `json:"last_occurrence,omitempty"`
	YearsSinceLast       int               `json:"years_since_last,omitempty"`
	ProgressRatio        float64           `json:"progress_ratio,omitempty"`
	Likelihood           string            `json:"likelihood,omitempty"`
	EstimatedNext        *int              `json:"estimated_next_occurrence,omitempty"`
	YearsUntilNext       *int              `json:"years_until_next,omitempty"`
	Confidence           float64           `json:"confidence"`
	Phases               []TrajectoryPhase `json:"trajectory_phases,omitempty"`
}

// PatternRisk is one pattern's contribution to the aggregate risk
// score.
type PatternRisk struct {
	PatternID            string   `json:"pattern_id"`
	PatternName          string   `json:"pattern_name"`
	Category             string   `json:"category"`
	MatchScore           float64  `json:"match_score"`
	WeightedRisk         float64  `json:"weighted_risk"`
	MatchedPreconditions []string `json:"matched_preconditions,omitempty"`
}

// RiskAssessment is the civilization-wide rollup across all patterns
// with a nonzero precondition match.
type RiskAssessment struct {
	OverallRiskScore     float64        `json:"overall_risk_score"`
	RiskLevel            RiskLevel      `json:"risk_level"`
	TotalPatternsChecked int            `json:"total_patterns_checked"`
	PatternsWithMatches  int            `json:"patterns_with_matches"`
	TopRisks             []PatternRisk  `json:"top_risks,omitempty"`
	RiskCategories       map[string]int `json:"risk_categories,omitempty"`
}

// ScenarioPhase is one step of a composed scenario timeline.
type ScenarioPhase struct {
	Phase      string   `json:"phase"`
	YearOffset int      `json:"year_offset"`
	Events     []string `json:"events,omitempty"`
}

// ScenarioTrajectory is the fixed four-phase timeline synthesized for
// a stored scenario.
type ScenarioTrajectory struct {
	Timeline          []ScenarioPhase `json:"timeline,omitempty"`
	ProjectedOutcomes []string        `json:"projected_outcomes,omitempty"`
}

// RecordStatus classifies one forecast record in the fulfillment
// rollup.
type RecordStatus string

const (
	RecordComplete RecordStatus = "complete"
	RecordPartial  RecordStatus = "partial"
	RecordPending  RecordStatus = "pending"
)

// RecordSummary is one tracked record's entry in the rollup.
type RecordSummary struct {
	RecordID     string            `json:"record_id"`
	Reference    string            `json:"reference"`
	RecordType   string            `json:"record_type,omitempty"`
	DeclaredYear *int              `json:"declared_year,omitempty"`
	Status       RecordStatus      `json:"status"`
	Fulfillments int               `json:"fulfillments"`
	Types        []FulfillmentType `json:"types,omitempty"`
}

// FulfillmentRollup classifies every tracked forecast record and
// selects a categorical narrative from the rollup counts.
type FulfillmentRollup struct {
	TotalRecords   int             `json:"total_records"`
	Complete       int             `json:"complete"`
	Partial        int             `json:"partial"`
	Pending        int             `json:"pending"`
	PendingRecords []RecordSummary `json:"pending_records,omitempty"`
	PartialRecords []RecordSummary `json:"partial_records,omitempty"`
	Outlook        string          `json:"outlook"`
}

// CategoryIndicators groups the latest indicator snapshots under one
// category.
type CategoryIndicators struct {
	Category   string      `json:"category"`
	Count      int         `json:"count"`
	Indicators []Indicator `json:"indicators"`
}

// IndicatorAssessment is a current-state rollup of the indicator feed.
type IndicatorAssessment struct {
	TotalIndicators int                  `json:"total_indicators"`
	Categories      map[string]int       `json:"categories"`
	ByCategory      []CategoryIndicators `json:"by_category,omitempty"`
	LatestTimestamp *string              `json:"latest_timestamp,omitempty"`
}

// Analog is a historical event scored for similarity against a set of
// current-condition keywords.
type Analog struct {
	EventID         string   `json:"event_id"`
	Name            string   `json:"name"`
	YearStart       int      `json:"year_start"`
	Era             Era      `json:"era"`
	Description     string   `json:"description,omitempty"`
	SimilarityScore float64  `json:"similarity_score"`
	MatchedKeywords []string `json:"matched_keywords"`
}
