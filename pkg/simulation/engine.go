// Package simulation fuses current-state indicators with the pattern
// vocabulary to produce precondition match scores, trajectory
// projections, aggregate risk and stored forecast scenarios.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soundprediction/cliodyn/pkg/patterns"
	"github.com/soundprediction/cliodyn/pkg/store"
	"github.com/soundprediction/cliodyn/pkg/types"
)

// defaultIntervalYears is the projection fallback when a pattern has
// one instance and no typical duration.
const defaultIntervalYears = 100

// trajectoryConfidenceDivisor: five or more historical instances give
// full projection confidence.
const trajectoryConfidenceDivisor = 5.0

// severityWeights maps category substrings to risk weights, checked
// in order; the first match wins and anything else weighs 0.5.
var severityWeights = []struct {
	substr string
	weight float64
}{
	{"decline", 0.8},
	{"collapse", 1.0},
	{"judgment", 0.9},
	{"fall", 0.85},
	{"fragmentation", 0.7},
}

const defaultSeverityWeight = 0.5

// outlookRules is the narrative ladder for the fulfillment rollup,
// evaluated top to bottom.
var outlookRules = []struct {
	applies func(pending, partial int) bool
	message string
}{
	{
		applies: func(pending, partial int) bool { return pending > 3 },
		message: "Many records remain unfulfilled - significant forecast horizon ahead",
	},
	{
		applies: func(pending, partial int) bool { return partial > 2 },
		message: "Multiple records in progressive fulfillment - active forecast period",
	},
	{
		applies: func(pending, partial int) bool { return pending == 0 && partial == 0 },
		message: "All tracked records fulfilled - forecast horizon closing",
	},
}

const outlookDefault = "Limited records pending - transitional forecast phase"

// Engine is the simulation projector. It is stateless; each call is a
// single synchronous pass against the store.
type Engine struct {
	store    store.Store
	patterns *patterns.Library
	logger   *slog.Logger
}

// NewEngine creates a simulation projector over the given store and
// pattern library.
func NewEngine(s store.Store, lib *patterns.Library, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: s, patterns: lib, logger: logger}
}

// AddIndicator validates and appends a current-state observation.
func (e *Engine) AddIndicator(ctx context.Context, indicator *types.Indicator) (*types.Indicator, error) {
	if indicator.ID == "" {
		indicator.ID = uuid.NewString()
	}
	if indicator.Timestamp.IsZero() {
		indicator.Timestamp = time.Now().UTC()
	}
	if err := indicator.Validate(); err != nil {
		return nil, fmt.Errorf("invalid indicator: %w", err)
	}
	if err := e.store.CreateIndicator(ctx, indicator); err != nil {
		return nil, err
	}
	return indicator, nil
}

// AssessIndicators rolls up the latest indicator snapshot, optionally
// scoped to one category.
func (e *Engine) AssessIndicators(ctx context.Context, category string) (*types.IndicatorAssessment, error) {
	indicators, err := e.store.ListIndicators(ctx, category)
	if err != nil {
		return nil, err
	}

	assessment := &types.IndicatorAssessment{
		TotalIndicators: len(indicators),
		Categories:      make(map[string]int),
	}
	if len(indicators) == 0 {
		return assessment, nil
	}

	grouped := make(map[string][]types.Indicator)
	var order []string
	for _, indicator := range indicators {
		if _, seen := grouped[indicator.Category]; !seen {
			order = append(order, indicator.Category)
		}
		grouped[indicator.Category] = append(grouped[indicator.Category], *indicator)
		assessment.Categories[indicator.Category]++
	}
	for _, cat := range order {
		assessment.ByCategory = append(assessment.ByCategory, types.CategoryIndicators{
			Category:   cat,
			Count:      len(grouped[cat]),
			Indicators: grouped[cat],
		})
	}
	latest := indicators[0].Timestamp.UTC().Format(time.RFC3339)
	assessment.LatestTimestamp = &latest
	return assessment, nil
}

// keywordBag collects whitespace-split lower-cased tokens from every
// indicator's name, description and string-valued extension fields.
func keywordBag(indicators []*types.Indicator) map[string]struct{} {
	bag := make(map[string]struct{})
	add := func(text string) {
		for _, token := range strings.Fields(strings.ToLower(text)) {
			bag[token] = struct{}{}
		}
	}
	for _, indicator := range indicators {
		add(indicator.Name)
		add(indicator.Description)
		for _, value := range indicator.ExtraData {
			if s, ok := value.(string); ok {
				add(s)
			}
		}
	}
	return bag
}

// MatchPreconditions checks how well current indicators satisfy one
// pattern's preconditions. A precondition is matched when any keyword
// token appears as a substring of the lower-cased precondition string;
// the keyword-in-precondition direction is load-bearing and must not
// be flipped.
func (e *Engine) MatchPreconditions(ctx context.Context, patternID string) (*types.PreconditionMatch, error) {
	pattern, err := e.store.GetPattern(ctx, patternID)
	if err != nil {
		return nil, err
	}
	indicators, err := e.store.ListIndicators(ctx, "")
	if err != nil {
		return nil, err
	}

	match := &types.PreconditionMatch{
		PatternID:            pattern.ID,
		PatternName:          pattern.Name,
		Category:             pattern.Category,
		TotalPreconditions:   len(pattern.Preconditions),
		TypicalDurationYears: pattern.TypicalDurationYears,
		RiskLevel:            types.RiskLow,
	}
	if len(indicators) == 0 {
		match.MissingPreconditions = pattern.Preconditions
		return match, nil
	}

	bag := keywordBag(indicators)
	for _, precondition := range pattern.Preconditions {
		lower := strings.ToLower(precondition)
		matched := false
		for token := range bag {
			if strings.Contains(lower, token) {
				matched = true
				break
			}
		}
		if matched {
			match.MatchedPreconditions = append(match.MatchedPreconditions, precondition)
		} else {
			match.MissingPreconditions = append(match.MissingPreconditions, precondition)
		}
	}

	if len(pattern.Preconditions) > 0 {
		match.MatchScore = float64(len(match.MatchedPreconditions)) / float64(len(pattern.Preconditions))
	}
	match.RiskLevel = types.RiskLevelForScore(match.MatchScore)
	return match, nil
}

// ProjectTrajectory projects a pattern's next recurrence from its
// historical interval statistics. With zero historical instances it
// returns the distinguished insufficient-data result at confidence
// 0.0 rather than an error.
func (e *Engine) ProjectTrajectory(ctx context.Context, patternID string, currentYear int) (*types.Trajectory, error) {
	pattern, err := e.store.GetPattern(ctx, patternID)
	if err != nil {
		return nil, err
	}
	recurrence, err := e.patterns.Recurrence(ctx, patternID)
	if err != nil {
		return nil, err
	}

	trajectory := &types.Trajectory{
		PatternID:   pattern.ID,
		PatternName: pattern.Name,
		Category:    pattern.Category,
	}
	if recurrence.TotalInstances == 0 {
		trajectory.InsufficientData = true
		return trajectory, nil
	}

	avgInterval := float64(defaultIntervalYears)
	switch {
	case recurrence.AverageIntervalYears != nil:
		avgInterval = *recurrence.AverageIntervalYears
	case pattern.TypicalDurationYears != nil:
		avgInterval = float64(*pattern.TypicalDurationYears)
	}

	last := *recurrence.MostRecentOccurrence
	yearsSince := currentYear - last
	progressRatio := 0.0
	if avgInterval > 0 {
		progressRatio = float64(yearsSince) / avgInterval
	}

	trajectory.HistoricalInstances = recurrence.TotalInstances
	trajectory.AverageIntervalYears = avgInterval
	trajectory.LastOccurrence = &last
	trajectory.YearsSinceLast = yearsSince
	trajectory.ProgressRatio = progressRatio
	trajectory.Likelihood = likelihoodForRatio(progressRatio)
	trajectory.Confidence = math.Min(float64(recurrence.TotalInstances)/trajectoryConfidenceDivisor, 1.0)

	estimatedNext := last + int(math.Round(avgInterval))
	yearsUntil := estimatedNext - currentYear
	// A pattern overdue by this arithmetic is a distinct state, not an
	// error: the negative stays internal and callers see null.
	if yearsUntil > 0 {
		trajectory.EstimatedNext = &estimatedNext
		trajectory.YearsUntilNext = &yearsUntil
		trajectory.Phases = trajectoryPhases(pattern, yearsUntil)
	} else {
		e.logger.Debug("pattern past due", "pattern", pattern.Name, "years_until_next", yearsUntil)
	}
	return trajectory, nil
}

func likelihoodForRatio(ratio float64) string {
	switch {
	case ratio >= 0.8:
		return "High - Pattern interval nearing completion"
	case ratio >= 0.5:
		return "Moderate - Pattern midway through typical cycle"
	case ratio >= 0.2:
		return "Low - Pattern recently occurred"
	default:
		return "Very Low - Pattern just completed"
	}
}

// trajectoryPhases splits the span to the estimated next occurrence
// into the fixed 30/40/30 proportions, each phase carrying the
// pattern's preconditions, indicators or outcomes respectively.
func trajectoryPhases(pattern *types.Pattern, yearsUntil int) []types.TrajectoryPhase {
	early := int(float64(yearsUntil) * 0.3)
	late := int(float64(yearsUntil) * 0.7)
	return []types.TrajectoryPhase{
		{
			Phase:           "Preconditions Active",
			Timeframe:       "Current",
			Characteristics: pattern.Preconditions,
			YearsRange:      [2]int{0, early},
		},
		{
			Phase:           "Indicators Manifesting",
			Timeframe:       fmt.Sprintf("Next %d years", int(float64(yearsUntil)*0.4)),
			Characteristics: pattern.Indicators,
			YearsRange:      [2]int{early, late},
		},
		{
			Phase:           "Outcomes Materializing",
			Timeframe:       fmt.Sprintf("Years %d-%d", late, yearsUntil),
			Characteristics: pattern.Outcomes,
			YearsRange:      [2]int{late, yearsUntil},
		},
	}
}

func severityWeightFor(category string) float64 {
	lower := strings.ToLower(category)
	for _, entry := range severityWeights {
		if strings.Contains(lower, entry.substr) {
			return entry.weight
		}
	}
	return defaultSeverityWeight
}

// RiskScore aggregates a civilization-wide risk score: every pattern
// with a nonzero precondition match contributes its match score
// weighted by category severity, and the overall score is the
// arithmetic mean across matched patterns (0.0 when none match).
func (e *Engine) RiskScore(ctx context.Context) (*types.RiskAssessment, error) {
	allPatterns, err := e.store.ListPatterns(ctx)
	if err != nil {
		return nil, err
	}

	assessment := &types.RiskAssessment{
		RiskLevel:            types.RiskLow,
		TotalPatternsChecked: len(allPatterns),
		RiskCategories:       make(map[string]int),
	}

	var risks []types.PatternRisk
	for _, pattern := range allPatterns {
		match, err := e.MatchPreconditions(ctx, pattern.ID)
		if err != nil {
			return nil, err
		}
		if match.MatchScore <= 0 {
			continue
		}
		weight := severityWeightFor(pattern.Category)
		risks = append(risks, types.PatternRisk{
			PatternID:            pattern.ID,
			PatternName:          pattern.Name,
			Category:             pattern.Category,
			MatchScore:           match.MatchScore,
			WeightedRisk:         match.MatchScore * weight,
			MatchedPreconditions: match.MatchedPreconditions,
		})
		assessment.RiskCategories[pattern.Category]++
	}

	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].WeightedRisk > risks[j].WeightedRisk
	})

	assessment.PatternsWithMatches = len(risks)
	if len(risks) > 0 {
		sum := 0.0
		for _, risk := range risks {
			sum += risk.WeightedRisk
		}
		assessment.OverallRiskScore = sum / float64(len(risks))
	}
	assessment.RiskLevel = types.RiskLevelForScore(assessment.OverallRiskScore)

	top := risks
	if len(top) > 5 {
		top = top[:5]
	}
	assessment.TopRisks = top
	return assessment, nil
}

// CreateScenario snapshots the named indicators, matches the named
// patterns against current preconditions and persists an immutable
// scenario. Missing indicator ids are skipped silently; the call never
// fails on a partial snapshot.
func (e *Engine) CreateScenario(ctx context.Context, name, description string, indicatorIDs, patternIDs []string, assumptions map[string]any) (*types.Scenario, error) {
	var snapshots []types.IndicatorSnapshot
	for _, id := range indicatorIDs {
		indicator, err := e.store.GetIndicator(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		snapshots = append(snapshots, types.IndicatorSnapshot{
			ID:          indicator.ID,
			Name:        indicator.Name,
			Category:    indicator.Category,
			Value:       indicator.Value,
			Description: indicator.Description,
		})
	}

	var matched []types.PreconditionMatch
	for _, id := range patternIDs {
		match, err := e.MatchPreconditions(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if match.MatchScore > 0 {
			matched = append(matched, *match)
		}
	}

	trajectory, err := e.scenarioTrajectory(ctx, matched)
	if err != nil {
		return nil, err
	}

	scenario := &types.Scenario{
		ID:              uuid.NewString(),
		Name:            name,
		Description:     description,
		InputIndicators: snapshots,
		Assumptions:     assumptions,
		MatchedPatterns: matched,
		Trajectory:      *trajectory,
		ConfidenceScore: scenarioConfidence(matched, len(snapshots)),
		CreatedAt:       time.Now().UTC(),
	}
	if err := e.store.CreateScenario(ctx, scenario); err != nil {
		return nil, err
	}
	e.logger.Info("scenario created", "id", scenario.ID, "name", name,
		"matched_patterns", len(matched), "confidence", scenario.ConfidenceScore)
	return scenario, nil
}

// scenarioTrajectory synthesizes the fixed four-phase timeline. The
// final phase carries the deduplicated union of all matched patterns'
// outcome keywords, capped at 5.
func (e *Engine) scenarioTrajectory(ctx context.Context, matched []types.PreconditionMatch) (*types.ScenarioTrajectory, error) {
	if len(matched) == 0 {
		return &types.ScenarioTrajectory{}, nil
	}

	seen := make(map[string]bool)
	var outcomes []string
	for _, match := range matched {
		pattern, err := e.store.GetPattern(ctx, match.PatternID)
		if err != nil {
			return nil, err
		}
		for _, outcome := range pattern.Outcomes {
			if !seen[outcome] {
				seen[outcome] = true
				outcomes = append(outcomes, outcome)
			}
		}
	}

	capped := outcomes
	if len(capped) > 5 {
		capped = capped[:5]
	}

	return &types.ScenarioTrajectory{
		Timeline: []types.ScenarioPhase{
			{Phase: "Current State", YearOffset: 0, Events: []string{"Pattern preconditions detected"}},
			{Phase: "Near Term (5 years)", YearOffset: 5, Events: []string{"Indicators begin manifesting"}},
			{Phase: "Medium Term (20 years)", YearOffset: 20, Events: []string{"Pattern progression accelerates"}},
			{Phase: "Long Term (50 years)", YearOffset: 50, Events: capped},
		},
		ProjectedOutcomes: outcomes,
	}, nil
}

// scenarioConfidence is the unweighted average of the mean match score
// and the indicator-count data factor.
func scenarioConfidence(matched []types.PreconditionMatch, indicatorCount int) float64 {
	if len(matched) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, match := range matched {
		sum += match.MatchScore
	}
	avgMatch := sum / float64(len(matched))
	dataFactor := math.Min(float64(indicatorCount)/10.0, 1.0)
	return (avgMatch + dataFactor) / 2.0
}

// Scenario looks up a stored scenario by identity.
func (e *Engine) Scenario(ctx context.Context, id string) (*types.Scenario, error) {
	return e.store.GetScenario(ctx, id)
}

// Scenarios lists stored scenarios newest-first.
func (e *Engine) Scenarios(ctx context.Context) ([]*types.Scenario, error) {
	return e.store.ListScenarios(ctx)
}

// FulfillmentRollup classifies every tracked forecast record as
// complete, partial or pending and selects the narrative outlook from
// the enumerated threshold ladder.
func (e *Engine) FulfillmentRollup(ctx context.Context) (*types.FulfillmentRollup, error) {
	records, err := e.store.ListForecastRecords(ctx)
	if err != nil {
		return nil, err
	}

	rollup := &types.FulfillmentRollup{TotalRecords: len(records)}
	for _, record := range records {
		fulfillments, err := e.store.ListFulfillments(ctx, record.ID)
		if err != nil {
			return nil, err
		}

		summary := types.RecordSummary{
			RecordID:     record.ID,
			Reference:    record.Reference,
			RecordType:   record.RecordType,
			DeclaredYear: record.DeclaredYear,
			Fulfillments: len(fulfillments),
		}
		for _, fulfillment := range fulfillments {
			summary.Types = append(summary.Types, fulfillment.Type)
		}

		summary.Status = classifyRecord(fulfillments)
		switch summary.Status {
		case types.RecordComplete:
			rollup.Complete++
		case types.RecordPartial:
			rollup.Partial++
			rollup.PartialRecords = append(rollup.PartialRecords, summary)
		case types.RecordPending:
			rollup.Pending++
			rollup.PendingRecords = append(rollup.PendingRecords, summary)
		}
	}

	rollup.Outlook = outlookDefault
	for _, rule := range outlookRules {
		if rule.applies(rollup.Pending, rollup.Partial) {
			rollup.Outlook = rule.message
			break
		}
	}
	return rollup, nil
}

// classifyRecord applies the rollup precedence: a pending or partial
// sub-record without any complete one means partial; a complete
// sub-record with neither pending nor partial means complete; no
// sub-records (or only conditional/symbolic/repeated tags) means
// pending.
func classifyRecord(fulfillments []*types.Fulfillment) types.RecordStatus {
	if len(fulfillments) == 0 {
		return types.RecordPending
	}
	var hasComplete, hasPartial, hasPending bool
	for _, fulfillment := range fulfillments {
		switch fulfillment.Type {
		case types.FulfillmentComplete:
			hasComplete = true
		case types.FulfillmentPartial:
			hasPartial = true
		case types.FulfillmentPending:
			hasPending = true
		case types.FulfillmentRepeated, types.FulfillmentConditional, types.FulfillmentSymbolic:
			// Tracked but neutral for the rollup precedence.
		}
	}
	if hasPending || (hasPartial && !hasComplete) {
		return types.RecordPartial
	}
	if hasComplete {
		return types.RecordComplete
	}
	return types.RecordPending
}

// HistoricalAnalogs scores every ledger event against a set of
// current-condition keywords and returns the top 10 by matched
// fraction.
func (e *Engine) HistoricalAnalogs(ctx context.Context, keywords []string) ([]types.Analog, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	events, err := e.store.ListEvents(ctx, store.EventFilter{})
	if err != nil {
		return nil, err
	}

	var analogs []types.Analog
	for _, event := range events {
		searchText := strings.ToLower(event.Name + " " + event.Description)
		var matched []string
		for _, keyword := range keywords {
			if strings.Contains(searchText, strings.ToLower(keyword)) {
				matched = append(matched, keyword)
			}
		}
		if len(matched) == 0 {
			continue
		}
		analogs = append(analogs, types.Analog{
			EventID:         event.ID,
			Name:            event.Name,
			YearStart:       event.YearStart,
			Era:             event.Era,
			Description:     event.Description,
			SimilarityScore: float64(len(matched)) / float64(len(keywords)),
			MatchedKeywords: matched,
		})
	}

	sort.SliceStable(analogs, func(i, j int) bool {
		return analogs[i].SimilarityScore > analogs[j].SimilarityScore
	})
	if len(analogs) > 10 {
		analogs = analogs[:10]
	}
	return analogs, nil
}
