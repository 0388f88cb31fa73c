// Package cliodyn provides a temporal-pattern analytics engine for Go.
//
// Cliodyn maintains an interval-indexed ledger of historical events with
// uncertain dating, a vocabulary of recurring structural patterns with
// recurrence statistics, and a simulation projector that matches
// current-state indicators against pattern preconditions to produce
// risk scores and stored forecast scenarios.
//
// # Basic Usage
//
// Create a client over an embedded ledger store:
//
//	ledger, err := store.NewBadgerStore("./cliodyn_db")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	logger := logger.NewDefaultLogger(slog.LevelInfo)
//	client := cliodyn.NewClient(ledger, logger, nil)
//	defer client.Close(ctx)
//
// # The Event Ledger
//
// Events carry signed years (negative is BC-equivalent) and optional
// uncertainty bounds bracketing the nominal dates:
//
//	yearEnd := -2000
//	event, err := client.AddEvent(ctx, &types.Event{
//		Name:      "Patriarchal Migration",
//		YearStart: -2100,
//		YearEnd:   &yearEnd,
//		Era:       types.EraPatriarchs,
//		Type:      types.EventTypeSocial,
//	})
//
// Range queries overlap on [start, end] and can additionally admit
// events through their uncertainty bounds:
//
//	events, err := client.EventsInRange(ctx, -2200, -1900, true)
//
// # Patterns and Recurrence
//
// Patterns are reusable cycle templates. Linking events to a pattern
// drives its recurrence statistics and trajectory projections:
//
//	client.SeedCorePatterns(ctx)
//	client.LinkEventToPattern(ctx, event.ID, pattern.ID, 8)
//	recurrence, err := client.PatternRecurrence(ctx, pattern.ID)
//
// # Simulation
//
// Current-state indicators feed precondition matching, aggregate risk
// and stored scenarios:
//
//	client.AddIndicator(ctx, &types.Indicator{Name: "Political Polarization", Category: "political"})
//	risk, err := client.RiskScore(ctx)
//	scenario, err := client.CreateScenario(ctx, "baseline", "", indicatorIDs, patternIDs, nil)
//
// # Error Handling
//
// Lookup misses surface as store.ErrNotFound; validation failures use
// the typed errors in pkg/types. Projections with no historical data
// return a distinguished insufficient-data result instead of an error.
//
// # Architecture
//
//   - pkg/store: ledger persistence (Badger, in-memory)
//   - pkg/chronology: interval queries over the event ledger
//   - pkg/patterns: pattern vocabulary, links, recurrence, detection
//   - pkg/simulation: precondition matching, trajectories, risk, scenarios
//   - pkg/forecast: tracked records and typed fulfillments
//   - pkg/server: REST surface over the engine
//   - pkg/mirror: optional one-way Neo4j projection
//   - pkg/assist: optional LLM annotation suggestions
package cliodyn
