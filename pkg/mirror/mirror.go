// Package mirror maintains a one-way projection of the ledger into a
// Neo4j graph for ad-hoc Cypher exploration. The embedded store stays
// authoritative; the mirror is rebuilt-on-write and never read back
// into the engines.
package mirror

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/soundprediction/cliodyn/pkg/types"
)

// Mirror pushes events, patterns and links into a Neo4j database.
type Mirror struct {
	client   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// New creates a mirror connected to the given Neo4j instance.
func New(uri, username, password, database string, logger *slog.Logger) (*Mirror, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Mirror{client: driver, database: database, logger: logger}, nil
}

// MirrorEvent upserts an event node keyed by its ledger identity.
func (m *Mirror) MirrorEvent(ctx context.Context, event *types.Event) error {
	session := m.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: m.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MERGE (e:Event {id: $id})
			SET e.name = $name,
			    e.year_start = $yearStart,
			    e.era = $era,
			    e.event_type = $eventType
		`
		params := map[string]any{
			"id":        event.ID,
			"name":      event.Name,
			"yearStart": event.YearStart,
			"era":       string(event.Era),
			"eventType": string(event.Type),
		}
		if event.YearEnd != nil {
			query += ", e.year_end = $yearEnd"
			params["yearEnd"] = *event.YearEnd
		}
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to mirror event %s: %w", event.ID, err)
	}
	return nil
}

// MirrorPattern upserts a pattern node.
func (m *Mirror) MirrorPattern(ctx context.Context, pattern *types.Pattern) error {
	session := m.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: m.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MERGE (p:Pattern {id: $id})
			SET p.name = $name,
			    p.category = $category
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"id":       pattern.ID,
			"name":     pattern.Name,
			"category": pattern.Category,
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to mirror pattern %s: %w", pattern.ID, err)
	}
	return nil
}

// MirrorLink upserts the EXEMPLIFIES edge between an event and a
// pattern, carrying the link strength.
func (m *Mirror) MirrorLink(ctx context.Context, link *types.PatternMatch) error {
	session := m.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: m.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (e:Event {id: $eventID})
			MATCH (p:Pattern {id: $patternID})
			MERGE (e)-[r:EXEMPLIFIES]->(p)
			SET r.strength = $strength
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"eventID":   link.EventID,
			"patternID": link.PatternID,
			"strength":  link.Strength,
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to mirror link %s->%s: %w", link.EventID, link.PatternID, err)
	}
	return nil
}

// Close releases the underlying driver.
func (m *Mirror) Close(ctx context.Context) error {
	return m.client.Close(ctx)
}
