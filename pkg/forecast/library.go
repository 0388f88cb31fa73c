// Package forecast tracks long-horizon forecast records and the typed
// fulfillments linking them to ledger events. The simulation engine's
// fulfillment rollup consumes this tracking.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soundprediction/cliodyn/pkg/store"
	"github.com/soundprediction/cliodyn/pkg/types"
)

// Library manages forecast records and their fulfillments.
type Library struct {
	store  store.Store
	logger *slog.Logger
}

// NewLibrary creates a forecast library over the given store.
func NewLibrary(s store.Store, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{store: s, logger: logger}
}

// CreateRecord validates and inserts a tracked forecast record.
func (l *Library) CreateRecord(ctx context.Context, record *types.ForecastRecord) (*types.ForecastRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecast record %q: %w", record.Reference, err)
	}
	if err := l.store.CreateForecastRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Record looks up a record by identity.
func (l *Library) Record(ctx context.Context, id string) (*types.ForecastRecord, error) {
	return l.store.GetForecastRecord(ctx, id)
}

// Records lists all tracked records in insertion order.
func (l *Library) Records(ctx context.Context) ([]*types.ForecastRecord, error) {
	return l.store.ListForecastRecords(ctx)
}

// AddFulfillment links a record to a ledger event with a typed
// classification. Both endpoints must exist and the tag must parse to
// a recognized fulfillment type.
func (l *Library) AddFulfillment(ctx context.Context, recordID, eventID, tag, explanation string, confidence *float64) (*types.Fulfillment, error) {
	fulfillmentType, err := types.ParseFulfillmentType(tag)
	if err != nil {
		return nil, err
	}
	if _, err := l.store.GetForecastRecord(ctx, recordID); err != nil {
		return nil, fmt.Errorf("fulfillment record %s: %w", recordID, err)
	}
	if _, err := l.store.GetEvent(ctx, eventID); err != nil {
		return nil, fmt.Errorf("fulfillment event %s: %w", eventID, err)
	}

	fulfillment := &types.Fulfillment{
		ID:          uuid.NewString(),
		RecordID:    recordID,
		EventID:     eventID,
		Type:        fulfillmentType,
		Confidence:  confidence,
		Explanation: explanation,
		CreatedAt:   time.Now().UTC(),
	}
	if err := l.store.CreateFulfillment(ctx, fulfillment); err != nil {
		return nil, err
	}
	l.logger.Debug("fulfillment recorded", "record_id", recordID, "event_id", eventID, "type", string(fulfillmentType))
	return fulfillment, nil
}

// Fulfillments lists all fulfillments for one record.
func (l *Library) Fulfillments(ctx context.Context, recordID string) ([]*types.Fulfillment, error) {
	return l.store.ListFulfillments(ctx, recordID)
}
