package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/soundprediction/cliodyn/pkg/types"
)

// Key prefixes. Records are stored as JSON values under typed
// prefixes; pattern and forecast-record envelopes carry a sequence
// number so insertion order survives the keyspace sort.
const (
	prefixEvent       = "event/"
	prefixPattern     = "pattern/"
	prefixLink        = "link/"
	prefixIndicator   = "indicator/"
	prefixScenario    = "scenario/"
	prefixRecord      = "record/"
	prefixFulfillment = "fulfillment/"
	keyPatternSeq     = "seq/pattern"
	keyRecordSeq      = "seq/record"
)

// BadgerStore is a persistent embedded Store backed by badger. One
// badger transaction bounds each call, matching the engine's
// one-transaction-per-operation contract.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a badger database at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store at %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

type patternEnvelope struct {
	Seq     uint64         `json:"seq"`
	Pattern *types.Pattern `json:"pattern"`
}

type recordEnvelope struct {
	Seq    uint64                `json:"seq"`
	Record *types.ForecastRecord `json:"record"`
}

func (s *BadgerStore) put(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
}

func (s *BadgerStore) get(key string, out any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(raw []byte) error {
			return json.Unmarshal(raw, out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *BadgerStore) scan(prefix string, visit func(raw []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(visit); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) nextSeq(key string) (uint64, error) {
	var seq uint64
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			seq = 1
		case err != nil:
			return err
		default:
			if err := item.Value(func(raw []byte) error {
				return json.Unmarshal(raw, &seq)
			}); err != nil {
				return err
			}
			seq++
		}
		raw, err := json.Marshal(seq)
		if err != nil {
			return err
		}
		return txn.Set([]byte(key), raw)
	})
	return seq, err
}

// CreateEvent inserts an event.
func (s *BadgerStore) CreateEvent(ctx context.Context, event *types.Event) error {
	cp := *event
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	return s.put(prefixEvent+cp.ID, &cp)
}

// GetEvent looks up an event by identity.
func (s *BadgerStore) GetEvent(ctx context.Context, id string) (*types.Event, error) {
	var event types.Event
	if err := s.get(prefixEvent+id, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEvents scans events matching the filter ordered by year_start
// ascending.
func (s *BadgerStore) ListEvents(ctx context.Context, filter EventFilter) ([]*types.Event, error) {
	var out []*types.Event
	err := s.scan(prefixEvent, func(raw []byte) error {
		var event types.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			return err
		}
		if filter.Era != nil && event.Era != *filter.Era {
			return nil
		}
		if filter.Type != nil && event.Type != *filter.Type {
			return nil
		}
		if filter.YearStartMin != nil && event.YearStart < *filter.YearStartMin {
			return nil
		}
		if filter.YearStartMax != nil && event.YearStart > *filter.YearStartMax {
			return nil
		}
		out = append(out, &event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].YearStart != out[j].YearStart {
			return out[i].YearStart < out[j].YearStart
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CreatePattern inserts a pattern with a fresh insertion sequence.
func (s *BadgerStore) CreatePattern(ctx context.Context, pattern *types.Pattern) error {
	cp := *pattern
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	seq, err := s.nextSeq(keyPatternSeq)
	if err != nil {
		return err
	}
	return s.put(prefixPattern+cp.ID, &patternEnvelope{Seq: seq, Pattern: &cp})
}

// GetPattern looks up a pattern by identity.
func (s *BadgerStore) GetPattern(ctx context.Context, id string) (*types.Pattern, error) {
	var env patternEnvelope
	if err := s.get(prefixPattern+id, &env); err != nil {
		return nil, err
	}
	return env.Pattern, nil
}

// GetPatternByName looks up a pattern by its unique name.
func (s *BadgerStore) GetPatternByName(ctx context.Context, name string) (*types.Pattern, error) {
	patterns, err := s.listPatternEnvelopes()
	if err != nil {
		return nil, err
	}
	for _, env := range patterns {
		if strings.EqualFold(env.Pattern.Name, name) {
			return env.Pattern, nil
		}
	}
	return nil, ErrNotFound
}

func (s *BadgerStore) listPatternEnvelopes() ([]patternEnvelope, error) {
	var envs []patternEnvelope
	err := s.scan(prefixPattern, func(raw []byte) error {
		var env patternEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return err
		}
		envs = append(envs, env)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(envs, func(i, j int) bool { return envs[i].Seq < envs[j].Seq })
	return envs, nil
}

// ListPatterns returns all patterns in insertion order.
func (s *BadgerStore) ListPatterns(ctx context.Context) ([]*types.Pattern, error) {
	envs, err := s.listPatternEnvelopes()
	if err != nil {
		return nil, err
	}
	out := make([]*types.Pattern, 0, len(envs))
	for _, env := range envs {
		out = append(out, env.Pattern)
	}
	return out, nil
}

// CreateLink inserts a pattern link keyed by both endpoints.
// Re-linking the same pattern/event pair replaces the earlier link.
func (s *BadgerStore) CreateLink(ctx context.Context, link *types.PatternMatch) error {
	cp := *link
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	return s.put(prefixLink+cp.PatternID+"/"+cp.EventID, &cp)
}

// ListLinksByPattern scans links under one pattern.
func (s *BadgerStore) ListLinksByPattern(ctx context.Context, patternID string) ([]*types.PatternMatch, error) {
	var out []*types.PatternMatch
	err := s.scan(prefixLink+patternID+"/", func(raw []byte) error {
		var link types.PatternMatch
		if err := json.Unmarshal(raw, &link); err != nil {
			return err
		}
		out = append(out, &link)
		return nil
	})
	return out, err
}

// ListLinksByEvent scans the full link space for one event.
func (s *BadgerStore) ListLinksByEvent(ctx context.Context, eventID string) ([]*types.PatternMatch, error) {
	var out []*types.PatternMatch
	err := s.scan(prefixLink, func(raw []byte) error {
		var link types.PatternMatch
		if err := json.Unmarshal(raw, &link); err != nil {
			return err
		}
		if link.EventID == eventID {
			out = append(out, &link)
		}
		return nil
	})
	return out, err
}

// CreateIndicator appends an indicator observation.
func (s *BadgerStore) CreateIndicator(ctx context.Context, indicator *types.Indicator) error {
	cp := *indicator
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now().UTC()
	}
	return s.put(prefixIndicator+cp.ID, &cp)
}

// GetIndicator looks up an indicator by identity.
func (s *BadgerStore) GetIndicator(ctx context.Context, id string) (*types.Indicator, error) {
	var indicator types.Indicator
	if err := s.get(prefixIndicator+id, &indicator); err != nil {
		return nil, err
	}
	return &indicator, nil
}

// ListIndicators returns indicators newest-first, optionally filtered
// by category.
func (s *BadgerStore) ListIndicators(ctx context.Context, category string) ([]*types.Indicator, error) {
	var out []*types.Indicator
	err := s.scan(prefixIndicator, func(raw []byte) error {
		var indicator types.Indicator
		if err := json.Unmarshal(raw, &indicator); err != nil {
			return err
		}
		if category != "" && indicator.Category != category {
			return nil
		}
		out = append(out, &indicator)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// CreateScenario inserts an immutable scenario row.
func (s *BadgerStore) CreateScenario(ctx context.Context, scenario *types.Scenario) error {
	cp := *scenario
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	return s.put(prefixScenario+cp.ID, &cp)
}

// GetScenario looks up a scenario by identity.
func (s *BadgerStore) GetScenario(ctx context.Context, id string) (*types.Scenario, error) {
	var scenario types.Scenario
	if err := s.get(prefixScenario+id, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// ListScenarios returns scenarios newest-first.
func (s *BadgerStore) ListScenarios(ctx context.Context) ([]*types.Scenario, error) {
	var out []*types.Scenario
	err := s.scan(prefixScenario, func(raw []byte) error {
		var scenario types.Scenario
		if err := json.Unmarshal(raw, &scenario); err != nil {
			return err
		}
		out = append(out, &scenario)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CreateForecastRecord inserts a tracked record with a fresh insertion
// sequence.
func (s *BadgerStore) CreateForecastRecord(ctx context.Context, record *types.ForecastRecord) error {
	cp := *record
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	seq, err := s.nextSeq(keyRecordSeq)
	if err != nil {
		return err
	}
	return s.put(prefixRecord+cp.ID, &recordEnvelope{Seq: seq, Record: &cp})
}

// GetForecastRecord looks up a record by identity.
func (s *BadgerStore) GetForecastRecord(ctx context.Context, id string) (*types.ForecastRecord, error) {
	var env recordEnvelope
	if err := s.get(prefixRecord+id, &env); err != nil {
		return nil, err
	}
	return env.Record, nil
}

// ListForecastRecords returns all records in insertion order.
func (s *BadgerStore) ListForecastRecords(ctx context.Context) ([]*types.ForecastRecord, error) {
	var envs []recordEnvelope
	err := s.scan(prefixRecord, func(raw []byte) error {
		var env recordEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return err
		}
		envs = append(envs, env)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(envs, func(i, j int) bool { return envs[i].Seq < envs[j].Seq })
	out := make([]*types.ForecastRecord, 0, len(envs))
	for _, env := range envs {
		out = append(out, env.Record)
	}
	return out, nil
}

// CreateFulfillment appends a fulfillment link.
func (s *BadgerStore) CreateFulfillment(ctx context.Context, fulfillment *types.Fulfillment) error {
	cp := *fulfillment
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	return s.put(prefixFulfillment+cp.RecordID+"/"+cp.ID, &cp)
}

// ListFulfillments scans fulfillments under one record.
func (s *BadgerStore) ListFulfillments(ctx context.Context, recordID string) ([]*types.Fulfillment, error) {
	var out []*types.Fulfillment
	err := s.scan(prefixFulfillment+recordID+"/", func(raw []byte) error {
		var fulfillment types.Fulfillment
		if err := json.Unmarshal(raw, &fulfillment); err != nil {
			return err
		}
		out = append(out, &fulfillment)
		return nil
	})
	return out, err
}

// Close releases the underlying badger database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
