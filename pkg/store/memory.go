package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/soundprediction/cliodyn/pkg/types"
)

// MemoryStore is an in-process Store used for tests and the embedded
// zero-config mode. All methods are safe for concurrent use; row-level
// locking is a single mutex since every call is a short synchronous
// read/compute/write.
type MemoryStore struct {
	mu sync.RWMutex

	events     map[string]*types.Event
	patterns   map[string]*types.Pattern
	patternIDs []string // insertion order
	links      []*types.PatternMatch
	indicators []*types.Indicator
	scenarios  []*types.Scenario
	records    map[string]*types.ForecastRecord
	recordIDs  []string
	fulfilled  []*types.Fulfillment
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:   make(map[string]*types.Event),
		patterns: make(map[string]*types.Pattern),
		records:  make(map[string]*types.ForecastRecord),
	}
}

// CreateEvent inserts an event.
func (s *MemoryStore) CreateEvent(ctx context.Context, event *types.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *event
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.events[cp.ID] = &cp
	return nil
}

// GetEvent looks up an event by identity.
func (s *MemoryStore) GetEvent(ctx context.Context, id string) (*types.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *event
	return &cp, nil
}

// ListEvents returns events matching the filter ordered by year_start
// ascending.
func (s *MemoryStore) ListEvents(ctx context.Context, filter EventFilter) ([]*types.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Event
	for _, event := range s.events {
		if filter.Era != nil && event.Era != *filter.Era {
			continue
		}
		if filter.Type != nil && event.Type != *filter.Type {
			continue
		}
		if filter.YearStartMin != nil && event.YearStart < *filter.YearStartMin {
			continue
		}
		if filter.YearStartMax != nil && event.YearStart > *filter.YearStartMax {
			continue
		}
		cp := *event
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].YearStart != out[j].YearStart {
			return out[i].YearStart < out[j].YearStart
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CreatePattern inserts a pattern, preserving insertion order.
func (s *MemoryStore) CreatePattern(ctx context.Context, pattern *types.Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *pattern
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	if _, exists := s.patterns[cp.ID]; !exists {
		s.patternIDs = append(s.patternIDs, cp.ID)
	}
	s.patterns[cp.ID] = &cp
	return nil
}

// GetPattern looks up a pattern by identity.
func (s *MemoryStore) GetPattern(ctx context.Context, id string) (*types.Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pattern, ok := s.patterns[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *pattern
	return &cp, nil
}

// GetPatternByName looks up a pattern by its unique name.
func (s *MemoryStore) GetPatternByName(ctx context.Context, name string) (*types.Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.patternIDs {
		if strings.EqualFold(s.patterns[id].Name, name) {
			cp := *s.patterns[id]
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// ListPatterns returns all patterns in insertion order.
func (s *MemoryStore) ListPatterns(ctx context.Context) ([]*types.Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Pattern, 0, len(s.patternIDs))
	for _, id := range s.patternIDs {
		cp := *s.patterns[id]
		out = append(out, &cp)
	}
	return out, nil
}

// CreateLink inserts a pattern link. Re-linking the same
// pattern/event pair replaces the earlier link.
func (s *MemoryStore) CreateLink(ctx context.Context, link *types.PatternMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *link
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	for i, existing := range s.links {
		if existing.PatternID == cp.PatternID && existing.EventID == cp.EventID {
			s.links[i] = &cp
			return nil
		}
	}
	s.links = append(s.links, &cp)
	return nil
}

// ListLinksByPattern returns all links for one pattern.
func (s *MemoryStore) ListLinksByPattern(ctx context.Context, patternID string) ([]*types.PatternMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.PatternMatch
	for _, link := range s.links {
		if link.PatternID == patternID {
			cp := *link
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ListLinksByEvent returns all links for one event.
func (s *MemoryStore) ListLinksByEvent(ctx context.Context, eventID string) ([]*types.PatternMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.PatternMatch
	for _, link := range s.links {
		if link.EventID == eventID {
			cp := *link
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CreateIndicator appends an indicator observation.
func (s *MemoryStore) CreateIndicator(ctx context.Context, indicator *types.Indicator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *indicator
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now().UTC()
	}
	s.indicators = append(s.indicators, &cp)
	return nil
}

// GetIndicator looks up an indicator by identity.
func (s *MemoryStore) GetIndicator(ctx context.Context, id string) (*types.Indicator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, indicator := range s.indicators {
		if indicator.ID == id {
			cp := *indicator
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// ListIndicators returns indicators newest-first, optionally filtered
// by category.
func (s *MemoryStore) ListIndicators(ctx context.Context, category string) ([]*types.Indicator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Indicator
	for _, indicator := range s.indicators {
		if category != "" && indicator.Category != category {
			continue
		}
		cp := *indicator
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// CreateScenario inserts an immutable scenario row.
func (s *MemoryStore) CreateScenario(ctx context.Context, scenario *types.Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *scenario
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.scenarios = append(s.scenarios, &cp)
	return nil
}

// GetScenario looks up a scenario by identity.
func (s *MemoryStore) GetScenario(ctx context.Context, id string) (*types.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, scenario := range s.scenarios {
		if scenario.ID == id {
			cp := *scenario
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// ListScenarios returns scenarios newest-first.
func (s *MemoryStore) ListScenarios(ctx context.Context) ([]*types.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Scenario, 0, len(s.scenarios))
	for _, scenario := range s.scenarios {
		cp := *scenario
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CreateForecastRecord inserts a tracked forecast record.
func (s *MemoryStore) CreateForecastRecord(ctx context.Context, record *types.ForecastRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	if _, exists := s.records[cp.ID]; !exists {
		s.recordIDs = append(s.recordIDs, cp.ID)
	}
	s.records[cp.ID] = &cp
	return nil
}

// GetForecastRecord looks up a record by identity.
func (s *MemoryStore) GetForecastRecord(ctx context.Context, id string) (*types.ForecastRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *record
	return &cp, nil
}

// ListForecastRecords returns all records in insertion order.
func (s *MemoryStore) ListForecastRecords(ctx context.Context) ([]*types.ForecastRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.ForecastRecord, 0, len(s.recordIDs))
	for _, id := range s.recordIDs {
		cp := *s.records[id]
		out = append(out, &cp)
	}
	return out, nil
}

// CreateFulfillment appends a fulfillment link.
func (s *MemoryStore) CreateFulfillment(ctx context.Context, fulfillment *types.Fulfillment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *fulfillment
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.fulfilled = append(s.fulfilled, &cp)
	return nil
}

// ListFulfillments returns all fulfillments for one record.
func (s *MemoryStore) ListFulfillments(ctx context.Context, recordID string) ([]*types.Fulfillment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Fulfillment
	for _, fulfillment := range s.fulfilled {
		if fulfillment.RecordID == recordID {
			cp := *fulfillment
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
