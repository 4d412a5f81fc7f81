package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"retrofit_valuation/pkg/models"
)

// MemoryStore holds records as marshaled JSON guarded by a RWMutex. The
// JSON round-trip gives it the same merge and copy semantics as the
// database backends, which is what the engine tests rely on.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

// Create inserts a new calculation record.
func (s *MemoryStore) Create(ctx context.Context, record *models.CalculationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; exists {
		return fmt.Errorf("calculation %s already exists", record.ID)
	}
	s.records[record.ID] = data
	return nil
}

// Get loads the full record for an id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.CalculationRecord, error) {
	s.mu.RLock()
	data, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var record models.CalculationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal calculation %s: %w", id, err)
	}
	return &record, nil
}

// Update merges the given fields onto the stored JSON document.
func (s *MemoryStore) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	merged, err := mergeJSONFields(data, fields)
	if err != nil {
		return fmt.Errorf("failed to merge fields for calculation %s: %w", id, err)
	}
	s.records[id] = merged
	return nil
}

// List returns all calculation ids in lexical order.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
