package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rzbill/labnet/pkg/types"
)

var _ Store = &MemoryStore{}

// MemoryStore is a simple in-memory implementation of the Store interface for testing.
type MemoryStore struct {
	runs  map[string][]byte
	mutex sync.RWMutex
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string][]byte)}
}

// Open initializes the memory store.
func (m *MemoryStore) Open(path string) error {
	return nil
}

// Close closes the memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// SaveRun records a copy of run.
func (m *MemoryStore) SaveRun(ctx context.Context, run *types.ProbeRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("probe run has no id")
	}
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to serialize probe run: %w", err)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.runs[run.ID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, run.ID)
	}
	m.runs[run.ID] = data
	return nil
}

// GetRun retrieves a copy of the run with id.
func (m *MemoryStore) GetRun(ctx context.Context, id string) (*types.ProbeRun, error) {
	m.mutex.RLock()
	data, ok := m.runs[id]
	m.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var run types.ProbeRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to deserialize probe run: %w", err)
	}
	return &run, nil
}

// ListRuns returns every run, oldest first.
func (m *MemoryStore) ListRuns(ctx context.Context) ([]*types.ProbeRun, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	runs := make([]*types.ProbeRun, 0, len(m.runs))
	for _, data := range m.runs {
		var run types.ProbeRun
		if err := json.Unmarshal(data, &run); err != nil {
			return nil, fmt.Errorf("failed to deserialize probe run: %w", err)
		}
		runs = append(runs, &run)
	}
	sortRuns(runs)
	return runs, nil
}

// DeleteRun removes a run.
func (m *MemoryStore) DeleteRun(ctx context.Context, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.runs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.runs, id)
	return nil
}
