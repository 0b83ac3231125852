package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/JaneXU85/pension-trust-abm/internal/models"
)

// InMemoryResultStore implements ResultStore for testing and development.
type InMemoryResultStore struct {
	mu     sync.RWMutex
	runs   []models.RunRecord
	sweeps []SweepInfo
}

// NewInMemoryResultStore creates a new in-memory store.
func NewInMemoryResultStore() *InMemoryResultStore {
	return &InMemoryResultStore{}
}

// SaveSweep records sweep metadata.
func (s *InMemoryResultStore) SaveSweep(ctx context.Context, sweep SweepInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sweep.ID == "" {
		return fmt.Errorf("sweep ID is required")
	}

	s.sweeps = slices.DeleteFunc(s.sweeps, func(existing SweepInfo) bool {
		return existing.ID == sweep.ID
	})
	sweep.Design = slices.Clone(sweep.Design)
	s.sweeps = append(s.sweeps, sweep)
	return nil
}

// GetSweep returns a sweep by ID.
func (s *InMemoryResultStore) GetSweep(ctx context.Context, id string) (*SweepInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sweep := range s.sweeps {
		if sweep.ID == id {
			sweep.Design = slices.Clone(sweep.Design)
			return &sweep, nil
		}
	}
	return nil, fmt.Errorf("sweep %s: %w", id, ErrNotFound)
}

// ListSweeps returns every sweep, most recently saved first.
func (s *InMemoryResultStore) ListSweeps(ctx context.Context) ([]SweepInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SweepInfo, 0, len(s.sweeps))
	for i := len(s.sweeps) - 1; i >= 0; i-- {
		out = append(out, s.sweeps[i])
	}
	return out, nil
}

// SaveRuns stores records. Either all records are stored or none.
func (s *InMemoryResultStore) SaveRuns(ctx context.Context, records []models.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("run ID is required")
		}
	}

	for _, rec := range records {
		s.runs = slices.DeleteFunc(s.runs, func(existing models.RunRecord) bool {
			return existing.ID == rec.ID
		})
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}
		s.runs = append(s.runs, rec)
	}
	return nil
}

// GetRun returns a run by ID.
func (s *InMemoryResultStore) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.runs {
		if rec.ID == id {
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
}

// ListRuns returns matching records in the order they were saved.
func (s *InMemoryResultStore) ListRuns(ctx context.Context, filter RunFilter) ([]models.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.RunRecord
	for _, rec := range s.runs {
		if !filter.matches(rec) {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryResultStore) Close() error {
	return nil
}
