package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned when a job id is unknown.
var ErrNotFound = fmt.Errorf("job not found")

// Store persists jobs. The in-memory implementation backs tests and
// single-process runs; internal/db provides the Postgres-backed one.
type Store interface {
	Save(ctx context.Context, j *Job) error
	Load(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context) ([]*Job, error)
}

// MemoryStore is a map-backed Store. Jobs are stored as deep copies so a
// loaded job never aliases the one the pipeline worker is mutating,
// matching the isolation the Postgres store gets from its JSONB
// round-trip.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, j *Job) error {
	c, err := clone(j)
	if err != nil {
		return fmt.Errorf("copying job %s: %w", j.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = c
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	j, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(j)
}

// List implements Store, newest first.
func (s *MemoryStore) List(_ context.Context) ([]*Job, error) {
	s.mu.RLock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		c, err := clone(j)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		out = append(out, c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, k int) bool {
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return out, nil
}

func clone(j *Job) (*Job, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	var c Job
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
