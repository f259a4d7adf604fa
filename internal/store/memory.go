package store

import (
	"context"
	"sync"
	"time"

	"github.com/ashureev/kinematics-lab/internal/domain"
)

// MemoryStore implements Repository with a mutex-guarded map.
type MemoryStore struct {
	mu       sync.RWMutex
	problems map[int64]*domain.Problem
	now      func() time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		problems: make(map[int64]*domain.Problem),
		now:      time.Now,
	}
}

// PutProblem stores a copy of p.
func (m *MemoryStore) PutProblem(_ context.Context, p *domain.Problem) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, replaced := m.problems[p.ID]
	m.problems[p.ID] = p.Clone()
	return replaced, nil
}

// GetProblem returns a copy of the stored problem, or nil if absent.
func (m *MemoryStore) GetProblem(_ context.Context, id int64) (*domain.Problem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.problems[id]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

// DeleteExpired removes problems older than ttl.
func (m *MemoryStore) DeleteExpired(_ context.Context, ttl time.Duration) (int64, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, p := range m.problems {
		if p.Expired(ttl, now) {
			delete(m.problems, id)
			deleted++
		}
	}
	return deleted, nil
}

// Count returns the number of stored problems.
func (m *MemoryStore) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.problems)), nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
