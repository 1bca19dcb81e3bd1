// Package store persists exported strategy snapshots.
package store

import (
	"context"
	"sync"

	"grid_trader/internal/core"
)

// MemoryStore implements core.IStateStore in memory
type MemoryStore struct {
	state *core.StrategyState
	mu    sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: nil,
	}
}

func (s *MemoryStore) SaveState(ctx context.Context, state *core.StrategyState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}

func (s *MemoryStore) LoadState(ctx context.Context) (*core.StrategyState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}
