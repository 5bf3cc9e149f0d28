package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hxuan190/lotto-treasury/internal/domain"
)

// MemoryStore keeps rounds and conversions in process memory. Values are
// copied in and out, so callers never share state with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	rounds      map[uint64]domain.Round
	conversions []domain.ConversionResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rounds: make(map[uint64]domain.Round)}
}

func (m *MemoryStore) SaveRound(_ context.Context, round *domain.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds[round.ID] = *round
	return nil
}

func (m *MemoryStore) LoadRound(_ context.Context, id uint64) (*domain.Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	round, ok := m.rounds[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrRoundNotFound, id)
	}
	return &round, nil
}

func (m *MemoryStore) ListRounds(_ context.Context) ([]*domain.Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Round, 0, len(m.rounds))
	for _, round := range m.rounds {
		r := round
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) SaveConversion(_ context.Context, result *domain.ConversionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversions = append(m.conversions, *result)
	return nil
}

func (m *MemoryStore) ListConversions(_ context.Context) ([]*domain.ConversionResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.ConversionResult, len(m.conversions))
	for i := range m.conversions {
		c := m.conversions[i]
		out[i] = &c
	}
	return out, nil
}
