package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wonny/cryptoscore/internal/contracts"
)

// Memory is an in-memory ScoreStore used for dry runs and tests.
// It enforces the same append-only, duplicate-rejecting contract as the
// Postgres store.
type Memory struct {
	mu     sync.RWMutex
	scores map[string][]*contracts.CompositeScore // asset id -> ascending by ScoredAt
}

// NewMemory creates an empty in-memory score store
func NewMemory() *Memory {
	return &Memory{scores: make(map[string][]*contracts.CompositeScore)}
}

// Put appends a score; a duplicate (asset, timestamp) key is rejected
func (m *Memory) Put(_ context.Context, score *contracts.CompositeScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.scores[score.AssetID]
	for _, existing := range history {
		if existing.ScoredAt.Equal(score.ScoredAt) {
			return contracts.ErrDuplicateRun
		}
	}

	history = append(history, score)
	sort.Slice(history, func(i, j int) bool {
		return history[i].ScoredAt.Before(history[j].ScoredAt)
	})
	m.scores[score.AssetID] = history

	return nil
}

// GetLatest returns the most recent score for an asset
func (m *Memory) GetLatest(_ context.Context, assetID string) (*contracts.CompositeScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.scores[assetID]
	if len(history) == 0 {
		return nil, contracts.ErrNotFound
	}
	return history[len(history)-1], nil
}

// GetHistory returns scores in [from, to], ascending
func (m *Memory) GetHistory(_ context.Context, assetID string, from, to time.Time) ([]*contracts.CompositeScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*contracts.CompositeScore, 0)
	for _, score := range m.scores[assetID] {
		if score.ScoredAt.Before(from) || score.ScoredAt.After(to) {
			continue
		}
		out = append(out, score)
	}
	return out, nil
}

// Count returns the number of persisted scores for an asset
func (m *Memory) Count(assetID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.scores[assetID])
}
