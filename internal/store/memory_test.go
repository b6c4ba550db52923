package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cryptoscore/internal/contracts"
)

func scoreAt(assetID string, at time.Time, value float64) *contracts.CompositeScore {
	return &contracts.CompositeScore{
		AssetID:  assetID,
		ScoredAt: at,
		Value:    value,
		Complete: true,
	}
}

func TestMemory_PutAndGetLatest(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	// Insert out of order; latest must still win
	require.NoError(t, mem.Put(ctx, scoreAt("bitcoin", base.Add(2*time.Hour), 0.7)))
	require.NoError(t, mem.Put(ctx, scoreAt("bitcoin", base, 0.5)))
	require.NoError(t, mem.Put(ctx, scoreAt("bitcoin", base.Add(time.Hour), 0.6)))

	latest, err := mem.GetLatest(ctx, "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 0.7, latest.Value)
	assert.Equal(t, 3, mem.Count("bitcoin"))
}

func TestMemory_DuplicateKeyRejected(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	at := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	require.NoError(t, mem.Put(ctx, scoreAt("bitcoin", at, 0.5)))

	err := mem.Put(ctx, scoreAt("bitcoin", at, 0.9))
	assert.ErrorIs(t, err, contracts.ErrDuplicateRun)

	// The original record is untouched
	latest, err := mem.GetLatest(ctx, "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 0.5, latest.Value)
	assert.Equal(t, 1, mem.Count("bitcoin"))
}

func TestMemory_GetLatestUnknownAsset(t *testing.T) {
	mem := NewMemory()

	_, err := mem.GetLatest(context.Background(), "dogecoin")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestMemory_GetHistory(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, mem.Put(ctx, scoreAt("bitcoin", base.Add(time.Duration(i)*time.Hour), float64(i)/10)))
	}
	require.NoError(t, mem.Put(ctx, scoreAt("ethereum", base, 0.9)))

	history, err := mem.GetHistory(ctx, "bitcoin", base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Ascending order, bounds inclusive
	assert.Equal(t, base.Add(time.Hour), history[0].ScoredAt)
	assert.Equal(t, base.Add(3*time.Hour), history[2].ScoredAt)

	empty, err := mem.GetHistory(ctx, "bitcoin", base.Add(10*time.Hour), base.Add(20*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
