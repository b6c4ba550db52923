package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cryptoscore/internal/contracts"
	"github.com/wonny/cryptoscore/pkg/config"
	"github.com/wonny/cryptoscore/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json", Env: "development"})
}

func present(dim contracts.Dimension, value float64) contracts.NormalizedScore {
	return contracts.NormalizedScore{Dimension: dim, Value: value}
}

func missing(dim contracts.Dimension) contracts.NormalizedScore {
	return contracts.NormalizedScore{Dimension: dim, Missing: true, Reason: contracts.ReasonExhausted}
}

var testWeights = contracts.WeightVector{
	contracts.DimMarket:    0.3,
	contracts.DimSentiment: 0.2,
	contracts.DimCommunity: 0.15,
	contracts.DimDeveloper: 0.2,
	contracts.DimEnergy:    0.15,
}

func TestScorer_AllPresent(t *testing.T) {
	s, err := NewScorer(testWeights, testLogger())
	require.NoError(t, err)

	scores := map[contracts.Dimension]contracts.NormalizedScore{
		contracts.DimMarket:    present(contracts.DimMarket, 0.8),
		contracts.DimSentiment: present(contracts.DimSentiment, 0.6),
		contracts.DimCommunity: present(contracts.DimCommunity, 0.5),
		contracts.DimDeveloper: present(contracts.DimDeveloper, 0.7),
		contracts.DimEnergy:    present(contracts.DimEnergy, 0.9),
	}

	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	result, err := s.Combine("bitcoin", at, scores)
	require.NoError(t, err)

	// 0.3*0.8 + 0.2*0.6 + 0.15*0.5 + 0.2*0.7 + 0.15*0.9 = 0.715
	assert.InDelta(t, 0.715, result.Value, 1e-9)
	assert.True(t, result.Complete)
	assert.Equal(t, "bitcoin", result.AssetID)
	assert.Equal(t, at, result.ScoredAt)
	assert.InDelta(t, 71.5, result.Display(), 1e-9)

	// Effective weights unchanged when everything is present
	sum := 0.0
	for dim, w := range result.EffectiveWeights {
		assert.InDelta(t, testWeights[dim], w, 1e-9)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestScorer_RedistributesMissingWeight(t *testing.T) {
	s, err := NewScorer(testWeights, testLogger())
	require.NoError(t, err)

	scores := map[contracts.Dimension]contracts.NormalizedScore{
		contracts.DimMarket:    present(contracts.DimMarket, 0.8),
		contracts.DimSentiment: present(contracts.DimSentiment, 0.6),
		contracts.DimCommunity: missing(contracts.DimCommunity),
		contracts.DimDeveloper: present(contracts.DimDeveloper, 0.7),
		contracts.DimEnergy:    present(contracts.DimEnergy, 0.9),
	}

	result, err := s.Combine("bitcoin", time.Now(), scores)
	require.NoError(t, err)

	assert.False(t, result.Complete)
	assert.NotContains(t, result.EffectiveWeights, contracts.DimCommunity)

	// Community's 0.15 weight spreads over the remaining 0.85
	sum := 0.0
	for dim, w := range result.EffectiveWeights {
		assert.InDelta(t, testWeights[dim]/0.85, w, 1e-9)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	want := (0.3*0.8 + 0.2*0.6 + 0.2*0.7 + 0.15*0.9) / 0.85
	assert.InDelta(t, contracts.Round3(want), result.Value, 1e-9)
}

func TestScorer_SingleDimensionPresent(t *testing.T) {
	s, err := NewScorer(testWeights, testLogger())
	require.NoError(t, err)

	scores := map[contracts.Dimension]contracts.NormalizedScore{
		contracts.DimMarket:    present(contracts.DimMarket, 0.42),
		contracts.DimSentiment: missing(contracts.DimSentiment),
		contracts.DimCommunity: missing(contracts.DimCommunity),
		contracts.DimDeveloper: missing(contracts.DimDeveloper),
		contracts.DimEnergy:    missing(contracts.DimEnergy),
	}

	result, err := s.Combine("bitcoin", time.Now(), scores)
	require.NoError(t, err)

	assert.False(t, result.Complete)
	assert.InDelta(t, 0.42, result.Value, 1e-9)
	assert.InDelta(t, 1.0, result.EffectiveWeights[contracts.DimMarket], 1e-9)
}

func TestScorer_AllMissing(t *testing.T) {
	s, err := NewScorer(testWeights, testLogger())
	require.NoError(t, err)

	scores := map[contracts.Dimension]contracts.NormalizedScore{}
	for _, dim := range contracts.AllDimensions() {
		scores[dim] = missing(dim)
	}

	result, err := s.Combine("bitcoin", time.Now(), scores)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestScorer_Deterministic(t *testing.T) {
	s, err := NewScorer(testWeights, testLogger())
	require.NoError(t, err)

	scores := map[contracts.Dimension]contracts.NormalizedScore{
		contracts.DimMarket:    present(contracts.DimMarket, 0.123),
		contracts.DimSentiment: present(contracts.DimSentiment, 0.456),
		contracts.DimCommunity: missing(contracts.DimCommunity),
		contracts.DimDeveloper: present(contracts.DimDeveloper, 0.789),
		contracts.DimEnergy:    missing(contracts.DimEnergy),
	}

	at := time.Now()
	first, err := s.Combine("ethereum", at, scores)
	require.NoError(t, err)
	second, err := s.Combine("ethereum", at, scores)
	require.NoError(t, err)

	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.EffectiveWeights, second.EffectiveWeights)
}

func TestNewScorer_RejectsBadWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights contracts.WeightVector
	}{
		{
			name: "does not sum to 1",
			weights: contracts.WeightVector{
				contracts.DimMarket:    0.9,
				contracts.DimSentiment: 0.9,
			},
		},
		{
			name: "negative weight",
			weights: contracts.WeightVector{
				contracts.DimMarket:    1.5,
				contracts.DimSentiment: -0.5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScorer(tt.weights, testLogger())
			assert.Error(t, err)
		})
	}
}

func TestNewScorer_DefaultsWhenNil(t *testing.T) {
	s, err := NewScorer(nil, testLogger())
	require.NoError(t, err)
	assert.InDelta(t, 0.30, s.Weights()[contracts.DimMarket], 1e-9)
}
