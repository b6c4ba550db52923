package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cryptoscore/internal/contracts"
)

func okReading(dim contracts.Dimension, metrics map[string]float64) contracts.DimensionReading {
	return contracts.DimensionReading{
		Dimension:   dim,
		Status:      contracts.ReadingOK,
		Metrics:     metrics,
		Source:      "test",
		CollectedAt: time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC),
	}
}

func TestNormalizer_Sentiment(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name     string
		netVotes float64
		want     float64
	}{
		{name: "neutral", netVotes: 0, want: 0.5},
		{name: "strongly positive", netVotes: 100, want: 1.0},
		{name: "strongly negative", netVotes: -100, want: 0.0},
		{name: "above range clamps to 1", netVotes: 250, want: 1.0},
		{name: "below range clamps to 0", netVotes: -250, want: 0.0},
		{name: "mildly positive", netVotes: 50, want: 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := n.Normalize(okReading(contracts.DimSentiment,
				map[string]float64{MetricNetVotes: tt.netVotes}))
			require.False(t, score.Missing)
			assert.InDelta(t, tt.want, score.Value, 1e-9)
		})
	}
}

func TestNormalizer_MarketComposite(t *testing.T) {
	n := New(nil)

	// pct_change 10 scales to 1.0, volume 1e9 scales to 1.0
	score := n.Normalize(okReading(contracts.DimMarket, map[string]float64{
		MetricPctChange: 10,
		MetricVolume:    1e9,
	}))
	require.False(t, score.Missing)
	assert.InDelta(t, 1.0, score.Value, 1e-9)

	// pct_change 0 scales to 0.5, volume at range floor scales to 0
	score = n.Normalize(okReading(contracts.DimMarket, map[string]float64{
		MetricPctChange: 0,
		MetricVolume:    1e5,
	}))
	require.False(t, score.Missing)
	assert.InDelta(t, 0.25, score.Value, 1e-9)
}

func TestNormalizer_InverseDimension(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name  string
		index float64
		want  float64
	}{
		{name: "no consumption scores best", index: 0, want: 1.0},
		{name: "max consumption scores worst", index: 1, want: 0.0},
		{name: "mid consumption", index: 0.8, want: 0.2},
		{name: "above range clamps then inverts", index: 3, want: 0.0},
		{name: "below range clamps then inverts", index: -1, want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := n.Normalize(okReading(contracts.DimEnergy,
				map[string]float64{MetricEnergyIndex: tt.index}))
			require.False(t, score.Missing)
			assert.InDelta(t, tt.want, score.Value, 1e-9)
		})
	}
}

func TestNormalizer_Monotonic(t *testing.T) {
	n := New(nil)

	// Higher raw metric never lowers the normalized score
	prev := -1.0
	for votes := -150.0; votes <= 150.0; votes += 10 {
		score := n.Normalize(okReading(contracts.DimSentiment,
			map[string]float64{MetricNetVotes: votes}))
		require.False(t, score.Missing)
		assert.GreaterOrEqual(t, score.Value, prev)
		assert.GreaterOrEqual(t, score.Value, 0.0)
		assert.LessOrEqual(t, score.Value, 1.0)
		prev = score.Value
	}
}

func TestNormalizer_MissingPaths(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name       string
		reading    contracts.DimensionReading
		wantReason string
	}{
		{
			name: "unavailable reading",
			reading: contracts.DimensionReading{
				Dimension: contracts.DimCommunity,
				Status:    contracts.ReadingUnavailable,
				Reason:    contracts.ReasonExhausted,
			},
			wantReason: contracts.ReasonExhausted,
		},
		{
			name: "error reading without reason",
			reading: contracts.DimensionReading{
				Dimension: contracts.DimDeveloper,
				Status:    contracts.ReadingError,
			},
			wantReason: contracts.ReasonNoData,
		},
		{
			name:       "ok reading with no metrics",
			reading:    okReading(contracts.DimMarket, nil),
			wantReason: contracts.ReasonNoData,
		},
		{
			name: "NaN raw value",
			reading: okReading(contracts.DimSentiment,
				map[string]float64{MetricNetVotes: math.NaN()}),
			wantReason: contracts.ReasonBadValue,
		},
		{
			name: "Inf raw value",
			reading: okReading(contracts.DimMarket,
				map[string]float64{MetricPctChange: math.Inf(1), MetricVolume: 1e6}),
			wantReason: contracts.ReasonBadValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := n.Normalize(tt.reading)
			assert.True(t, score.Missing)
			assert.Equal(t, tt.wantReason, score.Reason)
		})
	}
}

func TestNormalizer_AbsentMetricScalesAsFloor(t *testing.T) {
	n := New(nil)

	// Community with only twitter reported: the other two terms clamp to 0
	score := n.Normalize(okReading(contracts.DimCommunity, map[string]float64{
		MetricTwitterFollowers: 1_000_000,
	}))
	require.False(t, score.Missing)
	assert.InDelta(t, 1.0/3, score.Value, 1e-3)
}

func TestNormalizer_CustomRanges(t *testing.T) {
	ranges := DefaultReferenceRanges()
	ranges[contracts.DimSentiment][MetricNetVotes] = Range{Min: -10, Max: 10}

	n := New(ranges)
	score := n.Normalize(okReading(contracts.DimSentiment,
		map[string]float64{MetricNetVotes: 10}))
	require.False(t, score.Missing)
	assert.InDelta(t, 1.0, score.Value, 1e-9)
}
