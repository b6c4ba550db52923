package contracts

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultWeightVector(t *testing.T) {
	weights := DefaultWeightVector()

	assert.True(t, weights.Validate())
	assert.Equal(t, 0.30, weights[DimMarket])
	assert.Equal(t, 0.25, weights[DimSentiment])
	assert.Len(t, weights, len(AllDimensions()))
}

func TestWeightVectorValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights WeightVector
		want    bool
	}{
		{
			name:    "default weights",
			weights: DefaultWeightVector(),
			want:    true,
		},
		{
			name: "sum within tolerance",
			weights: WeightVector{
				DimMarket: 0.5, DimSentiment: 0.499,
			},
			want: true,
		},
		{
			name: "sum too low",
			weights: WeightVector{
				DimMarket: 0.5,
			},
			want: false,
		},
		{
			name: "negative weight",
			weights: WeightVector{
				DimMarket: 1.3, DimSentiment: -0.3,
			},
			want: false,
		},
		{
			name:    "empty",
			weights: WeightVector{},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.weights.Validate())
		})
	}
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.715, Round3(0.7149999999))
	assert.Equal(t, 0.715, Round3(0.715))
	assert.Equal(t, 0.716, Round3(0.7155))
	assert.Equal(t, -0.5, Round3(-0.4999))
	assert.Equal(t, 0.0, Round3(0.0001))
}

func TestCompositeScoreDisplay(t *testing.T) {
	score := CompositeScore{Value: 0.715}
	assert.Equal(t, 71.5, score.Display())
}

func TestRunStateTerminal(t *testing.T) {
	assert.True(t, RunComplete.Terminal())
	assert.True(t, RunFailed.Terminal())
	assert.False(t, RunPending.Terminal())
	assert.False(t, RunCollecting.Terminal())
	assert.False(t, RunPersisting.Terminal())
}

func TestGenerateRunID(t *testing.T) {
	at := time.Date(2026, 8, 27, 14, 30, 5, 0, time.UTC)
	assert.Equal(t, "run_bitcoin_20260827_143005", GenerateRunID("bitcoin", at))
}

func TestAdapterErrorClassification(t *testing.T) {
	transient := NewTransientError(DimMarket, errors.New("503"))
	permanent := NewPermanentError(DimMarket, errors.New("unknown symbol"))

	assert.True(t, IsTransient(transient))
	assert.False(t, IsTransient(permanent))
	assert.False(t, IsTransient(errors.New("plain error")))

	// The cause stays reachable through the wrapper
	var adapterErr *AdapterError
	assert.True(t, errors.As(transient, &adapterErr))
	assert.Equal(t, DimMarket, adapterErr.Dimension)
}

func TestReadingUsable(t *testing.T) {
	ok := DimensionReading{Status: ReadingOK, Metrics: map[string]float64{"net_votes": 10}}
	unavailable := DimensionReading{Status: ReadingUnavailable, Reason: ReasonExhausted}

	assert.True(t, ok.Usable())
	assert.False(t, unavailable.Usable())
}
