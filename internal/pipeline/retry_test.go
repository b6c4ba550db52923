package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cryptoscore/internal/contracts"
	"github.com/wonny/cryptoscore/internal/normalize"
	"github.com/wonny/cryptoscore/internal/store"
)

func TestRetryPolicy_NextDelay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 4, BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	assert.Equal(t, 2*time.Second, p.NextDelay(time.Second))
	assert.Equal(t, 4*time.Second, p.NextDelay(2*time.Second))
	assert.Equal(t, 5*time.Second, p.NextDelay(4*time.Second))
	assert.Equal(t, 5*time.Second, p.NextDelay(5*time.Second))
}

// flakyAdapter fails with transient errors a fixed number of times
type flakyAdapter struct {
	dim      contracts.Dimension
	failures int
	calls    int
	metrics  map[string]float64
}

func (f *flakyAdapter) Dimension() contracts.Dimension { return f.dim }

func (f *flakyAdapter) Fetch(ctx context.Context, asset contracts.Asset) (contracts.DimensionReading, error) {
	f.calls++
	if f.calls <= f.failures {
		return contracts.DimensionReading{}, contracts.NewTransientError(f.dim, errors.New("upstream 503"))
	}
	return contracts.DimensionReading{
		Dimension: f.dim,
		Status:    contracts.ReadingOK,
		Metrics:   f.metrics,
		Source:    "fake",
	}, nil
}

func TestCollectDimension_TransientFailuresRecover(t *testing.T) {
	flaky := &flakyAdapter{
		dim:      contracts.DimSentiment,
		failures: 2,
		metrics:  map[string]float64{normalize.MetricNetVotes: 20},
	}

	adapters := healthyAdapters()
	for i, a := range adapters {
		if a.Dimension() == contracts.DimSentiment {
			adapters[i] = flaky
		}
	}

	mem := store.NewMemory()
	o := newTestOrchestrator(t, adapters, mem)

	run, err := o.Run(context.Background(), testAsset)
	require.NoError(t, err)

	reading := run.Readings[contracts.DimSentiment]
	assert.Equal(t, contracts.ReadingOK, reading.Status)
	assert.Equal(t, 3, reading.Attempts)
	assert.Equal(t, 3, flaky.calls)
	assert.True(t, run.Score.Complete)
}

func TestCollectDimension_AttemptsExhausted(t *testing.T) {
	// More failures than the policy allows (MaxAttempts is 3 in tests)
	flaky := &flakyAdapter{dim: contracts.DimSentiment, failures: 10}

	adapters := healthyAdapters()
	for i, a := range adapters {
		if a.Dimension() == contracts.DimSentiment {
			adapters[i] = flaky
		}
	}

	mem := store.NewMemory()
	o := newTestOrchestrator(t, adapters, mem)

	run, err := o.Run(context.Background(), testAsset)
	require.NoError(t, err)

	reading := run.Readings[contracts.DimSentiment]
	assert.Equal(t, contracts.ReadingUnavailable, reading.Status)
	assert.Equal(t, contracts.ReasonExhausted, reading.Reason)
	assert.Equal(t, 3, reading.Attempts)
	assert.Equal(t, 3, flaky.calls)

	// The run still completes on the remaining dimensions
	assert.Equal(t, contracts.RunComplete, run.State)
	assert.False(t, run.Score.Complete)
}

func TestCollectDimension_PermanentErrorNotRetried(t *testing.T) {
	perm := permanentAdapter(contracts.DimDeveloper)

	adapters := healthyAdapters()
	for i, a := range adapters {
		if a.Dimension() == contracts.DimDeveloper {
			adapters[i] = perm
		}
	}

	mem := store.NewMemory()
	o := newTestOrchestrator(t, adapters, mem)

	run, err := o.Run(context.Background(), testAsset)
	require.NoError(t, err)

	reading := run.Readings[contracts.DimDeveloper]
	assert.Equal(t, contracts.ReadingUnavailable, reading.Status)
	assert.Equal(t, contracts.ReasonPermanent, reading.Reason)
	assert.Equal(t, 1, perm.calls)
}
