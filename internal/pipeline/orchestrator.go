package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/cryptoscore/internal/contracts"
	"github.com/wonny/cryptoscore/internal/normalize"
	"github.com/wonny/cryptoscore/internal/scoring"
	"github.com/wonny/cryptoscore/pkg/logger"
)

// Orchestrator drives one scoring run through the pipeline state machine
// ⭐ SSOT: 파이프라인 조율은 여기서만
//
// PENDING → COLLECTING → AGGREGATING → SCORING → PERSISTING → COMPLETE,
// with FAILED reachable from any stage. Collection fans out one task per
// dimension; aggregation never starts before every dimension has resolved
// to ok or unavailable.
type Orchestrator struct {
	adapters   map[contracts.Dimension]contracts.SourceAdapter
	normalizer *normalize.Normalizer
	scorer     *scoring.Scorer
	store      contracts.ScoreStore

	retry            RetryPolicy
	dimensionTimeout time.Duration
	runTimeout       time.Duration

	logger *logger.Logger
	now    func() time.Time

	notifyMu sync.RWMutex
	notify   func(*contracts.CompositeScore)
}

// Config holds orchestrator timing configuration
type Config struct {
	Retry            RetryPolicy
	DimensionTimeout time.Duration
	RunTimeout       time.Duration
}

// NewOrchestrator creates a new orchestrator.
// All configuration is passed explicitly so concurrent orchestrators with
// different weights or ranges can coexist.
func NewOrchestrator(
	adapters []contracts.SourceAdapter,
	normalizer *normalize.Normalizer,
	scorer *scoring.Scorer,
	store contracts.ScoreStore,
	cfg Config,
	log *logger.Logger,
) *Orchestrator {
	byDim := make(map[contracts.Dimension]contracts.SourceAdapter, len(adapters))
	for _, a := range adapters {
		byDim[a.Dimension()] = a
	}

	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.DimensionTimeout <= 0 {
		cfg.DimensionTimeout = time.Minute
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}

	return &Orchestrator{
		adapters:         byDim,
		normalizer:       normalizer,
		scorer:           scorer,
		store:            store,
		retry:            cfg.Retry,
		dimensionTimeout: cfg.DimensionTimeout,
		runTimeout:       cfg.RunTimeout,
		logger:           log.WithField("module", "pipeline"),
		now:              time.Now,
	}
}

// SetNotifier registers a callback invoked after each COMPLETE run
func (o *Orchestrator) SetNotifier(fn func(*contracts.CompositeScore)) {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()
	o.notify = fn
}

// Run executes one scoring run for an asset.
// The returned run is always in a terminal state; the error mirrors
// run.Failure for FAILED runs.
func (o *Orchestrator) Run(ctx context.Context, asset contracts.Asset) (*contracts.PipelineRun, error) {
	startedAt := o.now()
	run := &contracts.PipelineRun{
		RunID:     contracts.GenerateRunID(asset.ID, startedAt),
		Asset:     asset,
		State:     contracts.RunPending,
		Readings:  make(map[contracts.Dimension]contracts.DimensionReading, len(o.adapters)),
		StartedAt: startedAt,
	}

	if !asset.Valid() {
		return o.fail(run, contracts.RunPending, fmt.Errorf("asset id and symbol are required"), nil)
	}

	log := o.logger.WithFields(map[string]interface{}{
		"run_id":   run.RunID,
		"asset_id": asset.ID,
	})
	log.Info("Starting scoring run")

	ctx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	// COLLECTING: fan out one task per dimension
	run.State = contracts.RunCollecting
	o.collect(ctx, run)

	if err := ctx.Err(); err != nil {
		return o.fail(run, contracts.RunCollecting, err, nil)
	}

	// AGGREGATING: normalize every resolved reading
	run.State = contracts.RunAggregating
	scores := make(map[contracts.Dimension]contracts.NormalizedScore, len(run.Readings))
	for dim, reading := range run.Readings {
		scores[dim] = o.normalizer.Normalize(reading)
	}

	if err := ctx.Err(); err != nil {
		return o.fail(run, contracts.RunAggregating, err, nil)
	}

	// SCORING
	run.State = contracts.RunScoring
	score, err := o.scorer.Combine(asset.ID, o.now().UTC(), scores)
	if err != nil {
		return o.fail(run, contracts.RunScoring, err, missingDimensions(scores))
	}

	if err := ctx.Err(); err != nil {
		return o.fail(run, contracts.RunScoring, err, nil)
	}

	// PERSISTING: once started, the run is no longer cancellable
	run.State = contracts.RunPersisting
	if err := o.store.Put(ctx, score); err != nil {
		return o.fail(run, contracts.RunPersisting, fmt.Errorf("persist composite score: %w", err), nil)
	}

	run.State = contracts.RunComplete
	run.Score = score
	run.EndedAt = o.now()

	log.WithFields(map[string]interface{}{
		"score":    score.Value,
		"complete": score.Complete,
		"duration": run.EndedAt.Sub(run.StartedAt).Seconds(),
	}).Info("Scoring run completed")

	o.notifyMu.RLock()
	notify := o.notify
	o.notifyMu.RUnlock()
	if notify != nil {
		notify(score)
	}

	return run, nil
}

// RunAll scores every asset in order, one run per asset.
// Per-asset failures are collected, not fatal to the batch.
func (o *Orchestrator) RunAll(ctx context.Context, assets []contracts.Asset) []*contracts.PipelineRun {
	runs := make([]*contracts.PipelineRun, 0, len(assets))
	for _, asset := range assets {
		if ctx.Err() != nil {
			break
		}
		run, err := o.Run(ctx, asset)
		if err != nil {
			o.logger.WithError(err).WithField("asset_id", asset.ID).Error("Scoring run failed")
		}
		runs = append(runs, run)
	}
	return runs
}

// collect fans out one collection task per dimension and waits until every
// task resolved to a terminal reading. Each task writes only its own slot.
func (o *Orchestrator) collect(ctx context.Context, run *contracts.PipelineRun) {
	type slot struct {
		dim     contracts.Dimension
		reading contracts.DimensionReading
	}

	resultCh := make(chan slot, len(o.adapters))

	var wg sync.WaitGroup
	for dim, adapter := range o.adapters {
		wg.Add(1)
		go func(dim contracts.Dimension, adapter contracts.SourceAdapter) {
			defer wg.Done()
			resultCh <- slot{dim: dim, reading: o.collectDimension(ctx, adapter, run.Asset)}
		}(dim, adapter)
	}

	wg.Wait()
	close(resultCh)

	for s := range resultCh {
		run.Readings[s.dim] = s.reading
	}
}

// collectDimension runs one adapter through the retry policy.
// The result is always terminal: ok with a reading, or unavailable with a
// reason. Timeouts and cancellations map to unavailable, never to a run
// failure.
func (o *Orchestrator) collectDimension(ctx context.Context, adapter contracts.SourceAdapter, asset contracts.Asset) contracts.DimensionReading {
	dim := adapter.Dimension()

	// Overall per-dimension budget, covering all attempts
	dctx, cancel := context.WithTimeout(ctx, o.dimensionTimeout)
	defer cancel()

	delay := o.retry.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= o.retry.MaxAttempts; attempt++ {
		reading, err := adapter.Fetch(dctx, asset)
		if err == nil {
			reading.Dimension = dim
			reading.Attempts = attempt
			if reading.CollectedAt.IsZero() {
				reading.CollectedAt = o.now()
			}
			return reading
		}
		lastErr = err

		if dctx.Err() != nil {
			return o.unavailable(dim, attempt, timeoutReason(ctx), lastErr)
		}

		if !contracts.IsTransient(err) {
			o.logger.WithError(err).WithFields(map[string]interface{}{
				"dimension": dim,
				"asset_id":  asset.ID,
			}).Warn("Permanent adapter error, not retrying")
			return o.unavailable(dim, attempt, contracts.ReasonPermanent, err)
		}

		if attempt == o.retry.MaxAttempts {
			break
		}

		o.logger.WithFields(map[string]interface{}{
			"dimension": dim,
			"asset_id":  asset.ID,
			"attempt":   attempt,
			"delay":     delay,
		}).Warn("Transient adapter error, retrying")

		select {
		case <-dctx.Done():
			return o.unavailable(dim, attempt, timeoutReason(ctx), lastErr)
		case <-time.After(delay):
		}

		delay = o.retry.NextDelay(delay)
	}

	return o.unavailable(dim, o.retry.MaxAttempts, contracts.ReasonExhausted, lastErr)
}

// unavailable builds a terminal unavailable reading
func (o *Orchestrator) unavailable(dim contracts.Dimension, attempts int, reason string, err error) contracts.DimensionReading {
	if err != nil {
		o.logger.WithError(err).WithFields(map[string]interface{}{
			"dimension": dim,
			"reason":    reason,
			"attempts":  attempts,
		}).Warn("Dimension unavailable for this run")
	}
	return contracts.DimensionReading{
		Dimension:   dim,
		Status:      contracts.ReadingUnavailable,
		Reason:      reason,
		Attempts:    attempts,
		CollectedAt: o.now(),
	}
}

// fail moves the run to FAILED with a structured reason
func (o *Orchestrator) fail(run *contracts.PipelineRun, stage contracts.RunState, err error, dims []contracts.Dimension) (*contracts.PipelineRun, error) {
	run.State = contracts.RunFailed
	run.EndedAt = o.now()
	run.Failure = &contracts.RunFailure{
		Stage:      stage,
		Dimensions: dims,
		Err:        err,
		Cause:      err.Error(),
	}

	o.logger.WithError(err).WithFields(map[string]interface{}{
		"run_id":   run.RunID,
		"asset_id": run.Asset.ID,
		"stage":    string(stage),
	}).Error("Scoring run failed")

	return run, run.Failure
}

// timeoutReason distinguishes caller cancellation from a timeout expiry
func timeoutReason(parent context.Context) string {
	if parent.Err() == context.Canceled {
		return contracts.ReasonCancelled
	}
	return contracts.ReasonTimeout
}

// missingDimensions lists the dimensions that did not contribute
func missingDimensions(scores map[contracts.Dimension]contracts.NormalizedScore) []contracts.Dimension {
	out := make([]contracts.Dimension, 0)
	for dim, s := range scores {
		if s.Missing {
			out = append(out, dim)
		}
	}
	return out
}
