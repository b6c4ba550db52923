package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/cryptoscore/internal/contracts"
	"github.com/wonny/cryptoscore/internal/pipeline"
	"github.com/wonny/cryptoscore/pkg/config"
	"github.com/wonny/cryptoscore/pkg/logger"
)

// ScoringJob scores every configured asset on a schedule
// ⭐ SSOT: 주기적 스코어링은 이 Job에서만
type ScoringJob struct {
	orchestrator *pipeline.Orchestrator
	config       *config.Config
	logger       *logger.Logger
}

// NewScoringJob creates a new scoring job
func NewScoringJob(orch *pipeline.Orchestrator, cfg *config.Config, log *logger.Logger) *ScoringJob {
	return &ScoringJob{
		orchestrator: orch,
		config:       cfg,
		logger:       log,
	}
}

// Name returns the job name
func (j *ScoringJob) Name() string {
	return "asset_scoring"
}

// Schedule returns the configured cron schedule (hourly by default)
func (j *ScoringJob) Schedule() string {
	return j.config.Scoring.Schedule
}

// Run scores every configured asset.
// Per-asset failures do not abort the batch; the job fails only when no
// asset could be scored at all.
func (j *ScoringJob) Run(ctx context.Context) error {
	assets := make([]contracts.Asset, 0, len(j.config.Scoring.Assets))
	for _, spec := range j.config.Scoring.Assets {
		assets = append(assets, contracts.Asset{ID: spec.ID, Symbol: spec.Symbol})
	}

	j.logger.WithField("assets", len(assets)).Info("Starting scheduled scoring")

	runs := j.orchestrator.RunAll(ctx, assets)

	completed := 0
	for _, run := range runs {
		if run.State == contracts.RunComplete {
			completed++
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"completed": completed,
		"failed":    len(runs) - completed,
	}).Info("Scheduled scoring finished")

	if completed == 0 && len(runs) > 0 {
		return fmt.Errorf("all %d scoring runs failed", len(runs))
	}

	return nil
}
