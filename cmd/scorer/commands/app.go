package commands

import (
	"fmt"

	"github.com/wonny/cryptoscore/internal/contracts"
	"github.com/wonny/cryptoscore/internal/normalize"
	"github.com/wonny/cryptoscore/internal/pipeline"
	"github.com/wonny/cryptoscore/internal/scoring"
	"github.com/wonny/cryptoscore/internal/sources/coingecko"
	"github.com/wonny/cryptoscore/internal/sources/energy"
	"github.com/wonny/cryptoscore/internal/sources/market"
	"github.com/wonny/cryptoscore/internal/sources/reddit"
	"github.com/wonny/cryptoscore/internal/store"
	"github.com/wonny/cryptoscore/pkg/config"
	"github.com/wonny/cryptoscore/pkg/database"
	"github.com/wonny/cryptoscore/pkg/logger"
	"github.com/wonny/cryptoscore/pkg/redis"
)

// app bundles the wired pipeline for the CLI commands
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	db           *database.DB
	rds          *redis.Client
	store        contracts.ScoreStore
	orchestrator *pipeline.Orchestrator
}

// initApp loads config and wires the full scoring pipeline.
// With dryRun the scores land in an in-memory store and no database
// connection is made.
func initApp(dryRun bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}

	if dryRun {
		a.store = store.NewMemory()
		log.Info("Dry run, scores will not be persisted")
	} else {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.store = store.NewPostgres(db.Pool)
		log.Info("Connected to database")
	}

	rds, err := redis.New(cfg, log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rds = rds

	cache := redis.NewCache(rds, "cryptoscore")
	limiter := redis.NewRateLimiter(rds, "cryptoscore")

	cgClient := coingecko.NewClient(cfg.CoinGecko, log, cache, limiter)
	redditScraper := reddit.NewScraper(cfg.Reddit, log, limiter)

	adapters := []contracts.SourceAdapter{
		market.NewAdapter(cfg.Market, log, cache, limiter),
		coingecko.NewSentimentAdapter(cgClient, redditScraper, log),
		coingecko.NewCommunityAdapter(cgClient),
		coingecko.NewDeveloperAdapter(cgClient),
		energy.NewAdapter(cfg.Scoring.EnergyIndex),
	}

	weights := contracts.WeightVector{
		contracts.DimMarket:    cfg.Scoring.WeightMarket,
		contracts.DimSentiment: cfg.Scoring.WeightSentiment,
		contracts.DimCommunity: cfg.Scoring.WeightCommunity,
		contracts.DimDeveloper: cfg.Scoring.WeightDeveloper,
		contracts.DimEnergy:    cfg.Scoring.WeightEnergy,
	}

	scorer, err := scoring.NewScorer(weights, log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create scorer: %w", err)
	}

	a.orchestrator = pipeline.NewOrchestrator(
		adapters,
		normalize.New(nil),
		scorer,
		a.store,
		pipeline.Config{
			Retry: pipeline.RetryPolicy{
				MaxAttempts: cfg.Scoring.MaxAttempts,
				BaseDelay:   cfg.Scoring.BaseDelay,
				MaxDelay:    cfg.Scoring.MaxDelay,
			},
			DimensionTimeout: cfg.Scoring.DimensionTimeout,
			RunTimeout:       cfg.Scoring.RunTimeout,
		},
		log,
	)

	return a, nil
}

// close releases database and redis connections
func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.rds != nil {
		a.rds.Close()
	}
}

// assets returns the configured scoring universe, optionally filtered to
// the given asset ids
func (a *app) assets(ids []string) []contracts.Asset {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	assets := make([]contracts.Asset, 0, len(a.cfg.Scoring.Assets))
	for _, spec := range a.cfg.Scoring.Assets {
		if len(wanted) > 0 && !wanted[spec.ID] {
			continue
		}
		assets = append(assets, contracts.Asset{ID: spec.ID, Symbol: spec.Symbol})
	}
	return assets
}
