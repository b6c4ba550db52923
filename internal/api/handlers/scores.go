package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/cryptoscore/internal/contracts"
	"github.com/wonny/cryptoscore/internal/pipeline"
	"github.com/wonny/cryptoscore/internal/scheduler"
	"github.com/wonny/cryptoscore/pkg/config"
	"github.com/wonny/cryptoscore/pkg/logger"
)

// ScoreHandler handles score API endpoints
// ⭐ SSOT: 점수 API 핸들러는 이 구조체에서만
type ScoreHandler struct {
	store        contracts.ScoreStore
	orchestrator *pipeline.Orchestrator
	scheduler    *scheduler.Scheduler
	config       *config.Config
	logger       *logger.Logger
}

// NewScoreHandler creates a new score handler.
// scheduler may be nil when the API runs without the cron scheduler.
func NewScoreHandler(
	store contracts.ScoreStore,
	orch *pipeline.Orchestrator,
	sched *scheduler.Scheduler,
	cfg *config.Config,
	log *logger.Logger,
) *ScoreHandler {
	return &ScoreHandler{
		store:        store,
		orchestrator: orch,
		scheduler:    sched,
		config:       cfg,
		logger:       log,
	}
}

// DimensionScoreResponse is one dimension's contribution in a response
type DimensionScoreResponse struct {
	Value   float64 `json:"value"`
	Missing bool    `json:"missing"`
	Reason  string  `json:"reason,omitempty"`
	Source  string  `json:"source,omitempty"`
}

// ScoreResponse represents a composite score for API responses
type ScoreResponse struct {
	AssetID    string                            `json:"asset_id"`
	ScoredAt   string                            `json:"scored_at"`
	Value      float64                           `json:"value"`
	Display    float64                           `json:"display"`
	Complete   bool                              `json:"complete"`
	Weights    map[contracts.Dimension]float64   `json:"effective_weights,omitempty"`
	Dimensions map[string]DimensionScoreResponse `json:"dimensions,omitempty"`
}

func toScoreResponse(score *contracts.CompositeScore) ScoreResponse {
	resp := ScoreResponse{
		AssetID:  score.AssetID,
		ScoredAt: score.ScoredAt.UTC().Format(time.RFC3339),
		Value:    score.Value,
		Display:  score.Display(),
		Complete: score.Complete,
		Weights:  score.EffectiveWeights,
	}

	if len(score.Dimensions) > 0 {
		resp.Dimensions = make(map[string]DimensionScoreResponse, len(score.Dimensions))
		for dim, ds := range score.Dimensions {
			resp.Dimensions[string(dim)] = DimensionScoreResponse{
				Value:   ds.Value,
				Missing: ds.Missing,
				Reason:  ds.Reason,
				Source:  ds.Source,
			}
		}
	}

	return resp
}

// ListAssets returns the configured scoring universe
// GET /api/assets
func (h *ScoreHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets := make([]map[string]string, 0, len(h.config.Scoring.Assets))
	for _, spec := range h.config.Scoring.Assets {
		assets = append(assets, map[string]string{
			"id":     spec.ID,
			"symbol": spec.Symbol,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    assets,
	})
}

// GetLatest returns the most recent score for an asset
// GET /api/scores/{asset}/latest
func (h *ScoreHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assetID := mux.Vars(r)["asset"]

	if assetID == "" {
		respondError(w, http.StatusBadRequest, "asset id is required")
		return
	}

	score, err := h.store.GetLatest(ctx, assetID)
	if err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			respondError(w, http.StatusNotFound, "no score recorded for asset")
			return
		}
		h.logger.WithError(err).WithField("asset_id", assetID).Error("Failed to get latest score")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve score")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    toScoreResponse(score),
	})
}

// GetHistory returns score history for an asset
// GET /api/scores/{asset}/history?hours=168
func (h *ScoreHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assetID := mux.Vars(r)["asset"]

	if assetID == "" {
		respondError(w, http.StatusBadRequest, "asset id is required")
		return
	}

	// Default window: one week of hourly scores
	hours := 168
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		if parsed, err := strconv.Atoi(hoursStr); err == nil && parsed > 0 {
			hours = parsed
		}
	}

	to := time.Now().UTC()
	from := to.Add(-time.Duration(hours) * time.Hour)

	scores, err := h.store.GetHistory(ctx, assetID, from, to)
	if err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"asset_id": assetID,
			"hours":    hours,
		}).Error("Failed to get score history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve score history")
		return
	}

	result := make([]ScoreResponse, len(scores))
	for i, score := range scores {
		result[i] = toScoreResponse(score)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

// triggerRequest is the body for POST /api/scores/run
type triggerRequest struct {
	AssetID string `json:"asset_id"`
}

// TriggerRun starts a scoring run outside the schedule.
// With an asset_id only that asset is scored; otherwise the whole
// configured universe. Runs execute in the background.
// POST /api/scores/run
func (h *ScoreHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if r.Body != nil {
		// An empty body means "score everything"
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	assets := make([]contracts.Asset, 0, len(h.config.Scoring.Assets))
	for _, spec := range h.config.Scoring.Assets {
		if req.AssetID != "" && spec.ID != req.AssetID {
			continue
		}
		assets = append(assets, contracts.Asset{ID: spec.ID, Symbol: spec.Symbol})
	}

	if len(assets) == 0 {
		respondError(w, http.StatusNotFound, "asset not in configured universe")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.config.Scoring.RunTimeout*time.Duration(len(assets)))
		defer cancel()
		h.orchestrator.RunAll(ctx, assets)
	}()

	h.logger.WithField("assets", len(assets)).Info("Scoring run triggered via API")

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"assets":  len(assets),
	})
}

// GetJobStats returns scheduler job statistics
// GET /api/jobs
func (h *ScoreHandler) GetJobStats(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, http.StatusNotFound, "scheduler is not running")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.scheduler.GetJobStats(),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
