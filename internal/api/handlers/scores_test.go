package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/cryptoscore/internal/contracts"
	"github.com/wonny/cryptoscore/internal/normalize"
	"github.com/wonny/cryptoscore/internal/pipeline"
	"github.com/wonny/cryptoscore/internal/scoring"
	"github.com/wonny/cryptoscore/internal/sources/energy"
	"github.com/wonny/cryptoscore/internal/store"
	"github.com/wonny/cryptoscore/pkg/config"
	"github.com/wonny/cryptoscore/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		LogLevel:  "error",
		LogFormat: "json",
		Env:       "development",
		Scoring: config.ScoringConfig{
			Assets: []config.AssetSpec{
				{ID: "bitcoin", Symbol: "BTCUSDT"},
				{ID: "ethereum", Symbol: "ETHUSDT"},
			},
			RunTimeout: time.Minute,
		},
	}
}

func newTestHandler(t *testing.T, mem *store.Memory) *ScoreHandler {
	t.Helper()
	cfg := testConfig()
	log := logger.New(cfg)

	scorer, err := scoring.NewScorer(nil, log)
	if err != nil {
		t.Fatalf("NewScorer() error = %v", err)
	}

	orch := pipeline.NewOrchestrator(
		[]contracts.SourceAdapter{energy.NewAdapter(map[string]float64{"bitcoin": 0.8})},
		normalize.New(nil),
		scorer,
		mem,
		pipeline.Config{},
		log,
	)

	return NewScoreHandler(mem, orch, nil, cfg, log)
}

func seedScore(t *testing.T, mem *store.Memory, assetID string, at time.Time, value float64) {
	t.Helper()
	err := mem.Put(context.Background(), &contracts.CompositeScore{
		AssetID:  assetID,
		ScoredAt: at,
		Value:    value,
		Complete: true,
		Dimensions: map[contracts.Dimension]contracts.NormalizedScore{
			contracts.DimEnergy: {Dimension: contracts.DimEnergy, Value: value},
		},
	})
	if err != nil {
		t.Fatalf("seed score: %v", err)
	}
}

func TestGetLatest(t *testing.T) {
	mem := store.NewMemory()
	seedScore(t, mem, "bitcoin", time.Now().UTC(), 0.715)
	h := newTestHandler(t, mem)

	req := mux.SetURLVars(
		httptest.NewRequest(http.MethodGet, "/api/scores/bitcoin/latest", nil),
		map[string]string{"asset": "bitcoin"},
	)
	rec := httptest.NewRecorder()

	h.GetLatest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Success bool          `json:"success"`
		Data    ScoreResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if body.Data.Value != 0.715 {
		t.Errorf("value = %f, want 0.715", body.Data.Value)
	}
	if body.Data.Display != 71.5 {
		t.Errorf("display = %f, want 71.5", body.Data.Display)
	}
	if len(body.Data.Dimensions) != 1 {
		t.Errorf("got %d dimensions, want 1", len(body.Data.Dimensions))
	}
}

func TestGetLatestNotFound(t *testing.T) {
	h := newTestHandler(t, store.NewMemory())

	req := mux.SetURLVars(
		httptest.NewRequest(http.MethodGet, "/api/scores/dogecoin/latest", nil),
		map[string]string{"asset": "dogecoin"},
	)
	rec := httptest.NewRecorder()

	h.GetLatest(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetHistory(t *testing.T) {
	mem := store.NewMemory()
	now := time.Now().UTC()
	seedScore(t, mem, "bitcoin", now.Add(-2*time.Hour), 0.5)
	seedScore(t, mem, "bitcoin", now.Add(-time.Hour), 0.6)
	seedScore(t, mem, "bitcoin", now.Add(-10*24*time.Hour), 0.1) // outside default window
	h := newTestHandler(t, mem)

	req := mux.SetURLVars(
		httptest.NewRequest(http.MethodGet, "/api/scores/bitcoin/history", nil),
		map[string]string{"asset": "bitcoin"},
	)
	rec := httptest.NewRecorder()

	h.GetHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Data []ScoreResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(body.Data) != 2 {
		t.Errorf("got %d scores, want 2", len(body.Data))
	}
}

func TestListAssets(t *testing.T) {
	h := newTestHandler(t, store.NewMemory())

	rec := httptest.NewRecorder()
	h.ListAssets(rec, httptest.NewRequest(http.MethodGet, "/api/assets", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Data []map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(body.Data) != 2 {
		t.Errorf("got %d assets, want 2", len(body.Data))
	}
}

func TestTriggerRunUnknownAsset(t *testing.T) {
	h := newTestHandler(t, store.NewMemory())

	req := httptest.NewRequest(http.MethodPost, "/api/scores/run",
		strings.NewReader(`{"asset_id": "dogecoin"}`))
	rec := httptest.NewRecorder()

	h.TriggerRun(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTriggerRunAccepted(t *testing.T) {
	h := newTestHandler(t, store.NewMemory())

	req := httptest.NewRequest(http.MethodPost, "/api/scores/run",
		strings.NewReader(`{"asset_id": "bitcoin"}`))
	rec := httptest.NewRecorder()

	h.TriggerRun(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
}

func TestGetJobStatsWithoutScheduler(t *testing.T) {
	h := newTestHandler(t, store.NewMemory())

	rec := httptest.NewRecorder()
	h.GetJobStats(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
