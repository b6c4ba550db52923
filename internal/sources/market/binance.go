package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wonny/cryptoscore/internal/contracts"
	"github.com/wonny/cryptoscore/internal/normalize"
	"github.com/wonny/cryptoscore/pkg/config"
	"github.com/wonny/cryptoscore/pkg/httputil"
	"github.com/wonny/cryptoscore/pkg/logger"
	"github.com/wonny/cryptoscore/pkg/redis"
)

// window is the trailing number of hourly candles used per reading
const window = 24

// Snapshot is the aggregated market window for one symbol
type Snapshot struct {
	Symbol      string  `json:"symbol"`
	PctChange   float64 `json:"pct_change"`
	QuoteVolume float64 `json:"quote_volume"`
}

// Adapter reads trailing price change and traded volume from Binance
// ⭐ SSOT: 시장 데이터 수집은 여기서만
type Adapter struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cache      *redis.Cache
	baseURL    string
	now        func() time.Time
}

// NewAdapter creates a market adapter.
// Retries are left to the pipeline's retry policy.
func NewAdapter(cfg config.MarketConfig, log *logger.Logger, cache *redis.Cache, rl *redis.RateLimiter) *Adapter {
	httpClient := httputil.New(log).DisableRetry()
	if rl != nil {
		httpClient = httpClient.WithRateLimiter(rl, redis.BinanceRateLimit)
	}

	return &Adapter{
		httpClient: httpClient,
		logger:     log.WithField("adapter", "market"),
		cache:      cache,
		baseURL:    cfg.BaseURL,
		now:        time.Now,
	}
}

func (a *Adapter) Dimension() contracts.Dimension {
	return contracts.DimMarket
}

// Fetch reads the trailing 24h window for the asset's trading symbol.
// The snapshot is cached per symbol-hour so a re-run within the hour does
// not hit the exchange again.
func (a *Adapter) Fetch(ctx context.Context, asset contracts.Asset) (contracts.DimensionReading, error) {
	snapshot, err := a.fetchSnapshot(ctx, asset.Symbol)
	if err != nil {
		return contracts.DimensionReading{}, err
	}

	return contracts.DimensionReading{
		Dimension: contracts.DimMarket,
		Status:    contracts.ReadingOK,
		Metrics: map[string]float64{
			normalize.MetricPctChange: snapshot.PctChange,
			normalize.MetricVolume:    snapshot.QuoteVolume,
		},
		Source:      "binance",
		CollectedAt: a.now(),
	}, nil
}

func (a *Adapter) fetchSnapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	cacheKey := redis.MarketWindowKey(symbol, a.now().UTC().Format("2006010215"))
	if a.cache != nil {
		var cached Snapshot
		if hit, err := a.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			a.logger.WithField("symbol", symbol).Debug("Market window cache hit")
			return &cached, nil
		}
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", "1h")
	params.Set("limit", strconv.Itoa(window+1))

	fullURL := fmt.Sprintf("%s/api/v3/klines?%s", a.baseURL, params.Encode())

	resp, err := a.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, contracts.NewTransientError(contracts.DimMarket, fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		// Unknown symbol never resolves by retrying
		return nil, contracts.NewPermanentError(contracts.DimMarket,
			fmt.Errorf("unknown trading symbol %s (status %d)", symbol, resp.StatusCode))
	default:
		return nil, contracts.NewTransientError(contracts.DimMarket,
			fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, contracts.NewTransientError(contracts.DimMarket, fmt.Errorf("read response body failed: %w", err))
	}

	snapshot, err := parseKlines(symbol, body)
	if err != nil {
		return nil, contracts.NewPermanentError(contracts.DimMarket, err)
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, cacheKey, snapshot, redis.TTLShort); err != nil {
			a.logger.WithError(err).Warn("Market window cache write failed")
		}
	}

	a.logger.WithFields(map[string]interface{}{
		"symbol":       symbol,
		"pct_change":   snapshot.PctChange,
		"quote_volume": snapshot.QuoteVolume,
	}).Debug("Fetched market window")

	return snapshot, nil
}

// parseKlines aggregates Binance kline rows into one window snapshot.
// Rows are [openTime, open, high, low, close, volume, closeTime,
// quoteVolume, ...] with prices encoded as strings.
func parseKlines(symbol string, body []byte) (*Snapshot, error) {
	var rows [][]interface{}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse klines failed: %w", err)
	}
	if len(rows) < 2 {
		return nil, errors.New("not enough klines in window")
	}

	firstOpen, err := klineField(rows[0], 1)
	if err != nil {
		return nil, err
	}
	lastClose, err := klineField(rows[len(rows)-1], 4)
	if err != nil {
		return nil, err
	}
	if firstOpen <= 0 {
		return nil, fmt.Errorf("invalid open price %f", firstOpen)
	}

	var quoteVolume float64
	for _, row := range rows {
		qv, err := klineField(row, 7)
		if err != nil {
			return nil, err
		}
		quoteVolume += qv
	}

	return &Snapshot{
		Symbol:      symbol,
		PctChange:   (lastClose - firstOpen) / firstOpen * 100,
		QuoteVolume: quoteVolume,
	}, nil
}

// klineField reads one numeric field from a kline row
func klineField(row []interface{}, idx int) (float64, error) {
	if len(row) <= idx {
		return 0, fmt.Errorf("kline row too short: %d fields", len(row))
	}
	switch v := row[idx].(type) {
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("parse kline field %d: %w", idx, err)
		}
		return f, nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected kline field type %T", row[idx])
	}
}
