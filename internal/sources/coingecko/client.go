package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/wonny/cryptoscore/pkg/config"
	"github.com/wonny/cryptoscore/pkg/httputil"
	"github.com/wonny/cryptoscore/pkg/logger"
	"github.com/wonny/cryptoscore/pkg/redis"
)

// Client handles communication with the CoinGecko API
// ⭐ SSOT: CoinGecko API 호출은 이 클라이언트에서만
//
// A local token bucket backs up the Redis sliding window so a single
// process stays polite even when Redis is disabled.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cache      *redis.Cache
	limiter    *rate.Limiter
	baseURL    string
}

// NewClient creates a new CoinGecko client.
// Retries are left to the pipeline's retry policy, so the underlying HTTP
// client performs single attempts only.
func NewClient(cfg config.CoinGeckoConfig, log *logger.Logger, cache *redis.Cache, rl *redis.RateLimiter) *Client {
	httpClient := httputil.New(log).DisableRetry()
	if rl != nil {
		httpClient = httpClient.WithRateLimiter(rl, redis.CoinGeckoRateLimit)
	}
	if cfg.APIKey != "" {
		httpClient = httpClient.WithHeader("x-cg-demo-api-key", cfg.APIKey)
	}

	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "coingecko"),
		cache:      cache,
		limiter:    rate.NewLimiter(rate.Limit(float64(redis.CoinGeckoRateLimit.Limit)/60.0), 1),
		baseURL:    cfg.BaseURL,
	}
}

// CoinDetails is the subset of /coins/{id} the scoring pipeline consumes
type CoinDetails struct {
	ID                           string        `json:"id"`
	SentimentVotesUpPercentage   float64       `json:"sentiment_votes_up_percentage"`
	SentimentVotesDownPercentage float64       `json:"sentiment_votes_down_percentage"`
	CommunityData                CommunityData `json:"community_data"`
	DeveloperData                DeveloperData `json:"developer_data"`
}

// CommunityData holds community size indicators
type CommunityData struct {
	TwitterFollowers         float64 `json:"twitter_followers"`
	RedditSubscribers        float64 `json:"reddit_subscribers"`
	TelegramChannelUserCount float64 `json:"telegram_channel_user_count"`
}

// DeveloperData holds repository activity indicators
type DeveloperData struct {
	Forks              float64 `json:"forks"`
	Stars              float64 `json:"stars"`
	Subscribers        float64 `json:"subscribers"`
	TotalIssues        float64 `json:"total_issues"`
	PullRequestsMerged float64 `json:"pull_requests_merged"`
}

// FetchCoinDetails fetches coin details with sentiment, community and
// developer data. Responses are cached so the three adapters reading from
// the same endpoint cost one upstream call per run.
func (c *Client) FetchCoinDetails(ctx context.Context, coinID string) (*CoinDetails, error) {
	cacheKey := redis.CoinDetailsKey(coinID)
	if c.cache != nil {
		var cached CoinDetails
		if hit, err := c.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			c.logger.WithField("coin_id", coinID).Debug("Coin details cache hit")
			return &cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	params := url.Values{}
	params.Set("localization", "false")
	params.Set("tickers", "false")
	params.Set("market_data", "false")
	params.Set("community_data", "true")
	params.Set("developer_data", "true")
	params.Set("sparkline", "false")

	fullURL := fmt.Sprintf("%s/coins/%s?%s", c.baseURL, url.PathEscape(coinID), params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, URL: fullURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	var details CoinDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("parse coin details failed: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, &details, redis.TTLMedium); err != nil {
			c.logger.WithError(err).Warn("Coin details cache write failed")
		}
	}

	c.logger.WithField("coin_id", coinID).Debug("Fetched coin details")
	return &details, nil
}

// StatusError reports a non-200 upstream response
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

// Transient reports whether the status is worth another attempt
func (e *StatusError) Transient() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}
