package reddit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/cryptoscore/internal/contracts"
	"github.com/wonny/cryptoscore/pkg/config"
	"github.com/wonny/cryptoscore/pkg/httputil"
	"github.com/wonny/cryptoscore/pkg/logger"
	"github.com/wonny/cryptoscore/pkg/redis"
)

// subreddit searched for asset mentions
const subreddit = "CryptoCurrency"

// Post is one scraped search result
type Post struct {
	Title string
	Score int
}

// Scraper reads recent posts about an asset from old.reddit.com
// ⭐ SSOT: Reddit 스크래핑은 여기서만
//
// It serves as a sentiment fallback for coins without recorded votes: a
// small keyword lexicon classifies post titles and the positive/negative
// balance maps onto the net-vote scale.
type Scraper struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewScraper creates a new Reddit scraper
func NewScraper(cfg config.RedditConfig, log *logger.Logger, rl *redis.RateLimiter) *Scraper {
	httpClient := httputil.New(log).
		DisableRetry().
		WithHeader("User-Agent", cfg.UserAgent)
	if rl != nil {
		httpClient = httpClient.WithRateLimiter(rl, redis.RedditRateLimit)
	}

	return &Scraper{
		httpClient: httpClient,
		logger:     log.WithField("module", "reddit"),
		baseURL:    cfg.BaseURL,
	}
}

// NetVotes scrapes recent posts mentioning the asset and converts the
// keyword balance to the net-vote scale in [-100, 100]
func (s *Scraper) NetVotes(ctx context.Context, asset contracts.Asset) (float64, error) {
	posts, err := s.FetchPosts(ctx, asset.ID)
	if err != nil {
		return 0, err
	}
	if len(posts) == 0 {
		return 0, errors.New("no posts found")
	}

	var positive, negative int
	for _, post := range posts {
		switch classifyTitle(post.Title) {
		case 1:
			positive++
		case -1:
			negative++
		}
	}

	classified := positive + negative
	if classified == 0 {
		// Mentions exist but carry no directional signal
		return 0, nil
	}

	netVotes := float64(positive-negative) / float64(classified) * 100

	s.logger.WithFields(map[string]interface{}{
		"asset_id":  asset.ID,
		"posts":     len(posts),
		"positive":  positive,
		"negative":  negative,
		"net_votes": netVotes,
	}).Debug("Scraped sentiment posts")

	return netVotes, nil
}

// FetchPosts scrapes the subreddit search listing for a query
func (s *Scraper) FetchPosts(ctx context.Context, query string) ([]Post, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("restrict_sr", "on")
	params.Set("sort", "new")
	params.Set("t", "week")

	fullURL := fmt.Sprintf("%s/r/%s/search?%s", s.baseURL, subreddit, params.Encode())

	resp, err := s.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	return parseListing(string(body)), nil
}

// parseListing parses an old.reddit.com search result page
func parseListing(html string) []Post {
	var posts []Post

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return posts
	}

	doc.Find("div.search-result-link, div.thing").Each(func(i int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find("a.search-title, a.title").First().Text())
		if title == "" {
			return
		}

		score := 0
		scoreText := strings.TrimSpace(sel.Find("span.search-score, div.score.unvoted").First().Text())
		fmt.Sscanf(scoreText, "%d", &score)

		posts = append(posts, Post{Title: title, Score: score})
	})

	return posts
}

// Keyword lexicon for title classification
var (
	positiveWords = []string{
		"bullish", "moon", "surge", "rally", "breakout", "ath",
		"adoption", "partnership", "upgrade", "gain", "pump", "soar",
	}
	negativeWords = []string{
		"bearish", "crash", "dump", "scam", "hack", "exploit",
		"lawsuit", "ban", "selloff", "plunge", "rug", "fud",
	}
)

// classifyTitle returns +1, -1 or 0 for a post title
func classifyTitle(title string) int {
	lower := strings.ToLower(title)

	score := 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			score++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			score--
		}
	}

	switch {
	case score > 0:
		return 1
	case score < 0:
		return -1
	default:
		return 0
	}
}
