package coingecko

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/wonny/cryptoscore/internal/contracts"
	"github.com/wonny/cryptoscore/internal/normalize"
	"github.com/wonny/cryptoscore/pkg/logger"
)

const sourceName = "coingecko"

// NetVotesFallback supplies a substitute net-vote figure when CoinGecko
// carries no sentiment votes for a coin
type NetVotesFallback interface {
	NetVotes(ctx context.Context, asset contracts.Asset) (float64, error)
}

// classify wraps an upstream error with its retry class.
// Client-side errors (bad coin id, gone endpoint) are permanent; rate
// limits, server errors and network failures are transient.
func classify(dim contracts.Dimension, err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Transient() {
			return contracts.NewTransientError(dim, err)
		}
		if statusErr.Code == http.StatusNotFound || statusErr.Code == http.StatusBadRequest {
			return contracts.NewPermanentError(dim, err)
		}
		return contracts.NewTransientError(dim, err)
	}
	return contracts.NewTransientError(dim, err)
}

// SentimentAdapter reads community vote sentiment for an asset
type SentimentAdapter struct {
	client   *Client
	fallback NetVotesFallback
	logger   *logger.Logger
}

// NewSentimentAdapter creates a sentiment adapter.
// fallback may be nil; when set it is consulted for coins without votes.
func NewSentimentAdapter(client *Client, fallback NetVotesFallback, log *logger.Logger) *SentimentAdapter {
	return &SentimentAdapter{
		client:   client,
		fallback: fallback,
		logger:   log.WithField("adapter", "sentiment"),
	}
}

func (a *SentimentAdapter) Dimension() contracts.Dimension {
	return contracts.DimSentiment
}

// Fetch reads the up/down vote split and reports the net percentage.
// A coin with zero recorded votes falls through to the fallback source.
func (a *SentimentAdapter) Fetch(ctx context.Context, asset contracts.Asset) (contracts.DimensionReading, error) {
	details, err := a.client.FetchCoinDetails(ctx, asset.ID)
	if err != nil {
		return contracts.DimensionReading{}, classify(contracts.DimSentiment, err)
	}

	netVotes := details.SentimentVotesUpPercentage - details.SentimentVotesDownPercentage
	source := sourceName

	if details.SentimentVotesUpPercentage == 0 && details.SentimentVotesDownPercentage == 0 && a.fallback != nil {
		fallbackVotes, fbErr := a.fallback.NetVotes(ctx, asset)
		if fbErr != nil {
			a.logger.WithError(fbErr).WithField("asset_id", asset.ID).Warn("Sentiment fallback failed")
			return contracts.DimensionReading{}, contracts.NewPermanentError(contracts.DimSentiment,
				errors.New("no sentiment votes recorded"))
		}
		netVotes = fallbackVotes
		source = "reddit"
	}

	return contracts.DimensionReading{
		Dimension: contracts.DimSentiment,
		Status:    contracts.ReadingOK,
		Metrics: map[string]float64{
			normalize.MetricNetVotes: netVotes,
		},
		Source:      source,
		CollectedAt: time.Now(),
	}, nil
}

// CommunityAdapter reads community size indicators for an asset
type CommunityAdapter struct {
	client *Client
}

// NewCommunityAdapter creates a community adapter
func NewCommunityAdapter(client *Client) *CommunityAdapter {
	return &CommunityAdapter{client: client}
}

func (a *CommunityAdapter) Dimension() contracts.Dimension {
	return contracts.DimCommunity
}

// Fetch reads follower and subscriber counts.
// Only metrics the upstream actually reports are included; a coin with no
// community data at all is a permanent miss for this run.
func (a *CommunityAdapter) Fetch(ctx context.Context, asset contracts.Asset) (contracts.DimensionReading, error) {
	details, err := a.client.FetchCoinDetails(ctx, asset.ID)
	if err != nil {
		return contracts.DimensionReading{}, classify(contracts.DimCommunity, err)
	}

	metrics := make(map[string]float64)
	cd := details.CommunityData
	if cd.TwitterFollowers > 0 {
		metrics[normalize.MetricTwitterFollowers] = cd.TwitterFollowers
	}
	if cd.RedditSubscribers > 0 {
		metrics[normalize.MetricRedditSubs] = cd.RedditSubscribers
	}
	if cd.TelegramChannelUserCount > 0 {
		metrics[normalize.MetricTelegramUsers] = cd.TelegramChannelUserCount
	}

	if len(metrics) == 0 {
		return contracts.DimensionReading{}, contracts.NewPermanentError(contracts.DimCommunity,
			errors.New("no community data recorded"))
	}

	return contracts.DimensionReading{
		Dimension:   contracts.DimCommunity,
		Status:      contracts.ReadingOK,
		Metrics:     metrics,
		Source:      sourceName,
		CollectedAt: time.Now(),
	}, nil
}

// DeveloperAdapter reads repository activity indicators for an asset
type DeveloperAdapter struct {
	client *Client
}

// NewDeveloperAdapter creates a developer adapter
func NewDeveloperAdapter(client *Client) *DeveloperAdapter {
	return &DeveloperAdapter{client: client}
}

func (a *DeveloperAdapter) Dimension() contracts.Dimension {
	return contracts.DimDeveloper
}

// Fetch reads forks, stars, watchers, issue and merged PR counts
func (a *DeveloperAdapter) Fetch(ctx context.Context, asset contracts.Asset) (contracts.DimensionReading, error) {
	details, err := a.client.FetchCoinDetails(ctx, asset.ID)
	if err != nil {
		return contracts.DimensionReading{}, classify(contracts.DimDeveloper, err)
	}

	dd := details.DeveloperData
	if dd.Forks == 0 && dd.Stars == 0 && dd.Subscribers == 0 && dd.TotalIssues == 0 && dd.PullRequestsMerged == 0 {
		return contracts.DimensionReading{}, contracts.NewPermanentError(contracts.DimDeveloper,
			errors.New("no developer data recorded"))
	}

	return contracts.DimensionReading{
		Dimension: contracts.DimDeveloper,
		Status:    contracts.ReadingOK,
		Metrics: map[string]float64{
			normalize.MetricForks:     dd.Forks,
			normalize.MetricStars:     dd.Stars,
			normalize.MetricWatchers:  dd.Subscribers,
			normalize.MetricIssues:    dd.TotalIssues,
			normalize.MetricMergedPRs: dd.PullRequestsMerged,
		},
		Source:      sourceName,
		CollectedAt: time.Now(),
	}, nil
}
