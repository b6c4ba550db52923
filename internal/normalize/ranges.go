package normalize

import "github.com/wonny/cryptoscore/internal/contracts"

// Range is the reference range one raw metric is scaled against.
// Values outside the range clamp to the bounds, no extrapolation.
// Inverse metrics score 1 - scaled (higher raw value = worse).
type Range struct {
	Min     float64
	Max     float64
	Inverse bool
}

// ReferenceRanges maps dimension -> metric -> reference range
// ⭐ SSOT: 정규화 기준 범위는 이 타입으로만 주입
type ReferenceRanges map[contracts.Dimension]map[string]Range

// Raw metric names reported by the source adapters
const (
	MetricPctChange = "pct_change"
	MetricVolume    = "volume"
	MetricNetVotes  = "net_votes"

	MetricTwitterFollowers = "twitter_followers"
	MetricRedditSubs       = "reddit_subscribers"
	MetricTelegramUsers    = "telegram_channel_user_count"

	MetricForks      = "forks"
	MetricStars      = "stars"
	MetricWatchers   = "subscribers"
	MetricIssues     = "total_issues"
	MetricMergedPRs  = "pull_requests_merged"

	MetricEnergyIndex = "consumption_index"
)

// DefaultReferenceRanges returns the default per-metric reference ranges
func DefaultReferenceRanges() ReferenceRanges {
	return ReferenceRanges{
		contracts.DimMarket: {
			MetricPctChange: {Min: -10, Max: 10},
			MetricVolume:    {Min: 1e5, Max: 1e9},
		},
		contracts.DimSentiment: {
			MetricNetVotes: {Min: -100, Max: 100},
		},
		contracts.DimCommunity: {
			MetricTwitterFollowers: {Min: 1_000, Max: 1_000_000},
			MetricRedditSubs:       {Min: 500, Max: 500_000},
			MetricTelegramUsers:    {Min: 100, Max: 100_000},
		},
		contracts.DimDeveloper: {
			MetricForks:     {Min: 10, Max: 2_000},
			MetricStars:     {Min: 10, Max: 3_000},
			MetricWatchers:  {Min: 10, Max: 1_000},
			MetricIssues:    {Min: 10, Max: 2_000},
			MetricMergedPRs: {Min: 5, Max: 1_000},
		},
		contracts.DimEnergy: {
			// Consumption index: more energy burned scores lower
			MetricEnergyIndex: {Min: 0, Max: 1, Inverse: true},
		},
	}
}

// metricTerm is one weighted component of a dimension score
type metricTerm struct {
	metric string
	weight float64
}

// dimensionRules defines how each dimension combines its scaled metrics.
// Weights within a dimension sum to 1.
var dimensionRules = map[contracts.Dimension][]metricTerm{
	contracts.DimMarket: {
		{metric: MetricPctChange, weight: 0.5},
		{metric: MetricVolume, weight: 0.5},
	},
	contracts.DimSentiment: {
		{metric: MetricNetVotes, weight: 1.0},
	},
	contracts.DimCommunity: {
		{metric: MetricTwitterFollowers, weight: 1.0 / 3},
		{metric: MetricRedditSubs, weight: 1.0 / 3},
		{metric: MetricTelegramUsers, weight: 1.0 / 3},
	},
	contracts.DimDeveloper: {
		{metric: MetricForks, weight: 0.2},
		{metric: MetricStars, weight: 0.2},
		{metric: MetricWatchers, weight: 0.2},
		{metric: MetricIssues, weight: 0.2},
		{metric: MetricMergedPRs, weight: 0.2},
	},
	contracts.DimEnergy: {
		{metric: MetricEnergyIndex, weight: 1.0},
	},
}
