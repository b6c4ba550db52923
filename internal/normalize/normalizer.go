package normalize

import (
	"math"

	"github.com/wonny/cryptoscore/internal/contracts"
)

// Normalizer converts dimension readings onto the common [0,1] scale
// ⭐ SSOT: 차원 점수 정규화는 여기서만
// Pure: the output depends only on (reading, reference ranges). Bad input
// is reported as a missing score with a reason code, never as a fault.
type Normalizer struct {
	ranges ReferenceRanges
}

// New creates a normalizer with the given reference ranges
func New(ranges ReferenceRanges) *Normalizer {
	if ranges == nil {
		ranges = DefaultReferenceRanges()
	}
	return &Normalizer{ranges: ranges}
}

// Normalize maps one reading to a NormalizedScore in [0,1].
// Unavailable or errored readings produce a missing score carrying the
// collection reason, so the scorer can redistribute their weight.
func (n *Normalizer) Normalize(reading contracts.DimensionReading) contracts.NormalizedScore {
	score := contracts.NormalizedScore{
		Dimension: reading.Dimension,
		Source:    reading.Source,
		ReadAt:    reading.CollectedAt,
	}

	if reading.Status != contracts.ReadingOK {
		score.Missing = true
		score.Reason = reading.Reason
		if score.Reason == "" {
			score.Reason = contracts.ReasonNoData
		}
		return score
	}

	if len(reading.Metrics) == 0 {
		score.Missing = true
		score.Reason = contracts.ReasonNoData
		return score
	}

	terms, ok := dimensionRules[reading.Dimension]
	if !ok {
		score.Missing = true
		score.Reason = contracts.ReasonBadValue
		return score
	}

	value := 0.0
	for _, term := range terms {
		raw, present := reading.Metric(term.metric)
		if present && (math.IsNaN(raw) || math.IsInf(raw, 0)) {
			// Malformed raw value poisons the whole dimension
			score.Missing = true
			score.Reason = contracts.ReasonBadValue
			return score
		}
		// Absent metrics scale as the range minimum (clamped), matching
		// the behavior for below-range readings
		value += term.weight * n.scale(reading.Dimension, term.metric, raw, present)
	}

	score.Value = contracts.Round3(value)
	return score
}

// scale applies min-max scaling with clamping for one metric
func (n *Normalizer) scale(dim contracts.Dimension, metric string, raw float64, present bool) float64 {
	r, ok := n.ranges[dim][metric]
	if !ok || r.Max <= r.Min {
		return 0.0
	}

	if !present {
		raw = r.Min
	}

	scaled := (raw - r.Min) / (r.Max - r.Min)
	scaled = clamp01(scaled)

	if r.Inverse {
		return 1.0 - scaled
	}
	return scaled
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0.0
	}
	if v > 1 {
		return 1.0
	}
	return v
}
