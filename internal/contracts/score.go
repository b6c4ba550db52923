package contracts

import (
	"math"
	"time"
)

// NormalizedScore is one dimension's score on the common [0,1] scale
type NormalizedScore struct {
	Dimension Dimension `json:"dimension"`
	Value     float64   `json:"value"`            // in [0,1]; meaningless when Missing
	Missing   bool      `json:"missing"`
	Reason    string    `json:"reason,omitempty"` // reason code when Missing
	Source    string    `json:"source,omitempty"` // adapter the reading came from
	ReadAt    time.Time `json:"read_at,omitempty"`
}

// WeightVector maps dimensions to non-negative weights
// ⭐ SSOT: 가중치 설정은 이 타입으로만 전달
type WeightVector map[Dimension]float64

// DefaultWeightVector returns the default dimension weights
// (market 30%, sentiment 25%, community/developer/energy 15% each)
func DefaultWeightVector() WeightVector {
	return WeightVector{
		DimMarket:    0.30,
		DimSentiment: 0.25,
		DimCommunity: 0.15,
		DimDeveloper: 0.15,
		DimEnergy:    0.15,
	}
}

// Validate checks that all weights are non-negative and sum to 1.0
func (w WeightVector) Validate() bool {
	sum := 0.0
	for _, weight := range w {
		if weight < 0 {
			return false
		}
		sum += weight
	}
	// Allow small floating point error
	return sum >= 0.99 && sum <= 1.01
}

// Clone returns an independent copy of the weight vector
func (w WeightVector) Clone() WeightVector {
	out := make(WeightVector, len(w))
	for d, weight := range w {
		out[d] = weight
	}
	return out
}

// CompositeScore is the final weighted score for one asset at one timestamp
// ⭐ SSOT: 합산 점수는 이 타입으로만 저장/조회 (immutable once persisted)
type CompositeScore struct {
	AssetID          string                        `json:"asset_id"`
	ScoredAt         time.Time                     `json:"scored_at"`
	Value            float64                       `json:"value"` // in [0,1]
	Dimensions       map[Dimension]NormalizedScore `json:"dimensions"`
	EffectiveWeights WeightVector                  `json:"effective_weights"` // post-redistribution
	Complete         bool                          `json:"complete"`          // all dimensions contributed
}

// Display returns the score on the 0-100 reporting scale
func (c *CompositeScore) Display() float64 {
	return Round3(c.Value * 100)
}

// Round3 rounds to 3 decimal places, matching the persisted precision
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
