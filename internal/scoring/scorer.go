package scoring

import (
	"fmt"
	"time"

	"github.com/wonny/cryptoscore/internal/contracts"
	"github.com/wonny/cryptoscore/pkg/logger"
)

// Scorer combines normalized dimension scores into one composite score
// ⭐ SSOT: 합산 점수 계산은 여기서만
type Scorer struct {
	weights contracts.WeightVector
	logger  *logger.Logger
}

// NewScorer creates a scorer with the given weight vector.
// Weights are fixed per scorer so concurrent runs with different
// configurations can coexist.
func NewScorer(weights contracts.WeightVector, log *logger.Logger) (*Scorer, error) {
	if weights == nil {
		weights = contracts.DefaultWeightVector()
	}
	if !weights.Validate() {
		return nil, fmt.Errorf("weight vector must be non-negative and sum to 1.0")
	}
	return &Scorer{weights: weights.Clone(), logger: log}, nil
}

// Combine computes the composite score for one asset at one timestamp.
//
// Missing dimensions have their weight redistributed proportionally across
// the present dimensions, so effective weights still sum to 1. When every
// dimension is missing, ErrInsufficientData is returned and no score is
// produced. Identical inputs always yield the identical composite value.
func (s *Scorer) Combine(assetID string, scoredAt time.Time, scores map[contracts.Dimension]contracts.NormalizedScore) (*contracts.CompositeScore, error) {
	present := make([]contracts.Dimension, 0, len(s.weights))
	missing := make([]contracts.Dimension, 0)

	presentWeight := 0.0
	for dim := range s.weights {
		score, ok := scores[dim]
		if !ok || score.Missing {
			missing = append(missing, dim)
			continue
		}
		present = append(present, dim)
		presentWeight += s.weights[dim]
	}

	if len(present) == 0 || presentWeight == 0 {
		return nil, contracts.ErrInsufficientData
	}

	// Redistribute missing weight proportionally across present dimensions
	effective := make(contracts.WeightVector, len(present))
	composite := 0.0
	for _, dim := range present {
		w := s.weights[dim] / presentWeight
		effective[dim] = w
		composite += w * scores[dim].Value
	}

	result := &contracts.CompositeScore{
		AssetID:          assetID,
		ScoredAt:         scoredAt,
		Value:            contracts.Round3(composite),
		Dimensions:       scores,
		EffectiveWeights: effective,
		Complete:         len(missing) == 0,
	}

	s.logger.WithFields(map[string]interface{}{
		"asset_id": assetID,
		"score":    result.Value,
		"complete": result.Complete,
		"missing":  len(missing),
	}).Debug("Combined composite score")

	return result, nil
}

// Weights returns a copy of the configured weight vector
func (s *Scorer) Weights() contracts.WeightVector {
	return s.weights.Clone()
}
