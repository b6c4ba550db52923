package energy

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/cryptoscore/internal/contracts"
	"github.com/wonny/cryptoscore/internal/normalize"
)

// Adapter reports the configured energy consumption index for an asset.
// The index is a curated per-asset constant in [0,1]; assets missing from
// the table are a permanent miss, there is nothing to retry.
type Adapter struct {
	index map[string]float64
	now   func() time.Time
}

// NewAdapter creates an energy adapter from a consumption index table
func NewAdapter(index map[string]float64) *Adapter {
	return &Adapter{
		index: index,
		now:   time.Now,
	}
}

func (a *Adapter) Dimension() contracts.Dimension {
	return contracts.DimEnergy
}

// Fetch looks up the asset's consumption index
func (a *Adapter) Fetch(ctx context.Context, asset contracts.Asset) (contracts.DimensionReading, error) {
	idx, ok := a.index[asset.ID]
	if !ok {
		return contracts.DimensionReading{}, contracts.NewPermanentError(contracts.DimEnergy,
			fmt.Errorf("asset %s not in energy index", asset.ID))
	}

	return contracts.DimensionReading{
		Dimension: contracts.DimEnergy,
		Status:    contracts.ReadingOK,
		Metrics: map[string]float64{
			normalize.MetricEnergyIndex: idx,
		},
		Source:      "energy-index",
		CollectedAt: a.now(),
	}, nil
}
