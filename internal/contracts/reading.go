package contracts

import "time"

// Dimension identifies one scoring dimension
type Dimension string

const (
	DimMarket    Dimension = "market"
	DimSentiment Dimension = "sentiment"
	DimCommunity Dimension = "community"
	DimDeveloper Dimension = "developer"
	DimEnergy    Dimension = "energy"
)

// AllDimensions lists every dimension in scoring order
func AllDimensions() []Dimension {
	return []Dimension{DimMarket, DimSentiment, DimCommunity, DimDeveloper, DimEnergy}
}

// ReadingStatus is the terminal per-dimension collection status
type ReadingStatus string

const (
	ReadingOK          ReadingStatus = "ok"
	ReadingUnavailable ReadingStatus = "unavailable"
	ReadingError       ReadingStatus = "error"
)

// DimensionReading is the raw output of one source adapter for one dimension
// ⭐ SSOT: 수집 결과는 이 타입으로만 전달 (created once, never mutated)
type DimensionReading struct {
	Dimension   Dimension          `json:"dimension"`
	Status      ReadingStatus      `json:"status"`
	Metrics     map[string]float64 `json:"metrics,omitempty"` // raw metric name -> value
	Source      string             `json:"source"`            // adapter name, for provenance
	Reason      string             `json:"reason,omitempty"`  // why not ok
	Attempts    int                `json:"attempts"`
	CollectedAt time.Time          `json:"collected_at"`
}

// Metric returns a named raw metric and whether it was reported
func (r DimensionReading) Metric(name string) (float64, bool) {
	v, ok := r.Metrics[name]
	return v, ok
}

// Usable reports whether the reading can feed normalization
func (r DimensionReading) Usable() bool {
	return r.Status == ReadingOK && len(r.Metrics) > 0
}
