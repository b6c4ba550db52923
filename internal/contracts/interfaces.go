package contracts

import (
	"context"
	"time"
)

// SourceAdapter fetches raw metrics for one dimension
// ⭐ SSOT: 외부 데이터 수집 인터페이스
// Fetch must honor ctx cancellation and never block indefinitely. Ordinary
// "no data" conditions come back as a status-tagged reading, not an error;
// an error return is classified by the retry policy via AdapterError.
type SourceAdapter interface {
	Dimension() Dimension
	Fetch(ctx context.Context, asset Asset) (DimensionReading, error)
}

// ScoreStore persists composite scores keyed by (asset id, timestamp)
// ⭐ SSOT: 점수 저장/조회 인터페이스
// Put is append-only: a duplicate (asset, timestamp) key is rejected with
// ErrDuplicateRun, never silently overwritten.
type ScoreStore interface {
	Put(ctx context.Context, score *CompositeScore) error
	GetLatest(ctx context.Context, assetID string) (*CompositeScore, error)
	GetHistory(ctx context.Context, assetID string, from, to time.Time) ([]*CompositeScore, error)
}
