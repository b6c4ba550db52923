package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/cryptoscore/internal/contracts"
)

// uniqueViolation is the Postgres error code for duplicate keys
const uniqueViolation = "23505"

// Postgres persists composite scores in PostgreSQL
// ⭐ SSOT: 점수 저장/조회는 여기서만
// Writes are append-only inserts keyed by (asset_id, scored_at); a
// duplicate key is rejected with contracts.ErrDuplicateRun.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new Postgres score store
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Put inserts a composite score and its dimension scores atomically.
// The write either fully commits or the score is not considered persisted.
func (s *Postgres) Put(ctx context.Context, score *contracts.CompositeScore) error {
	weightsJSON, err := json.Marshal(score.EffectiveWeights)
	if err != nil {
		return fmt.Errorf("marshal effective weights: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO scores.composite_scores (
			asset_id, scored_at, value, complete, effective_weights
		) VALUES ($1, $2, $3, $4, $5)
	`, score.AssetID, score.ScoredAt, score.Value, score.Complete, weightsJSON)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return contracts.ErrDuplicateRun
		}
		return fmt.Errorf("insert composite score: %w", err)
	}

	query := `
		INSERT INTO scores.dimension_scores (
			asset_id, scored_at, dimension, value, missing, reason, source, read_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for dim, ds := range score.Dimensions {
		var readAt *time.Time
		if !ds.ReadAt.IsZero() {
			readAt = &ds.ReadAt
		}
		_, err := tx.Exec(ctx, query,
			score.AssetID, score.ScoredAt, string(dim),
			ds.Value, ds.Missing, ds.Reason, ds.Source, readAt,
		)
		if err != nil {
			return fmt.Errorf("insert dimension score %s: %w", dim, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetLatest returns the most recent composite score for an asset
func (s *Postgres) GetLatest(ctx context.Context, assetID string) (*contracts.CompositeScore, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT asset_id, scored_at, value, complete, effective_weights
		FROM scores.composite_scores
		WHERE asset_id = $1
		ORDER BY scored_at DESC
		LIMIT 1
	`, assetID)

	score, err := scanComposite(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contracts.ErrNotFound
		}
		return nil, fmt.Errorf("get latest score: %w", err)
	}

	if err := s.loadDimensions(ctx, score); err != nil {
		return nil, err
	}

	return score, nil
}

// GetHistory returns scores for an asset in [from, to], ascending
func (s *Postgres) GetHistory(ctx context.Context, assetID string, from, to time.Time) ([]*contracts.CompositeScore, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT asset_id, scored_at, value, complete, effective_weights
		FROM scores.composite_scores
		WHERE asset_id = $1 AND scored_at >= $2 AND scored_at <= $3
		ORDER BY scored_at ASC
	`, assetID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query score history: %w", err)
	}
	defer rows.Close()

	scores := make([]*contracts.CompositeScore, 0)
	for rows.Next() {
		score, err := scanComposite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		scores = append(scores, score)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score rows: %w", err)
	}

	for _, score := range scores {
		if err := s.loadDimensions(ctx, score); err != nil {
			return nil, err
		}
	}

	return scores, nil
}

// loadDimensions attaches the per-dimension scores for audit
func (s *Postgres) loadDimensions(ctx context.Context, score *contracts.CompositeScore) error {
	rows, err := s.pool.Query(ctx, `
		SELECT dimension, value, missing, reason, source, read_at
		FROM scores.dimension_scores
		WHERE asset_id = $1 AND scored_at = $2
	`, score.AssetID, score.ScoredAt)
	if err != nil {
		return fmt.Errorf("query dimension scores: %w", err)
	}
	defer rows.Close()

	score.Dimensions = make(map[contracts.Dimension]contracts.NormalizedScore)
	for rows.Next() {
		var (
			dim    string
			ds     contracts.NormalizedScore
			readAt *time.Time
		)
		if err := rows.Scan(&dim, &ds.Value, &ds.Missing, &ds.Reason, &ds.Source, &readAt); err != nil {
			return fmt.Errorf("scan dimension score: %w", err)
		}
		ds.Dimension = contracts.Dimension(dim)
		if readAt != nil {
			ds.ReadAt = *readAt
		}
		score.Dimensions[ds.Dimension] = ds
	}

	return rows.Err()
}

// scanComposite scans one composite score row
func scanComposite(row pgx.Row) (*contracts.CompositeScore, error) {
	var (
		score       contracts.CompositeScore
		weightsJSON []byte
	)
	if err := row.Scan(&score.AssetID, &score.ScoredAt, &score.Value, &score.Complete, &weightsJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(weightsJSON, &score.EffectiveWeights); err != nil {
		return nil, fmt.Errorf("unmarshal effective weights: %w", err)
	}
	return &score, nil
}
