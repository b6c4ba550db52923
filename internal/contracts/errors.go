package contracts

import (
	"errors"
	"fmt"
)

// Run-fatal conditions. Per-dimension failures never escalate past the
// dimension; only these two end a run in FAILED.
var (
	// ErrInsufficientData is returned by the scorer when every dimension is missing
	ErrInsufficientData = errors.New("scoring: no usable data")

	// ErrDuplicateRun is returned by the store for an existing (asset, timestamp) key
	ErrDuplicateRun = errors.New("store: duplicate score for asset and timestamp")

	// ErrNotFound is returned by the store when no score exists for an asset
	ErrNotFound = errors.New("store: score not found")
)

// Reason codes attached to unavailable/missing dimensions
const (
	ReasonTimeout      = "timeout"
	ReasonExhausted    = "retry attempts exhausted"
	ReasonPermanent    = "permanent adapter error"
	ReasonNoData       = "no data"
	ReasonBadValue     = "malformed raw value"
	ReasonCancelled    = "run cancelled"
)

// AdapterError classifies a source adapter failure
// ⭐ SSOT: 어댑터 오류 분류는 이 타입으로만
type AdapterError struct {
	Dimension Dimension
	Transient bool // retried with backoff when true
	Err       error
}

func (e *AdapterError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s adapter: %s error: %v", e.Dimension, kind, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps a retryable adapter failure (network, timeout, 429)
func NewTransientError(dim Dimension, err error) *AdapterError {
	return &AdapterError{Dimension: dim, Transient: true, Err: err}
}

// NewPermanentError wraps a non-retryable adapter failure (bad request, no data)
func NewPermanentError(dim Dimension, err error) *AdapterError {
	return &AdapterError{Dimension: dim, Transient: false, Err: err}
}

// IsTransient reports whether err should be retried
func IsTransient(err error) bool {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Transient
	}
	return false
}
