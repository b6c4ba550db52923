package contracts

import (
	"fmt"
	"time"
)

// RunState is the pipeline run state machine state
type RunState string

const (
	RunPending     RunState = "PENDING"
	RunCollecting  RunState = "COLLECTING"
	RunAggregating RunState = "AGGREGATING"
	RunScoring     RunState = "SCORING"
	RunPersisting  RunState = "PERSISTING"
	RunComplete    RunState = "COMPLETE"
	RunFailed      RunState = "FAILED"
)

// Terminal reports whether the state is terminal
func (s RunState) Terminal() bool {
	return s == RunComplete || s == RunFailed
}

// RunFailure describes why a run reached FAILED
type RunFailure struct {
	Stage      RunState    `json:"stage"`
	Dimensions []Dimension `json:"dimensions,omitempty"`
	Err        error       `json:"-"`
	Cause      string      `json:"cause"`
}

func (f *RunFailure) Error() string {
	return fmt.Sprintf("run failed at %s: %s", f.Stage, f.Cause)
}

func (f *RunFailure) Unwrap() error {
	return f.Err
}

// PipelineRun tracks one scoring run for one asset
// ⭐ SSOT: 실행 상태는 오케스트레이터만 소유/변경
type PipelineRun struct {
	RunID     string                         `json:"run_id"`
	Asset     Asset                          `json:"asset"`
	State     RunState                       `json:"state"`
	Readings  map[Dimension]DimensionReading `json:"readings"`
	StartedAt time.Time                      `json:"started_at"`
	EndedAt   time.Time                      `json:"ended_at,omitempty"`
	Score     *CompositeScore                `json:"score,omitempty"`
	Failure   *RunFailure                    `json:"failure,omitempty"`
}

// GenerateRunID generates a unique run ID for an asset
func GenerateRunID(assetID string, at time.Time) string {
	return fmt.Sprintf("run_%s_%s", assetID, at.UTC().Format("20060102_150405"))
}
