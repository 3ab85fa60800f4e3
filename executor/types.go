package executor

import (
	"context"
	"time"

	"github.com/cpauliat/my-oci-scripts/types"
)

// ActionClient issues state-changing calls for one region. Implemented by the
// OCI provider; mocked in tests.
type ActionClient interface {
	StartResource(ctx context.Context, kind types.ResourceKind, id string) error
	StopResource(ctx context.Context, kind types.ResourceKind, id string) error
	ScaleVMCluster(ctx context.Context, id string, ocpus int) error
	TerminateResource(ctx context.Context, kind types.ResourceKind, id string) error
}

// Options configure executor behavior.
type Options struct {
	// Confirm grants real effect. Without it every decision is only
	// reported - the plan path is the default.
	Confirm bool `json:"confirm"`

	// ContinueOnFailure keeps processing the batch after a per-resource
	// failure. On by default; a failed stop on one instance must not leave
	// the rest of the fleet running.
	ContinueOnFailure bool `json:"continue_on_failure"`
}

// Status tracks the outcome of one decision.
type Status string

const (
	StatusPlanned Status = "planned"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// DecisionResult is the outcome of executing (or planning) one decision.
type DecisionResult struct {
	Decision  types.Decision `json:"decision"`
	Status    Status         `json:"status"`
	Error     string         `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
}

// Result is the outcome of one batch.
type Result struct {
	StartTime      time.Time        `json:"start_time"`
	EndTime        time.Time        `json:"end_time"`
	Duration       time.Duration    `json:"duration"`
	TotalDecisions int              `json:"total_decisions"`
	PlannedCount   int              `json:"planned_count"`
	SuccessCount   int              `json:"success_count"`
	FailedCount    int              `json:"failed_count"`
	SkippedCount   int              `json:"skipped_count"`
	Results        []DecisionResult `json:"results"`
	PartialFailure bool             `json:"partial_failure"`
}
