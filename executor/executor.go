// Package executor turns decisions into remote action calls, gated behind an
// explicit confirmation flag.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/cpauliat/my-oci-scripts/telemetry"
	"github.com/cpauliat/my-oci-scripts/types"
	"github.com/cpauliat/my-oci-scripts/wal"
)

// Engine executes batches of decisions. Without confirmation it only reports
// what it would do; with confirmation it issues exactly one remote call per
// decision and tolerates per-resource failures.
type Engine struct {
	clients map[string]ActionClient // keyed by region
	wal     *wal.WAL
	logger  *telemetry.Logger
	metrics *telemetry.RunMetrics
	options Options
}

// NewEngine creates an executor engine. metrics may be nil.
func NewEngine(clients map[string]ActionClient, auditLog *wal.WAL, logger *telemetry.Logger, metrics *telemetry.RunMetrics, options Options) *Engine {
	return &Engine{
		clients: clients,
		wal:     auditLog,
		logger:  logger,
		metrics: metrics,
		options: options,
	}
}

// Execute processes a batch of decisions in order. A failure on one resource
// never aborts the rest unless ContinueOnFailure is disabled.
func (e *Engine) Execute(ctx context.Context, decisions []types.Decision) (*Result, error) {
	result := &Result{
		StartTime:      time.Now(),
		TotalDecisions: len(decisions),
		Results:        make([]DecisionResult, 0, len(decisions)),
	}

	for _, decision := range decisions {
		single := e.ExecuteSingle(ctx, decision)
		result.Results = append(result.Results, single)
		e.count(result, single)

		if single.Status == StatusFailed && !e.options.ContinueOnFailure {
			break
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.PartialFailure = result.FailedCount > 0

	return result, nil
}

// ExecuteSingle plans or executes one decision.
func (e *Engine) ExecuteSingle(ctx context.Context, decision types.Decision) DecisionResult {
	result := DecisionResult{
		Decision:  decision,
		StartTime: time.Now(),
	}

	if err := decision.Validate(); err != nil {
		return e.fail(ctx, result, fmt.Errorf("invalid decision: %w", err))
	}

	if !e.options.Confirm {
		// Plan path: report only, no side effect.
		result.Status = StatusPlanned
		result.EndTime = time.Now()
		e.logger.LogDecision(ctx, decision.Action, decision.ResourceID, decision.ResourceName, decision.Reason, false)
		if err := e.wal.Append(wal.EntryDecided, decision.ResourceID, decision); err != nil {
			e.logger.WithContext(ctx).Warn().Err(err).Msg("WAL append failed for planned decision")
		}
		return result
	}

	if err := e.wal.Append(wal.EntryExecuting, decision.ResourceID, decision); err != nil {
		return e.fail(ctx, result, fmt.Errorf("failed to log execution start: %w", err))
	}

	e.logger.LogDecision(ctx, decision.Action, decision.ResourceID, decision.ResourceName, decision.Reason, true)

	if err := e.issue(ctx, decision); err != nil {
		if walErr := e.wal.AppendError(wal.EntryFailed, decision.ResourceID, decision, err); walErr != nil {
			err = fmt.Errorf("execution: %w, wal: %w", err, walErr)
		}
		return e.fail(ctx, result, err)
	}

	result.Status = StatusSuccess
	result.EndTime = time.Now()
	if e.metrics != nil {
		e.metrics.RecordAction(ctx, decision.Action, false)
	}
	if err := e.wal.Append(wal.EntryExecuted, decision.ResourceID, result); err != nil {
		// Action already succeeded; only the audit entry is missing.
		e.logger.WithContext(ctx).Warn().Err(err).Msg("execution succeeded but WAL logging failed")
	}

	return result
}

// issue makes exactly one remote mutating call for the decision.
func (e *Engine) issue(ctx context.Context, decision types.Decision) error {
	client, err := e.clientFor(decision.Region)
	if err != nil {
		return err
	}

	switch decision.Action {
	case types.ActionStart:
		return client.StartResource(ctx, decision.ResourceKind, decision.ResourceID)
	case types.ActionStop:
		return client.StopResource(ctx, decision.ResourceKind, decision.ResourceID)
	case types.ActionScale:
		return client.ScaleVMCluster(ctx, decision.ResourceID, decision.TargetOCPUs)
	case types.ActionTerminate:
		return client.TerminateResource(ctx, decision.ResourceKind, decision.ResourceID)
	case types.ActionNoop:
		return nil
	default:
		return fmt.Errorf("unknown action: %s", decision.Action)
	}
}

func (e *Engine) clientFor(region string) (ActionClient, error) {
	if client, ok := e.clients[region]; ok {
		return client, nil
	}
	// A single-region engine serves any decision.
	if len(e.clients) == 1 {
		for _, client := range e.clients {
			return client, nil
		}
	}
	return nil, fmt.Errorf("no client for region %q", region)
}

func (e *Engine) fail(ctx context.Context, result DecisionResult, err error) DecisionResult {
	result.Status = StatusFailed
	result.Error = err.Error()
	result.EndTime = time.Now()
	e.logger.LogActionError(ctx, result.Decision.Action, result.Decision.ResourceID, err)
	if e.metrics != nil {
		e.metrics.RecordAction(ctx, result.Decision.Action, true)
	}
	return result
}

func (e *Engine) count(result *Result, single DecisionResult) {
	switch single.Status {
	case StatusPlanned:
		result.PlannedCount++
	case StatusSuccess:
		result.SuccessCount++
	case StatusFailed:
		result.FailedCount++
	case StatusSkipped:
		result.SkippedCount++
	}
}
