package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RunMetrics holds the metrics of one scheduling/orchestration run.
type RunMetrics struct {
	ResourcesScanned metric.Int64Counter
	DecisionsMade    metric.Int64Counter
	ActionsExecuted  metric.Int64Counter
	ActionsFailed    metric.Int64Counter
	PollTimeouts     metric.Int64Counter

	RunDuration  metric.Float64Histogram
	PollDuration metric.Float64Histogram
}

// InitRunMetrics initializes all run metrics on the given meter.
func InitRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	m := &RunMetrics{}

	var err error

	m.ResourcesScanned, err = meter.Int64Counter(
		"ocisched.resources.scanned.total",
		metric.WithDescription("Total number of resources enumerated"),
		metric.WithUnit("resources"),
	)
	if err != nil {
		return nil, err
	}

	m.DecisionsMade, err = meter.Int64Counter(
		"ocisched.decisions.made.total",
		metric.WithDescription("Total number of tag-driven decisions made"),
		metric.WithUnit("decisions"),
	)
	if err != nil {
		return nil, err
	}

	m.ActionsExecuted, err = meter.Int64Counter(
		"ocisched.actions.executed.total",
		metric.WithDescription("Total number of remote actions issued"),
		metric.WithUnit("actions"),
	)
	if err != nil {
		return nil, err
	}

	m.ActionsFailed, err = meter.Int64Counter(
		"ocisched.actions.failed.total",
		metric.WithDescription("Total number of remote actions that failed"),
		metric.WithUnit("actions"),
	)
	if err != nil {
		return nil, err
	}

	m.PollTimeouts, err = meter.Int64Counter(
		"ocisched.poll.timeouts.total",
		metric.WithDescription("Total number of state polls that hit the max wait"),
		metric.WithUnit("timeouts"),
	)
	if err != nil {
		return nil, err
	}

	m.RunDuration, err = meter.Float64Histogram(
		"ocisched.run.duration",
		metric.WithDescription("Duration of complete runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.PollDuration, err = meter.Float64Histogram(
		"ocisched.poll.duration",
		metric.WithDescription("Duration of state polls until a terminal answer"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordAction records one executed or failed action with its kind.
func (m *RunMetrics) RecordAction(ctx context.Context, action string, failed bool) {
	attrs := metric.WithAttributes(attribute.String("action", action))
	if failed {
		m.ActionsFailed.Add(ctx, 1, attrs)
		return
	}
	m.ActionsExecuted.Add(ctx, 1, attrs)
}
