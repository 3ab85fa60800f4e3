// Package poller waits for asynchronous lifecycle transitions to settle. The
// source scripts slept 60s in an unbounded loop; this poller is bounded by a
// max wait and fails fast on terminal-but-unexpected states.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cpauliat/my-oci-scripts/types"
)

// ErrTimeout reports that the max wait elapsed before the target state.
var ErrTimeout = errors.New("timed out waiting for state")

// UnexpectedStateError reports that the resource settled in a terminal state
// other than the expected one (e.g. FAILED while expecting AVAILABLE).
type UnexpectedStateError struct {
	ResourceID string
	Expected   types.LifecycleState
	Actual     types.LifecycleState
}

func (e *UnexpectedStateError) Error() string {
	return fmt.Sprintf("resource %s reached terminal state %s while expecting %s",
		e.ResourceID, e.Actual, e.Expected)
}

// StateFunc returns the current lifecycle state of one resource.
type StateFunc func(ctx context.Context) (types.LifecycleState, error)

// Poller polls resource states at a fixed interval.
type Poller struct {
	Interval time.Duration
	MaxWait  time.Duration
}

// New creates a poller. Non-positive values fall back to the source scripts'
// 60s interval and a one hour bound.
func New(interval, maxWait time.Duration) *Poller {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if maxWait <= 0 {
		maxWait = time.Hour
	}
	return &Poller{Interval: interval, MaxWait: maxWait}
}

// WaitFor polls until the state equals expected. It returns ErrTimeout after
// MaxWait, an *UnexpectedStateError when a different terminal state is
// reached, and the context error on cancellation. The first check happens
// immediately, so an already-settled resource never sleeps.
func (p *Poller) WaitFor(ctx context.Context, resourceID string, describe StateFunc, expected types.LifecycleState) error {
	deadline := time.NewTimer(p.MaxWait)
	defer deadline.Stop()

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		state, err := describe(ctx)
		if err != nil {
			return fmt.Errorf("failed to poll state of %s: %w", resourceID, err)
		}
		if state == expected {
			return nil
		}
		if state.IsTerminal() {
			return &UnexpectedStateError{ResourceID: resourceID, Expected: expected, Actual: state}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: %s did not reach %s within %s", ErrTimeout, resourceID, expected, p.MaxWait)
		case <-ticker.C:
		}
	}
}

// Target pairs a resource with its state source for WaitForAll.
type Target struct {
	ResourceID string
	Describe   StateFunc
}

// WaitForAll polls a set of resources round-robin until every one reaches the
// expected state. Submission already happened back-to-back; this is
// cooperative polling, not parallel execution. Per-resource failures are
// collected so one bad cluster does not hide the rest.
func (p *Poller) WaitForAll(ctx context.Context, targets []Target, expected types.LifecycleState) error {
	deadline := time.NewTimer(p.MaxWait)
	defer deadline.Stop()

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	pending := make(map[string]StateFunc, len(targets))
	for _, t := range targets {
		pending[t.ResourceID] = t.Describe
	}

	var failures []error
	for len(pending) > 0 {
		for _, t := range targets {
			describe, ok := pending[t.ResourceID]
			if !ok {
				continue
			}

			state, err := describe(ctx)
			if err != nil {
				return fmt.Errorf("failed to poll state of %s: %w", t.ResourceID, err)
			}
			if state == expected {
				delete(pending, t.ResourceID)
				continue
			}
			if state.IsTerminal() {
				failures = append(failures, &UnexpectedStateError{
					ResourceID: t.ResourceID, Expected: expected, Actual: state,
				})
				delete(pending, t.ResourceID)
			}
		}
		if len(pending) == 0 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: %d resources did not reach %s within %s",
				ErrTimeout, len(pending), expected, p.MaxWait)
		case <-ticker.C:
		}
	}

	return errors.Join(failures...)
}
