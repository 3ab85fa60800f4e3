// Package schedule turns scanned resources into start/stop/scale decisions
// based on their defined tags and the current UTC hour.
package schedule

import (
	"fmt"
	"time"

	"github.com/cpauliat/my-oci-scripts/config"
	"github.com/cpauliat/my-oci-scripts/types"
)

// Planner decides which resources to start or stop this run. Both predicates
// carry the hour value computed once at construction, so every resource of a
// run is compared against the same string even when the wall clock crosses an
// hour boundary mid-run.
type Planner struct {
	startPred types.TagPredicate
	stopPred  types.TagPredicate
	now       time.Time
}

// NewPlanner builds a planner for one run.
func NewPlanner(tags config.ScheduleTags, now time.Time) *Planner {
	return &Planner{
		startPred: types.HourPredicate(tags.Namespace, tags.StartKey, now),
		stopPred:  types.HourPredicate(tags.Namespace, tags.StopKey, now),
		now:       now,
	}
}

// HourValue returns the schedule value all resources are compared against.
func (p *Planner) HourValue() string {
	return p.startPred.Value
}

// Plan produces at most one decision per resource. A stopped resource whose
// start tag matches the current hour gets a start decision; a running one
// whose stop tag matches gets a stop decision. Everything else is left alone.
func (p *Planner) Plan(resources []types.Resource) []types.Decision {
	var decisions []types.Decision
	for i := range resources {
		if d := p.planOne(&resources[i]); d != nil {
			decisions = append(decisions, *d)
		}
	}
	return decisions
}

func (p *Planner) planOne(r *types.Resource) *types.Decision {
	if r.State.IsGone() {
		return nil
	}

	switch {
	case r.State == types.StateStopped && p.startPred.Matches(r):
		return p.decision(r, types.ActionStart, p.startPred, runningState(r.Kind))
	case isRunning(r) && p.stopPred.Matches(r):
		return p.decision(r, types.ActionStop, p.stopPred, types.StateStopped)
	}
	return nil
}

func (p *Planner) decision(r *types.Resource, action string, pred types.TagPredicate, expected types.LifecycleState) *types.Decision {
	return &types.Decision{
		Action:        action,
		ResourceID:    r.ID,
		ResourceKind:  r.Kind,
		ResourceName:  r.Name,
		Region:        r.Region,
		Compartment:   r.CompartmentID,
		Reason:        fmt.Sprintf("tag %s matches current hour", pred),
		ExpectedState: expected,
		CreatedAt:     p.now,
	}
}

func isRunning(r *types.Resource) bool {
	switch r.Kind {
	case types.KindAutonomousDatabase:
		return r.State == types.StateAvailable
	default:
		return r.State == types.StateRunning
	}
}

func runningState(kind types.ResourceKind) types.LifecycleState {
	if kind == types.KindAutonomousDatabase {
		return types.StateAvailable
	}
	return types.StateRunning
}
