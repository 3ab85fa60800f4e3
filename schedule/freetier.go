package schedule

import (
	"fmt"
	"time"

	"github.com/cpauliat/my-oci-scripts/types"
)

// FreeTierPlanner selects compute instances of the free-tier shape for
// termination. The shape is configurable; the well-known default is
// VM.Standard.E2.1.Micro.
type FreeTierPlanner struct {
	shape string
	now   time.Time
}

// NewFreeTierPlanner builds a cleanup planner for one run.
func NewFreeTierPlanner(shape string, now time.Time) *FreeTierPlanner {
	return &FreeTierPlanner{shape: shape, now: now}
}

// Plan produces a terminate decision for every free-tier instance. Matching is
// by exact shape string; anything else, including instances already on their
// way out, is left alone.
func (p *FreeTierPlanner) Plan(resources []types.Resource) []types.Decision {
	var decisions []types.Decision
	for i := range resources {
		r := &resources[i]
		if r.Kind != types.KindComputeInstance || r.Shape != p.shape {
			continue
		}
		if r.State.IsGone() || r.State == types.StateTerminating {
			continue
		}

		decisions = append(decisions, types.Decision{
			Action:        types.ActionTerminate,
			ResourceID:    r.ID,
			ResourceKind:  r.Kind,
			ResourceName:  r.Name,
			Region:        r.Region,
			Compartment:   r.CompartmentID,
			Reason:        fmt.Sprintf("free-tier shape %s", p.shape),
			ExpectedState: types.StateTerminated,
			CreatedAt:     p.now,
		})
	}
	return decisions
}
