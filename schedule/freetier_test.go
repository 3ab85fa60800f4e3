package schedule

import (
	"testing"
	"time"

	"github.com/cpauliat/my-oci-scripts/types"
)

const microShape = "VM.Standard.E2.1.Micro"

func shapedInstance(id string, shape string, state types.LifecycleState) types.Resource {
	return types.Resource{
		ID:            id,
		Kind:          types.KindComputeInstance,
		Name:          id,
		Region:        "eu-frankfurt-1",
		CompartmentID: "ocid1.compartment.oc1..comp1",
		State:         state,
		Shape:         shape,
	}
}

func TestFreeTierPlannerSelectsMatchingShape(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	planner := NewFreeTierPlanner(microShape, now)

	resources := []types.Resource{
		shapedInstance("inst-micro", microShape, types.StateRunning),
		shapedInstance("inst-flex", "VM.Standard.E4.Flex", types.StateRunning),
		shapedInstance("inst-micro-stopped", microShape, types.StateStopped),
	}

	decisions := planner.Plan(resources)

	if len(decisions) != 2 {
		t.Fatalf("got %d decisions, want 2", len(decisions))
	}
	for _, d := range decisions {
		if d.Action != types.ActionTerminate {
			t.Errorf("action = %s on %s, want terminate", d.Action, d.ResourceID)
		}
		if d.ExpectedState != types.StateTerminated {
			t.Errorf("expected state = %s, want TERMINATED", d.ExpectedState)
		}
	}
	if decisions[0].ResourceID != "inst-micro" || decisions[1].ResourceID != "inst-micro-stopped" {
		t.Errorf("selected %s and %s, want both micro instances", decisions[0].ResourceID, decisions[1].ResourceID)
	}
}

func TestFreeTierPlannerSkipsGoneInstances(t *testing.T) {
	planner := NewFreeTierPlanner(microShape, time.Now())

	resources := []types.Resource{
		shapedInstance("inst-terminated", microShape, types.StateTerminated),
		shapedInstance("inst-terminating", microShape, types.StateTerminating),
	}

	if decisions := planner.Plan(resources); len(decisions) != 0 {
		t.Errorf("got %d decisions for gone instances, want 0", len(decisions))
	}
}

func TestFreeTierPlannerIgnoresOtherKinds(t *testing.T) {
	planner := NewFreeTierPlanner(microShape, time.Now())

	cluster := shapedInstance("vmc-1", microShape, types.StateAvailable)
	cluster.Kind = types.KindVMCluster

	if decisions := planner.Plan([]types.Resource{cluster}); len(decisions) != 0 {
		t.Errorf("got %d decisions for a non-instance kind, want 0", len(decisions))
	}
}
