package types

import (
	"fmt"
	"time"
)

// Action kinds issued against the control plane.
const (
	ActionStart     = "start"
	ActionStop      = "stop"
	ActionScale     = "scale"
	ActionCreate    = "create"
	ActionDelete    = "delete"
	ActionTerminate = "terminate"
	ActionNoop      = "noop"
)

// Decision is a one-shot action request for a single matched resource. It has
// no persisted identity; the WAL keeps the audit trail.
type Decision struct {
	Action        string         `json:"action"`
	ResourceID    string         `json:"resource_id"`
	ResourceKind  ResourceKind   `json:"resource_kind"`
	ResourceName  string         `json:"resource_name,omitempty"`
	Region        string         `json:"region,omitempty"`
	Compartment   string         `json:"compartment,omitempty"`
	Reason        string         `json:"reason"`
	TargetOCPUs   int            `json:"target_ocpus,omitempty"`
	ExpectedState LifecycleState `json:"expected_state,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Validate ensures the decision has required fields.
func (d *Decision) Validate() error {
	if d.Action == "" {
		return fmt.Errorf("decision action cannot be empty")
	}
	if d.Action != ActionCreate && d.ResourceID == "" {
		return fmt.Errorf("decision resource ID cannot be empty")
	}
	if d.Reason == "" {
		return fmt.Errorf("decision reason cannot be empty")
	}
	if d.Action == ActionScale && d.TargetOCPUs <= 0 {
		return fmt.Errorf("scale decision requires a positive OCPU target")
	}
	return nil
}

// IsDestructive checks if the action removes resources.
func (d *Decision) IsDestructive() bool {
	return d.Action == ActionDelete || d.Action == ActionTerminate
}
