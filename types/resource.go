package types

import "time"

// ResourceKind identifies the kind of OCI resource the core operates on.
type ResourceKind string

const (
	KindComputeInstance    ResourceKind = "instance"
	KindAutonomousDatabase ResourceKind = "autonomous-database"
	KindVMCluster          ResourceKind = "vm-cluster"
	KindVMClusterNetwork   ResourceKind = "vm-cluster-network"
)

// LifecycleState is the resource status reported by the control plane.
// Transitions are owned entirely by OCI; we only observe them.
type LifecycleState string

const (
	StateProvisioning LifecycleState = "PROVISIONING"
	StateRunning     LifecycleState = "RUNNING"
	StateAvailable   LifecycleState = "AVAILABLE"
	StateStarting    LifecycleState = "STARTING"
	StateStopping    LifecycleState = "STOPPING"
	StateStopped     LifecycleState = "STOPPED"
	StateUpdating    LifecycleState = "UPDATING"
	StateTerminating LifecycleState = "TERMINATING"
	StateTerminated  LifecycleState = "TERMINATED"
	StateDeleted     LifecycleState = "DELETED"
	StateFailed      LifecycleState = "FAILED"

	// VM cluster network validation states
	StateRequiresValidation LifecycleState = "REQUIRES_VALIDATION"
	StateValidating         LifecycleState = "VALIDATING"
	StateValidated          LifecycleState = "VALIDATED"
	StateValidationFailed   LifecycleState = "VALIDATION_FAILED"
)

// IsTerminal reports whether the state can never transition again on its own.
func (s LifecycleState) IsTerminal() bool {
	switch s {
	case StateTerminated, StateDeleted, StateFailed, StateValidationFailed:
		return true
	}
	return false
}

// IsGone reports whether the resource no longer exists for scheduling purposes.
func (s LifecycleState) IsGone() bool {
	return s == StateTerminated || s == StateDeleted
}

// Resource represents an OCI resource (compute instance, autonomous DB, VM cluster).
type Resource struct {
	ID            string                       `json:"id"`
	Kind          ResourceKind                 `json:"kind"`
	Name          string                       `json:"name"`
	Region        string                       `json:"region"`
	CompartmentID string                       `json:"compartment_id"`
	State         LifecycleState               `json:"state"`
	DefinedTags   map[string]map[string]string `json:"defined_tags,omitempty"`
	Shape         string                       `json:"shape,omitempty"`
	CPUsEnabled   int                          `json:"cpus_enabled,omitempty"`
	TimeCreated   time.Time                    `json:"time_created,omitempty"`
}

// Tag returns the defined-tag value for namespace/key, empty string when absent.
func (r *Resource) Tag(namespace, key string) string {
	if r.DefinedTags == nil {
		return ""
	}
	ns, ok := r.DefinedTags[namespace]
	if !ok {
		return ""
	}
	return ns[key]
}

// Compartment is one node of the tenancy's compartment tree.
type Compartment struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	State LifecycleState `json:"state"`
}

// Scope is the enumeration target of one run: the tenancy root, its active
// compartment subtree and the regions to visit. Fetched once per run, read-only.
type Scope struct {
	TenancyID    string        `json:"tenancy_id"`
	Compartments []Compartment `json:"compartments"`
	Regions      []string      `json:"regions"`
}
