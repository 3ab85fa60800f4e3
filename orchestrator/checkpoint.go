package orchestrator

import "time"

// State is the workflow's coarse position. Sub-step progress lives in the
// Networks/Clusters slices of the checkpoint.
type State string

const (
	StateNotStarted           State = "not_started"
	StateDeleting             State = "deleting"
	StateNetworksProvisioning State = "networks_provisioning"
	StateNetworksValidating   State = "networks_validating"
	StateClustersCreating     State = "clusters_creating"
	StateComplete             State = "complete"
	StateFailed               State = "failed"
)

// NetworkProgress records one network's sub-steps. The id is persisted as soon
// as the create call returns, so a crash between create and validate never
// leads to a duplicate network.
type NetworkProgress struct {
	DisplayName string `json:"display_name"`
	ID          string `json:"id,omitempty"`
	Validated   bool   `json:"validated"`
}

// ClusterProgress records one cluster's sub-steps.
type ClusterProgress struct {
	DisplayName string `json:"display_name"`
	ID          string `json:"id,omitempty"`
	Available   bool   `json:"available"`
}

// Checkpoint is the persisted progress of one rebuild plan. Re-invocations
// load it and skip everything already done.
type Checkpoint struct {
	Plan              string            `json:"plan"`
	State             State             `json:"state"`
	ClusterDeleted    bool              `json:"cluster_deleted"`
	OldNetworkDeleted bool              `json:"old_network_deleted"`
	Networks          []NetworkProgress `json:"networks"`
	Clusters          []ClusterProgress `json:"clusters"`
	LastError         string            `json:"last_error,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// newCheckpoint initializes progress slots for every network and cluster of
// the plan.
func newCheckpoint(plan *Plan) *Checkpoint {
	cp := &Checkpoint{
		Plan:     plan.Name,
		State:    StateNotStarted,
		Networks: make([]NetworkProgress, len(plan.Networks)),
		Clusters: make([]ClusterProgress, len(plan.Clusters)),
	}
	for i, n := range plan.Networks {
		cp.Networks[i].DisplayName = n.DisplayName
	}
	for i, c := range plan.Clusters {
		cp.Clusters[i].DisplayName = c.DisplayName
	}
	return cp
}

// matches verifies a loaded checkpoint belongs to this plan shape; a plan
// edited mid-rebuild is rejected rather than guessed at.
func (cp *Checkpoint) matches(plan *Plan) bool {
	if cp.Plan != plan.Name {
		return false
	}
	if len(cp.Networks) != len(plan.Networks) || len(cp.Clusters) != len(plan.Clusters) {
		return false
	}
	for i, n := range plan.Networks {
		if cp.Networks[i].DisplayName != n.DisplayName {
			return false
		}
	}
	for i, c := range plan.Clusters {
		if cp.Clusters[i].DisplayName != c.DisplayName {
			return false
		}
	}
	return true
}
