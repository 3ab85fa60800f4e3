// Package orchestrator runs the multi-step VM cluster rebuild workflow:
// delete the old cluster, provision and validate the replacement networks one
// by one, then create the new clusters in parallel and wait for all of them.
package orchestrator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cpauliat/my-oci-scripts/providers"
)

// DeleteTarget names the cluster (and optionally its network) to tear down.
type DeleteTarget struct {
	VMClusterID string `yaml:"vm_cluster_id"`
	NetworkID   string `yaml:"network_id,omitempty"`
}

// Plan describes one rebuild: which cluster to delete and which networks and
// clusters to create in its place. Clusters[i] is created on Networks[i].
type Plan struct {
	Name                    string                           `yaml:"name"`
	Region                  string                           `yaml:"region,omitempty"`
	CompartmentID           string                           `yaml:"compartment_id"`
	ExadataInfrastructureID string                           `yaml:"exadata_infrastructure_id"`
	Delete                  DeleteTarget                     `yaml:"delete"`
	Networks                []providers.VMClusterNetworkSpec `yaml:"networks"`
	Clusters                []providers.VMClusterSpec        `yaml:"clusters"`
}

// LoadPlan reads and validates a rebuild plan from a YAML file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	return &plan, nil
}

// Validate ensures the plan is internally consistent before anything is torn
// down.
func (p *Plan) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("plan name is required")
	}
	if p.CompartmentID == "" {
		return fmt.Errorf("compartment_id is required")
	}
	if p.ExadataInfrastructureID == "" {
		return fmt.Errorf("exadata_infrastructure_id is required")
	}
	if p.Delete.VMClusterID == "" {
		return fmt.Errorf("delete.vm_cluster_id is required")
	}
	if len(p.Networks) == 0 {
		return fmt.Errorf("at least one network is required")
	}
	if len(p.Clusters) != len(p.Networks) {
		return fmt.Errorf("plan has %d clusters but %d networks; each cluster needs its own network",
			len(p.Clusters), len(p.Networks))
	}

	seen := make(map[string]bool, len(p.Networks))
	for i, n := range p.Networks {
		if n.DisplayName == "" {
			return fmt.Errorf("networks[%d]: display_name is required", i)
		}
		if seen[n.DisplayName] {
			return fmt.Errorf("duplicate network display_name %q", n.DisplayName)
		}
		seen[n.DisplayName] = true
	}
	for i, c := range p.Clusters {
		if c.DisplayName == "" {
			return fmt.Errorf("clusters[%d]: display_name is required", i)
		}
		if c.CPUCoreCount <= 0 {
			return fmt.Errorf("clusters[%d]: cpu_core_count must be positive", i)
		}
	}

	return nil
}

// fill propagates plan-level ids into specs that leave them empty, so the plan
// file does not repeat the same OCIDs per entry.
func (p *Plan) fill() {
	for i := range p.Networks {
		if p.Networks[i].CompartmentID == "" {
			p.Networks[i].CompartmentID = p.CompartmentID
		}
		if p.Networks[i].ExadataInfrastructureID == "" {
			p.Networks[i].ExadataInfrastructureID = p.ExadataInfrastructureID
		}
	}
	for i := range p.Clusters {
		if p.Clusters[i].CompartmentID == "" {
			p.Clusters[i].CompartmentID = p.CompartmentID
		}
		if p.Clusters[i].ExadataInfrastructureID == "" {
			p.Clusters[i].ExadataInfrastructureID = p.ExadataInfrastructureID
		}
	}
}
