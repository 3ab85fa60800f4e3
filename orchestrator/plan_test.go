package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Plan)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(p *Plan) {},
		},
		{
			name:    "missing name",
			mutate:  func(p *Plan) { p.Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "missing compartment",
			mutate:  func(p *Plan) { p.CompartmentID = "" },
			wantErr: "compartment_id is required",
		},
		{
			name:    "missing delete target",
			mutate:  func(p *Plan) { p.Delete.VMClusterID = "" },
			wantErr: "vm_cluster_id is required",
		},
		{
			name:    "no networks",
			mutate:  func(p *Plan) { p.Networks = nil; p.Clusters = nil },
			wantErr: "at least one network",
		},
		{
			name:    "cluster and network counts differ",
			mutate:  func(p *Plan) { p.Clusters = p.Clusters[:1] },
			wantErr: "each cluster needs its own network",
		},
		{
			name: "duplicate network names",
			mutate: func(p *Plan) {
				p.Networks[1].DisplayName = p.Networks[0].DisplayName
			},
			wantErr: "duplicate network display_name",
		},
		{
			name: "zero cpu count",
			mutate: func(p *Plan) {
				p.Clusters[0].CPUCoreCount = 0
			},
			wantErr: "cpu_core_count must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := testPlan()
			tt.mutate(plan)

			err := plan.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPlanFillPropagatesIDs(t *testing.T) {
	plan := testPlan()
	plan.Networks[1].CompartmentID = "ocid1.compartment.oc1..override"

	plan.fill()

	assert.Equal(t, plan.CompartmentID, plan.Networks[0].CompartmentID)
	assert.Equal(t, "ocid1.compartment.oc1..override", plan.Networks[1].CompartmentID)
	for _, n := range plan.Networks {
		assert.Equal(t, plan.ExadataInfrastructureID, n.ExadataInfrastructureID)
	}
	for _, c := range plan.Clusters {
		assert.Equal(t, plan.CompartmentID, c.CompartmentID)
		assert.Equal(t, plan.ExadataInfrastructureID, c.ExadataInfrastructureID)
	}
}

func TestLoadPlan(t *testing.T) {
	const planYAML = `
name: exacc-rebuild
compartment_id: ocid1.compartment.oc1..comp1
exadata_infrastructure_id: ocid1.exadatainfrastructure.oc1..infra1
delete:
  vm_cluster_id: ocid1.vmcluster.oc1..old
  network_id: ocid1.vmclusternetwork.oc1..old
networks:
  - display_name: netA
    scan_name: scan-a
    scan_port: 1521
clusters:
  - display_name: clusterA
    gi_version: 19.0.0.0
    cpu_core_count: 4
`
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(planYAML), 0o644))

	plan, err := LoadPlan(path)
	require.NoError(t, err)

	assert.Equal(t, "exacc-rebuild", plan.Name)
	assert.Equal(t, "ocid1.vmcluster.oc1..old", plan.Delete.VMClusterID)
	require.Len(t, plan.Networks, 1)
	assert.Equal(t, 1521, plan.Networks[0].ScanPort)
	require.Len(t, plan.Clusters, 1)
	assert.Equal(t, 4, plan.Clusters[0].CPUCoreCount)
}

func TestLoadPlanRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: incomplete\n"), 0o644))

	_, err := LoadPlan(path)
	require.Error(t, err)
}

func TestLoadPlanMissingFile(t *testing.T) {
	_, err := LoadPlan(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestCheckpointMatches(t *testing.T) {
	plan := testPlan()
	cp := newCheckpoint(plan)

	assert.True(t, cp.matches(plan))

	renamed := testPlan()
	renamed.Networks[0].DisplayName = "other"
	assert.False(t, cp.matches(renamed))
}
