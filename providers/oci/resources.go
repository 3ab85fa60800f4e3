package oci

import (
	"context"
	"fmt"

	"github.com/oracle/oci-go-sdk/v65/core"

	"github.com/cpauliat/my-oci-scripts/types"
)

// ListResources enumerates resources of one kind in one compartment. A
// genuinely empty compartment yields an empty slice and no error.
func (p *Provider) ListResources(ctx context.Context, kind types.ResourceKind, compartmentID string) ([]types.Resource, error) {
	switch kind {
	case types.KindComputeInstance:
		return p.listInstances(ctx, compartmentID)
	case types.KindAutonomousDatabase:
		return p.listAutonomousDatabases(ctx, compartmentID)
	case types.KindVMCluster:
		return p.listVMClusters(ctx, compartmentID)
	default:
		return nil, fmt.Errorf("unsupported resource kind %q", kind)
	}
}

// GetResource fetches the current state and tags of a single resource.
func (p *Provider) GetResource(ctx context.Context, kind types.ResourceKind, id string) (*types.Resource, error) {
	switch kind {
	case types.KindComputeInstance:
		return p.getInstance(ctx, id)
	case types.KindAutonomousDatabase:
		return p.getAutonomousDatabase(ctx, id)
	case types.KindVMCluster:
		return p.getVMCluster(ctx, id)
	default:
		return nil, fmt.Errorf("unsupported resource kind %q", kind)
	}
}

// GetVMClusterNetwork fetches a VM cluster network; networks are addressed by
// infrastructure + network id, unlike the other kinds.
func (p *Provider) GetVMClusterNetwork(ctx context.Context, exaInfraID, networkID string) (*types.Resource, error) {
	return p.getVMClusterNetwork(ctx, exaInfraID, networkID)
}

// StartResource powers on a stopped resource.
func (p *Provider) StartResource(ctx context.Context, kind types.ResourceKind, id string) error {
	switch kind {
	case types.KindComputeInstance:
		return p.instanceAction(ctx, id, core.InstanceActionActionStart)
	case types.KindAutonomousDatabase:
		return p.startAutonomousDatabase(ctx, id)
	default:
		return fmt.Errorf("start is not supported for kind %q", kind)
	}
}

// StopResource powers off a running resource. Instances get SOFTSTOP so the
// guest OS shuts down cleanly.
func (p *Provider) StopResource(ctx context.Context, kind types.ResourceKind, id string) error {
	switch kind {
	case types.KindComputeInstance:
		return p.instanceAction(ctx, id, core.InstanceActionActionSoftstop)
	case types.KindAutonomousDatabase:
		return p.stopAutonomousDatabase(ctx, id)
	default:
		return fmt.Errorf("stop is not supported for kind %q", kind)
	}
}

// TerminateResource permanently deletes a resource. Only compute instances are
// terminable through the cleanup path.
func (p *Provider) TerminateResource(ctx context.Context, kind types.ResourceKind, id string) error {
	switch kind {
	case types.KindComputeInstance:
		return p.terminateInstance(ctx, id)
	default:
		return fmt.Errorf("terminate is not supported for kind %q", kind)
	}
}
