package oci

import (
	"context"
	"fmt"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/database"

	"github.com/cpauliat/my-oci-scripts/providers"
	"github.com/cpauliat/my-oci-scripts/types"
)

// listVMClusters enumerates ExaCC VM clusters in one compartment.
func (p *Provider) listVMClusters(ctx context.Context, compartmentID string) ([]types.Resource, error) {
	req := database.ListVmClustersRequest{
		CompartmentId: common.String(compartmentID),
	}

	var resources []types.Resource
	for {
		resp, err := p.databaseClient.ListVmClusters(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to list VM clusters in %s: %w", compartmentID, err)
		}

		for i := range resp.Items {
			vc := &resp.Items[i]
			resources = append(resources, types.Resource{
				ID:            deref(vc.Id),
				Kind:          types.KindVMCluster,
				Name:          deref(vc.DisplayName),
				Region:        p.region,
				CompartmentID: deref(vc.CompartmentId),
				State:         types.LifecycleState(vc.LifecycleState),
				DefinedTags:   convertDefinedTags(vc.DefinedTags),
				CPUsEnabled:   derefInt(vc.CpusEnabled),
				TimeCreated:   sdkTimeValue(vc.TimeCreated),
			})
		}

		if resp.OpcNextPage == nil {
			break
		}
		req.Page = resp.OpcNextPage
	}

	return resources, nil
}

func (p *Provider) getVMCluster(ctx context.Context, id string) (*types.Resource, error) {
	resp, err := p.databaseClient.GetVmCluster(ctx, database.GetVmClusterRequest{
		VmClusterId: common.String(id),
	})
	if err != nil {
		return nil, notFound(err)
	}

	vc := resp.VmCluster
	return &types.Resource{
		ID:            deref(vc.Id),
		Kind:          types.KindVMCluster,
		Name:          deref(vc.DisplayName),
		Region:        p.region,
		CompartmentID: deref(vc.CompartmentId),
		State:         types.LifecycleState(vc.LifecycleState),
		DefinedTags:   convertDefinedTags(vc.DefinedTags),
		CPUsEnabled:   derefInt(vc.CpusEnabled),
		TimeCreated:   sdkTimeValue(vc.TimeCreated),
	}, nil
}

// ScaleVMCluster updates the enabled OCPU count of a VM cluster.
func (p *Provider) ScaleVMCluster(ctx context.Context, id string, ocpus int) error {
	_, err := p.databaseClient.UpdateVmCluster(ctx, database.UpdateVmClusterRequest{
		VmClusterId: common.String(id),
		UpdateVmClusterDetails: database.UpdateVmClusterDetails{
			CpuCoreCount: common.Int(ocpus),
		},
		RequestMetadata: retryMetadata(),
	})
	if err != nil {
		return fmt.Errorf("failed to scale VM cluster %s to %d OCPUs: %w", id, ocpus, notFound(err))
	}
	return nil
}

// DeleteVMCluster terminates a VM cluster. Returns immediately; the cluster
// transitions through TERMINATING.
func (p *Provider) DeleteVMCluster(ctx context.Context, id string) error {
	_, err := p.databaseClient.DeleteVmCluster(ctx, database.DeleteVmClusterRequest{
		VmClusterId: common.String(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete VM cluster %s: %w", id, notFound(err))
	}
	return nil
}

// DeleteVMClusterNetwork removes a VM cluster network from the infrastructure.
func (p *Provider) DeleteVMClusterNetwork(ctx context.Context, exaInfraID, networkID string) error {
	_, err := p.databaseClient.DeleteVmClusterNetwork(ctx, database.DeleteVmClusterNetworkRequest{
		ExadataInfrastructureId: common.String(exaInfraID),
		VmClusterNetworkId:      common.String(networkID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete VM cluster network %s: %w", networkID, notFound(err))
	}
	return nil
}

// CreateVMClusterNetwork provisions a new VM cluster network and returns its id.
func (p *Provider) CreateVMClusterNetwork(ctx context.Context, spec providers.VMClusterNetworkSpec) (string, error) {
	details := database.VmClusterNetworkDetails{
		CompartmentId: common.String(spec.CompartmentID),
		DisplayName:   common.String(spec.DisplayName),
		Dns:           spec.DNS,
		Ntp:           spec.NTP,
		Scans: []database.ScanDetails{{
			Hostname:            common.String(spec.ScanName),
			ScanListenerPortTcp: common.Int(spec.ScanPort),
			Ips:                 spec.ScanIPs,
		}},
		VmNetworks: convertVMNetworks(spec.Networks),
	}

	resp, err := p.databaseClient.CreateVmClusterNetwork(ctx, database.CreateVmClusterNetworkRequest{
		ExadataInfrastructureId: common.String(spec.ExadataInfrastructureID),
		VmClusterNetworkDetails: details,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create VM cluster network %s: %w", spec.DisplayName, err)
	}

	return deref(resp.VmClusterNetwork.Id), nil
}

// ValidateVMClusterNetwork submits validation of a provisioned network. The
// network transitions to VALIDATING and must be polled until VALIDATED.
func (p *Provider) ValidateVMClusterNetwork(ctx context.Context, exaInfraID, networkID string) error {
	_, err := p.databaseClient.ValidateVmClusterNetwork(ctx, database.ValidateVmClusterNetworkRequest{
		ExadataInfrastructureId: common.String(exaInfraID),
		VmClusterNetworkId:      common.String(networkID),
	})
	if err != nil {
		return fmt.Errorf("failed to validate VM cluster network %s: %w", networkID, notFound(err))
	}
	return nil
}

// CreateVMCluster creates a VM cluster on a validated network and returns its id.
func (p *Provider) CreateVMCluster(ctx context.Context, spec providers.VMClusterSpec) (string, error) {
	resp, err := p.databaseClient.CreateVmCluster(ctx, database.CreateVmClusterRequest{
		CreateVmClusterDetails: database.CreateVmClusterDetails{
			CompartmentId:           common.String(spec.CompartmentID),
			ExadataInfrastructureId: common.String(spec.ExadataInfrastructureID),
			VmClusterNetworkId:      common.String(spec.NetworkID),
			DisplayName:             common.String(spec.DisplayName),
			GiVersion:               common.String(spec.GiVersion),
			CpuCoreCount:            common.Int(spec.CPUCoreCount),
			SshPublicKeys:           spec.SSHPublicKeys,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create VM cluster %s: %w", spec.DisplayName, err)
	}

	return deref(resp.VmCluster.Id), nil
}

func (p *Provider) getVMClusterNetwork(ctx context.Context, exaInfraID, networkID string) (*types.Resource, error) {
	resp, err := p.databaseClient.GetVmClusterNetwork(ctx, database.GetVmClusterNetworkRequest{
		ExadataInfrastructureId: common.String(exaInfraID),
		VmClusterNetworkId:      common.String(networkID),
	})
	if err != nil {
		return nil, notFound(err)
	}

	vn := resp.VmClusterNetwork
	return &types.Resource{
		ID:            deref(vn.Id),
		Kind:          types.KindVMClusterNetwork,
		Name:          deref(vn.DisplayName),
		Region:        p.region,
		CompartmentID: deref(vn.CompartmentId),
		State:         types.LifecycleState(vn.LifecycleState),
		DefinedTags:   convertDefinedTags(vn.DefinedTags),
	}, nil
}

func convertVMNetworks(specs []providers.VMNetworkSpec) []database.VmNetworkDetails {
	networks := make([]database.VmNetworkDetails, 0, len(specs))
	for _, n := range specs {
		networkType := database.VmNetworkDetailsNetworkTypeClient
		if n.Type == "backup" {
			networkType = database.VmNetworkDetailsNetworkTypeBackup
		}

		nodes := make([]database.NodeDetails, 0, len(n.Nodes))
		for _, node := range n.Nodes {
			nodes = append(nodes, database.NodeDetails{
				Hostname: common.String(node.Hostname),
				Ip:       common.String(node.IP),
			})
		}

		networks = append(networks, database.VmNetworkDetails{
			NetworkType: networkType,
			VlanId:      common.String(n.VlanID),
			Netmask:     common.String(n.Netmask),
			Gateway:     common.String(n.Gateway),
			DomainName:  common.String(n.Domain),
			Nodes:       nodes,
		})
	}
	return networks
}
