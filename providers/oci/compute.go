package oci

import (
	"context"
	"fmt"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/core"

	"github.com/cpauliat/my-oci-scripts/types"
)

// listInstances enumerates compute instances in one compartment.
func (p *Provider) listInstances(ctx context.Context, compartmentID string) ([]types.Resource, error) {
	req := core.ListInstancesRequest{
		CompartmentId: common.String(compartmentID),
	}

	var resources []types.Resource
	for {
		resp, err := p.computeClient.ListInstances(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to list instances in %s: %w", compartmentID, err)
		}

		for i := range resp.Items {
			resources = append(resources, p.convertInstance(&resp.Items[i]))
		}

		if resp.OpcNextPage == nil {
			break
		}
		req.Page = resp.OpcNextPage
	}

	return resources, nil
}

func (p *Provider) getInstance(ctx context.Context, id string) (*types.Resource, error) {
	resp, err := p.computeClient.GetInstance(ctx, core.GetInstanceRequest{
		InstanceId: common.String(id),
	})
	if err != nil {
		return nil, notFound(err)
	}

	resource := p.convertInstance(&resp.Instance)
	return &resource, nil
}

// instanceAction issues a power action. The SDK default retry policy guards
// against TooManyRequests on busy tenancies.
func (p *Provider) instanceAction(ctx context.Context, id string, action core.InstanceActionActionEnum) error {
	_, err := p.computeClient.InstanceAction(ctx, core.InstanceActionRequest{
		InstanceId:      common.String(id),
		Action:          action,
		RequestMetadata: retryMetadata(),
	})
	if err != nil {
		return fmt.Errorf("instance action %s on %s failed: %w", action, id, notFound(err))
	}
	return nil
}

// terminateInstance deletes an instance together with its boot volume.
func (p *Provider) terminateInstance(ctx context.Context, id string) error {
	_, err := p.computeClient.TerminateInstance(ctx, core.TerminateInstanceRequest{
		InstanceId:         common.String(id),
		PreserveBootVolume: common.Bool(false),
		RequestMetadata:    retryMetadata(),
	})
	if err != nil {
		return fmt.Errorf("failed to terminate instance %s: %w", id, notFound(err))
	}
	return nil
}

func (p *Provider) convertInstance(instance *core.Instance) types.Resource {
	return types.Resource{
		ID:            deref(instance.Id),
		Kind:          types.KindComputeInstance,
		Name:          deref(instance.DisplayName),
		Region:        p.region,
		CompartmentID: deref(instance.CompartmentId),
		State:         types.LifecycleState(instance.LifecycleState),
		DefinedTags:   convertDefinedTags(instance.DefinedTags),
		Shape:         deref(instance.Shape),
		TimeCreated:   sdkTimeValue(instance.TimeCreated),
	}
}
