package oci

import (
	"context"
	"fmt"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/identity"

	"github.com/cpauliat/my-oci-scripts/types"
)

// ListCompartments returns every active compartment of the tenancy subtree.
// The root compartment is NOT part of the answer; the list API excludes it, so
// scope building prepends it explicitly.
func (p *Provider) ListCompartments(ctx context.Context) ([]types.Compartment, error) {
	req := identity.ListCompartmentsRequest{
		CompartmentId:          common.String(p.tenancyID),
		CompartmentIdInSubtree: common.Bool(true),
		AccessLevel:            identity.ListCompartmentsAccessLevelAccessible,
		LifecycleState:         identity.CompartmentLifecycleStateActive,
	}

	var compartments []types.Compartment
	for {
		resp, err := p.identityClient.ListCompartments(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to list compartments: %w", err)
		}

		for _, c := range resp.Items {
			compartments = append(compartments, types.Compartment{
				ID:    deref(c.Id),
				Name:  deref(c.Name),
				State: types.LifecycleState(c.LifecycleState),
			})
		}

		if resp.OpcNextPage == nil {
			break
		}
		req.Page = resp.OpcNextPage
	}

	return compartments, nil
}

// SubscribedRegions returns the names of all regions the tenancy subscribes to.
func (p *Provider) SubscribedRegions(ctx context.Context) ([]string, error) {
	resp, err := p.identityClient.ListRegionSubscriptions(ctx, identity.ListRegionSubscriptionsRequest{
		TenancyId: common.String(p.tenancyID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list region subscriptions: %w", err)
	}

	regions := make([]string, 0, len(resp.Items))
	for _, r := range resp.Items {
		regions = append(regions, deref(r.RegionName))
	}
	return regions, nil
}
