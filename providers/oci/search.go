package oci

import (
	"context"
	"fmt"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/resourcesearch"

	"github.com/cpauliat/my-oci-scripts/types"
)

var searchTypes = map[types.ResourceKind]string{
	types.KindComputeInstance:    "instance",
	types.KindAutonomousDatabase: "autonomousdatabase",
	types.KindVMCluster:          "vmcluster",
}

// SearchResources enumerates one resource kind across the whole region through
// the structured search service. One query replaces a list call per
// compartment, which is how the faster script variants work.
func (p *Provider) SearchResources(ctx context.Context, kind types.ResourceKind) ([]types.Resource, error) {
	searchType, ok := searchTypes[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported resource kind %q for search", kind)
	}

	query := fmt.Sprintf("query %s resources", searchType)
	req := resourcesearch.SearchResourcesRequest{
		SearchDetails: resourcesearch.StructuredSearchDetails{
			Query: common.String(query),
		},
	}

	var resources []types.Resource
	for {
		resp, err := p.searchClient.SearchResources(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("resource search for %s failed: %w", kind, err)
		}

		for i := range resp.Items {
			item := &resp.Items[i]
			resources = append(resources, types.Resource{
				ID:            deref(item.Identifier),
				Kind:          kind,
				Name:          deref(item.DisplayName),
				Region:        p.region,
				CompartmentID: deref(item.CompartmentId),
				State:         types.LifecycleState(deref(item.LifecycleState)),
				DefinedTags:   convertDefinedTags(item.DefinedTags),
				TimeCreated:   sdkTimeValue(item.TimeCreated),
			})
		}

		if resp.OpcNextPage == nil {
			break
		}
		req.Page = resp.OpcNextPage
	}

	return resources, nil
}
