package oci

import (
	"context"
	"fmt"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/database"

	"github.com/cpauliat/my-oci-scripts/types"
)

// listAutonomousDatabases enumerates autonomous databases in one compartment.
func (p *Provider) listAutonomousDatabases(ctx context.Context, compartmentID string) ([]types.Resource, error) {
	req := database.ListAutonomousDatabasesRequest{
		CompartmentId: common.String(compartmentID),
	}

	var resources []types.Resource
	for {
		resp, err := p.databaseClient.ListAutonomousDatabases(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to list autonomous databases in %s: %w", compartmentID, err)
		}

		for i := range resp.Items {
			adb := &resp.Items[i]
			resources = append(resources, types.Resource{
				ID:            deref(adb.Id),
				Kind:          types.KindAutonomousDatabase,
				Name:          deref(adb.DisplayName),
				Region:        p.region,
				CompartmentID: deref(adb.CompartmentId),
				State:         types.LifecycleState(adb.LifecycleState),
				DefinedTags:   convertDefinedTags(adb.DefinedTags),
				CPUsEnabled:   derefInt(adb.CpuCoreCount),
				TimeCreated:   sdkTimeValue(adb.TimeCreated),
			})
		}

		if resp.OpcNextPage == nil {
			break
		}
		req.Page = resp.OpcNextPage
	}

	return resources, nil
}

func (p *Provider) getAutonomousDatabase(ctx context.Context, id string) (*types.Resource, error) {
	resp, err := p.databaseClient.GetAutonomousDatabase(ctx, database.GetAutonomousDatabaseRequest{
		AutonomousDatabaseId: common.String(id),
	})
	if err != nil {
		return nil, notFound(err)
	}

	adb := resp.AutonomousDatabase
	return &types.Resource{
		ID:            deref(adb.Id),
		Kind:          types.KindAutonomousDatabase,
		Name:          deref(adb.DisplayName),
		Region:        p.region,
		CompartmentID: deref(adb.CompartmentId),
		State:         types.LifecycleState(adb.LifecycleState),
		DefinedTags:   convertDefinedTags(adb.DefinedTags),
		CPUsEnabled:   derefInt(adb.CpuCoreCount),
		TimeCreated:   sdkTimeValue(adb.TimeCreated),
	}, nil
}

func (p *Provider) startAutonomousDatabase(ctx context.Context, id string) error {
	_, err := p.databaseClient.StartAutonomousDatabase(ctx, database.StartAutonomousDatabaseRequest{
		AutonomousDatabaseId: common.String(id),
		RequestMetadata:      retryMetadata(),
	})
	if err != nil {
		return fmt.Errorf("failed to start autonomous database %s: %w", id, notFound(err))
	}
	return nil
}

func (p *Provider) stopAutonomousDatabase(ctx context.Context, id string) error {
	_, err := p.databaseClient.StopAutonomousDatabase(ctx, database.StopAutonomousDatabaseRequest{
		AutonomousDatabaseId: common.String(id),
		RequestMetadata:      retryMetadata(),
	})
	if err != nil {
		return fmt.Errorf("failed to stop autonomous database %s: %w", id, notFound(err))
	}
	return nil
}
