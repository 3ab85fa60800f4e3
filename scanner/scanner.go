// Package scanner enumerates candidate resources across a scope: the tenancy
// root plus its active compartment subtree, one compartment at a time.
package scanner

import (
	"context"
	"fmt"

	"github.com/cpauliat/my-oci-scripts/types"
)

// Source lists resources per compartment.
type Source interface {
	TenancyID() string
	ListResources(ctx context.Context, kind types.ResourceKind, compartmentID string) ([]types.Resource, error)
}

// Searcher enumerates a whole region in one query. Optional fast path.
type Searcher interface {
	SearchResources(ctx context.Context, kind types.ResourceKind) ([]types.Resource, error)
}

// ScopeSource discovers the enumeration scope.
type ScopeSource interface {
	TenancyID() string
	ListCompartments(ctx context.Context) ([]types.Compartment, error)
	SubscribedRegions(ctx context.Context) ([]string, error)
}

// BuildScope fetches the scope once per run. The root compartment is included
// explicitly because the compartment list API excludes it. With allRegions
// false the scope holds only the provider's current region.
func BuildScope(ctx context.Context, src ScopeSource, currentRegion string, allRegions bool) (types.Scope, error) {
	scope := types.Scope{TenancyID: src.TenancyID()}

	compartments, err := src.ListCompartments(ctx)
	if err != nil {
		return types.Scope{}, fmt.Errorf("failed to build scope: %w", err)
	}
	scope.Compartments = append([]types.Compartment{{
		ID:    scope.TenancyID,
		Name:  "root",
		State: types.StateAvailable,
	}}, compartments...)

	if allRegions {
		regions, err := src.SubscribedRegions(ctx)
		if err != nil {
			return types.Scope{}, fmt.Errorf("failed to list subscribed regions: %w", err)
		}
		scope.Regions = regions
	} else {
		scope.Regions = []string{currentRegion}
	}

	return scope, nil
}

// Scanner enumerates resources of the configured kinds within one region.
type Scanner struct {
	source Source
	scope  types.Scope
	kinds  []types.ResourceKind
}

// New creates a scanner over the given scope.
func New(source Source, scope types.Scope, kinds ...types.ResourceKind) *Scanner {
	return &Scanner{source: source, scope: scope, kinds: kinds}
}

// Scan lists every resource of the configured kinds, compartment by
// compartment. Terminated and deleted resources are excluded. Errors propagate
// per call; the scanner never retries internally and never turns a failed call
// into an empty result.
func (s *Scanner) Scan(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource

	for _, compartment := range s.scope.Compartments {
		if compartment.State.IsGone() {
			continue
		}

		for _, kind := range s.kinds {
			listed, err := s.source.ListResources(ctx, kind, compartment.ID)
			if err != nil {
				return nil, fmt.Errorf("scan of %s in compartment %s (%s) failed: %w",
					kind, compartment.Name, compartment.ID, err)
			}
			resources = append(resources, exceptGone(listed)...)
		}
	}

	return resources, nil
}

// ScanBySearch enumerates through the search service instead of walking
// compartments. Same exclusion rules.
func ScanBySearch(ctx context.Context, searcher Searcher, kinds ...types.ResourceKind) ([]types.Resource, error) {
	var resources []types.Resource
	for _, kind := range kinds {
		found, err := searcher.SearchResources(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("search of %s failed: %w", kind, err)
		}
		resources = append(resources, exceptGone(found)...)
	}
	return resources, nil
}

func exceptGone(in []types.Resource) []types.Resource {
	out := in[:0]
	for _, r := range in {
		if r.State.IsGone() {
			continue
		}
		out = append(out, r)
	}
	return out
}
