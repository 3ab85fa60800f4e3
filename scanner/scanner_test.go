package scanner

import (
	"context"
	"errors"
	"testing"

	"github.com/cpauliat/my-oci-scripts/types"
)

type mockSource struct {
	tenancyID    string
	compartments []types.Compartment
	regions      []string
	resources    map[string][]types.Resource // keyed by compartment ID
	listErr      error
	listCalls    int
}

func (m *mockSource) TenancyID() string { return m.tenancyID }

func (m *mockSource) ListCompartments(ctx context.Context) ([]types.Compartment, error) {
	return m.compartments, nil
}

func (m *mockSource) SubscribedRegions(ctx context.Context) ([]string, error) {
	return m.regions, nil
}

func (m *mockSource) ListResources(ctx context.Context, kind types.ResourceKind, compartmentID string) ([]types.Resource, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []types.Resource
	for _, r := range m.resources[compartmentID] {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestBuildScopeIncludesRoot(t *testing.T) {
	src := &mockSource{
		tenancyID: "ocid1.tenancy.oc1..root",
		compartments: []types.Compartment{
			{ID: "ocid1.compartment.oc1..comp1", Name: "dev", State: types.StateAvailable},
		},
	}

	scope, err := BuildScope(context.Background(), src, "eu-frankfurt-1", false)
	if err != nil {
		t.Fatalf("BuildScope() error = %v", err)
	}

	if len(scope.Compartments) != 2 {
		t.Fatalf("got %d compartments, want root + 1", len(scope.Compartments))
	}
	// Root goes first; the compartment list API never returns it.
	if scope.Compartments[0].ID != "ocid1.tenancy.oc1..root" {
		t.Errorf("first compartment = %s, want the tenancy root", scope.Compartments[0].ID)
	}
	if len(scope.Regions) != 1 || scope.Regions[0] != "eu-frankfurt-1" {
		t.Errorf("regions = %v, want the current region only", scope.Regions)
	}
}

func TestBuildScopeAllRegions(t *testing.T) {
	src := &mockSource{
		tenancyID: "ocid1.tenancy.oc1..root",
		regions:   []string{"eu-frankfurt-1", "eu-zurich-1", "us-ashburn-1"},
	}

	scope, err := BuildScope(context.Background(), src, "eu-frankfurt-1", true)
	if err != nil {
		t.Fatalf("BuildScope() error = %v", err)
	}
	if len(scope.Regions) != 3 {
		t.Errorf("regions = %v, want all subscribed regions", scope.Regions)
	}
}

func TestScanExcludesTerminated(t *testing.T) {
	src := &mockSource{
		tenancyID: "ocid1.tenancy.oc1..root",
		resources: map[string][]types.Resource{
			"ocid1.tenancy.oc1..root": {
				{ID: "inst-1", Kind: types.KindComputeInstance, State: types.StateRunning},
				{ID: "inst-2", Kind: types.KindComputeInstance, State: types.StateTerminated},
				{ID: "inst-3", Kind: types.KindComputeInstance, State: types.StateStopped},
			},
		},
	}
	scope := types.Scope{
		TenancyID: src.tenancyID,
		Compartments: []types.Compartment{
			{ID: "ocid1.tenancy.oc1..root", Name: "root", State: types.StateAvailable},
		},
	}

	resources, err := New(src, scope, types.KindComputeInstance).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(resources) != 2 {
		t.Fatalf("got %d resources, want 2 (terminated excluded)", len(resources))
	}
	for _, r := range resources {
		if r.ID == "inst-2" {
			t.Error("terminated resource must be excluded")
		}
	}
}

func TestScanSkipsDeletedCompartments(t *testing.T) {
	src := &mockSource{tenancyID: "ocid1.tenancy.oc1..root"}
	scope := types.Scope{
		Compartments: []types.Compartment{
			{ID: "ocid1.compartment.oc1..gone", Name: "old", State: types.StateDeleted},
			{ID: "ocid1.compartment.oc1..live", Name: "dev", State: types.StateAvailable},
		},
	}

	if _, err := New(src, scope, types.KindComputeInstance).Scan(context.Background()); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if src.listCalls != 1 {
		t.Errorf("list calls = %d, want 1 (deleted compartment skipped)", src.listCalls)
	}
}

func TestScanPropagatesErrors(t *testing.T) {
	boom := errors.New("NotAuthorizedOrNotFound")
	src := &mockSource{tenancyID: "ocid1.tenancy.oc1..root", listErr: boom}
	scope := types.Scope{
		Compartments: []types.Compartment{
			{ID: "ocid1.compartment.oc1..comp1", Name: "dev", State: types.StateAvailable},
		},
	}

	_, err := New(src, scope, types.KindComputeInstance).Scan(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Scan() error = %v, want the list error, never an empty result", err)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	src := &mockSource{
		tenancyID: "ocid1.tenancy.oc1..root",
		resources: map[string][]types.Resource{
			"ocid1.tenancy.oc1..root": {
				{ID: "inst-1", Kind: types.KindComputeInstance, State: types.StateRunning},
			},
		},
	}
	scope := types.Scope{
		Compartments: []types.Compartment{
			{ID: "ocid1.tenancy.oc1..root", Name: "root", State: types.StateAvailable},
		},
	}
	s := New(src, scope, types.KindComputeInstance)

	first, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	second, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(first) != len(second) || first[0].ID != second[0].ID {
		t.Errorf("re-scan of unchanged scope differs: %v vs %v", first, second)
	}
}

type mockSearcher struct {
	byKind map[types.ResourceKind][]types.Resource
}

func (m *mockSearcher) SearchResources(ctx context.Context, kind types.ResourceKind) ([]types.Resource, error) {
	return m.byKind[kind], nil
}

func TestScanBySearch(t *testing.T) {
	searcher := &mockSearcher{
		byKind: map[types.ResourceKind][]types.Resource{
			types.KindComputeInstance: {
				{ID: "inst-1", Kind: types.KindComputeInstance, State: types.StateRunning},
				{ID: "inst-2", Kind: types.KindComputeInstance, State: types.StateTerminated},
			},
			types.KindAutonomousDatabase: {
				{ID: "adb-1", Kind: types.KindAutonomousDatabase, State: types.StateAvailable},
			},
		},
	}

	resources, err := ScanBySearch(context.Background(), searcher,
		types.KindComputeInstance, types.KindAutonomousDatabase)
	if err != nil {
		t.Fatalf("ScanBySearch() error = %v", err)
	}

	if len(resources) != 2 {
		t.Fatalf("got %d resources, want 2 (terminated excluded)", len(resources))
	}
}
