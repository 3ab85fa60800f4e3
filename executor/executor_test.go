package executor

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/cpauliat/my-oci-scripts/telemetry"
	"github.com/cpauliat/my-oci-scripts/types"
	"github.com/cpauliat/my-oci-scripts/wal"
)

// MockClient counts remote calls per resource.
type MockClient struct {
	startCalls     []string
	stopCalls      []string
	terminateCalls []string
	scaleCalls     map[string]int
	failIDs        map[string]error
}

func newMockClient() *MockClient {
	return &MockClient{
		scaleCalls: make(map[string]int),
		failIDs:    make(map[string]error),
	}
}

func (m *MockClient) StartResource(ctx context.Context, kind types.ResourceKind, id string) error {
	if err := m.failIDs[id]; err != nil {
		return err
	}
	m.startCalls = append(m.startCalls, id)
	return nil
}

func (m *MockClient) StopResource(ctx context.Context, kind types.ResourceKind, id string) error {
	if err := m.failIDs[id]; err != nil {
		return err
	}
	m.stopCalls = append(m.stopCalls, id)
	return nil
}

func (m *MockClient) ScaleVMCluster(ctx context.Context, id string, ocpus int) error {
	if err := m.failIDs[id]; err != nil {
		return err
	}
	m.scaleCalls[id] = ocpus
	return nil
}

func (m *MockClient) TerminateResource(ctx context.Context, kind types.ResourceKind, id string) error {
	if err := m.failIDs[id]; err != nil {
		return err
	}
	m.terminateCalls = append(m.terminateCalls, id)
	return nil
}

func (m *MockClient) totalCalls() int {
	return len(m.startCalls) + len(m.stopCalls) + len(m.terminateCalls) + len(m.scaleCalls)
}

func testEngine(t *testing.T, client ActionClient, opts Options) *Engine {
	t.Helper()

	auditLog, err := wal.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open WAL: %v", err)
	}
	t.Cleanup(func() { _ = auditLog.Close() })

	logger := telemetry.NewConsoleLogger("test", io.Discard)
	return NewEngine(map[string]ActionClient{"eu-frankfurt-1": client}, auditLog, logger, nil, opts)
}

func startDecision(id string) types.Decision {
	return types.Decision{
		Action:       types.ActionStart,
		ResourceID:   id,
		ResourceKind: types.KindComputeInstance,
		Region:       "eu-frankfurt-1",
		Reason:       "tag matches current hour",
		CreatedAt:    time.Now(),
	}
}

func TestExecuteWithoutConfirmMakesNoCalls(t *testing.T) {
	client := newMockClient()
	engine := testEngine(t, client, Options{Confirm: false, ContinueOnFailure: true})

	decisions := []types.Decision{startDecision("inst-1"), startDecision("inst-2")}
	result, err := engine.Execute(context.Background(), decisions)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if client.totalCalls() != 0 {
		t.Errorf("got %d remote calls without confirmation, want 0", client.totalCalls())
	}
	if result.PlannedCount != 2 || result.SuccessCount != 0 {
		t.Errorf("planned=%d success=%d, want 2 planned and 0 success", result.PlannedCount, result.SuccessCount)
	}
}

func TestExecuteConfirmedMakesOneCallPerDecision(t *testing.T) {
	client := newMockClient()
	engine := testEngine(t, client, Options{Confirm: true, ContinueOnFailure: true})

	decisions := []types.Decision{
		startDecision("inst-1"),
		{
			Action:       types.ActionStop,
			ResourceID:   "adb-1",
			ResourceKind: types.KindAutonomousDatabase,
			Region:       "eu-frankfurt-1",
			Reason:       "tag matches current hour",
		},
		{
			Action:       types.ActionScale,
			ResourceID:   "vmc-1",
			ResourceKind: types.KindVMCluster,
			Region:       "eu-frankfurt-1",
			Reason:       "scale-down",
			TargetOCPUs:  4,
		},
		{
			Action:       types.ActionTerminate,
			ResourceID:   "inst-free",
			ResourceKind: types.KindComputeInstance,
			Region:       "eu-frankfurt-1",
			Reason:       "free-tier shape VM.Standard.E2.1.Micro",
		},
	}

	result, err := engine.Execute(context.Background(), decisions)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.SuccessCount != 4 {
		t.Fatalf("success = %d, want 4", result.SuccessCount)
	}
	if len(client.startCalls) != 1 || client.startCalls[0] != "inst-1" {
		t.Errorf("start calls = %v, want exactly [inst-1]", client.startCalls)
	}
	if len(client.stopCalls) != 1 || client.stopCalls[0] != "adb-1" {
		t.Errorf("stop calls = %v, want exactly [adb-1]", client.stopCalls)
	}
	if client.scaleCalls["vmc-1"] != 4 {
		t.Errorf("scale call = %v, want vmc-1 to 4", client.scaleCalls)
	}
	if len(client.terminateCalls) != 1 || client.terminateCalls[0] != "inst-free" {
		t.Errorf("terminate calls = %v, want exactly [inst-free]", client.terminateCalls)
	}
}

func TestExecuteContinuesAfterFailure(t *testing.T) {
	client := newMockClient()
	client.failIDs["inst-2"] = errors.New("conflict: instance is updating")
	engine := testEngine(t, client, Options{Confirm: true, ContinueOnFailure: true})

	decisions := []types.Decision{
		startDecision("inst-1"),
		startDecision("inst-2"),
		startDecision("inst-3"),
	}

	result, err := engine.Execute(context.Background(), decisions)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.SuccessCount != 2 || result.FailedCount != 1 {
		t.Errorf("success=%d failed=%d, want 2 and 1", result.SuccessCount, result.FailedCount)
	}
	if !result.PartialFailure {
		t.Error("PartialFailure must be set")
	}
	// inst-3 still got its call.
	if len(client.startCalls) != 2 {
		t.Errorf("start calls = %v, want inst-1 and inst-3", client.startCalls)
	}
}

func TestExecuteStopsOnFailureWhenConfigured(t *testing.T) {
	client := newMockClient()
	client.failIDs["inst-1"] = errors.New("boom")
	engine := testEngine(t, client, Options{Confirm: true, ContinueOnFailure: false})

	decisions := []types.Decision{startDecision("inst-1"), startDecision("inst-2")}
	result, err := engine.Execute(context.Background(), decisions)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(result.Results) != 1 {
		t.Errorf("processed %d decisions, want the batch to stop after the first failure", len(result.Results))
	}
	if client.totalCalls() != 0 {
		t.Errorf("got %d successful calls, want 0", client.totalCalls())
	}
}

func TestExecuteInvalidDecisionFails(t *testing.T) {
	client := newMockClient()
	engine := testEngine(t, client, Options{Confirm: true, ContinueOnFailure: true})

	invalid := types.Decision{Action: types.ActionScale, ResourceID: "vmc-1", Reason: "scale"}
	result := engine.ExecuteSingle(context.Background(), invalid)

	if result.Status != StatusFailed {
		t.Errorf("status = %s, want failed", result.Status)
	}
	if client.totalCalls() != 0 {
		t.Error("invalid decision must not reach the client")
	}
}

func TestExecuteRoutesByRegion(t *testing.T) {
	frankfurt := newMockClient()
	zurich := newMockClient()

	auditLog, err := wal.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open WAL: %v", err)
	}
	t.Cleanup(func() { _ = auditLog.Close() })

	engine := NewEngine(map[string]ActionClient{
		"eu-frankfurt-1": frankfurt,
		"eu-zurich-1":    zurich,
	}, auditLog, telemetry.NewConsoleLogger("test", io.Discard), nil, Options{Confirm: true, ContinueOnFailure: true})

	d := startDecision("inst-zrh")
	d.Region = "eu-zurich-1"
	if result := engine.ExecuteSingle(context.Background(), d); result.Status != StatusSuccess {
		t.Fatalf("status = %s: %s", result.Status, result.Error)
	}

	if len(zurich.startCalls) != 1 || len(frankfurt.startCalls) != 0 {
		t.Errorf("zurich=%v frankfurt=%v, want the call routed to zurich", zurich.startCalls, frankfurt.startCalls)
	}
}

func TestExecuteUnknownRegionFails(t *testing.T) {
	auditLog, err := wal.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open WAL: %v", err)
	}
	t.Cleanup(func() { _ = auditLog.Close() })

	engine := NewEngine(map[string]ActionClient{
		"eu-frankfurt-1": newMockClient(),
		"eu-zurich-1":    newMockClient(),
	}, auditLog, telemetry.NewConsoleLogger("test", io.Discard), nil, Options{Confirm: true})

	d := startDecision("inst-1")
	d.Region = "us-phoenix-1"
	if result := engine.ExecuteSingle(context.Background(), d); result.Status != StatusFailed {
		t.Errorf("status = %s, want failed for unknown region", result.Status)
	}
}
