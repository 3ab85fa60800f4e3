package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cpauliat/my-oci-scripts/types"
)

func TestFilterByAction(t *testing.T) {
	decisions := []types.Decision{
		{Action: types.ActionStart, ResourceID: "inst-1"},
		{Action: types.ActionStop, ResourceID: "inst-2"},
		{Action: types.ActionStart, ResourceID: "inst-3"},
	}

	tests := []struct {
		action string
		want   int
	}{
		{"both", 3},
		{"start", 2},
		{"stop", 1},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			filtered := filterByAction(append([]types.Decision(nil), decisions...), tt.action)
			if len(filtered) != tt.want {
				t.Errorf("got %d decisions for %q, want %d", len(filtered), tt.action, tt.want)
			}
			for _, d := range filtered {
				if tt.action != "both" && d.Action != tt.action {
					t.Errorf("decision %s leaked through the %q filter", d.Action, tt.action)
				}
			}
		})
	}
}

func TestExitErrorCarriesCode(t *testing.T) {
	err := exitf(exitPartialFailure, "2 of %d actions failed", 5)

	var ee *exitError
	if !errors.As(err, &ee) {
		t.Fatalf("exitf() did not produce an exitError: %v", err)
	}
	if ee.code != exitPartialFailure {
		t.Errorf("code = %d, want %d", ee.code, exitPartialFailure)
	}
	if ee.Error() != "2 of 5 actions failed" {
		t.Errorf("message = %q", ee.Error())
	}
}

func TestExitErrorUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("run failed: %w", exitf(exitPrecondition, "unknown profile"))

	var ee *exitError
	if !errors.As(wrapped, &ee) {
		t.Fatal("wrapped exitError must still be found")
	}
	if ee.code != exitPrecondition {
		t.Errorf("code = %d, want %d", ee.code, exitPrecondition)
	}
}
