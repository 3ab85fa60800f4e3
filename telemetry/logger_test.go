package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLogDecision(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger("test", &buf)

	logger.LogDecision(context.Background(), "start", "ocid1.instance.oc1..aaa", "web-1", "tag matches", false)

	out := buf.String()
	for _, want := range []string{"start", "web-1", "tag matches"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestLogActionError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger("test", &buf)

	logger.LogActionError(context.Background(), "stop", "ocid1.instance.oc1..aaa", errors.New("conflict"))

	out := buf.String()
	if !strings.Contains(out, "conflict") {
		t.Errorf("log output missing the error: %s", out)
	}
}
