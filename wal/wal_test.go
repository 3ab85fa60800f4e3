package wal

import (
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendAndReadBack(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	type payload struct {
		Action string `json:"action"`
	}

	if err := w.Append(EntryDecided, "inst-1", payload{Action: "start"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := w.Append(EntryExecuting, "inst-1", payload{Action: "start"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, filePrefix+"-*.wal"))
	if err != nil || len(files) != 1 {
		t.Fatalf("got %d WAL files, want 1", len(files))
	}

	reader, err := NewReader(files[0])
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer func() { _ = reader.Close() }()

	first, err := reader.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if first.Type != EntryDecided || first.ResourceID != "inst-1" || first.Sequence != 1 {
		t.Errorf("first entry = %+v", first)
	}

	var data payload
	if err := json.Unmarshal(first.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal data: %v", err)
	}
	if data.Action != "start" {
		t.Errorf("data.Action = %q, want start", data.Action)
	}

	second, err := reader.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if second.Sequence != 2 {
		t.Errorf("second sequence = %d, want 2", second.Sequence)
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestAppendErrorRecordsCause(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	cause := &timeoutError{}
	if err := w.AppendError(EntryFailed, "inst-1", nil, cause); err != nil {
		t.Fatalf("AppendError() error = %v", err)
	}
	_ = w.Close()

	var entries []*Entry
	err = Replay(dir, time.Time{}, func(e *Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Error != "request timed out" {
		t.Errorf("Error = %q, want the cause message", entries[0].Error)
	}
}

type timeoutError struct{}

func (*timeoutError) Error() string { return "request timed out" }

func TestSequenceContinuesAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := w.Append(EntryObserved, "inst-1", nil); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	_ = w.Close()

	// A new process must not reuse sequence numbers.
	w2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = w2.Close() }()

	if err := w2.Append(EntryObserved, "inst-2", nil); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	var maxSeq int64
	err = Replay(dir, time.Time{}, func(e *Entry) error {
		if e.Sequence > maxSeq {
			maxSeq = e.Sequence
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if maxSeq != 4 {
		t.Errorf("max sequence = %d, want 4", maxSeq)
	}
}

func TestReplaySince(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := w.Append(EntryObserved, "inst-1", nil); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	_ = w.Close()

	var count int
	err = Replay(dir, time.Now().Add(time.Hour), func(e *Entry) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if count != 0 {
		t.Errorf("replayed %d future entries, want 0", count)
	}
}
