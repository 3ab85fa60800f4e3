package wal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, filePrefix+"-20240101-000000.wal")
	newFile := filepath.Join(dir, filePrefix+"-20250601-000000.wal")
	for _, f := range []string{oldFile, newFile} {
		if err := os.WriteFile(f, []byte("{}\n"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", f, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(oldFile, stale, stale); err != nil {
		t.Fatalf("failed to age file: %v", err)
	}

	if err := Cleanup(dir, RetentionConfig{RetentionDays: 7}); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("old file must be removed")
	}
	if _, err := os.Stat(newFile); err != nil {
		t.Error("recent file must survive")
	}
}

func TestCleanupIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()

	foreign := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(foreign, []byte("keep"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	stale := time.Now().AddDate(0, 0, -365)
	if err := os.Chtimes(foreign, stale, stale); err != nil {
		t.Fatalf("failed to age file: %v", err)
	}

	if err := Cleanup(dir, RetentionConfig{RetentionDays: 7}); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Error("non-WAL files must never be touched")
	}
}
