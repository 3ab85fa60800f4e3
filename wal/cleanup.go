package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RetentionConfig bounds how long WAL files are kept.
type RetentionConfig struct {
	RetentionDays int
}

// Cleanup removes WAL files older than the retention period.
func Cleanup(dir string, cfg RetentionConfig) error {
	cutoff := time.Now().AddDate(0, 0, -cfg.RetentionDays)

	files, err := filepath.Glob(filepath.Join(dir, filePrefix+"-*.wal"))
	if err != nil {
		return fmt.Errorf("failed to list WAL files: %w", err)
	}

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(file); err != nil {
			return fmt.Errorf("failed to remove %s: %w", file, err)
		}
	}
	return nil
}
