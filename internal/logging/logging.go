package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", appName, sessionStart.Format("20060102_150405")),
	)
}

// RemoveOldLogs deletes .log files in logsDir last modified before maxAge
// ago and returns how many were removed.
func RemoveOldLogs(logsDir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(logsDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read logs dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".log" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > maxAge {
			if err := os.Remove(filepath.Join(logsDir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
