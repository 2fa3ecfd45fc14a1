package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.ping-mem/logs/).
// Falls back to the temp directory if the home directory is
// unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".ping-mem", "logs")
	}
	return filepath.Join(home, ".ping-mem", "logs")
}

// DefaultLogPath returns the default ingestion log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "pingmem.log")
}

// FindLogFile attempts to find the log file for viewing.
// Priority: an explicit path, then ~/.ping-mem/logs/pingmem.log.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	globalPath := DefaultLogPath()
	if _, err := os.Stat(globalPath); err == nil {
		return globalPath, nil
	}

	return "", fmt.Errorf("no log file found; expected at: %s", globalPath)
}

// EnsureLogDir creates the log directory if it doesn't exist.
func EnsureLogDir() error {
	dir := DefaultLogDir()
	return os.MkdirAll(dir, 0o755)
}
