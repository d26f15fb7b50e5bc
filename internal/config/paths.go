package config

import (
	"os"
	"path/filepath"
)

// DataDir returns the directory used to store ccdev data (run ledger and
// diagnostic log). CCDEV_DATA_DIR overrides the default, which keeps tests
// and sandboxed CI away from the real home directory.
func DataDir() (string, error) {
	if v := os.Getenv("CCDEV_DATA_DIR"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	// Use a dot-directory in the user's home on all platforms
	return filepath.Join(home, ".ccdev"), nil
}

// DBPath returns the full path to the SQLite run-ledger database file.
func DBPath() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "ccdev.db"), nil
}

// LogPath returns the full path to the diagnostic log file.
func LogPath() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "ccdev.log"), nil
}
