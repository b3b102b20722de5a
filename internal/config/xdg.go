// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "blinkmorse", "config.toml")
}

// DefaultProfilePath returns the default threshold profile path.
func DefaultProfilePath() string {
	return filepath.Join(XDGConfigHome(), "blinkmorse", "profile.toml")
}

// DefaultShortcutsPath returns the default quick-command table path.
func DefaultShortcutsPath() string {
	return filepath.Join(XDGConfigHome(), "blinkmorse", "shortcuts.toml")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), "blinkmorse", "blinkmorse.db")
}
