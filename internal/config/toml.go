// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Signal      SignalConfig      `toml:"signal"`
	Calibration CalibrationConfig `toml:"calibration"`
}

// SignalConfig maps normalizer settings.
type SignalConfig struct {
	DebounceMs *int `toml:"debounce-ms"`
}

// CalibrationConfig maps calibration settings.
type CalibrationConfig struct {
	SamplesPerPrompt *int     `toml:"samples-per-prompt"`
	StdDevs          *float64 `toml:"stddevs"`
	OutlierStdDevs   *float64 `toml:"outlier-stddevs"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
