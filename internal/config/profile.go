package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/blinkmorse/internal/model"
)

// profileFile is the on-disk schema: four named durations in milliseconds.
type profileFile struct {
	ShortBlinkMaxMs int64 `toml:"short-blink-max-ms"`
	LongBlinkMinMs  int64 `toml:"long-blink-min-ms"`
	LetterGapMinMs  int64 `toml:"letter-gap-min-ms"`
	WordGapMinMs    int64 `toml:"word-gap-min-ms"`
}

// LoadProfile reads a persisted ThresholdProfile. The second return value
// is false when no profile has been saved yet.
func LoadProfile(path string) (model.ThresholdProfile, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return model.ThresholdProfile{}, false, nil
		}
		return model.ThresholdProfile{}, false, fmt.Errorf("failed to stat profile: %w", err)
	}
	var f profileFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return model.ThresholdProfile{}, false, fmt.Errorf("failed to decode profile: %w", err)
	}
	return model.ThresholdProfile{
		ShortBlinkMax: time.Duration(f.ShortBlinkMaxMs) * time.Millisecond,
		LongBlinkMin:  time.Duration(f.LongBlinkMinMs) * time.Millisecond,
		LetterGapMin:  time.Duration(f.LetterGapMinMs) * time.Millisecond,
		WordGapMin:    time.Duration(f.WordGapMinMs) * time.Millisecond,
	}, true, nil
}

// SaveProfile writes the profile, creating the directory as needed.
func SaveProfile(path string, p model.ThresholdProfile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	enc := toml.NewEncoder(f)
	if err := enc.Encode(profileFile{
		ShortBlinkMaxMs: p.ShortBlinkMax.Milliseconds(),
		LongBlinkMinMs:  p.LongBlinkMin.Milliseconds(),
		LetterGapMinMs:  p.LetterGapMin.Milliseconds(),
		WordGapMinMs:    p.WordGapMin.Milliseconds(),
	}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return f.Close()
}

// ProfileStore adapts a profile path to the calibration.Store interface.
type ProfileStore struct {
	path string
}

// NewProfileStore creates a store over the given path.
func NewProfileStore(path string) ProfileStore {
	return ProfileStore{path: path}
}

// LoadProfile implements calibration.Store.
func (s ProfileStore) LoadProfile() (model.ThresholdProfile, bool, error) {
	return LoadProfile(s.path)
}

// SaveProfile implements calibration.Store.
func (s ProfileStore) SaveProfile(p model.ThresholdProfile) error {
	return SaveProfile(s.path, p)
}
