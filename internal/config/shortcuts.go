package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type shortcutsFile struct {
	Shortcuts map[string]string `toml:"shortcuts"`
}

// LoadShortcuts reads a sequence-to-phrase table from a TOML file. A missing
// file yields a nil map, not an error, so the built-in defaults apply.
func LoadShortcuts(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat shortcuts: %w", err)
	}
	var f shortcutsFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to decode shortcuts: %w", err)
	}
	return f.Shortcuts, nil
}

// SaveShortcuts writes the table, creating the directory as needed.
func SaveShortcuts(path string, shortcuts map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create shortcuts directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create shortcuts: %w", err)
	}
	enc := toml.NewEncoder(f)
	if err := enc.Encode(shortcutsFile{Shortcuts: shortcuts}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode shortcuts: %w", err)
	}
	return f.Close()
}
