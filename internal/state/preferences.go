package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PreferencesFile is the file name used inside the state directory.
const PreferencesFile = "preferences.yaml"

// Preferences are the operator choices kept across restarts. Fetched game
// data is never persisted.
type Preferences struct {
	AgentLabel       string `yaml:"agent_label"`
	SelectedShipyard string `yaml:"selected_shipyard,omitempty"`
}

// LoadPreferences reads preferences from path. A missing file yields the
// zero value.
func LoadPreferences(path string) (Preferences, error) {
	var prefs Preferences
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("state: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return prefs, fmt.Errorf("state: parse %s: %w", path, err)
	}
	prefs.AgentLabel = strings.TrimSpace(prefs.AgentLabel)
	prefs.SelectedShipyard = strings.TrimSpace(prefs.SelectedShipyard)
	return prefs, nil
}

// SavePreferences writes preferences to path, creating its directory.
func SavePreferences(path string, prefs Preferences) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("state: ensure state dir: %w", err)
	}
	data, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("state: encode preferences: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("state: write preferences: %w", err)
	}
	return nil
}
