package db

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// DefaultSettings returns the settings used when the file is missing or invalid.
func DefaultSettings() map[string]any {
	return map[string]any{"language": "en"}
}

// GetSettings returns the defaults overlaid with the settings file contents.
func (db *Database) GetSettings() map[string]any {
	settings := DefaultSettings()
	data, ok := readFile(db.Layout.SettingsFile())
	if !ok {
		return settings
	}
	var stored map[string]any
	if err := json.Unmarshal(data, &stored); err != nil {
		// Valid JSON that is not an object.
		return settings
	}
	for k, v := range stored {
		settings[k] = v
	}
	return settings
}

// UpdateSettings shallow-merges patch into the current settings and persists the result.
func (db *Database) UpdateSettings(patch map[string]any) (map[string]any, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	settings := db.GetSettings()
	for k, v := range patch {
		settings[k] = v
	}
	if err := writeJSON(db.Layout.SettingsFile(), settings, db.config.EnableBackup); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}
