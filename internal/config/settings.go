package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/JonMunkholm/classroster/internal/core"
	"gopkg.in/yaml.v3"
)

// LoadSettings returns the initial allocator settings. With an empty path the
// built-in defaults are used. Keys in the file override the defaults; other
// defaults are kept.
//
// Example file:
//
//	classCount: 6
//	scoreTolerance: 40
//	numberingMethod: mixed
func LoadSettings(path string) (core.Settings, error) {
	settings := core.DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return settings, nil
	}

	var file map[string]any
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	for k, v := range file {
		settings[k] = jsonSafe(v)
	}
	return settings, nil
}

// jsonSafe converts YAML maps with non-string keys so the settings can be
// encoded as JSON.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonSafe(val)
		}
		return out
	case map[string]any:
		for k, val := range t {
			t[k] = jsonSafe(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = jsonSafe(t[i])
		}
		return t
	default:
		return v
	}
}
