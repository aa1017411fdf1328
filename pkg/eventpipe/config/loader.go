package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromFile loads a Config from path, choosing the parser by file extension.
// Recognized extensions are .yaml, .yml, and .json.
func FromFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML(raw)
	case ".json":
		return FromJSON(raw)
	default:
		return Config{}, fmt.Errorf("load config %s: unrecognized extension %q", path, ext)
	}
}

// FromYAML parses one YAML document into a Config.
func FromYAML(raw []byte) (Config, error) {
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return Config{}, fmt.Errorf("decode yaml config: %w", err)
	}
	return New(data), nil
}

// FromJSON parses a JSON object into a Config.
func FromJSON(raw []byte) (Config, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return Config{}, fmt.Errorf("decode json config: %w", err)
	}
	return New(data), nil
}
