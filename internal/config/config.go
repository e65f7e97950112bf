// Package config loads the optional table.json project file and validates it
// against an embedded schema before use.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Config is the project-level configuration.
type Config struct {
	// Color controls diagnostic coloring: "auto", "always", or "never".
	Color string `json:"color,omitempty"`
	// TabWidth is validated (1-16) and defaults to 8. No other package reads
	// it; diagnostic excerpts print tabs unchanged.
	TabWidth int `json:"tab_width,omitempty"`
	// ReadPaths are extra directories searched by the #read directive.
	ReadPaths []string `json:"read_paths,omitempty"`
}

// Default returns the configuration used when no table.json is present.
func Default() *Config {
	return &Config{Color: "auto", TabWidth: 8}
}

// FileName is the project file looked up next to the source file.
const FileName = "table.json"

const schemaText = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "color": {
      "type": "string",
      "enum": ["auto", "always", "never"]
    },
    "tab_width": {
      "type": "integer",
      "minimum": 1,
      "maximum": 16
    },
    "read_paths": {
      "type": "array",
      "items": {"type": "string"}
    }
  }
}`

var schema = jsonschema.MustCompileString("table.json", schemaText)

// Load reads and validates the named config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates raw config bytes.
func Parse(name string, data []byte) (*Config, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("config: %s: %w", name, err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("config: %s: %w", name, err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", name, err)
	}
	if cfg.Color == "" {
		cfg.Color = "auto"
	}
	return cfg, nil
}

// ForSource finds the config governing a source file: the nearest table.json
// in the file's directory or any parent. A missing config is not an error.
func ForSource(srcPath string) (*Config, error) {
	dir, err := filepath.Abs(filepath.Dir(srcPath))
	if err != nil {
		return Default(), nil
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return Load(candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}
