package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourceplane/tgistack/internal/model"
	"github.com/sourceplane/tgistack/internal/schema"
	"gopkg.in/yaml.v3"
)

// Supported config formats
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatHCL  = "hcl"
)

// FormatFromPath picks the config format from the file extension. Unknown extensions are
// treated as YAML, which also covers JSON documents.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".hcl":
		return FormatHCL
	default:
		return FormatYAML
	}
}

// LoadConfig loads, schema-validates and parses an endpoint configuration file
func LoadConfig(path string) (*model.EndpointConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParseConfig(data, path, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses config data in the given format. filename is only used for diagnostics.
func ParseConfig(data []byte, filename, format string) (*model.EndpointConfiguration, error) {
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatHCL:
		cfg, err := parseHCL(data, filename)
		if err != nil {
			return nil, err
		}
		if err := validator.ValidateConfig(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	case FormatJSON:
		var doc interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
		if err := validator.ValidateDocument(doc); err != nil {
			return nil, err
		}
		var cfg model.EndpointConfiguration
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config JSON: %w", err)
		}
		return &cfg, nil
	case FormatYAML:
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
		if doc == nil {
			return nil, fmt.Errorf("config file is empty")
		}
		if err := validator.ValidateDocument(doc); err != nil {
			return nil, err
		}
		var cfg model.EndpointConfiguration
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config YAML: %w", err)
		}
		return &cfg, nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}
}
