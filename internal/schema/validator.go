package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sourceplane/tgistack/internal/model"
	"gopkg.in/yaml.v3"
)

const configSchemaURI = "tgistack://config.schema.json"

//go:embed config.schema.yaml
var configSchemaYAML []byte

// ErrSchemaViolation marks a document that does not satisfy the config schema
var ErrSchemaViolation = errors.New("config schema violation")

// Validator handles JSON schema validation of endpoint configurations
type Validator struct {
	configSchema *jsonschema.Schema
}

// NewValidator compiles the embedded config schema
func NewValidator() (*Validator, error) {
	configSchema, err := compileSchema(configSchemaURI, configSchemaYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to load config schema: %w", err)
	}
	return &Validator{configSchema: configSchema}, nil
}

// ValidateDocument validates a raw decoded config document (as produced by yaml or json decoding)
func (v *Validator) ValidateDocument(data interface{}) error {
	if v.configSchema == nil {
		return fmt.Errorf("config schema not loaded")
	}
	doc, err := ToJSONDocument(data)
	if err != nil {
		return err
	}
	if err := v.configSchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}

// ValidateConfig validates a typed configuration
func (v *Validator) ValidateConfig(cfg *model.EndpointConfiguration) error {
	if cfg == nil {
		return fmt.Errorf("%w: config cannot be nil", ErrSchemaViolation)
	}
	return v.ValidateDocument(cfg)
}

// ToJSONDocument converts any value into the generic form the schema compiler expects
// (maps, slices, strings, bools and json.Number).
func ToJSONDocument(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

// compileSchema compiles a schema file (JSON or YAML) under the given URI
func compileSchema(uri string, data []byte) (*jsonschema.Schema, error) {
	// Parse YAML to interface{} (supports both YAML and JSON)
	var schemaData interface{}
	if err := yaml.Unmarshal(data, &schemaData); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	jsonData, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		if url == uri {
			return io.NopCloser(strings.NewReader(string(jsonData))), nil
		}
		return nil, fmt.Errorf("external schema reference not supported: %s", url)
	}

	schema, err := compiler.Compile(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
}
