package loader

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/sourceplane/tgistack/internal/model"
)

// parseHCL decodes a flat HCL body of attributes, e.g.
//
//	tag = "2.0.1"
//	environment_vars = {
//	  HF_MODEL_ID = "gpt2"
//	}
func parseHCL(data []byte, filename string) (*model.EndpointConfiguration, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var cfg model.EndpointConfiguration
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	return &cfg, nil
}
