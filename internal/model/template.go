package model

// TemplateFormatVersion is the only CloudFormation template version in existence
const TemplateFormatVersion = "2010-09-09"

// Template is a CloudFormation template
type Template struct {
	AWSTemplateFormatVersion string                      `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                      `json:"Description,omitempty" yaml:"Description,omitempty"`
	Resources                map[string]TemplateResource `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]TemplateOutput   `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// TemplateResource is a single resource declaration
type TemplateResource struct {
	Type       string                 `json:"Type" yaml:"Type"`
	DependsOn  []string               `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	Properties map[string]interface{} `json:"Properties" yaml:"Properties"`
}

// TemplateOutput is a named stack output
type TemplateOutput struct {
	Description string      `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       interface{} `json:"Value" yaml:"Value"`
}

// GetAtt builds an Fn::GetAtt intrinsic.
func GetAtt(logicalID, attribute string) map[string]interface{} {
	return map[string]interface{}{"Fn::GetAtt": []string{logicalID, attribute}}
}
