package model

const (
	// HFModelIDKey is the environment variable the TGI launcher reads the model identifier from.
	HFModelIDKey = "HF_MODEL_ID"

	DefaultName                      = "tgi-llm"
	DefaultInstanceType              = "ml.g5.2xlarge"
	DefaultStartUpHealthCheckSeconds = 300
	MaxStartUpHealthCheckSeconds     = 3600
	DefaultRepoName                  = "huggingface-pytorch-inference"
	DefaultRegion                    = "us-east-1"
	DefaultSuffixLength              = 10
	DefaultVariantName               = "primary"
)

// EndpointConfiguration is the user-supplied desired state of a TGI endpoint.
// Optional fields are left empty (or nil) and filled in during normalization.
type EndpointConfiguration struct {
	Name                      string            `yaml:"name,omitempty" json:"name,omitempty" hcl:"name,optional"`
	InstanceType              string            `yaml:"instance_type,omitempty" json:"instance_type,omitempty" hcl:"instance_type,optional"`
	EnvironmentVars           map[string]string `yaml:"environment_vars" json:"environment_vars" hcl:"environment_vars"`
	S3ModelPath               string            `yaml:"s3_model_path,omitempty" json:"s3_model_path,omitempty" hcl:"s3_model_path,optional"`
	Tag                       string            `yaml:"tag" json:"tag" hcl:"tag"`
	StartUpHealthCheckSeconds *int              `yaml:"start_up_health_check_seconds,omitempty" json:"start_up_health_check_seconds,omitempty" hcl:"start_up_health_check_seconds,optional"`
	RepoName                  string            `yaml:"repo_name,omitempty" json:"repo_name,omitempty" hcl:"repo_name,optional"`
	Region                    string            `yaml:"region,omitempty" json:"region,omitempty" hcl:"region,optional"`
	ExecutionRoleArn          string            `yaml:"execution_role_arn,omitempty" json:"execution_role_arn,omitempty" hcl:"execution_role_arn,optional"`
	Tags                      map[string]string `yaml:"tags,omitempty" json:"tags,omitempty" hcl:"tags,optional"`
}

// NormalizedConfig is the canonical internal representation with every default applied
type NormalizedConfig struct {
	Name                      string
	InstanceType              string
	EnvironmentVars           map[string]string
	S3ModelPath               string
	Tag                       string
	StartUpHealthCheckSeconds int
	RepoName                  string
	Region                    string
	ExecutionRoleArn          string
	Tags                      map[string]string
}

// ModelID returns the model identifier the container will serve.
func (c *NormalizedConfig) ModelID() string {
	return c.EnvironmentVars[HFModelIDKey]
}

// Int returns a pointer to v. Handy for optional integer fields.
func Int(v int) *int {
	return &v
}
