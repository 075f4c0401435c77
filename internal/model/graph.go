package model

// Logical IDs of the resources in a graph. They are stable across builds; only the
// physical names carry the random suffix.
const (
	ExecutionRoleID  = "TgiModelRole"
	ModelID          = "TgiModel"
	EndpointConfigID = "TgiEndpointConfig"
	EndpointID       = "TgiEndpoint"

	EndpointNameOutput = "EndpointName"
)

// Resource types as understood by the orchestrator
const (
	RoleType           = "AWS::IAM::Role"
	ModelType          = "AWS::SageMaker::Model"
	EndpointConfigType = "AWS::SageMaker::EndpointConfig"
	EndpointType       = "AWS::SageMaker::Endpoint"
)

// ResourceIdentity holds the deterministic names of one resource set. It is fixed once generated.
type ResourceIdentity struct {
	Base               string `json:"base" yaml:"base"`
	Suffix             string `json:"suffix" yaml:"suffix"`
	ModelName          string `json:"modelName" yaml:"modelName"`
	EndpointConfigName string `json:"endpointConfigName" yaml:"endpointConfigName"`
	EndpointName       string `json:"endpointName" yaml:"endpointName"`
}

// ContainerNode is the container image, its environment and an optional model artifact.
type ContainerNode struct {
	Image        string            `json:"image" yaml:"image"`
	Environment  map[string]string `json:"environment" yaml:"environment"`
	ModelDataURL string            `json:"modelDataUrl,omitempty" yaml:"modelDataUrl,omitempty"`
}

// ModelNode is a named model wrapping its containers
type ModelNode struct {
	ModelName        string          `json:"modelName" yaml:"modelName"`
	Containers       []ContainerNode `json:"containers" yaml:"containers"`
	ExecutionRoleArn string          `json:"executionRoleArn,omitempty" yaml:"executionRoleArn,omitempty"`
}

// ProductionVariant is a weighted allocation of serving capacity behind an endpoint config
type ProductionVariant struct {
	ModelName                                   string  `json:"modelName" yaml:"modelName"`
	VariantName                                 string  `json:"variantName" yaml:"variantName"`
	InitialVariantWeight                        float64 `json:"initialVariantWeight" yaml:"initialVariantWeight"`
	InitialInstanceCount                        int     `json:"initialInstanceCount" yaml:"initialInstanceCount"`
	InstanceType                                string  `json:"instanceType" yaml:"instanceType"`
	ContainerStartupHealthCheckTimeoutInSeconds int     `json:"containerStartupHealthCheckTimeoutInSeconds" yaml:"containerStartupHealthCheckTimeoutInSeconds"`
}

// EndpointConfigNode is a named serving configuration
type EndpointConfigNode struct {
	ConfigName string              `json:"configName" yaml:"configName"`
	Variants   []ProductionVariant `json:"variants" yaml:"variants"`
}

// EndpointNode is the externally reachable serving endpoint
type EndpointNode struct {
	EndpointName string `json:"endpointName" yaml:"endpointName"`
	ConfigName   string `json:"configName" yaml:"configName"`
}

// ResourceNode is one submittable resource of the graph with its dependency edges.
type ResourceNode struct {
	LogicalID string   `json:"logicalId" yaml:"logicalId"`
	Type      string   `json:"type" yaml:"type"`
	Name      string   `json:"name" yaml:"name"`
	DependsOn []string `json:"dependsOn" yaml:"dependsOn"`
}

// Graph is the fully wired resource graph handed to an orchestrator in one piece
type Graph struct {
	Identity       ResourceIdentity         `json:"identity" yaml:"identity"`
	Config         NormalizedConfig         `json:"-" yaml:"-"`
	Container      *ContainerNode           `json:"container" yaml:"container"`
	Model          *ModelNode               `json:"model" yaml:"model"`
	EndpointConfig *EndpointConfigNode      `json:"endpointConfig" yaml:"endpointConfig"`
	Endpoint       *EndpointNode            `json:"endpoint" yaml:"endpoint"`
	Resources      map[string]*ResourceNode `json:"resources" yaml:"resources"`
	Outputs        map[string]string        `json:"outputs" yaml:"outputs"`
}

// EndpointName returns the graph's sole output.
func (g *Graph) EndpointName() string {
	if g == nil || g.Endpoint == nil {
		return ""
	}
	return g.Endpoint.EndpointName
}

// NeedsRole reports whether the graph has to declare its own execution role.
func (g *Graph) NeedsRole() bool {
	return g.Model != nil && g.Model.ExecutionRoleArn == ""
}
