package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourceplane/tgistack/internal/identity"
	"github.com/sourceplane/tgistack/internal/model"
	"github.com/sourceplane/tgistack/internal/normalize"
	"go.uber.org/zap"
)

// maxResourceNameLength is SageMaker's limit for model, endpoint config and endpoint names
const maxResourceNameLength = 63

// ErrMissingNode is returned when a build step is handed a nil dependency
var ErrMissingNode = errors.New("missing dependency node")

// Orchestrator accepts a fully assembled resource graph and provisions it as a whole.
type Orchestrator interface {
	Submit(ctx context.Context, graph *model.Graph) error
}

// SubmissionError carries an orchestrator failure back to the caller unchanged
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("orchestrator rejected resource graph: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Builder assembles the container -> model -> endpoint config -> endpoint graph.
// Every stage takes the previous stage's output; a Builder keeps no per-build state.
type Builder struct {
	ids       identity.Source
	suffixLen int
	logger    *zap.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithIdentitySource replaces the UUID-backed identity source
func WithIdentitySource(src identity.Source) Option {
	return func(b *Builder) {
		b.ids = src
	}
}

// WithSuffixLength changes the length of the random name suffix
func WithSuffixLength(n int) Option {
	return func(b *Builder) {
		b.suffixLen = n
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a builder with a UUID identity source and a 10 character suffix
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		ids:       identity.UUIDSource{},
		suffixLen: model.DefaultSuffixLength,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GenerateIdentity derives the resource names for one build from base
func (b *Builder) GenerateIdentity(base string) (model.ResourceIdentity, error) {
	if base == "" {
		return model.ResourceIdentity{}, fmt.Errorf("base name cannot be empty")
	}
	suffix, err := identity.Suffix(b.ids, b.suffixLen)
	if err != nil {
		return model.ResourceIdentity{}, fmt.Errorf("failed to generate name suffix: %w", err)
	}

	id := model.ResourceIdentity{
		Base:               base,
		Suffix:             suffix,
		ModelName:          fmt.Sprintf("%s-%s", base, suffix),
		EndpointConfigName: fmt.Sprintf("%s-config-%s", base, suffix),
		EndpointName:       fmt.Sprintf("%s-endpoint-%s", base, suffix),
	}
	for _, name := range []string{id.ModelName, id.EndpointConfigName, id.EndpointName} {
		if len(name) > maxResourceNameLength {
			return model.ResourceIdentity{}, fmt.Errorf("resource name %s is longer than %d characters", name, maxResourceNameLength)
		}
	}
	return id, nil
}

// BuildContainer resolves the image and attaches the environment and, if present, the model data
func (b *Builder) BuildContainer(cfg *model.NormalizedConfig) *model.ContainerNode {
	env := make(map[string]string, len(cfg.EnvironmentVars))
	for k, v := range cfg.EnvironmentVars {
		env[k] = v
	}

	container := &model.ContainerNode{
		Image:       ImageURI(cfg.RepoName, cfg.Tag, cfg.Region),
		Environment: env,
	}
	if cfg.S3ModelPath != "" {
		container.ModelDataURL = cfg.S3ModelPath
	}
	return container
}

// BuildModel wraps the container under the generated model name
func (b *Builder) BuildModel(id model.ResourceIdentity, cfg *model.NormalizedConfig, container *model.ContainerNode) (*model.ModelNode, error) {
	if container == nil {
		return nil, fmt.Errorf("%w: model %s needs a container", ErrMissingNode, id.ModelName)
	}
	return &model.ModelNode{
		ModelName:        id.ModelName,
		Containers:       []model.ContainerNode{*container},
		ExecutionRoleArn: cfg.ExecutionRoleArn,
	}, nil
}

// BuildEndpointConfig creates the single production variant serving the model
func (b *Builder) BuildEndpointConfig(id model.ResourceIdentity, cfg *model.NormalizedConfig, mdl *model.ModelNode) (*model.EndpointConfigNode, error) {
	if mdl == nil {
		return nil, fmt.Errorf("%w: endpoint config %s needs a model", ErrMissingNode, id.EndpointConfigName)
	}
	return &model.EndpointConfigNode{
		ConfigName: id.EndpointConfigName,
		Variants: []model.ProductionVariant{
			{
				ModelName:            mdl.ModelName,
				VariantName:          model.DefaultVariantName,
				InitialVariantWeight: 1.0,
				InitialInstanceCount: 1,
				InstanceType:         cfg.InstanceType,
				ContainerStartupHealthCheckTimeoutInSeconds: cfg.StartUpHealthCheckSeconds,
			},
		},
	}, nil
}

// BuildEndpoint is the terminal step
func (b *Builder) BuildEndpoint(id model.ResourceIdentity, endpointConfig *model.EndpointConfigNode) (*model.EndpointNode, error) {
	if endpointConfig == nil {
		return nil, fmt.Errorf("%w: endpoint %s needs an endpoint config", ErrMissingNode, id.EndpointName)
	}
	return &model.EndpointNode{
		EndpointName: id.EndpointName,
		ConfigName:   endpointConfig.ConfigName,
	}, nil
}

// Build validates cfg and assembles the complete resource graph. Nothing is built when
// validation fails.
func (b *Builder) Build(cfg *model.EndpointConfiguration) (*model.Graph, error) {
	normalized, err := normalize.NormalizeConfig(cfg)
	if err != nil {
		return nil, err
	}

	id, err := b.GenerateIdentity(normalized.Name)
	if err != nil {
		return nil, err
	}

	container := b.BuildContainer(normalized)
	mdl, err := b.BuildModel(id, normalized, container)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}
	endpointConfig, err := b.BuildEndpointConfig(id, normalized, mdl)
	if err != nil {
		return nil, fmt.Errorf("failed to build endpoint config: %w", err)
	}
	endpoint, err := b.BuildEndpoint(id, endpointConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build endpoint: %w", err)
	}

	graph := &model.Graph{
		Identity:       id,
		Config:         *normalized,
		Container:      container,
		Model:          mdl,
		EndpointConfig: endpointConfig,
		Endpoint:       endpoint,
		Outputs: map[string]string{
			model.EndpointNameOutput: endpoint.EndpointName,
		},
	}
	graph.Resources = resourceNodes(graph)

	if err := NewResourceGraph(graph.Resources).DetectCycles(); err != nil {
		return nil, err
	}

	b.logger.Debug("assembled resource graph",
		zap.String("model", mdl.ModelName),
		zap.String("endpoint_config", endpointConfig.ConfigName),
		zap.String("endpoint", endpoint.EndpointName),
		zap.String("image", container.Image),
		zap.Bool("model_data", container.ModelDataURL != ""),
	)
	return graph, nil
}

// Run builds the graph, submits it in a single call and returns the endpoint name
func (b *Builder) Run(ctx context.Context, cfg *model.EndpointConfiguration, orchestrator Orchestrator) (string, error) {
	if orchestrator == nil {
		return "", fmt.Errorf("orchestrator cannot be nil")
	}

	graph, err := b.Build(cfg)
	if err != nil {
		return "", err
	}

	b.logger.Info("submitting resource graph", zap.String("endpoint", graph.EndpointName()))
	if err := orchestrator.Submit(ctx, graph); err != nil {
		return "", &SubmissionError{Err: err}
	}
	return graph.EndpointName(), nil
}

// resourceNodes lists the submittable resources and their dependency edges
func resourceNodes(graph *model.Graph) map[string]*model.ResourceNode {
	nodes := make(map[string]*model.ResourceNode)

	modelDeps := []string{}
	if graph.NeedsRole() {
		nodes[model.ExecutionRoleID] = &model.ResourceNode{
			LogicalID: model.ExecutionRoleID,
			Type:      model.RoleType,
			DependsOn: []string{},
		}
		modelDeps = append(modelDeps, model.ExecutionRoleID)
	}

	nodes[model.ModelID] = &model.ResourceNode{
		LogicalID: model.ModelID,
		Type:      model.ModelType,
		Name:      graph.Model.ModelName,
		DependsOn: modelDeps,
	}
	nodes[model.EndpointConfigID] = &model.ResourceNode{
		LogicalID: model.EndpointConfigID,
		Type:      model.EndpointConfigType,
		Name:      graph.EndpointConfig.ConfigName,
		DependsOn: []string{model.ModelID},
	}
	nodes[model.EndpointID] = &model.ResourceNode{
		LogicalID: model.EndpointID,
		Type:      model.EndpointType,
		Name:      graph.Endpoint.EndpointName,
		DependsOn: []string{model.EndpointConfigID},
	}
	return nodes
}
