package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sourceplane/tgistack/internal/identity"
	"github.com/sourceplane/tgistack/internal/model"
	"github.com/sourceplane/tgistack/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingOrchestrator struct {
	graphs []*model.Graph
	err    error
}

func (r *recordingOrchestrator) Submit(ctx context.Context, graph *model.Graph) error {
	r.graphs = append(r.graphs, graph)
	return r.err
}

func gpt2Config() *model.EndpointConfiguration {
	return &model.EndpointConfiguration{
		Tag:             "2.0.1",
		EnvironmentVars: map[string]string{model.HFModelIDKey: "gpt2"},
		Region:          "us-east-1",
	}
}

func newTestBuilder(t *testing.T, ids ...string) *Builder {
	opts := []Option{WithLogger(zaptest.NewLogger(t))}
	if len(ids) > 0 {
		opts = append(opts, WithIdentitySource(identity.NewSequence(ids...)))
	}
	return NewBuilder(opts...)
}

func TestGenerateIdentity(t *testing.T) {
	b := newTestBuilder(t, "0123456789abcdef0123456789abcdef")

	id, err := b.GenerateIdentity("tgi-llm")
	require.NoError(t, err)
	assert.Equal(t, "0123456789", id.Suffix)
	assert.Equal(t, "tgi-llm-0123456789", id.ModelName)
	assert.Equal(t, "tgi-llm-config-0123456789", id.EndpointConfigName)
	assert.Equal(t, "tgi-llm-endpoint-0123456789", id.EndpointName)
}

func TestGenerateIdentitySuffixLength(t *testing.T) {
	for _, n := range []int{1, 4, 10, 20} {
		b := NewBuilder(WithSuffixLength(n))
		id, err := b.GenerateIdentity("m")
		require.NoError(t, err)
		assert.Len(t, id.Suffix, n)
		assert.True(t, strings.HasSuffix(id.EndpointName, id.Suffix))
	}

	_, err := NewBuilder(WithSuffixLength(0)).GenerateIdentity("m")
	assert.ErrorIs(t, err, identity.ErrInvalidLength)
}

func TestGenerateIdentityIndependentBuilds(t *testing.T) {
	b := NewBuilder()
	first, err := b.GenerateIdentity("tgi")
	require.NoError(t, err)
	second, err := b.GenerateIdentity("tgi")
	require.NoError(t, err)

	assert.NotEmpty(t, first.EndpointName)
	assert.NotEmpty(t, second.EndpointName)
	assert.NotEqual(t, first.Suffix, second.Suffix)
}

func TestGenerateIdentityRejectsBadInput(t *testing.T) {
	_, err := NewBuilder().GenerateIdentity("")
	assert.Error(t, err)

	_, err = NewBuilder(WithSuffixLength(40)).GenerateIdentity(strings.Repeat("a", 20))
	assert.Error(t, err)
}

func TestBuildStepsRequireDependencies(t *testing.T) {
	b := newTestBuilder(t, "abcdefghij")
	cfg, err := normalize.NormalizeConfig(gpt2Config())
	require.NoError(t, err)
	id, err := b.GenerateIdentity(cfg.Name)
	require.NoError(t, err)

	_, err = b.BuildModel(id, cfg, nil)
	assert.ErrorIs(t, err, ErrMissingNode)

	_, err = b.BuildEndpointConfig(id, cfg, nil)
	assert.ErrorIs(t, err, ErrMissingNode)

	_, err = b.BuildEndpoint(id, nil)
	assert.ErrorIs(t, err, ErrMissingNode)
}

func TestBuildDefaultConfiguration(t *testing.T) {
	b := newTestBuilder(t, "abcdefghijklmnop")

	graph, err := b.Build(gpt2Config())
	require.NoError(t, err)

	require.NotNil(t, graph.Container)
	assert.Equal(t, "763104351884.dkr.ecr.us-east-1.amazonaws.com/huggingface-pytorch-inference:2.0.1", graph.Container.Image)
	assert.Equal(t, map[string]string{model.HFModelIDKey: "gpt2"}, graph.Container.Environment)
	assert.Empty(t, graph.Container.ModelDataURL)

	require.NotNil(t, graph.Model)
	assert.Equal(t, "tgi-llm-abcdefghij", graph.Model.ModelName)
	assert.Equal(t, []model.ContainerNode{*graph.Container}, graph.Model.Containers)

	require.NotNil(t, graph.EndpointConfig)
	assert.Equal(t, "tgi-llm-config-abcdefghij", graph.EndpointConfig.ConfigName)
	require.Len(t, graph.EndpointConfig.Variants, 1)
	variant := graph.EndpointConfig.Variants[0]
	assert.Equal(t, graph.Model.ModelName, variant.ModelName)
	assert.Equal(t, "primary", variant.VariantName)
	assert.Equal(t, 1.0, variant.InitialVariantWeight)
	assert.Equal(t, 1, variant.InitialInstanceCount)
	assert.Equal(t, "ml.g5.2xlarge", variant.InstanceType)
	assert.Equal(t, 300, variant.ContainerStartupHealthCheckTimeoutInSeconds)

	require.NotNil(t, graph.Endpoint)
	assert.Equal(t, "tgi-llm-endpoint-abcdefghij", graph.Endpoint.EndpointName)
	assert.Equal(t, graph.EndpointConfig.ConfigName, graph.Endpoint.ConfigName)
	assert.Equal(t, graph.Endpoint.EndpointName, graph.Outputs[model.EndpointNameOutput])
}

func TestBuildResourceEdges(t *testing.T) {
	graph, err := newTestBuilder(t).Build(gpt2Config())
	require.NoError(t, err)

	assert.Len(t, graph.Resources, 4)
	assert.Equal(t, []string{model.ExecutionRoleID}, graph.Resources[model.ModelID].DependsOn)
	assert.Equal(t, []string{model.ModelID}, graph.Resources[model.EndpointConfigID].DependsOn)
	assert.Equal(t, []string{model.EndpointConfigID}, graph.Resources[model.EndpointID].DependsOn)

	cfg := gpt2Config()
	cfg.ExecutionRoleArn = "arn:aws:iam::123456789012:role/sagemaker"
	graph, err = newTestBuilder(t).Build(cfg)
	require.NoError(t, err)
	assert.Len(t, graph.Resources, 3)
	assert.NotContains(t, graph.Resources, model.ExecutionRoleID)
	assert.Empty(t, graph.Resources[model.ModelID].DependsOn)
	assert.Equal(t, cfg.ExecutionRoleArn, graph.Model.ExecutionRoleArn)
}

func TestBuildWithModelData(t *testing.T) {
	cfg := gpt2Config()
	cfg.S3ModelPath = "s3://my-bucket/finetuned/model.tar.gz"

	graph, err := newTestBuilder(t).Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, "s3://my-bucket/finetuned/model.tar.gz", graph.Container.ModelDataURL)
	assert.Equal(t, cfg.S3ModelPath, graph.Model.Containers[0].ModelDataURL)
}

func TestBuildCustomInstanceType(t *testing.T) {
	cfg := gpt2Config()
	cfg.InstanceType = "ml.g5.12xlarge"

	graph, err := newTestBuilder(t).Build(cfg)
	require.NoError(t, err)
	require.Len(t, graph.EndpointConfig.Variants, 1)
	variant := graph.EndpointConfig.Variants[0]
	assert.Equal(t, "ml.g5.12xlarge", variant.InstanceType)
	assert.Equal(t, 1.0, variant.InitialVariantWeight)
	assert.Equal(t, 1, variant.InitialInstanceCount)
}

func TestBuildDoesNotShareEnvironment(t *testing.T) {
	cfg := gpt2Config()
	graph, err := newTestBuilder(t).Build(cfg)
	require.NoError(t, err)

	graph.Container.Environment["MAX_INPUT_LENGTH"] = "1024"
	_, leaked := cfg.EnvironmentVars["MAX_INPUT_LENGTH"]
	assert.False(t, leaked)
}

func TestRun(t *testing.T) {
	orchestrator := &recordingOrchestrator{}
	b := newTestBuilder(t, "0f1e2d3c4b5a69788796a5b4c3d2e1f0")

	name, err := b.Run(context.Background(), gpt2Config(), orchestrator)
	require.NoError(t, err)
	assert.Equal(t, "tgi-llm-endpoint-0f1e2d3c4b", name)
	assert.True(t, strings.HasSuffix(name, "0f1e2d3c4b"))

	require.Len(t, orchestrator.graphs, 1)
	assert.Equal(t, name, orchestrator.graphs[0].EndpointName())
}

func TestRunValidationFailsBeforeSubmission(t *testing.T) {
	scenarios := map[string]*model.EndpointConfiguration{
		"missing tag": {
			EnvironmentVars: map[string]string{model.HFModelIDKey: "gpt2"},
		},
		"missing model id": {
			Tag:             "2.0.1",
			EnvironmentVars: map[string]string{"SM_NUM_GPUS": "1"},
		},
		"non positive timeout": {
			Tag:                       "2.0.1",
			EnvironmentVars:           map[string]string{model.HFModelIDKey: "gpt2"},
			StartUpHealthCheckSeconds: model.Int(0),
		},
	}

	for name, cfg := range scenarios {
		t.Run(name, func(t *testing.T) {
			orchestrator := &recordingOrchestrator{}
			endpoint, err := newTestBuilder(t).Run(context.Background(), cfg, orchestrator)
			assert.ErrorIs(t, err, normalize.ErrInvalidConfig)
			assert.Empty(t, endpoint)
			assert.Empty(t, orchestrator.graphs)
		})
	}
}

func TestRunPropagatesOrchestratorError(t *testing.T) {
	quota := errors.New("ResourceLimitExceeded: account quota reached")
	orchestrator := &recordingOrchestrator{err: quota}

	endpoint, err := newTestBuilder(t).Run(context.Background(), gpt2Config(), orchestrator)
	assert.Empty(t, endpoint)
	assert.ErrorIs(t, err, quota)

	var submissionErr *SubmissionError
	require.ErrorAs(t, err, &submissionErr)
	assert.Equal(t, quota, submissionErr.Err)
	assert.Len(t, orchestrator.graphs, 1)
}

func TestRunNilOrchestrator(t *testing.T) {
	_, err := newTestBuilder(t).Run(context.Background(), gpt2Config(), nil)
	assert.Error(t, err)
}
