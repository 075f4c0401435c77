package render

import (
	"strings"
	"testing"

	"github.com/sourceplane/tgistack/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestViewDAG(t *testing.T) {
	graph := buildGraph(t, func(cfg *model.EndpointConfiguration) {
		cfg.S3ModelPath = "s3://bucket/model.tar.gz"
	})

	view := NewGraphViewer(graph).ViewDAG()

	roleIdx := strings.Index(view, model.ExecutionRoleID)
	modelIdx := strings.Index(view, "TgiModel [")
	configIdx := strings.Index(view, model.EndpointConfigID)
	endpointIdx := strings.Index(view, "TgiEndpoint [")
	assert.True(t, roleIdx < modelIdx && modelIdx < configIdx && configIdx < endpointIdx, view)

	assert.Contains(t, view, "model data s3://bucket/model.tar.gz")
	assert.Contains(t, view, "env HF_MODEL_ID=gpt2")
	assert.Contains(t, view, "variant primary: ml.g5.2xlarge x1 weight 1.0 health-check 300s")
	assert.Contains(t, view, "Summary: 4 resources, output EndpointName=tgi-llm-endpoint-aaaaabbbbb")
}

func TestViewDependencies(t *testing.T) {
	view := NewGraphViewer(buildGraph(t, nil)).ViewDependencies()
	assert.Contains(t, view, "TgiModelRole (AWS::IAM::Role)\n   (no dependencies)")
	assert.Contains(t, view, "(depends on) TgiEndpointConfig")
}

func TestViewEmptyGraph(t *testing.T) {
	assert.Equal(t, "No resources in graph", NewGraphViewer(&model.Graph{}).ViewDAG())
	assert.Equal(t, "No resources in graph", NewGraphViewer(nil).ViewDependencies())
}
