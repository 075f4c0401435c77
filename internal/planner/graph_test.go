package planner

import (
	"testing"

	"github.com/sourceplane/tgistack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, deps ...string) *model.ResourceNode {
	return &model.ResourceNode{LogicalID: id, DependsOn: deps}
}

func TestTopologicalSort(t *testing.T) {
	g := NewResourceGraph(map[string]*model.ResourceNode{
		model.EndpointID:       node(model.EndpointID, model.EndpointConfigID),
		model.EndpointConfigID: node(model.EndpointConfigID, model.ModelID),
		model.ModelID:          node(model.ModelID, model.ExecutionRoleID),
		model.ExecutionRoleID:  node(model.ExecutionRoleID),
	})

	require.NoError(t, g.DetectCycles())
	sorted, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{model.ExecutionRoleID, model.ModelID, model.EndpointConfigID, model.EndpointID}, sorted)

	ordered, err := g.Ordered()
	require.NoError(t, err)
	require.Len(t, ordered, 4)
	assert.Equal(t, model.EndpointID, ordered[3].LogicalID)
}

func TestTopologicalSortBreaksTiesByID(t *testing.T) {
	g := NewResourceGraph(map[string]*model.ResourceNode{
		"c": node("c", "a", "b"),
		"b": node("b"),
		"a": node("a"),
	})
	sorted, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, sorted)
}

func TestDetectCycles(t *testing.T) {
	g := NewResourceGraph(map[string]*model.ResourceNode{
		"a": node("a", "b"),
		"b": node("b", "c"),
		"c": node("c", "a"),
	})
	assert.Error(t, g.DetectCycles())

	_, err := g.TopologicalSort()
	assert.Error(t, err)
}

func TestTopologicalSortUnknownDependency(t *testing.T) {
	g := NewResourceGraph(map[string]*model.ResourceNode{
		"a": node("a", "ghost"),
	})
	_, err := g.TopologicalSort()
	assert.Error(t, err)
}

func TestBuiltGraphIsOrdered(t *testing.T) {
	graph, err := newTestBuilder(t).Build(gpt2Config())
	require.NoError(t, err)

	sorted, err := NewResourceGraph(graph.Resources).TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{model.ExecutionRoleID, model.ModelID, model.EndpointConfigID, model.EndpointID}, sorted)
}
