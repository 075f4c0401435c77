package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sourceplane/tgistack/internal/model"
	"github.com/sourceplane/tgistack/internal/planner"
)

// GraphViewer provides human-readable visualization of a resource graph
type GraphViewer struct {
	graph *model.Graph
}

// NewGraphViewer creates a new graph viewer
func NewGraphViewer(graph *model.Graph) *GraphViewer {
	return &GraphViewer{graph: graph}
}

// ViewDAG returns a tree view of the resources in submission order
func (gv *GraphViewer) ViewDAG() string {
	if gv.graph == nil || len(gv.graph.Resources) == 0 {
		return "No resources in graph"
	}

	ordered, err := planner.NewResourceGraph(gv.graph.Resources).Ordered()
	if err != nil {
		return fmt.Sprintf("Invalid graph: %v", err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s [%s]\n", gv.graph.Identity.Base, gv.graph.Identity.Suffix))

	for i, node := range ordered {
		isLast := i == len(ordered)-1
		prefix := "├─ "
		connector := "│  "
		if isLast {
			prefix = "└─ "
			connector = "   "
		}

		line := fmt.Sprintf("%s%s [%s]", prefix, node.LogicalID, node.Type)
		if node.Name != "" {
			line += fmt.Sprintf(" %s", node.Name)
		}
		sb.WriteString(line + "\n")

		details := gv.details(node.LogicalID)
		deps := append([]string(nil), node.DependsOn...)
		sort.Strings(deps)
		for _, dep := range deps {
			details = append(details, fmt.Sprintf("(depends on) %s", dep))
		}
		for j, detail := range details {
			detailPrefix := connector + "├─ "
			if j == len(details)-1 {
				detailPrefix = connector + "└─ "
			}
			sb.WriteString(detailPrefix + detail + "\n")
		}
	}

	sb.WriteString("═══════════════════════════════════════════════════════════\n")
	sb.WriteString(fmt.Sprintf("Summary: %d resources, output %s=%s\n",
		len(ordered), model.EndpointNameOutput, gv.graph.EndpointName()))

	return sb.String()
}

// ViewDependencies shows resource dependencies in a focused way
func (gv *GraphViewer) ViewDependencies() string {
	if gv.graph == nil || len(gv.graph.Resources) == 0 {
		return "No resources in graph"
	}

	var sb strings.Builder
	sb.WriteString("Resource Dependencies\n")
	sb.WriteString("═══════════════════════════════════════════════════════════\n\n")

	ids := make([]string, 0, len(gv.graph.Resources))
	for id := range gv.graph.Resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for i, id := range ids {
		node := gv.graph.Resources[id]
		prefix := "├─ "
		if i == len(ids)-1 {
			prefix = "└─ "
		}
		sb.WriteString(fmt.Sprintf("%s%s (%s)\n", prefix, id, node.Type))

		if len(node.DependsOn) == 0 {
			sb.WriteString("   (no dependencies)\n")
		} else {
			for j, dep := range node.DependsOn {
				depPrefix := "  ├─ "
				if j == len(node.DependsOn)-1 {
					depPrefix = "  └─ "
				}
				sb.WriteString(fmt.Sprintf("%s(depends on) %s\n", depPrefix, dep))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (gv *GraphViewer) details(logicalID string) []string {
	g := gv.graph
	switch logicalID {
	case model.ModelID:
		if g.Container == nil {
			return nil
		}
		details := []string{fmt.Sprintf("image %s", g.Container.Image)}
		if g.Container.ModelDataURL != "" {
			details = append(details, fmt.Sprintf("model data %s", g.Container.ModelDataURL))
		}
		keys := make([]string, 0, len(g.Container.Environment))
		for k := range g.Container.Environment {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			details = append(details, fmt.Sprintf("env %s=%s", k, g.Container.Environment[k]))
		}
		return details
	case model.EndpointConfigID:
		if g.EndpointConfig == nil {
			return nil
		}
		details := make([]string, 0, len(g.EndpointConfig.Variants))
		for _, v := range g.EndpointConfig.Variants {
			details = append(details, fmt.Sprintf("variant %s: %s x%d weight %.1f health-check %ds",
				v.VariantName, v.InstanceType, v.InitialInstanceCount, v.InitialVariantWeight,
				v.ContainerStartupHealthCheckTimeoutInSeconds))
		}
		return details
	}
	return nil
}
