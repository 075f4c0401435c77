package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
	"github.com/sourceplane/tgistack/internal/model"
	"github.com/sourceplane/tgistack/internal/planner"
	"gopkg.in/yaml.v3"
)

const sagemakerFullAccessPolicy = "arn:${AWS::Partition}:iam::aws:policy/AmazonSageMakerFullAccess"

// Renderer materializes a resource graph into a CloudFormation template
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderTemplate creates a template declaring every resource of the graph and its output
func (r *Renderer) RenderTemplate(graph *model.Graph) (*model.Template, error) {
	if graph == nil || graph.Model == nil || graph.EndpointConfig == nil || graph.Endpoint == nil {
		return nil, fmt.Errorf("%w: graph is incomplete", planner.ErrMissingNode)
	}

	tmpl := &model.Template{
		AWSTemplateFormatVersion: model.TemplateFormatVersion,
		Description:              fmt.Sprintf("TGI endpoint %s serving %s", graph.Endpoint.EndpointName, graph.Config.ModelID()),
		Resources:                make(map[string]model.TemplateResource),
		Outputs: map[string]model.TemplateOutput{
			model.EndpointNameOutput: {
				Description: "Name of the SageMaker endpoint",
				Value:       model.GetAtt(model.EndpointID, "EndpointName"),
			},
		},
	}
	tags := r.renderTags(graph.Config.Tags)

	if graph.NeedsRole() {
		tmpl.Resources[model.ExecutionRoleID] = model.TemplateResource{
			Type:      model.RoleType,
			DependsOn: r.dependsOn(graph, model.ExecutionRoleID),
			Properties: map[string]interface{}{
				"AssumeRolePolicyDocument": map[string]interface{}{
					"Version": "2012-10-17",
					"Statement": []interface{}{
						map[string]interface{}{
							"Effect":    "Allow",
							"Principal": map[string]interface{}{"Service": "sagemaker.amazonaws.com"},
							"Action":    "sts:AssumeRole",
						},
					},
				},
				"ManagedPolicyArns": []interface{}{
					map[string]interface{}{"Fn::Sub": sagemakerFullAccessPolicy},
				},
				"Tags": tags,
			},
		}
	}

	var executionRole interface{} = graph.Model.ExecutionRoleArn
	if graph.NeedsRole() {
		executionRole = model.GetAtt(model.ExecutionRoleID, "Arn")
	}
	tmpl.Resources[model.ModelID] = model.TemplateResource{
		Type:      model.ModelType,
		DependsOn: r.dependsOn(graph, model.ModelID),
		Properties: map[string]interface{}{
			"ModelName":        graph.Model.ModelName,
			"ExecutionRoleArn": executionRole,
			"Containers":       r.renderContainers(graph.Model.Containers),
			"Tags":             tags,
		},
	}

	tmpl.Resources[model.EndpointConfigID] = model.TemplateResource{
		Type:      model.EndpointConfigType,
		DependsOn: r.dependsOn(graph, model.EndpointConfigID),
		Properties: map[string]interface{}{
			"EndpointConfigName": graph.EndpointConfig.ConfigName,
			"ProductionVariants": r.renderVariants(graph.EndpointConfig.Variants),
			"Tags":               tags,
		},
	}

	tmpl.Resources[model.EndpointID] = model.TemplateResource{
		Type:      model.EndpointType,
		DependsOn: r.dependsOn(graph, model.EndpointID),
		Properties: map[string]interface{}{
			"EndpointName":       graph.Endpoint.EndpointName,
			"EndpointConfigName": model.GetAtt(model.EndpointConfigID, "EndpointConfigName"),
			"Tags":               tags,
		},
	}

	return tmpl, nil
}

func (r *Renderer) renderContainers(containers []model.ContainerNode) []interface{} {
	rendered := make([]interface{}, 0, len(containers))
	for _, container := range containers {
		props := map[string]interface{}{
			"Image":       container.Image,
			"Environment": container.Environment,
		}
		if container.ModelDataURL != "" {
			props["ModelDataUrl"] = container.ModelDataURL
		}
		rendered = append(rendered, props)
	}
	return rendered
}

// renderVariants references the model through Fn::GetAtt so the orchestrator sees the edge
func (r *Renderer) renderVariants(variants []model.ProductionVariant) []interface{} {
	rendered := make([]interface{}, 0, len(variants))
	for _, variant := range variants {
		rendered = append(rendered, map[string]interface{}{
			"ModelName":            model.GetAtt(model.ModelID, "ModelName"),
			"VariantName":          variant.VariantName,
			"InitialVariantWeight": variant.InitialVariantWeight,
			"InitialInstanceCount": variant.InitialInstanceCount,
			"InstanceType":         variant.InstanceType,
			"ContainerStartupHealthCheckTimeoutInSeconds": variant.ContainerStartupHealthCheckTimeoutInSeconds,
		})
	}
	return rendered
}

func (r *Renderer) renderTags(tags map[string]string) []interface{} {
	keys := lo.Keys(tags)
	sort.Strings(keys)
	rendered := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		rendered = append(rendered, map[string]interface{}{"Key": key, "Value": tags[key]})
	}
	return rendered
}

func (r *Renderer) dependsOn(graph *model.Graph, logicalID string) []string {
	node, ok := graph.Resources[logicalID]
	if !ok || len(node.DependsOn) == 0 {
		return nil
	}
	deps := append([]string(nil), node.DependsOn...)
	sort.Strings(deps)
	return deps
}

// RenderJSON renders a template as JSON
func (r *Renderer) RenderJSON(tmpl *model.Template) ([]byte, error) {
	return json.MarshalIndent(tmpl, "", "  ")
}

// RenderYAML renders a template as YAML
func (r *Renderer) RenderYAML(tmpl *model.Template) ([]byte, error) {
	return yaml.Marshal(tmpl)
}

// WriteTemplate writes a template to file (JSON or YAML based on extension)
func (r *Renderer) WriteTemplate(tmpl *model.Template, path string) error {
	var data []byte
	var err error

	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err = r.RenderYAML(tmpl)
	default:
		data, err = r.RenderJSON(tmpl)
	}
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write template to %s: %w", path, err)
	}

	return nil
}

// DebugDump outputs debug information about the graph
func (r *Renderer) DebugDump(graph *model.Graph) string {
	output := fmt.Sprintf("Graph: %s (suffix %s)\n", graph.Identity.Base, graph.Identity.Suffix)
	output += fmt.Sprintf("Resources: %d\n\n", len(graph.Resources))

	ids := lo.Keys(graph.Resources)
	sort.Strings(ids)
	for _, id := range ids {
		node := graph.Resources[id]
		output += fmt.Sprintf("Resource: %s\n", id)
		output += fmt.Sprintf("  Type: %s\n", node.Type)
		if node.Name != "" {
			output += fmt.Sprintf("  Name: %s\n", node.Name)
		}
		output += fmt.Sprintf("  DependsOn: %v\n", node.DependsOn)
		output += "\n"
	}

	return output
}
