package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/aws/aws-sdk-go/service/cloudformation"
	"github.com/aws/aws-sdk-go/service/sagemaker"
	"github.com/samber/lo"
	"github.com/sourceplane/tgistack/internal/loader"
	"github.com/sourceplane/tgistack/internal/model"
	"github.com/sourceplane/tgistack/internal/normalize"
	"github.com/sourceplane/tgistack/internal/planner"
	"github.com/sourceplane/tgistack/internal/render"
	"github.com/sourceplane/tgistack/internal/runner"
	"github.com/sourceplane/tgistack/internal/stack"
	"go.uber.org/zap"
)

// previewOrchestrator prints the graph instead of provisioning it
type previewOrchestrator struct {
	out io.Writer
}

func (p previewOrchestrator) Submit(_ context.Context, graph *model.Graph) error {
	fmt.Fprintln(p.out, "\n"+render.NewGraphViewer(graph).ViewDAG())
	return nil
}

func loadConfig() (*model.EndpointConfiguration, error) {
	fmt.Println("□ Loading config...")
	cfg, err := loader.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if region != "" {
		cfg.Region = region
	}
	return cfg, nil
}

// resolveRegion picks the region for commands that run without a config file
func resolveRegion() string {
	if region != "" {
		return region
	}
	if env := os.Getenv("AWS_REGION"); env != "" {
		return env
	}
	return model.DefaultRegion
}

func newBuilder() *planner.Builder {
	return planner.NewBuilder(planner.WithLogger(zap.L()))
}

func validateConfig() error {
	fmt.Println("□ Validating config against schema...")
	cfg, err := loader.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("✓ Config matches schema")

	fmt.Println("□ Normalizing config...")
	normalized, err := normalize.NormalizeConfig(cfg)
	if err != nil {
		return fmt.Errorf("normalization failed: %w", err)
	}

	fmt.Printf("✓ All validation passed (%s on %s)\n", normalized.ModelID(), normalized.InstanceType)
	return nil
}

func synthTemplate() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println("□ Building resource graph...")
	graph, err := newBuilder().Build(cfg)
	if err != nil {
		return fmt.Errorf("failed to build resource graph: %w", err)
	}

	fmt.Println("□ Rendering template...")
	renderer := render.NewRenderer()
	tmpl, err := renderer.RenderTemplate(graph)
	if err != nil {
		return err
	}

	if debugMode {
		fmt.Println("\n" + renderer.DebugDump(graph))
	}

	if err := renderer.WriteTemplate(tmpl, outputFile); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}

	fmt.Printf("✓ Template generated with %d resources\n", len(tmpl.Resources))
	fmt.Printf("✓ Endpoint: %s\n", graph.EndpointName())
	fmt.Printf("✓ Saved to: %s\n", outputFile)

	if viewGraph != "" {
		viewer := render.NewGraphViewer(graph)
		var output string

		switch viewGraph {
		case "dependencies":
			output = viewer.ViewDependencies()
		default:
			output = viewer.ViewDAG()
		}

		fmt.Println("\n" + output)
	}

	return nil
}

func deployEndpoint(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dryRun := !execute
	if dryRun {
		fmt.Println("□ Dry-run mode enabled. Use --execute to deploy.")
	}

	orchestrator, describe, err := newOrchestrator(cfg, dryRun)
	if err != nil {
		return err
	}

	fmt.Printf("□ Submitting resource graph (%s)...\n", backend)
	endpointName, err := newBuilder().Run(ctx, cfg, orchestrator)
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Println("✓ Dry-run complete")
		return nil
	}

	fmt.Printf("✓ Deployed endpoint: %s\n", endpointName)
	if describe != nil {
		return describe(ctx)
	}
	return nil
}

// newOrchestrator selects the backend. The returned func, if any, prints what was deployed.
func newOrchestrator(cfg *model.EndpointConfiguration, dryRun bool) (planner.Orchestrator, func(context.Context) error, error) {
	awsRegion := lo.Ternary(cfg.Region != "", cfg.Region, resolveRegion())

	switch backend {
	case backendCloudFormation:
		if dryRun {
			return previewOrchestrator{out: os.Stdout}, nil, nil
		}
		name := stackName
		if name == "" {
			name = lo.Ternary(cfg.Name != "", cfg.Name, model.DefaultName)
		}
		sess, err := stack.NewSession(awsRegion)
		if err != nil {
			return nil, nil, err
		}
		s := stack.New(name, cloudformation.New(sess), stack.WithWait(waitReady), stack.WithLogger(zap.L()))
		return s, func(ctx context.Context) error {
			if !waitReady {
				fmt.Printf("✓ Stack %s submitted\n", name)
				return nil
			}
			outputs, err := s.Outputs(ctx)
			if err != nil {
				return err
			}
			printOutputs(name, outputs)
			return nil
		}, nil

	case backendSageMaker:
		var client *sagemaker.SageMaker
		if !dryRun {
			sess, err := stack.NewSession(awsRegion)
			if err != nil {
				return nil, nil, err
			}
			client = sagemaker.New(sess)
		}
		return runner.NewRunner(client, os.Stdout, dryRun, waitReady, zap.L()), nil, nil
	}

	return nil, nil, fmt.Errorf("unknown backend %q (expected %s or %s)", backend, backendCloudFormation, backendSageMaker)
}

func printOutputs(name string, outputs map[string]string) {
	fmt.Printf("✓ Stack %s outputs:\n", name)
	keys := lo.Keys(outputs)
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("  %s = %s\n", key, outputs[key])
	}
}

func destroyStack(ctx context.Context) error {
	sess, err := stack.NewSession(resolveRegion())
	if err != nil {
		return err
	}
	s := stack.New(stackName, cloudformation.New(sess), stack.WithWait(waitReady), stack.WithLogger(zap.L()))

	fmt.Printf("□ Looking up stack %s...\n", stackName)
	outputs, err := s.Outputs(ctx)
	if err != nil {
		return err
	}

	if !execute {
		fmt.Println("□ Dry-run mode enabled. Use --execute to delete.")
		fmt.Printf("  would delete stack %s (endpoint %s)\n", stackName, outputs[model.EndpointNameOutput])
		fmt.Println("✓ Dry-run complete")
		return nil
	}

	fmt.Printf("□ Deleting stack %s...\n", stackName)
	if err := s.Destroy(ctx); err != nil {
		return err
	}

	fmt.Printf("✓ Stack %s deleted\n", stackName)
	return nil
}

func showStatus(ctx context.Context, args []string) error {
	sess, err := stack.NewSession(resolveRegion())
	if err != nil {
		return err
	}

	var endpointName string
	switch {
	case len(args) == 1:
		endpointName = args[0]
	case stackName != "":
		s := stack.New(stackName, cloudformation.New(sess), stack.WithLogger(zap.L()))
		status, err := s.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Stack %s: %s\n", stackName, status)

		outputs, err := s.Outputs(ctx)
		if err != nil {
			return err
		}
		endpointName = outputs[model.EndpointNameOutput]
		if endpointName == "" {
			return fmt.Errorf("stack %s has no %s output", stackName, model.EndpointNameOutput)
		}
	default:
		return fmt.Errorf("an endpoint name or --stack-name is required")
	}

	r := runner.NewRunner(sagemaker.New(sess), os.Stdout, false, false, zap.L())
	status, err := r.EndpointStatus(ctx, endpointName)
	if err != nil {
		return err
	}
	fmt.Printf("Endpoint %s: %s\n", endpointName, status)
	return nil
}

func debugConfig() error {
	fmt.Println("□ Loading and normalizing...")
	cfg, err := loader.LoadConfig(configFile)
	if err != nil {
		return err
	}

	normalized, err := normalize.NormalizeConfig(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("\nName: %s\n", normalized.Name)
	fmt.Printf("Model: %s\n", normalized.ModelID())
	fmt.Printf("Instance: %s (health check %ds)\n", normalized.InstanceType, normalized.StartUpHealthCheckSeconds)
	fmt.Printf("Image: %s\n", planner.ImageURI(normalized.RepoName, normalized.Tag, normalized.Region))
	if normalized.S3ModelPath != "" {
		fmt.Printf("Model data: %s\n", normalized.S3ModelPath)
	}
	fmt.Printf("Execution role: %s\n", lo.Ternary(normalized.ExecutionRoleArn != "", normalized.ExecutionRoleArn, "(generated)"))

	keys := lo.Keys(normalized.EnvironmentVars)
	sort.Strings(keys)
	fmt.Printf("Environment: %d\n", len(keys))
	for _, k := range keys {
		fmt.Printf("  - %s=%s\n", k, normalized.EnvironmentVars[k])
	}

	graph, err := newBuilder().Build(cfg)
	if err != nil {
		return err
	}
	fmt.Println("\n" + render.NewRenderer().DebugDump(graph))

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
