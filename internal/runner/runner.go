package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/sagemaker"
	"github.com/aws/aws-sdk-go/service/sagemaker/sagemakeriface"
	"github.com/samber/lo"
	"github.com/sourceplane/tgistack/internal/model"
	"github.com/sourceplane/tgistack/internal/planner"
	"go.uber.org/zap"
)

// ErrRoleRequired is returned when a graph relies on a generated role. Only the
// CloudFormation backend can declare one.
var ErrRoleRequired = errors.New("execution_role_arn is required for the sagemaker backend")

// Runner submits a resource graph directly to the SageMaker control plane in dependency order.
type Runner struct {
	Client sagemakeriface.SageMakerAPI
	Stdout io.Writer
	DryRun bool
	Wait   bool
	logger *zap.Logger
}

func NewRunner(client sagemakeriface.SageMakerAPI, stdout io.Writer, dryRun, wait bool, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Client: client,
		Stdout: stdout,
		DryRun: dryRun,
		Wait:   wait,
		logger: logger,
	}
}

// Submit creates every resource of the graph. When a step fails the resources created so far
// are deleted in reverse order and the original error is returned.
func (r *Runner) Submit(ctx context.Context, graph *model.Graph) error {
	if graph == nil {
		return fmt.Errorf("graph cannot be nil")
	}
	if graph.NeedsRole() {
		return ErrRoleRequired
	}

	ordered, err := planner.NewResourceGraph(graph.Resources).Ordered()
	if err != nil {
		return err
	}

	var created []*model.ResourceNode
	for _, node := range ordered {
		fmt.Fprintf(r.Stdout, "→ %s %s (%s)\n", node.LogicalID, node.Name, node.Type)
		if r.DryRun {
			continue
		}

		if err := r.create(ctx, graph, node); err != nil {
			r.rollback(ctx, created)
			return fmt.Errorf("failed to create %s %s: %w", node.Type, node.Name, err)
		}
		created = append(created, node)
		r.logger.Info("created resource", zap.String("type", node.Type), zap.String("name", node.Name))
	}

	if r.DryRun || !r.Wait {
		return nil
	}

	name := graph.EndpointName()
	fmt.Fprintf(r.Stdout, "  waiting for %s to be InService\n", name)
	if err := r.Client.WaitUntilEndpointInServiceWithContext(ctx, &sagemaker.DescribeEndpointInput{
		EndpointName: aws.String(name),
	}); err != nil {
		reason := r.failureReason(ctx, name)
		r.rollback(ctx, created)
		if reason != "" {
			return fmt.Errorf("endpoint %s did not reach InService (%s): %w", name, reason, err)
		}
		return fmt.Errorf("endpoint %s did not reach InService: %w", name, err)
	}
	return nil
}

func (r *Runner) create(ctx context.Context, graph *model.Graph, node *model.ResourceNode) error {
	tags := sagemakerTags(graph.Config.Tags)

	switch node.Type {
	case model.ModelType:
		input := &sagemaker.CreateModelInput{
			ModelName:        aws.String(graph.Model.ModelName),
			ExecutionRoleArn: aws.String(graph.Model.ExecutionRoleArn),
			Tags:             tags,
		}
		for _, container := range graph.Model.Containers {
			def := &sagemaker.ContainerDefinition{
				Image:       aws.String(container.Image),
				Environment: aws.StringMap(container.Environment),
			}
			if container.ModelDataURL != "" {
				def.ModelDataUrl = aws.String(container.ModelDataURL)
			}
			input.Containers = append(input.Containers, def)
		}
		_, err := r.Client.CreateModelWithContext(ctx, input)
		return err

	case model.EndpointConfigType:
		input := &sagemaker.CreateEndpointConfigInput{
			EndpointConfigName: aws.String(graph.EndpointConfig.ConfigName),
			Tags:               tags,
		}
		for _, v := range graph.EndpointConfig.Variants {
			input.ProductionVariants = append(input.ProductionVariants, &sagemaker.ProductionVariant{
				ModelName:            aws.String(v.ModelName),
				VariantName:          aws.String(v.VariantName),
				InitialVariantWeight: aws.Float64(v.InitialVariantWeight),
				InitialInstanceCount: aws.Int64(int64(v.InitialInstanceCount)),
				InstanceType:         aws.String(v.InstanceType),
				ContainerStartupHealthCheckTimeoutInSeconds: aws.Int64(int64(v.ContainerStartupHealthCheckTimeoutInSeconds)),
			})
		}
		_, err := r.Client.CreateEndpointConfigWithContext(ctx, input)
		return err

	case model.EndpointType:
		_, err := r.Client.CreateEndpointWithContext(ctx, &sagemaker.CreateEndpointInput{
			EndpointName:       aws.String(graph.Endpoint.EndpointName),
			EndpointConfigName: aws.String(graph.Endpoint.ConfigName),
			Tags:               tags,
		})
		return err
	}

	return fmt.Errorf("unsupported resource type %s", node.Type)
}

// rollback deletes created resources in reverse creation order. Deletion errors are logged,
// the caller reports the error that triggered the rollback.
func (r *Runner) rollback(ctx context.Context, created []*model.ResourceNode) {
	ctx = context.WithoutCancel(ctx)
	for i := len(created) - 1; i >= 0; i-- {
		node := created[i]
		fmt.Fprintf(r.Stdout, "← rolling back %s %s\n", node.LogicalID, node.Name)

		var err error
		switch node.Type {
		case model.EndpointType:
			_, err = r.Client.DeleteEndpointWithContext(ctx, &sagemaker.DeleteEndpointInput{EndpointName: aws.String(node.Name)})
		case model.EndpointConfigType:
			_, err = r.Client.DeleteEndpointConfigWithContext(ctx, &sagemaker.DeleteEndpointConfigInput{EndpointConfigName: aws.String(node.Name)})
		case model.ModelType:
			_, err = r.Client.DeleteModelWithContext(ctx, &sagemaker.DeleteModelInput{ModelName: aws.String(node.Name)})
		}
		if err != nil {
			r.logger.Warn("failed to roll back resource",
				zap.String("type", node.Type),
				zap.String("name", node.Name),
				zap.Error(err),
			)
		}
	}
}

// EndpointStatus returns the SageMaker status of an endpoint, e.g. InService
func (r *Runner) EndpointStatus(ctx context.Context, endpointName string) (string, error) {
	out, err := r.Client.DescribeEndpointWithContext(ctx, &sagemaker.DescribeEndpointInput{
		EndpointName: aws.String(endpointName),
	})
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("endpoint %s does not exist", endpointName)
		}
		return "", fmt.Errorf("failed to get endpoint status: %w", err)
	}
	return aws.StringValue(out.EndpointStatus), nil
}

func (r *Runner) failureReason(ctx context.Context, endpointName string) string {
	out, err := r.Client.DescribeEndpointWithContext(context.WithoutCancel(ctx), &sagemaker.DescribeEndpointInput{
		EndpointName: aws.String(endpointName),
	})
	if err != nil {
		return ""
	}
	return aws.StringValue(out.FailureReason)
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == "ValidationException" && strings.HasPrefix(aerr.Message(), "Could not find")
	}
	return false
}

func sagemakerTags(tags map[string]string) []*sagemaker.Tag {
	keys := lo.Keys(tags)
	sort.Strings(keys)

	smTags := make([]*sagemaker.Tag, 0, len(keys))
	for _, key := range keys {
		smTags = append(smTags, &sagemaker.Tag{
			Key:   aws.String(key),
			Value: aws.String(tags[key]),
		})
	}
	return smTags
}
