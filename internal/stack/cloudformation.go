package stack

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudformation"
	"github.com/aws/aws-sdk-go/service/cloudformation/cloudformationiface"
	"github.com/samber/lo"
	"github.com/sourceplane/tgistack/internal/model"
	"github.com/sourceplane/tgistack/internal/render"
	"go.uber.org/zap"
)

const noUpdatesMessage = "No updates are to be performed"

// ErrStackNotFound is returned when an operation needs a stack that does not exist
var ErrStackNotFound = errors.New("stack not found")

// NewSession opens an AWS session for region using the default credential chain
func NewSession(region string) (*session.Session, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:                        aws.String(region),
		CredentialsChainVerboseErrors: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return sess, nil
}

// Stack submits resource graphs as a single CloudFormation stack. CloudFormation creates
// the resources in dependency order and rolls them back together on failure.
type Stack struct {
	Name     string
	Client   cloudformationiface.CloudFormationAPI
	Wait     bool
	renderer *render.Renderer
	logger   *zap.Logger
}

// Option configures a Stack
type Option func(*Stack)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Stack) {
		s.logger = logger
	}
}

// WithWait controls whether Submit and Destroy block until the stack settles
func WithWait(wait bool) Option {
	return func(s *Stack) {
		s.Wait = wait
	}
}

// New creates a stack handle. Nothing is called until Submit.
func New(name string, client cloudformationiface.CloudFormationAPI, opts ...Option) *Stack {
	s := &Stack{
		Name:     name,
		Client:   client,
		Wait:     true,
		renderer: render.NewRenderer(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit renders the graph and creates the stack, or updates it when it already exists
func (s *Stack) Submit(ctx context.Context, graph *model.Graph) error {
	tmpl, err := s.renderer.RenderTemplate(graph)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	body, err := s.renderer.RenderJSON(tmpl)
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}

	current, err := s.describe(ctx)
	if err != nil {
		return err
	}

	if current == nil {
		return s.create(ctx, string(body), graph.Config.Tags)
	}

	if aws.StringValue(current.StackStatus) == cloudformation.StackStatusRollbackComplete {
		return fmt.Errorf("stack %s is in %s and cannot be updated, destroy it first",
			s.Name, cloudformation.StackStatusRollbackComplete)
	}
	return s.update(ctx, string(body), graph.Config.Tags)
}

func (s *Stack) create(ctx context.Context, body string, tags map[string]string) error {
	s.logger.Info("creating stack", zap.String("stack", s.Name))
	_, err := s.Client.CreateStackWithContext(ctx, &cloudformation.CreateStackInput{
		StackName:    aws.String(s.Name),
		TemplateBody: aws.String(body),
		Capabilities: aws.StringSlice([]string{cloudformation.CapabilityCapabilityIam}),
		OnFailure:    aws.String(cloudformation.OnFailureRollback),
		Tags:         stackTags(tags),
	})
	if err != nil {
		return fmt.Errorf("failed to create stack %s: %w", s.Name, err)
	}
	if !s.Wait {
		return nil
	}

	if err := s.Client.WaitUntilStackCreateCompleteWithContext(ctx, s.describeInput()); err != nil {
		return s.waitError("create", err)
	}
	s.logger.Info("stack created", zap.String("stack", s.Name))
	return nil
}

func (s *Stack) update(ctx context.Context, body string, tags map[string]string) error {
	s.logger.Info("updating stack", zap.String("stack", s.Name))
	_, err := s.Client.UpdateStackWithContext(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(s.Name),
		TemplateBody: aws.String(body),
		Capabilities: aws.StringSlice([]string{cloudformation.CapabilityCapabilityIam}),
		Tags:         stackTags(tags),
	})
	if err != nil {
		if isNoUpdates(err) {
			s.logger.Info("stack is up to date", zap.String("stack", s.Name))
			return nil
		}
		return fmt.Errorf("failed to update stack %s: %w", s.Name, err)
	}
	if !s.Wait {
		return nil
	}

	if err := s.Client.WaitUntilStackUpdateCompleteWithContext(ctx, s.describeInput()); err != nil {
		return s.waitError("update", err)
	}
	s.logger.Info("stack updated", zap.String("stack", s.Name))
	return nil
}

// Exists reports whether the stack is present
func (s *Stack) Exists(ctx context.Context) (bool, error) {
	current, err := s.describe(ctx)
	if err != nil {
		return false, err
	}
	return current != nil, nil
}

// Outputs returns the stack outputs by key
func (s *Stack) Outputs(ctx context.Context) (map[string]string, error) {
	current, err := s.describe(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s", ErrStackNotFound, s.Name)
	}

	outputs := make(map[string]string, len(current.Outputs))
	for _, output := range current.Outputs {
		outputs[aws.StringValue(output.OutputKey)] = aws.StringValue(output.OutputValue)
	}
	return outputs, nil
}

// Status returns the stack status, e.g. CREATE_COMPLETE
func (s *Stack) Status(ctx context.Context) (string, error) {
	current, err := s.describe(ctx)
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", fmt.Errorf("%w: %s", ErrStackNotFound, s.Name)
	}
	return aws.StringValue(current.StackStatus), nil
}

// Destroy deletes the stack and every resource it owns
func (s *Stack) Destroy(ctx context.Context) error {
	exists, err := s.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrStackNotFound, s.Name)
	}

	s.logger.Info("deleting stack", zap.String("stack", s.Name))
	if _, err := s.Client.DeleteStackWithContext(ctx, &cloudformation.DeleteStackInput{
		StackName: aws.String(s.Name),
	}); err != nil {
		return fmt.Errorf("failed to delete stack %s: %w", s.Name, err)
	}
	if !s.Wait {
		return nil
	}

	if err := s.Client.WaitUntilStackDeleteCompleteWithContext(ctx, s.describeInput()); err != nil {
		return fmt.Errorf("failed waiting for stack %s deletion: %w", s.Name, err)
	}
	return nil
}

func (s *Stack) describe(ctx context.Context) (*cloudformation.Stack, error) {
	out, err := s.Client.DescribeStacksWithContext(ctx, s.describeInput())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe stack %s: %w", s.Name, err)
	}
	if len(out.Stacks) == 0 {
		return nil, nil
	}
	return out.Stacks[0], nil
}

func (s *Stack) describeInput() *cloudformation.DescribeStacksInput {
	return &cloudformation.DescribeStacksInput{StackName: aws.String(s.Name)}
}

// waitError attaches the final status reason to a failed wait
func (s *Stack) waitError(action string, err error) error {
	current, describeErr := s.describe(context.Background())
	if describeErr != nil || current == nil {
		return fmt.Errorf("stack %s failed to %s: %w", s.Name, action, err)
	}
	return fmt.Errorf("stack %s failed to %s (%s: %s): %w", s.Name, action,
		aws.StringValue(current.StackStatus), aws.StringValue(current.StackStatusReason), err)
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == "ValidationError" && strings.Contains(aerr.Message(), "does not exist")
	}
	return false
}

func isNoUpdates(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == "ValidationError" && strings.Contains(aerr.Message(), noUpdatesMessage)
	}
	return false
}

func stackTags(tags map[string]string) []*cloudformation.Tag {
	keys := lo.Keys(tags)
	sort.Strings(keys)

	cfnTags := make([]*cloudformation.Tag, 0, len(keys))
	for _, key := range keys {
		cfnTags = append(cfnTags, &cloudformation.Tag{
			Key:   aws.String(key),
			Value: aws.String(tags[key]),
		})
	}
	return cfnTags
}
