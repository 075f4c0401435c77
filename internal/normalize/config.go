package normalize

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/sourceplane/tgistack/internal/model"
)

// ErrInvalidConfig marks a configuration that must be fixed by the caller
var ErrInvalidConfig = errors.New("invalid endpoint configuration")

// SageMaker resource names are limited to 63 characters; the longest derived name is
// "<name>-endpoint-<suffix>".
const maxNameLength = 63 - len("-endpoint-") - model.DefaultSuffixLength

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9](-*[a-zA-Z0-9])*$`)

// ManagedByTag is attached to every resource unless the caller overrides it
const ManagedByTag = "managed-by"

// NormalizeConfig validates required fields and transforms raw configuration into canonical form
func NormalizeConfig(cfg *model.EndpointConfiguration) (*model.NormalizedConfig, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
	}

	if strings.TrimSpace(cfg.Tag) == "" {
		return nil, fmt.Errorf("%w: tag is required", ErrInvalidConfig)
	}
	if len(cfg.EnvironmentVars) == 0 {
		return nil, fmt.Errorf("%w: environment_vars is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.EnvironmentVars[model.HFModelIDKey]) == "" {
		return nil, fmt.Errorf("%w: environment_vars.%s is required", ErrInvalidConfig, model.HFModelIDKey)
	}

	normalized := &model.NormalizedConfig{
		Name:                      defaultString(cfg.Name, model.DefaultName),
		InstanceType:              defaultString(cfg.InstanceType, model.DefaultInstanceType),
		EnvironmentVars:           lo.Assign(cfg.EnvironmentVars),
		S3ModelPath:               cfg.S3ModelPath,
		Tag:                       cfg.Tag,
		StartUpHealthCheckSeconds: model.DefaultStartUpHealthCheckSeconds,
		RepoName:                  defaultString(cfg.RepoName, model.DefaultRepoName),
		Region:                    defaultString(cfg.Region, defaultString(os.Getenv("AWS_REGION"), model.DefaultRegion)),
		ExecutionRoleArn:          cfg.ExecutionRoleArn,
		Tags:                      lo.Assign(map[string]string{ManagedByTag: "tgistack"}, cfg.Tags),
	}

	if cfg.StartUpHealthCheckSeconds != nil {
		timeout := *cfg.StartUpHealthCheckSeconds
		if timeout <= 0 {
			return nil, fmt.Errorf("%w: start_up_health_check_seconds must be positive, got %d", ErrInvalidConfig, timeout)
		}
		if timeout > model.MaxStartUpHealthCheckSeconds {
			return nil, fmt.Errorf("%w: start_up_health_check_seconds must be at most %d, got %d",
				ErrInvalidConfig, model.MaxStartUpHealthCheckSeconds, timeout)
		}
		normalized.StartUpHealthCheckSeconds = timeout
	}

	if !namePattern.MatchString(normalized.Name) {
		return nil, fmt.Errorf("%w: name %q may only contain alphanumerics and hyphens", ErrInvalidConfig, normalized.Name)
	}
	if len(normalized.Name) > maxNameLength {
		return nil, fmt.Errorf("%w: name %q is longer than %d characters", ErrInvalidConfig, normalized.Name, maxNameLength)
	}

	if !strings.HasPrefix(normalized.InstanceType, "ml.") {
		return nil, fmt.Errorf("%w: instance_type %q is not a SageMaker instance type", ErrInvalidConfig, normalized.InstanceType)
	}

	if normalized.S3ModelPath != "" && !isS3Path(normalized.S3ModelPath) {
		return nil, fmt.Errorf("%w: s3_model_path %q must be an s3:// location", ErrInvalidConfig, normalized.S3ModelPath)
	}

	return normalized, nil
}

func isS3Path(path string) bool {
	rest := strings.TrimPrefix(path, "s3://")
	return rest != path && rest != "" && !strings.HasPrefix(rest, "/")
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
