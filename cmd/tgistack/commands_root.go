package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configFile string
	outputFile string
	debugMode  bool
	viewGraph  string
	region     string
	stackName  string
	backend    string
	execute    bool
	waitReady  bool
)

var rootCmd = &cobra.Command{
	Use:          "tgistack",
	Short:        "TGI endpoint builder: config → SageMaker resource graph",
	Long:         "tgistack validates an endpoint configuration, assembles the model, endpoint config and endpoint for a Text Generation Inference container and submits them as one unit",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger(debugMode)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "AWS region (overrides the config and AWS_REGION)")

	registerValidateCommand(rootCmd)
	registerSynthCommand(rootCmd)
	registerDeployCommand(rootCmd)
	registerDestroyCommand(rootCmd)
	registerStatusCommand(rootCmd)
	registerDebugCommand(rootCmd)
}

// setupLogger installs the global logger. Without --debug only warnings reach stderr so
// they do not interleave with progress output.
func setupLogger(debug bool) error {
	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		config.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		logger, err = config.Build(
			zap.AddCaller(),
			zap.AddStacktrace(zap.ErrorLevel),
		)
	}
	if err != nil {
		return fmt.Errorf("failed to construct logger: %w", err)
	}
	_ = zap.ReplaceGlobals(logger)
	return nil
}
