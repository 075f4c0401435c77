package main

import "github.com/spf13/cobra"

const (
	backendCloudFormation = "cloudformation"
	backendSageMaker      = "sagemaker"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Submit the resource graph to an orchestrator",
	Long:  "Build the resource graph and submit it in one call, either as a CloudFormation stack or directly to SageMaker. Without --execute only the graph is shown.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return deployEndpoint(cmd.Context())
	},
}

func registerDeployCommand(root *cobra.Command) {
	root.AddCommand(deployCmd)

	deployCmd.Flags().StringVarP(&configFile, "config", "c", "endpoint.yaml", "Endpoint config file path (yaml/json/hcl)")
	deployCmd.Flags().StringVar(&stackName, "stack-name", "", "CloudFormation stack name (defaults to the config name)")
	deployCmd.Flags().StringVar(&backend, "backend", backendCloudFormation, "Orchestrator backend (cloudformation/sagemaker)")
	deployCmd.Flags().BoolVarP(&execute, "execute", "x", false, "Actually deploy (default is dry-run)")
	deployCmd.Flags().BoolVar(&waitReady, "wait", true, "Wait until the resources are ready")
}
