package main

import "github.com/spf13/cobra"

var statusCmd = &cobra.Command{
	Use:   "status [endpoint-name]",
	Short: "Show the status of a deployed endpoint",
	Long:  "Show the SageMaker status of an endpoint, given by name or resolved from the EndpointName output of --stack-name.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context(), args)
	},
}

func registerStatusCommand(root *cobra.Command) {
	root.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&stackName, "stack-name", "", "CloudFormation stack name")
}
