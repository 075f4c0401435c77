package main

import "github.com/spf13/cobra"

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an endpoint configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateConfig()
	},
}

func registerValidateCommand(root *cobra.Command) {
	root.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&configFile, "config", "c", "endpoint.yaml", "Endpoint config file path (yaml/json/hcl)")
}
