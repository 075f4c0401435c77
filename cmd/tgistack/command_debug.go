package main

import "github.com/spf13/cobra"

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Debug config processing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return debugConfig()
	},
}

func registerDebugCommand(root *cobra.Command) {
	root.AddCommand(debugCmd)

	debugCmd.Flags().StringVarP(&configFile, "config", "c", "endpoint.yaml", "Endpoint config file path (yaml/json/hcl)")
}
