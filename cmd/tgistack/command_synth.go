package main

import "github.com/spf13/cobra"

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Build the resource graph and write it as a CloudFormation template",
	RunE: func(cmd *cobra.Command, args []string) error {
		return synthTemplate()
	},
}

func registerSynthCommand(root *cobra.Command) {
	root.AddCommand(synthCmd)

	synthCmd.Flags().StringVarP(&configFile, "config", "c", "endpoint.yaml", "Endpoint config file path (yaml/json/hcl)")
	synthCmd.Flags().StringVarP(&outputFile, "output", "o", "template.json", "Output template path (json/yaml by extension)")
	synthCmd.Flags().StringVarP(&viewGraph, "view", "v", "", "View graph (dag/dependencies)")
}
