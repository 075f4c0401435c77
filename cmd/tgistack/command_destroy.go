package main

import "github.com/spf13/cobra"

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Delete a deployed stack and its resources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return destroyStack(cmd.Context())
	},
}

func registerDestroyCommand(root *cobra.Command) {
	root.AddCommand(destroyCmd)

	destroyCmd.Flags().StringVar(&stackName, "stack-name", "", "CloudFormation stack name")
	destroyCmd.Flags().BoolVarP(&execute, "execute", "x", false, "Actually delete (default is dry-run)")
	destroyCmd.Flags().BoolVar(&waitReady, "wait", true, "Wait until the stack is deleted")
	destroyCmd.MarkFlagRequired("stack-name")
}
