package main

import (
	"github.com/spf13/cobra"
)

var forgetReason string

var forgetCmd = &cobra.Command{
	Use:   "forget <bullet-id>",
	Short: "Explicitly deprecate a bullet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := buildEngine()
		if err != nil {
			printError(err)
			return nil
		}
		b, err := e.Forget(args[0], forgetReason)
		printResult(b, err)
		return nil
	},
}

func init() {
	forgetCmd.Flags().StringVar(&forgetReason, "reason", "", "Why this bullet is being deprecated (required)")
	rootCmd.AddCommand(forgetCmd)
}
