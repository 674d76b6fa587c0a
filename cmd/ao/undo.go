package main

import (
	"github.com/spf13/cobra"
)

var undoCmd = &cobra.Command{
	Use:   "undo <bullet-id>",
	Short: "Un-deprecate a bullet, or undo its last feedback event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := buildEngine()
		if err != nil {
			printError(err)
			return nil
		}
		b, err := e.Undo(args[0])
		printResult(b, err)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(undoCmd)
}
