package main

import (
	"context"
	"strings"

	"github.com/cass-memory/playbook/internal/ranker"
	"github.com/cass-memory/playbook/internal/types"
	"github.com/spf13/cobra"
)

var (
	retrieveScope     string
	retrieveCategory  string
	retrieveLimit     int
	retrieveThreshold float64
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <task description>",
	Short: "Rank active bullets against a task description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := buildEngine()
		if err != nil {
			printError(err)
			return nil
		}

		f := ranker.DefaultFilters()
		if retrieveScope != "" {
			f.Scope = types.Scope(retrieveScope)
		}
		f.Category = retrieveCategory
		if retrieveLimit > 0 {
			f.Limit = retrieveLimit
		}
		if retrieveThreshold > 0 {
			f.Threshold = retrieveThreshold
		}

		task := strings.Join(args, " ")
		result, err := e.Retrieve(context.Background(), task, f)
		printResult(result, err)
		return nil
	},
}

func init() {
	retrieveCmd.Flags().StringVar(&retrieveScope, "scope", "", "Limit to one layer (global, workspace, repo)")
	retrieveCmd.Flags().StringVar(&retrieveCategory, "category", "", "Limit to one category")
	retrieveCmd.Flags().IntVar(&retrieveLimit, "limit", 0, "Maximum bullets to return (default 10)")
	retrieveCmd.Flags().Float64Var(&retrieveThreshold, "threshold", 0, "Minimum similarity score (default 0.2)")
	rootCmd.AddCommand(retrieveCmd)
}
