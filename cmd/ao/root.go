package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	outputFormat string
	cfgFile      string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "playbook",
	Short: "Procedural-memory playbook engine for AI coding agents",
	Long: `playbook manages a local, durable knowledge base of short behavioral
rules ("bullets") surfaced to an agent before a task, scored on feedback,
and curated over time.

Core commands:
  retrieve  Rank active bullets against a task description
  feedback  Record a helpful/harmful vote on a bullet
  reflect   Run a reflector over a transcript and curate the result
  forget    Explicitly deprecate a bullet
  undo      Un-deprecate a bullet, or undo its last feedback event`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		syncConfigFlagToEnv()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text, json)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.cass-memory/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func syncConfigFlagToEnv() {
	path := strings.TrimSpace(cfgFile)
	if path == "" {
		return
	}
	_ = os.Setenv("CASS_MEMORY_CONFIG", path)
}

// verbosePrintf prints only when verbose mode is enabled.
func verbosePrintf(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
