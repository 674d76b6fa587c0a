package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/cass-memory/playbook/internal/taxonomy"
	"github.com/cass-memory/playbook/internal/types"
	"github.com/spf13/cobra"
)

var reflectDeltasPath string

// fileReflector reads a pre-computed ReflectionResult from disk instead of
// calling out to an LLM. The core never embeds a model client
// (internal/types/collaborators.go); this is the CLI's injection point for
// whatever reflector a caller wires up.
type fileReflector struct {
	path string
}

func (r fileReflector) Reflect(ctx context.Context, transcriptID string, snapshot *types.Playbook, config map[string]any) (types.ReflectionResult, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return types.ReflectionResult{}, taxonomy.Wrap(taxonomy.FileNotFound, "reading deltas file", err)
	}
	var result types.ReflectionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return types.ReflectionResult{}, taxonomy.Wrap(taxonomy.InvalidInput, "parsing deltas file", err)
	}
	return result, nil
}

var reflectCmd = &cobra.Command{
	Use:   "reflect <transcript-id>",
	Short: "Run a reflector over a transcript and curate the result",
	Long: `reflect loads the deltas a reflector proposed for a transcript and
runs them through the curation pipeline in one transactional pass.

The reflector itself is external to the core: pass --deltas pointing at a
JSON file shaped like {"deltas": [...], "reasoning": "..."}.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if reflectDeltasPath == "" {
			printError(taxonomy.New(taxonomy.MissingRequired, "--deltas is required"))
			return nil
		}

		e, _, err := buildEngine()
		if err != nil {
			printError(err)
			return nil
		}

		result, err := e.ReflectAndCurate(context.Background(), args[0], fileReflector{path: reflectDeltasPath})
		printResult(result, err)
		return nil
	},
}

func init() {
	reflectCmd.Flags().StringVar(&reflectDeltasPath, "deltas", "", "Path to a JSON file of reflector deltas")
	rootCmd.AddCommand(reflectCmd)
}
