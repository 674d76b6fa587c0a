package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cass-memory/playbook/internal/config"
	"github.com/cass-memory/playbook/internal/engine"
	"github.com/cass-memory/playbook/internal/taxonomy"
)

// buildEngine loads config and constructs an Engine pointed at the
// configured playbook locations. The session store is left nil: it is an
// external collaborator out of scope of the core (spec.md §1), and
// retrieval degrades gracefully without one.
func buildEngine() (*engine.Engine, *config.Config, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, nil, err
	}

	paths := engine.Paths{
		Global:   cfg.PlaybookPath,
		DiaryDir: cfg.DiaryDir,
	}
	paths.Outcomes = filepath.Join(filepath.Dir(cfg.PlaybookPath), "outcomes.jsonl")
	paths.Blocked = filepath.Join(filepath.Dir(cfg.PlaybookPath), "blocked.log")
	paths.Chain = filepath.Join(filepath.Dir(cfg.PlaybookPath), "chain.jsonl")

	if repoPlaybook := repoPlaybookPath(); repoPlaybook != "" {
		paths.Repo = repoPlaybook
	}

	e := engine.New(paths, nil)
	if cfg.Scoring.HelpfulWeight > 0 {
		e.Scoring.HelpfulSign = cfg.Scoring.HelpfulWeight
	}
	if cfg.Scoring.HarmfulWeight > 0 {
		e.Scoring.HarmfulSign = -cfg.Scoring.HarmfulWeight
	}
	e.Lifecycle.Scoring = e.Scoring
	e.Curator.Lifecycle.Scoring = e.Scoring
	return e, cfg, nil
}

func repoPlaybookPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(wd, ".cass", "playbook.yaml")
	if _, err := os.Stat(filepath.Dir(candidate)); err == nil {
		return candidate
	}
	return ""
}

// envelope is the {success, data} / {success: false, error} shape from
// spec.md §6.5, rendered to stdout by the CLI shell.
type envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *taxonomy.Error `json:"error,omitempty"`
}

func printResult(data any, err error) {
	if err != nil {
		printError(err)
		return
	}
	env := envelope{Success: true, Data: data}
	if outputFormat == "json" {
		renderJSON(env)
		return
	}
	fmt.Printf("%+v\n", data)
}

func printError(err error) {
	var taxErr *taxonomy.Error
	if te, ok := err.(*taxonomy.Error); ok {
		taxErr = te
	} else {
		taxErr = taxonomy.Wrap(taxonomy.InvalidInput, err.Error(), err)
	}
	env := envelope{Success: false, Error: taxErr}
	if outputFormat == "json" {
		renderJSON(env)
	} else {
		fmt.Fprintf(os.Stderr, "error: %s: %s\n", taxErr.Code, taxErr.Message)
	}
	os.Exit(1)
}

func renderJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
