// Package config loads process configuration from (highest to lowest
// priority): command-line flags, environment variables (CASS_MEMORY_*),
// project config (.cass/config.json in cwd), home config
// (~/.cass-memory/config.json), and built-in defaults (spec.md §6.3).
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CrossAgentConfig gates pulling transcripts from other agents. It is an
// authorization model only; the core never mutates it (spec.md §6.3).
type CrossAgentConfig struct {
	Enabled      bool     `json:"enabled"`
	ConsentGiven bool     `json:"consentGiven"`
	ConsentDate  string   `json:"consentDate,omitempty"`
	Agents       []string `json:"agents,omitempty"`
	AuditLog     string   `json:"auditLog,omitempty"`
}

// RemoteCassConfig names remote session-store endpoints (out of core).
type RemoteCassConfig struct {
	Enabled bool     `json:"enabled"`
	Hosts   []string `json:"hosts,omitempty"`
}

// BudgetConfig holds cost-ledger thresholds (out of core; round-tripped
// only).
type BudgetConfig struct {
	DailyLimit      float64 `json:"dailyLimit,omitempty"`
	MonthlyLimit    float64 `json:"monthlyLimit,omitempty"`
	WarningThreshold float64 `json:"warningThreshold,omitempty"`
	Currency        string  `json:"currency,omitempty"`
}

// ScoringConfig overrides the §4.2 scoring constants. The CLI applies
// HelpfulWeight and HarmfulWeight; HalfLifeDays is loaded and merged but
// not applied: decay uses each bullet's own confidenceDecayHalfLifeDays.
type ScoringConfig struct {
	HelpfulWeight float64 `json:"helpfulWeight,omitempty"`
	HarmfulWeight float64 `json:"harmfulWeight,omitempty"`
	HalfLifeDays  int     `json:"halfLifeDays,omitempty"`
}

// SanitizationConfig is the regex set applied to free text before
// persistence.
type SanitizationConfig struct {
	Enabled  bool     `json:"enabled"`
	Patterns []string `json:"patterns,omitempty"`
}

// Config is the full process configuration, spec.md §6.3.
type Config struct {
	CassPath      string `json:"cassPath,omitempty"`
	PlaybookPath  string `json:"playbookPath,omitempty"`
	DiaryDir      string `json:"diaryDir,omitempty"`

	CrossAgent CrossAgentConfig `json:"crossAgent"`
	RemoteCass RemoteCassConfig `json:"remoteCass"`
	Budget     BudgetConfig     `json:"budget"`
	Scoring    ScoringConfig    `json:"scoring"`
	Sanitization SanitizationConfig `json:"sanitization"`

	SemanticSearchEnabled bool   `json:"semanticSearchEnabled"`
	EmbeddingModel        string `json:"embeddingModel,omitempty"`
	ValidationEnabled     bool   `json:"validationEnabled"`

	Verbose bool `json:"-"`

	// unknown preserves any keys this struct doesn't model, so out-of-core
	// extensions (spec.md §9) round-trip through a save untouched.
	unknown map[string]json.RawMessage
}

const (
	defaultHomeDir = ".cass-memory"
	configFileName = "config.json"
)

// Default returns the built-in default configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		PlaybookPath:          filepath.Join(home, defaultHomeDir, "playbook.yaml"),
		DiaryDir:              filepath.Join(home, defaultHomeDir, "diary"),
		ValidationEnabled:     true,
		SemanticSearchEnabled: false,
		Scoring: ScoringConfig{
			HelpfulWeight: 1,
			HarmfulWeight: 4,
			HalfLifeDays:  90,
		},
	}
}

// Load applies the full precedence chain: flags > env > project > home >
// defaults.
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	if home, err := loadFromPath(homeConfigPath()); err == nil && home != nil {
		cfg = merge(cfg, home)
	}
	if project, err := loadFromPath(projectConfigPath()); err == nil && project != nil {
		cfg = merge(cfg, project)
	}
	cfg = applyEnv(cfg)
	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}
	return cfg, nil
}

func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, defaultHomeDir, configFileName)
}

func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("CASS_MEMORY_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".cass", configFileName)
}

func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	_ = json.Unmarshal(data, &raw)
	cfg.unknown = raw
	return &cfg, nil
}

func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("CASS_MEMORY_CASS_PATH"); v != "" {
		cfg.CassPath = v
	}
	if v := os.Getenv("CASS_MEMORY_PLAYBOOK_PATH"); v != "" {
		cfg.PlaybookPath = v
	}
	if v := os.Getenv("CASS_MEMORY_DIARY_DIR"); v != "" {
		cfg.DiaryDir = v
	}
	if v := os.Getenv("CASS_MEMORY_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("CASS_MEMORY_SEMANTIC_SEARCH"); v == "true" || v == "1" {
		cfg.SemanticSearchEnabled = true
	}
	if v := os.Getenv("CASS_MEMORY_HALF_LIFE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scoring.HalfLifeDays = n
		}
	}
	return cfg
}

// merge merges src into dst, with src values taking precedence wherever
// src sets a non-zero value.
func merge(dst, src *Config) *Config {
	if src.CassPath != "" {
		dst.CassPath = src.CassPath
	}
	if src.PlaybookPath != "" {
		dst.PlaybookPath = src.PlaybookPath
	}
	if src.DiaryDir != "" {
		dst.DiaryDir = src.DiaryDir
	}
	if src.Verbose {
		dst.Verbose = true
	}
	if src.EmbeddingModel != "" {
		dst.EmbeddingModel = src.EmbeddingModel
	}
	if src.SemanticSearchEnabled {
		dst.SemanticSearchEnabled = true
	}
	if src.Scoring.HalfLifeDays != 0 {
		dst.Scoring.HalfLifeDays = src.Scoring.HalfLifeDays
	}
	if src.Scoring.HelpfulWeight != 0 {
		dst.Scoring.HelpfulWeight = src.Scoring.HelpfulWeight
	}
	if src.Scoring.HarmfulWeight != 0 {
		dst.Scoring.HarmfulWeight = src.Scoring.HarmfulWeight
	}
	if len(src.Sanitization.Patterns) > 0 {
		dst.Sanitization = src.Sanitization
	}
	if len(src.CrossAgent.Agents) > 0 || src.CrossAgent.Enabled {
		dst.CrossAgent = src.CrossAgent
	}
	if len(src.RemoteCass.Hosts) > 0 || src.RemoteCass.Enabled {
		dst.RemoteCass = src.RemoteCass
	}
	if src.Budget.DailyLimit != 0 || src.Budget.MonthlyLimit != 0 {
		dst.Budget = src.Budget
	}
	return dst
}

// Save writes cfg as JSON, preserving any unrecognized keys loaded earlier
// so out-of-core extensions round-trip (spec.md §9).
func (c *Config) Save(path string) error {
	merged := map[string]json.RawMessage{}
	for k, v := range c.unknown {
		merged[k] = v
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	var self map[string]json.RawMessage
	if err := json.Unmarshal(data, &self); err != nil {
		return err
	}
	for k, v := range self {
		merged[k] = v
	}
	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}
