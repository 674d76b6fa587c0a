package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Scoring.HalfLifeDays != 90 {
		t.Errorf("HalfLifeDays = %d, want 90", cfg.Scoring.HalfLifeDays)
	}
	if !cfg.ValidationEnabled {
		t.Error("ValidationEnabled should default true")
	}
}

func TestLoadAppliesPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.MkdirAll(filepath.Join(home, defaultHomeDir), 0o700); err != nil {
		t.Fatal(err)
	}
	homeCfg := []byte(`{"cassPath": "/home/path/cass", "scoring": {"halfLifeDays": 30}}`)
	if err := os.WriteFile(filepath.Join(home, defaultHomeDir, configFileName), homeCfg, 0o600); err != nil {
		t.Fatal(err)
	}

	projectDir := t.TempDir()
	t.Setenv("CASS_MEMORY_CONFIG", filepath.Join(projectDir, "config.json"))
	projectCfg := []byte(`{"cassPath": "/project/path/cass"}`)
	if err := os.WriteFile(filepath.Join(projectDir, "config.json"), projectCfg, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CASS_MEMORY_HALF_LIFE_DAYS", "45")

	cfg, err := Load(&Config{DiaryDir: "/flag/diary"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CassPath != "/project/path/cass" {
		t.Errorf("CassPath = %q, want project override", cfg.CassPath)
	}
	if cfg.Scoring.HalfLifeDays != 45 {
		t.Errorf("HalfLifeDays = %d, want env override 45", cfg.Scoring.HalfLifeDays)
	}
	if cfg.DiaryDir != "/flag/diary" {
		t.Errorf("DiaryDir = %q, want flag override", cfg.DiaryDir)
	}
}

func TestSavePreservesUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	initial := []byte(`{"cassPath": "/x", "futureFeature": {"flag": true}}`)
	if err := os.WriteFile(path, initial, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.CassPath = "/y"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["futureFeature"]; !ok {
		t.Error("expected futureFeature key to round-trip")
	}
}
