package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"
)

// ============================================================================
// Config layering
// ============================================================================

func TestLoadConfigDefaults(t *testing.T) {
	cfg := loadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if cfg.DB != "file::memory:?cache=shared" {
		t.Errorf("unexpected default db %q", cfg.DB)
	}
	if cfg.StorytellerOllamaURL != "http://localhost:11434" {
		t.Errorf("unexpected default ollama url %q", cfg.StorytellerOllamaURL)
	}
	if cfg.Seed != 0 || cfg.Dev {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("SEED", "7")
	t.Setenv("DEV", "true")
	t.Setenv("ROLE_COUNTS", "Werewolf:1,Villager:3")
	t.Setenv("STORYTELLER_PROVIDER", "ollama")

	cfg := loadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if cfg.Seed != 7 || !cfg.Dev || cfg.StorytellerProvider != "ollama" {
		t.Errorf("environment not applied: %+v", cfg)
	}
	if cfg.RoleCounts["Werewolf"] != 1 || cfg.RoleCounts["Villager"] != 3 || len(cfg.RoleCounts) != 2 {
		t.Errorf("unexpected role counts %v", cfg.RoleCounts)
	}
	if !cfg.toLogConfig().Debug {
		t.Error("dev mode should turn on debug logging")
	}
}

func TestLoadConfigJSONOverridesEnvironment(t *testing.T) {
	t.Setenv("SEED", "7")
	t.Setenv("STORYTELLER_MODEL", "llama3")

	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"seed": 9, "role_counts": {"Seer": 1}, "transcript": "out.json"}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := loadConfig(path)
	if cfg.Seed != 9 {
		t.Errorf("expected JSON seed 9, got %d", cfg.Seed)
	}
	if cfg.Transcript != "out.json" {
		t.Errorf("expected transcript from JSON, got %q", cfg.Transcript)
	}
	if len(cfg.RoleCounts) != 1 || cfg.RoleCounts["Seer"] != 1 {
		t.Errorf("JSON role counts should replace the map, got %v", cfg.RoleCounts)
	}
	// Keys absent from the file leave the environment alone.
	if cfg.StorytellerModel != "llama3" {
		t.Errorf("expected model from env, got %q", cfg.StorytellerModel)
	}
}

func TestApplyJSONOverlayIgnoresBadValues(t *testing.T) {
	cfg := defaultConfig()
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal([]byte(`{"dev": "yes", "db": "game.db"}`), &overlay); err != nil {
		t.Fatal(err)
	}
	applyJSONOverlay(&cfg, overlay)
	if cfg.Dev {
		t.Error("a bad value must not flip dev on")
	}
	if cfg.DB != "game.db" {
		t.Errorf("expected db game.db, got %q", cfg.DB)
	}
}

// ============================================================================
// Flags
// ============================================================================

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fv := registerFlags(fs)
	if err := fs.Parse([]string{"-seed", "11", "-script", "game.json", "-log-events"}); err != nil {
		t.Fatal(err)
	}

	cfg := defaultConfig()
	cfg.StorytellerProvider = "claude"
	fv.applyTo(&cfg)

	if cfg.Seed != 11 || cfg.Script != "game.json" || !cfg.LogEvents {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.StorytellerProvider != "claude" {
		t.Errorf("unset flag overrode provider: %q", cfg.StorytellerProvider)
	}
	if cfg.DB != "file::memory:?cache=shared" {
		t.Errorf("unset flag overrode db: %q", cfg.DB)
	}
}

func TestInvalidSeedFlagIsIgnored(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fv := registerFlags(fs)
	if err := fs.Parse([]string{"-seed", "abc"}); err != nil {
		t.Fatal(err)
	}
	cfg := AppConfig{Seed: 3}
	fv.applyTo(&cfg)
	if cfg.Seed != 3 {
		t.Errorf("expected seed to stay 3, got %d", cfg.Seed)
	}
}
