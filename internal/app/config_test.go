package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("expected default listen addr, got %q", cfg.ListenAddr)
	}
	if cfg.Ticks.Combat.Std() != 200*time.Millisecond {
		t.Fatalf("expected default combat tick, got %v", cfg.Ticks.Combat.Std())
	}
	if len(cfg.Regions) == 0 || len(cfg.Spawns) == 0 {
		t.Fatalf("expected a default region and spawn set")
	}
}

func TestLoadConfigParsesDurationsAndSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	doc := `listenAddr: ":9090"
seed: nightfall
ticks:
  combat: 100ms
  guardian: 5s
registry:
  maxPerAnchor: 4
  visibilityWindow: 8s
respawn:
  baseDelay: 90s
  minDelay: 45s
  maxDelay: 10m
guardian:
  graceWindow: 750ms
logging:
  sinks: [console, jsonl, stream]
  jsonl:
    dir: /tmp/duskfall-logs
    compress: true
regions:
  - name: crypt
    minX: 0
    minY: 0
    maxX: 64
    maxY: 64
spawns:
  - region: crypt
    x: 8
    y: 8
    species: marrow_knight
    tier: 2
    count: 2
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9090" || cfg.Seed != "nightfall" {
		t.Fatalf("expected scalars parsed, got %q %q", cfg.ListenAddr, cfg.Seed)
	}
	if cfg.Ticks.Combat.Std() != 100*time.Millisecond {
		t.Fatalf("expected combat tick 100ms, got %v", cfg.Ticks.Combat.Std())
	}
	if cfg.Ticks.Guardian.Std() != 5*time.Second {
		t.Fatalf("expected guardian tick 5s, got %v", cfg.Ticks.Guardian.Std())
	}
	// Unset durations fall back to defaults.
	if cfg.Ticks.Visibility.Std() != 500*time.Millisecond {
		t.Fatalf("expected default visibility tick, got %v", cfg.Ticks.Visibility.Std())
	}

	reg := cfg.registryConfig()
	if reg.MaxPerAnchor != 4 {
		t.Fatalf("expected anchor cap 4, got %d", reg.MaxPerAnchor)
	}
	if reg.VisibilityWindow != 8*time.Second {
		t.Fatalf("expected visibility window 8s, got %v", reg.VisibilityWindow)
	}
	if reg.Respawn.BaseDelay != 90*time.Second || reg.Respawn.MaxDelay != 10*time.Minute {
		t.Fatalf("expected respawn delays carried through, got %+v", reg.Respawn)
	}

	guard := cfg.guardianConfig(nil)
	if guard.GraceWindow != 750*time.Millisecond {
		t.Fatalf("expected grace window 750ms, got %v", guard.GraceWindow)
	}

	logCfg := cfg.loggingConfig()
	if !logCfg.HasSink("stream") || !logCfg.HasSink("jsonl") {
		t.Fatalf("expected configured sinks, got %v", logCfg.EnabledSinks)
	}
	if !logCfg.JSONL.Compress || logCfg.JSONL.Dir != "/tmp/duskfall-logs" {
		t.Fatalf("expected jsonl settings carried through, got %+v", logCfg.JSONL)
	}

	if len(cfg.Regions) != 1 || cfg.Regions[0].Name != "crypt" {
		t.Fatalf("expected crypt region parsed, got %+v", cfg.Regions)
	}
	if len(cfg.Spawns) != 1 || cfg.Spawns[0].Count != 2 {
		t.Fatalf("expected spawn entry parsed, got %+v", cfg.Spawns)
	}
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("ticks:\n  combat: fast\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DUSKFALL_ADDR", ":7070")
	t.Setenv("DUSKFALL_SEED", "env-seed")
	t.Setenv("DUSKFALL_DEBUG", "true")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":7070" || cfg.Seed != "env-seed" || !cfg.Debug {
		t.Fatalf("expected env overrides applied, got %+v", cfg)
	}
}
