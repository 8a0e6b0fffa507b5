package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `temperature: 0.7
top_k: 40
guidance_scale: 4.0
cfg_interval: 10
log_level: debug
server_address: "0.0.0.0:9090"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := loadConfigFile(path)
	if cfg.Temperature == nil || *cfg.Temperature != 0.7 {
		t.Fatalf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if cfg.TopK == nil || *cfg.TopK != 40 {
		t.Fatalf("TopK = %v, want 40", cfg.TopK)
	}
	if cfg.GuidanceScale == nil || *cfg.GuidanceScale != 4 {
		t.Fatalf("GuidanceScale = %v, want 4", cfg.GuidanceScale)
	}
	if cfg.CFGInterval == nil || *cfg.CFGInterval != 10 {
		t.Fatalf("CFGInterval = %v, want 10", cfg.CFGInterval)
	}
	if cfg.TopP != nil {
		t.Fatal("unset top_p should stay nil")
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.ServerAddress != "0.0.0.0:9090" {
		t.Fatalf("ServerAddress = %q", cfg.ServerAddress)
	}

	d := cfg.defaults()
	if d.Temperature == nil || *d.Temperature != 0.7 {
		t.Fatal("defaults should carry the config temperature")
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	cfg := loadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if cfg.Temperature != nil || cfg.LogLevel != "" {
		t.Fatalf("missing file should yield a zero config, got %+v", cfg)
	}
}

func TestLoadConfigFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("temperature: [not a number"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := loadConfigFile(path)
	if cfg.Temperature != nil {
		t.Fatal("unparseable file should yield a zero config")
	}
}
