package config_test

import (
	"testing"

	"phosphor/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.Theme != "dark" {
		t.Errorf("expected theme 'dark', got %q", cfg.Theme)
	}
	if cfg.CaptureDeviceID != -1 {
		t.Error("expected capture device to default to -1")
	}
	if cfg.TargetFPS != 60.0 {
		t.Errorf("expected target fps 60, got %v", cfg.TargetFPS)
	}
	if !cfg.PostProcessEnabled {
		t.Error("expected post-process enabled by default")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := config.Config{
		Theme:              "light",
		CaptureDeviceID:    2,
		MasterOpacity:      0.5,
		TargetFPS:          144,
		LastPreset:         "ambient.json",
		PostProcessEnabled: false,
		MIDIEnabled:        true,
		OSCEnabled:         false,
		OSCListenPort:      9100,
		WebControlPort:     9101,
	}
	if err := config.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := config.Load()
	if got != cfg {
		t.Errorf("round-trip mismatch: got %+v, want %+v", got, cfg)
	}
}

func TestLoadMissingFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got := config.Load()
	if got != config.Default() {
		t.Errorf("expected default config when no file exists, got %+v", got)
	}
}
