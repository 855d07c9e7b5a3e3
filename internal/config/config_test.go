package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewHasDefaults(t *testing.T) {
	cfg := New()
	if cfg.Storage.BusyTimeoutMs != 5000 {
		t.Errorf("BusyTimeoutMs = %d, want 5000", cfg.Storage.BusyTimeoutMs)
	}
	if cfg.Import.MaxUnhandledLogRatio != 0.2 {
		t.Errorf("MaxUnhandledLogRatio = %v, want 0.2", cfg.Import.MaxUnhandledLogRatio)
	}
	if cfg.Telemetry.Protocol != "noop" {
		t.Errorf("Telemetry.Protocol = %q, want noop", cfg.Telemetry.Protocol)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "esoctl.toml")
	contents := `
[storage]
log_store_root = "/tmp/logdbs"

[telemetry]
enabled = true
protocol = "otlp"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Storage.LogStoreRoot != "/tmp/logdbs" {
		t.Errorf("LogStoreRoot = %q", cfg.Storage.LogStoreRoot)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Protocol != "otlp" {
		t.Errorf("Telemetry = %+v", cfg.Telemetry)
	}
	// Untouched sections keep their defaults.
	if cfg.Storage.BusyTimeoutMs != 5000 {
		t.Errorf("BusyTimeoutMs = %d, want default 5000", cfg.Storage.BusyTimeoutMs)
	}
}

func TestLoadDefaultMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	defer os.Chdir(wd)
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if cfg.Storage.LogStoreRoot != New().Storage.LogStoreRoot {
		t.Errorf("expected defaults when esoctl.toml is absent")
	}
}

func TestResolvedLogStoreRootExpandsHome(t *testing.T) {
	cfg := New()
	cfg.Storage.LogStoreRoot = "~/logdbs"
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir available: %v", err)
	}
	root, err := cfg.ResolvedLogStoreRoot()
	if err != nil {
		t.Fatalf("ResolvedLogStoreRoot: %v", err)
	}
	want := filepath.Join(home, "logdbs")
	if root != want {
		t.Errorf("root = %q, want %q", root, want)
	}
}
