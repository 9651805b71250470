package dashboard_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/atelierlab/maquette/dashboard"
)

func TestDefaultConfig(t *testing.T) {
	cfg := dashboard.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Listen != ":8086" {
		t.Fatalf("got listen %q", cfg.Listen)
	}
	if cfg.Render.MaxConcurrent != 2 || cfg.Render.TimeoutSeconds != 30 {
		t.Fatalf("got render defaults %+v", cfg.Render)
	}
}

// WHAT: a partial YAML file overrides only the keys it names.
func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maquette.yaml")
	body := `
listen: ":9000"
render:
  max_concurrent: 4
  no_sandbox: true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := dashboard.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9000" {
		t.Fatalf("got listen %q", cfg.Listen)
	}
	if cfg.Render.MaxConcurrent != 4 || !cfg.Render.NoSandbox {
		t.Fatalf("got render %+v", cfg.Render)
	}
	// Untouched keys keep their defaults.
	if cfg.DBPath != "db/maquette.db" || cfg.Render.TimeoutSeconds != 30 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maquette.yaml")
	// Visibility below the render timeout would let a live export be
	// redelivered mid-render.
	body := `
queue:
  visibility_seconds: 10
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := dashboard.LoadConfig(path); err == nil {
		t.Fatal("bad config accepted")
	}

	if _, err := dashboard.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
}
