package pixelshapes

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if l := cfg.ViewLimits(); l != DefaultViewLimits() {
		t.Errorf("ViewLimits = %+v, want %+v", l, DefaultViewLimits())
	}
}

func TestParseConfigOverrides(t *testing.T) {
	data := []byte(`
view:
  max_zoom: 32
  fit_padding: 10
persist:
  key: custom
  debounce: 250ms
storage:
  driver: file
  path: /tmp/shapes
debug: true
`)
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.View.MaxZoom != 32 || cfg.View.MinZoom != MinZoom || cfg.View.FitPadding != 10 {
		t.Errorf("View = %+v", cfg.View)
	}
	if cfg.Persist.Key != "custom" || cfg.Persist.Debounce != 250*time.Millisecond {
		t.Errorf("Persist = %+v", cfg.Persist)
	}
	if cfg.Storage.Driver != "file" || cfg.Storage.Path != "/tmp/shapes" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}

	po := cfg.PersisterOptions()
	if po.Key != "custom" || po.Delay != 250*time.Millisecond || po.Limits.MaxZoom != 32 {
		t.Errorf("PersisterOptions = %+v", po)
	}
	ws := New(cfg.WorkspaceOptions()...)
	if ws.ViewLimits().MaxZoom != 32 || !ws.debug {
		t.Errorf("workspace limits = %+v, debug = %v", ws.ViewLimits(), ws.debug)
	}
}

func TestParseConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "view: [1, 2"},
		{"inverted zoom", "view:\n  min_zoom: 10\n  max_zoom: 2\n"},
		{"negative zoom", "view:\n  min_zoom: -1\n"},
		{"negative debounce", "persist:\n  debounce: -1s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixelshapes.yaml")
	if err := os.WriteFile(path, []byte("view:\n  default_zoom: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.View.DefaultZoom != 4 {
		t.Errorf("DefaultZoom = %v, want 4", cfg.View.DefaultZoom)
	}
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}
