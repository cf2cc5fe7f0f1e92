package xform

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.AccurateTranslations || cfg.Debug {
		t.Error("modes should default to off")
	}
	if cfg.InitialCapacity != defaultCapacity || cfg.MaxTreeDepth != defaultMaxTreeDepth || cfg.MaxChildCount != defaultMaxChildCount {
		t.Errorf("DefaultConfig = %+v", cfg)
	}
	if got := NewManager[int]().Config(); got != cfg {
		t.Errorf("manager config = %+v, want %+v", got, cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "xform.toml", `
accurate_translations = true
debug = true
max_tree_depth = 8
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.AccurateTranslations || !cfg.Debug {
		t.Errorf("modes not loaded: %+v", cfg)
	}
	if cfg.MaxTreeDepth != 8 {
		t.Errorf("MaxTreeDepth = %d, want 8", cfg.MaxTreeDepth)
	}
	if cfg.MaxChildCount != defaultMaxChildCount || cfg.InitialCapacity != defaultCapacity {
		t.Errorf("unset keys should keep defaults: %+v", cfg)
	}
}

func TestLoadConfigSanitizes(t *testing.T) {
	path := writeFile(t, "xform.toml", "initial_capacity = -5\nmax_child_count = 0\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InitialCapacity != 0 || cfg.MaxChildCount != defaultMaxChildCount {
		t.Errorf("LoadConfig = %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file should fail")
	}
	bad := writeFile(t, "bad.toml", "debug = = true")
	if _, err := LoadConfig(bad); err == nil {
		t.Error("malformed TOML should fail")
	}
}

func TestOptions(t *testing.T) {
	m := NewManager[int](
		WithConfig(Config{MaxTreeDepth: 4}),
		WithAccurateTranslations(true),
		WithDebug(true),
		WithCapacity(16),
		WithLogger(nil),
	)
	cfg := m.Config()
	if !cfg.AccurateTranslations || !cfg.Debug || cfg.InitialCapacity != 16 || cfg.MaxTreeDepth != 4 {
		t.Errorf("Config = %+v", cfg)
	}
	if cfg.MaxChildCount != defaultMaxChildCount {
		t.Errorf("MaxChildCount = %d, want default", cfg.MaxChildCount)
	}
	if !m.AccurateTranslationsEnabled() {
		t.Error("AccurateTranslationsEnabled = false")
	}

	// A nil logger is ignored; GC logs through the default.
	m.CreateIdentity(1, NoInstance)
	if m.GC(func(int) bool { return false }) != 1 {
		t.Error("GC with nil logger option failed")
	}
}

func TestWithLogger(t *testing.T) {
	log := zap.NewExample()
	m := NewManager[int](WithLogger(log))
	if m.log != log {
		t.Error("WithLogger did not install the logger")
	}
}
