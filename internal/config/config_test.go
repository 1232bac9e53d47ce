package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.N != DefaultN {
		t.Errorf("expected n %d, got %d", DefaultN, cfg.N)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"tiny grid", func(c *Config) { c.N = 1 }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"unknown integrator", func(c *Config) { c.Integrator = "rk99" }},
		{"adaptive euler", func(c *Config) { c.Integrator = "euler"; c.Adaptive = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("forced")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if !cfg.Forcing {
		t.Error("forced preset should enable forcing")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset invalid: %v", err)
	}

	// Mutating the returned copy must not touch the stored preset.
	cfg.N = 3
	if GetPreset("forced").N == 3 {
		t.Error("preset mutated through returned copy")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for unknown preset")
	}
}

func TestAllPresetsValid(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Fatal("no presets registered")
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")

	cfg := Default()
	cfg.N = 16
	cfg.Integrator = "imex"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.N != 16 || loaded.Integrator != "imex" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")
	if err := os.WriteFile(path, []byte("n: 12\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.N != 12 {
		t.Errorf("n = %d, want 12", cfg.N)
	}
	if cfg.Dt != DefaultDt {
		t.Errorf("dt should default to %f, got %f", DefaultDt, cfg.Dt)
	}
}

func TestDerivedSettings(t *testing.T) {
	cfg := Default()
	cfg.N = 4

	g, err := cfg.Grid()
	if err != nil {
		t.Fatalf("grid failed: %v", err)
	}
	p := cfg.Params(g)
	if p.Dx != 0.25 {
		t.Errorf("dx = %f, want 0.25", p.Dx)
	}

	sc := cfg.SimConfig()
	if sc.Dt != cfg.Dt || sc.Duration != cfg.Duration {
		t.Error("sim config does not carry timing settings")
	}
}
