package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/orrery/internal/integrators"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Preset != "inner" {
		t.Errorf("expected preset inner, got %s", cfg.Preset)
	}
	if cfg.MaxStep != 900 {
		t.Errorf("expected max step 900, got %f", cfg.MaxStep)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orrery.yaml")
	data := []byte("preset: jovian\nmax_step: 120\nintegrator: leapfrog\nlog:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ORRERY_MAX_STEP", "60")
	t.Setenv("ORRERY_LOG_FORMAT", "json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Preset != "jovian" {
		t.Errorf("preset = %s", cfg.Preset)
	}
	if cfg.MaxStep != 60 {
		t.Errorf("env should override file: max step = %f", cfg.MaxStep)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.FPS != DefaultFPS {
		t.Errorf("default not applied: fps = %d", cfg.FPS)
	}

	sc := cfg.SimConfig()
	if sc.Integrator != integrators.MethodLeapfrog || sc.MaxStep != 60 {
		t.Errorf("sim config = %+v", sc)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("integrator: rk4\nfps: 0\n"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no source", func(c *Config) { c.Preset = "" }},
		{"zero max step", func(c *Config) { c.MaxStep = 0 }},
		{"narrow precision", func(c *Config) { c.Precision = 32 }},
		{"bad integrator", func(c *Config) { c.Integrator = "rk45" }},
		{"bad epoch", func(c *Config) { c.Epoch = "yesterday" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStartEpoch(t *testing.T) {
	cfg := DefaultConfig()
	e, err := cfg.StartEpoch()
	if err != nil || !e.IsZero() {
		t.Errorf("empty epoch: %v, %v", e, err)
	}

	cfg.Epoch = "2024-03-20T03:06:00"
	e, err = cfg.StartEpoch()
	if err != nil || e.Year != 2024 || e.Minute != 6 {
		t.Errorf("parsed epoch: %v, %v", e, err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	cfg := DefaultConfig()
	cfg.Preset = "solar"
	cfg.Precision = 128

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *cfg {
		t.Errorf("round trip: got %+v, want %+v", got, cfg)
	}
}

func TestProfiles(t *testing.T) {
	for _, name := range ListProfiles() {
		cfg := DefaultConfig()
		if !ApplyProfile(cfg, name) {
			t.Fatalf("profile %s not applied", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("profile %s yields invalid config: %v", name, err)
		}
	}

	cfg := DefaultConfig()
	if ApplyProfile(cfg, "nonexistent") {
		t.Error("expected false for unknown profile")
	}
	if *cfg != *DefaultConfig() {
		t.Error("unknown profile modified config")
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orrery.yaml")
	if err := Save(path, DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan *Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			select {
			case got <- c:
			default:
			}
		}, nil)
	}()

	// give the watcher time to register
	time.Sleep(200 * time.Millisecond)
	updated := DefaultConfig()
	updated.Preset = "jovian"
	if err := Save(path, updated); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if c.Preset != "jovian" {
			t.Errorf("reloaded preset = %s", c.Preset)
		}
	case <-ctx.Done():
		t.Fatal("no reload observed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}
