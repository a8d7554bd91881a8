package main

import (
	"context"
	"testing"

	"github.com/san-kum/orrery/internal/catalog"
	"github.com/san-kum/orrery/internal/epoch"
	"github.com/san-kum/orrery/internal/integrators"
	"github.com/san-kum/orrery/internal/sim"
)

func TestParseMember(t *testing.T) {
	base := sim.DefaultConfig()
	base.Precision = 96

	tests := []struct {
		arg     string
		method  integrators.Method
		bits    uint
		wantErr bool
	}{
		{"euler", integrators.MethodEuler, 0, false},
		{"leapfrog:128", integrators.MethodLeapfrog, 128, false},
		{"verlet", integrators.MethodLeapfrog, 0, false},
		{"rk4", "", 0, true},
		{"euler:many", "", 0, true},
	}
	for _, tt := range tests {
		c, err := parseMember(tt.arg, base)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v", tt.arg, err)
			continue
		}
		if tt.wantErr {
			continue
		}
		if c.Integrator != tt.method || c.Precision != tt.bits || c.MaxStep != base.MaxStep {
			t.Errorf("%s: got %+v", tt.arg, c)
		}
	}
}

func TestTickFor(t *testing.T) {
	s, err := sim.New(sim.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Resolve(catalog.Preset("earth-moon"), epoch.Epoch{}); err != nil {
		t.Fatal(err)
	}

	if err := tickFor(context.Background(), s, 10000, 3600); err != nil {
		t.Fatal(err)
	}
	if s.Elapsed() != 10000 {
		t.Errorf("elapsed = %v, want 10000", s.Elapsed())
	}
	if err := tickFor(context.Background(), s, -10000, 3600); err != nil {
		t.Fatal(err)
	}
	if s.Elapsed() != 0 {
		t.Errorf("elapsed = %v, want 0", s.Elapsed())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tickFor(ctx, s, 100, 10); err == nil {
		t.Error("expected cancellation error")
	}
}
