package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/orrery/internal/epoch"
	"github.com/san-kum/orrery/internal/integrators"
)

func TestEnsemble_Run(t *testing.T) {
	configs := []Config{
		DefaultConfig(),
		{Integrator: integrators.MethodLeapfrog},
		{Precision: 96},
	}
	ticks := make([]int, len(configs))
	ens := NewEnsemble(twoBody(0.0167), epoch.J2000(), configs).
		WithObservers(func(idx int) []Observer {
			return []Observer{ObserverFunc(func(Frame) { ticks[idx]++ })}
		})

	out, err := ens.Run(context.Background(), 30*epoch.SecondsPerDay, epoch.SecondsPerDay)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d outcomes", len(out))
	}

	ref := out[0].States["planet"]
	for i, o := range out {
		if ticks[i] != 30 {
			t.Errorf("member %d ticked %d times", i, ticks[i])
		}
		if o.Restored != 0 {
			t.Errorf("member %d restored %d states", i, o.Restored)
		}
		if d := relErr(o.States["planet"].Pos, ref.Pos); d > 1e-3 {
			t.Errorf("member %d (%s, %d bits) diverges by %.3e", i, o.Config.Integrator, o.Config.Precision, d)
		}
	}
	if out[1].Config.Integrator != integrators.MethodLeapfrog {
		t.Errorf("outcome order not preserved")
	}
}

func TestEnsemble_Errors(t *testing.T) {
	ens := NewEnsemble(twoBody(0), epoch.J2000(), []Config{DefaultConfig()})
	if _, err := ens.Run(context.Background(), 0, 1); err == nil {
		t.Error("expected error for zero duration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ens.Run(ctx, epoch.SecondsPerDay, 60); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled run: got %v", err)
	}

	bad := NewEnsemble(twoBody(0), epoch.J2000(), []Config{{Integrator: "rk4"}})
	if _, err := bad.Run(context.Background(), 60, 60); err == nil {
		t.Error("expected error for invalid member config")
	}
}
