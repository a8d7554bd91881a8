package analysis

import (
	"math"
	"testing"
)

func TestDominantPeriod(t *testing.T) {
	const period = 27.3 * 86400
	step := 3600.0
	n := 24 * 200
	values := make([]float64, n)
	for i := range values {
		tt := float64(i) * step
		values[i] = 3.84e8 + 2e7*math.Sin(2*math.Pi*tt/period) + 1e6*math.Sin(2*math.Pi*tt/(3*86400))
	}

	got, err := DominantPeriod(values, step)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-period)/period > 0.01 {
		t.Errorf("period = %.3f d, want %.3f d", got/86400, period/86400)
	}
}

func TestDominantPeriod_Errors(t *testing.T) {
	if _, err := DominantPeriod([]float64{1, 2, 3}, 1); err != ErrShortSeries {
		t.Errorf("err = %v, want ErrShortSeries", err)
	}
	if _, err := DominantPeriod(make([]float64, 16), 1); err == nil {
		t.Error("flat series should fail")
	}
	if _, err := DominantPeriod(make([]float64, 16), 0); err == nil {
		t.Error("zero step should fail")
	}
}

func TestPowerSpectrum_RemovesMean(t *testing.T) {
	ps := PowerSpectrum([]float64{5, 5, 5, 5})
	if len(ps) != 3 {
		t.Fatalf("len = %d, want 3", len(ps))
	}
	for i, v := range ps {
		if v > 1e-12 {
			t.Errorf("bin %d = %v, want 0", i, v)
		}
	}
}

func TestUniformStep(t *testing.T) {
	if s, ok := UniformStep([]float64{0, 10, 20, 30}); !ok || s != 10 {
		t.Errorf("uniform: %v %v", s, ok)
	}
	if _, ok := UniformStep([]float64{0, 10, 25}); ok {
		t.Error("irregular spacing accepted")
	}
	if _, ok := UniformStep([]float64{0}); ok {
		t.Error("single sample accepted")
	}
}
