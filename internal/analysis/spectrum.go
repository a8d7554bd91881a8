package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

var ErrShortSeries = errors.New("analysis: series too short")

// PowerSpectrum returns amplitudes for bins 0..n/2 of the mean-removed
// series.
func PowerSpectrum(data []float64) []float64 {
	return spectrum(data, false)
}

func spectrum(data []float64, hann bool) []float64 {
	n := len(data)
	if n < 2 {
		return nil
	}
	centred := make([]float64, n)
	copy(centred, data)
	floats.AddConst(-floats.Sum(data)/float64(n), centred)
	if hann {
		for i := range centred {
			centred[i] *= 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		}
	}

	coeff := fourier.NewFFT(n).Coefficients(nil, centred)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantPeriod estimates the period of the strongest oscillation in
// values sampled every step seconds. The series is Hann windowed and the
// peak refined by a parabola through the log amplitudes of its
// neighbours. At least two full cycles should be present.
func DominantPeriod(values []float64, step float64) (float64, error) {
	if len(values) < 8 {
		return 0, ErrShortSeries
	}
	if !(step > 0) {
		return 0, errors.New("analysis: step must be positive")
	}

	ps := spectrum(values, true)
	k := floats.MaxIdx(ps[1:]) + 1
	if ps[k] == 0 {
		return 0, errors.New("analysis: no oscillation")
	}

	peak := float64(k)
	if k < len(ps)-1 && ps[k-1] > 0 && ps[k+1] > 0 {
		a, b, c := math.Log(ps[k-1]), math.Log(ps[k]), math.Log(ps[k+1])
		if d := a - 2*b + c; d != 0 {
			peak += 0.5 * (a - c) / d
		}
	}
	return float64(len(values)) * step / peak, nil
}

// UniformStep returns the sample spacing of times and whether it is
// constant to within a part in a million.
func UniformStep(times []float64) (float64, bool) {
	if len(times) < 2 {
		return 0, false
	}
	step := (times[len(times)-1] - times[0]) / float64(len(times)-1)
	for i := 1; i < len(times); i++ {
		if math.Abs(times[i]-times[i-1]-step) > 1e-6*math.Abs(step) {
			return step, false
		}
	}
	return step, step != 0
}
