package kepler

import (
	"math"

	"github.com/san-kum/orrery/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// Tolerance is the eccentric-anomaly convergence threshold in radians.
	Tolerance = 1e-12
	// MaxIterations bounds the Newton-Raphson solve.
	MaxIterations = 50

	// below this, e and the node vector are treated as zero
	degenerateEps = 1e-11
)

// SolveKepler solves M = E - e·sin(E) for the eccentric anomaly E by
// Newton-Raphson. M is in radians. The boolean reports convergence; when it
// is false E is the last iterate, which is still the best estimate
// available.
func SolveKepler(meanAnomaly, e float64) (float64, bool) {
	m := normalizeRadians(meanAnomaly)
	if e == 0 {
		return m, true
	}

	E := m
	if e >= 0.8 {
		E = math.Pi
	}
	for i := 0; i < MaxIterations; i++ {
		delta := (E - e*math.Sin(E) - m) / (1 - e*math.Cos(E))
		E -= delta
		if math.Abs(delta) < Tolerance {
			return E, true
		}
	}
	return E, false
}

// TrueAnomaly converts an eccentric anomaly to the true anomaly, both in
// radians.
func TrueAnomaly(E, e float64) float64 {
	return 2 * math.Atan2(math.Sqrt(1+e)*math.Sin(E/2), math.Sqrt(1-e)*math.Cos(E/2))
}

// MeanFromTrue converts a true anomaly to the mean anomaly, both in radians.
func MeanFromTrue(nu, e float64) float64 {
	E := 2 * math.Atan2(math.Sqrt(1-e)*math.Sin(nu/2), math.Sqrt(1+e)*math.Cos(nu/2))
	return normalizeRadians(E - e*math.Sin(E))
}

// frame is the perifocal-to-inertial rotation Rz(Ω)·Rx(i)·Rz(ω).
type frame struct {
	r11, r12, r21, r22, r31, r32 float64
}

func newFrame(node, inc, peri float64) frame {
	cO, sO := math.Cos(node), math.Sin(node)
	ci, si := math.Cos(inc), math.Sin(inc)
	cw, sw := math.Cos(peri), math.Sin(peri)
	return frame{
		r11: cO*cw - sO*sw*ci,
		r12: -cO*sw - sO*cw*ci,
		r21: sO*cw + cO*sw*ci,
		r22: -sO*sw + cO*cw*ci,
		r31: sw * si,
		r32: cw * si,
	}
}

// apply rotates a vector lying in the perifocal plane (z = 0).
func (f frame) apply(x, y float64) r3.Vec {
	return r3.Vec{
		X: f.r11*x + f.r12*y,
		Y: f.r21*x + f.r22*y,
		Z: f.r31*x + f.r32*y,
	}
}

// ToCartesian returns the state relative to the Wrt body, whose
// gravitational parameter is mu. Degenerate or unbound element sets return
// an error and a zero state.
func (el Elements) ToCartesian(mu float64) (dynamo.State, error) {
	s, _, err := el.ToCartesianConverged(mu)
	return s, err
}

// ToCartesianConverged is ToCartesian that also reports whether Kepler's
// equation converged. On false the state is built from the best estimate.
func (el Elements) ToCartesianConverged(mu float64) (dynamo.State, bool, error) {
	if err := el.Validate(mu); err != nil {
		return dynamo.State{}, false, err
	}

	e := el.Eccentricity
	E, converged := SolveKepler(Radians(el.MeanAnomaly), e)
	nu := TrueAnomaly(E, e)

	p := el.SemiMajorAxis * (1 - e*e)
	cosNu, sinNu := math.Cos(nu), math.Sin(nu)
	r := p / (1 + e*cosNu)
	k := math.Sqrt(mu / p)

	f := newFrame(Radians(el.Node), Radians(el.Inclination), Radians(el.Periapsis))
	s := dynamo.State{
		Pos: f.apply(r*cosNu, r*sinNu),
		Vel: f.apply(-k*sinNu, k*(e+cosNu)),
	}
	if !s.IsValid() {
		return dynamo.State{}, false, dynamo.ErrDegenerateElements
	}
	return s, converged, nil
}

// FromCartesian recovers osculating elements from a relative state. For
// circular orbits the argument of periapsis is 0 and the anomaly is the
// argument of latitude; for equatorial orbits the node is 0 and the
// argument of periapsis is the longitude of periapsis. Wrt, Epoch and
// Rotation are left for the caller to fill in.
func FromCartesian(s dynamo.State, mu float64) (Elements, error) {
	if !(mu > 0) || !s.IsValid() {
		return Elements{}, dynamo.ErrDegenerateElements
	}

	rv, vv := s.Pos, s.Vel
	r := r3.Norm(rv)
	h := r3.Cross(rv, vv)
	hmag := r3.Norm(h)
	if r == 0 || hmag == 0 {
		return Elements{}, dynamo.ErrDegenerateElements
	}

	v2 := r3.Norm2(vv)
	energy := v2/2 - mu/r
	if energy >= 0 {
		return Elements{}, dynamo.ErrUnboundOrbit
	}

	rdotv := r3.Dot(rv, vv)
	ev := r3.Scale(1/mu, r3.Sub(r3.Scale(v2-mu/r, rv), r3.Scale(rdotv, vv)))
	e := r3.Norm(ev)

	n := r3.Vec{X: -h.Y, Y: h.X}
	nmag := r3.Norm(n)
	equatorial := nmag <= degenerateEps*hmag
	circular := e <= degenerateEps

	inc := math.Acos(clamp(h.Z / hmag))

	var node float64
	if !equatorial {
		node = math.Acos(clamp(n.X / nmag))
		if n.Y < 0 {
			node = 2*math.Pi - node
		}
	}

	var peri, nu float64
	switch {
	case !circular && !equatorial:
		peri = math.Acos(clamp(r3.Dot(n, ev) / (nmag * e)))
		if ev.Z < 0 {
			peri = 2*math.Pi - peri
		}
	case !circular:
		peri = math.Atan2(ev.Y, ev.X)
		if h.Z < 0 {
			peri = -peri
		}
	}

	switch {
	case !circular:
		nu = math.Acos(clamp(r3.Dot(ev, rv) / (e * r)))
		if rdotv < 0 {
			nu = 2*math.Pi - nu
		}
	case !equatorial:
		nu = math.Acos(clamp(r3.Dot(n, rv) / (nmag * r)))
		if rv.Z < 0 {
			nu = 2*math.Pi - nu
		}
	default:
		nu = math.Atan2(rv.Y, rv.X)
		if h.Z < 0 {
			nu = -nu
		}
	}

	return Elements{
		SemiMajorAxis: -mu / (2 * energy),
		Eccentricity:  e,
		Inclination:   Degrees(inc),
		Node:          Degrees(node),
		Periapsis:     NormalizeDegrees(Degrees(peri)),
		MeanAnomaly:   Degrees(MeanFromTrue(normalizeRadians(nu), e)),
	}, nil
}

func clamp(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
