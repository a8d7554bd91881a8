// Package kepler propagates osculating Keplerian elements and converts them
// to and from inertial Cartesian state.
//
// Angles are stored in degrees and converted to radians only inside this
// package. Distances are metres and velocities metres per second.
package kepler

import (
	"fmt"
	"math"

	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/epoch"
)

// Elements is a classical element set defined relative to the Wrt body.
type Elements struct {
	SemiMajorAxis float64       `yaml:"a" toml:"a" json:"a"`          // metres
	Eccentricity  float64       `yaml:"e" toml:"e" json:"e"`          // dimensionless
	Inclination   float64       `yaml:"i" toml:"i" json:"i"`          // degrees
	Node          float64       `yaml:"node" toml:"node" json:"node"` // longitude of ascending node, degrees
	Periapsis     float64       `yaml:"peri" toml:"peri" json:"peri"` // argument of periapsis, degrees
	MeanAnomaly   float64       `yaml:"m" toml:"m" json:"m"`          // degrees at Epoch
	Epoch         epoch.Epoch   `yaml:"epoch,omitempty" toml:"epoch,omitempty" json:"epoch"`
	Wrt           dynamo.BodyID `yaml:"wrt,omitempty" toml:"wrt,omitempty" json:"wrt,omitempty"`
	Rotation      *Rotation     `yaml:"rotation,omitempty" toml:"rotation,omitempty" json:"rotation,omitempty"`
}

// Rotation describes the spin of a body about its own axis.
type Rotation struct {
	Tilt    float64 `yaml:"tilt" toml:"tilt" json:"tilt"`          // axial tilt, degrees
	Period  float64 `yaml:"period" toml:"period" json:"period"`    // sidereal period, seconds; negative is retrograde
	Initial float64 `yaml:"initial" toml:"initial" json:"initial"` // angle at epoch, degrees
}

// Advance returns the rotation phase after the given number of seconds.
// A zero period leaves the phase unchanged.
func (r Rotation) Advance(phase, seconds float64) float64 {
	if r.Period == 0 {
		return phase
	}
	return NormalizeDegrees(phase + 360*seconds/r.Period)
}

func (el Elements) String() string {
	return fmt.Sprintf("a=%.6e e=%.6f i=%.4f Ω=%.4f ω=%.4f M=%.4f wrt=%s",
		el.SemiMajorAxis, el.Eccentricity, el.Inclination, el.Node, el.Periapsis, el.MeanAnomaly, el.Wrt)
}

// Validate checks that the element set describes a bound orbit about a
// body with gravitational parameter mu.
func (el Elements) Validate(mu float64) error {
	for _, v := range [...]float64{el.SemiMajorAxis, el.Eccentricity, el.Inclination, el.Node, el.Periapsis, el.MeanAnomaly, mu} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dynamo.ErrDegenerateElements
		}
	}
	if el.SemiMajorAxis <= 0 || mu <= 0 {
		return dynamo.ErrDegenerateElements
	}
	if el.Eccentricity < 0 || el.Eccentricity >= 1 {
		return fmt.Errorf("%w: e=%g", dynamo.ErrUnboundOrbit, el.Eccentricity)
	}
	return nil
}

// MeanMotion returns n = sqrt(mu/a³) in radians per second.
func MeanMotion(mu, a float64) (float64, error) {
	if !(mu > 0) || !(a > 0) || math.IsInf(mu, 0) || math.IsInf(a, 0) {
		return 0, dynamo.ErrDegenerateElements
	}
	return math.Sqrt(mu / (a * a * a)), nil
}

// Period returns the orbital period in seconds.
func Period(mu, a float64) (float64, error) {
	n, err := MeanMotion(mu, a)
	if err != nil {
		return 0, err
	}
	return 2 * math.Pi / n, nil
}

// Propagate advances the mean anomaly from the element epoch to the target
// epoch. Every other element is held constant. When mu or a is not
// positive the elements are returned unchanged together with
// ErrDegenerateElements. Elements without an epoch are taken to be defined
// at the target already.
func (el Elements) Propagate(mu float64, to epoch.Epoch) (Elements, error) {
	if el.Epoch.IsZero() {
		out := el
		out.Epoch = to
		return out, nil
	}
	out, err := el.Advance(mu, to.SecondsSince(el.Epoch))
	if err != nil {
		return el, err
	}
	out.Epoch = to
	return out, nil
}

// Advance moves the mean anomaly forward by dt seconds without touching
// the epoch field.
func (el Elements) Advance(mu, dt float64) (Elements, error) {
	n, err := MeanMotion(mu, el.SemiMajorAxis)
	if err != nil {
		return el, err
	}
	out := el
	out.MeanAnomaly = NormalizeDegrees(el.MeanAnomaly + Degrees(n*dt))
	return out, nil
}

func Radians(deg float64) float64 { return deg * math.Pi / 180 }

func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeDegrees wraps an angle into [0, 360).
func NormalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

func normalizeRadians(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
