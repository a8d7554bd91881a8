package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// G is the Newtonian gravitational constant in m³ kg⁻¹ s⁻².
const G = 6.67430e-11

// AU is one astronomical unit in metres.
const AU = 1.495978707e11

type BodyID string

// State is an inertial Cartesian state. Position is in metres, velocity in
// metres per second.
type State struct {
	Pos r3.Vec `json:"pos"`
	Vel r3.Vec `json:"vel"`
}

func (s State) Add(o State) State {
	return State{Pos: r3.Add(s.Pos, o.Pos), Vel: r3.Add(s.Vel, o.Vel)}
}

func (s State) Sub(o State) State {
	return State{Pos: r3.Sub(s.Pos, o.Pos), Vel: r3.Sub(s.Vel, o.Vel)}
}

// Radius is the distance of the state from the frame origin.
func (s State) Radius() float64 { return r3.Norm(s.Pos) }

// Speed is the magnitude of the velocity.
func (s State) Speed() float64 { return r3.Norm(s.Vel) }

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	for _, v := range [...]float64{s.Pos.X, s.Pos.Y, s.Pos.Z, s.Vel.X, s.Vel.Y, s.Vel.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) String() string {
	return fmt.Sprintf("r=(%.6e, %.6e, %.6e) v=(%.6e, %.6e, %.6e)",
		s.Pos.X, s.Pos.Y, s.Pos.Z, s.Vel.X, s.Vel.Y, s.Vel.Z)
}

// Snapshot is the per-body result of a tick.
type Snapshot struct {
	ID    BodyID  `json:"id"`
	State State   `json:"state"`
	Phase float64 `json:"phase,omitempty"` // rotation phase, degrees
}

// Mu returns the gravitational parameter for a mass in kilograms.
func Mu(mass float64) float64 { return G * mass }
