package metrics

import (
	"math"

	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/sim"
)

// Metric accumulates a scalar over simulation frames.
type Metric interface {
	sim.Observer
	Name() string
	Value() float64
	Reset()
}

// SpecificEnergy is v²/2 - μ/r for a state relative to a primary of
// gravitational parameter mu. Coincident states return -Inf.
func SpecificEnergy(rel dynamo.State, mu float64) float64 {
	r := rel.Radius()
	if r == 0 {
		return math.Inf(-1)
	}
	v := rel.Speed()
	return 0.5*v*v - mu/r
}

// EnergyDrift tracks the largest relative change of a body's specific
// orbital energy about its primary since the first observed frame.
type EnergyDrift struct {
	name          string
	body, primary dynamo.BodyID
	mu            float64

	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(body, primary dynamo.BodyID, primaryMass float64) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift:" + string(body),
		body:    body,
		primary: primary,
		mu:      dynamo.Mu(primaryMass),
	}
}

// EnergyDriftFor builds the tracker from a live body of s.
func EnergyDriftFor(s *sim.Simulation, id dynamo.BodyID) (*EnergyDrift, bool) {
	b, ok := s.Body(id)
	if !ok || b.Wrt == "" {
		return nil, false
	}
	p, ok := s.Body(b.Wrt)
	if !ok {
		return nil, false
	}
	return NewEnergyDrift(id, p.ID, p.Mass), true
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) OnTick(f sim.Frame) {
	b, ok := f.Bodies[e.body]
	if !ok {
		return
	}
	p, ok := f.Bodies[e.primary]
	if !ok {
		return
	}
	e.Observe(SpecificEnergy(b.State.Sub(p.State), e.mu))
}

// Observe records one energy sample directly.
func (e *EnergyDrift) Observe(energy float64) {
	if math.IsInf(energy, 0) || math.IsNaN(energy) {
		return
	}
	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

// Current returns the latest relative drift, signed.
func (e *EnergyDrift) Current() float64 {
	if e.initialEnergy == 0 {
		return 0
	}
	return (e.currentEnergy - e.initialEnergy) / math.Abs(e.initialEnergy)
}

func (e *EnergyDrift) Samples() int { return e.samples }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
