package sim

import (
	"time"

	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/epoch"
	"github.com/san-kum/orrery/internal/integrators"
	"github.com/san-kum/orrery/internal/kepler"
)

// DefaultMaxStep is the largest sub-step, in seconds, that a tick is split
// into.
const DefaultMaxStep = 900.0

// MaxSubsteps bounds the number of sub-steps a single tick may take.
// Longer ticks are refused.
const MaxSubsteps = 1 << 24

type Config struct {
	MaxStep    float64            // seconds
	Precision  uint               // mantissa bits; 0 means float64
	Integrator integrators.Method // euler or leapfrog
}

func DefaultConfig() Config {
	return Config{
		MaxStep:    DefaultMaxStep,
		Integrator: integrators.MethodEuler,
	}
}

// Body is a copy of one live body.
type Body struct {
	ID         dynamo.BodyID
	Name       string
	Mass       float64
	Wrt        dynamo.BodyID
	Influences []dynamo.BodyID
	State      dynamo.State
	Phase      float64 // rotation phase, degrees
	Rotation   *kepler.Rotation
}

// Frame is what observers see after every tick.
type Frame struct {
	Time     epoch.Epoch
	Elapsed  float64 // seconds since the reference epoch
	Dt       float64
	Substeps int
	Bodies   map[dynamo.BodyID]dynamo.Snapshot
	Order    []dynamo.BodyID
	Restored []dynamo.BodyID
}

type Observer interface {
	OnTick(f Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Frame)

func (fn ObserverFunc) OnTick(f Frame) { fn(f) }

// Stats receives engine counters. metrics.Collector implements it.
type Stats interface {
	TickObserved(substeps int, d time.Duration)
	BodiesLive(n int)
	BodiesRejected(n int)
	StatesRestored(n int)
}

type nopStats struct{}

func (nopStats) TickObserved(int, time.Duration) {}
func (nopStats) BodiesLive(int)                  {}
func (nopStats) BodiesRejected(int)              {}
func (nopStats) StatesRestored(int)              {}
