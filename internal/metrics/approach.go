package metrics

import (
	"math"

	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/sim"
)

// Approach records the closest distance seen between two bodies.
type Approach struct {
	name string
	a, b dynamo.BodyID
	min  float64
	at   float64 // elapsed seconds at closest approach
}

func NewApproach(a, b dynamo.BodyID) *Approach {
	return &Approach{
		name: "approach:" + string(a) + "-" + string(b),
		a:    a,
		b:    b,
		min:  math.Inf(1),
	}
}

func (c *Approach) Name() string {
	return c.name
}

func (c *Approach) OnTick(f sim.Frame) {
	sa, ok := f.Bodies[c.a]
	if !ok {
		return
	}
	sb, ok := f.Bodies[c.b]
	if !ok {
		return
	}
	if d := sa.State.Sub(sb.State).Radius(); d < c.min {
		c.min = d
		c.at = f.Elapsed
	}
}

// Value is the minimum separation in metres, +Inf before any sample.
func (c *Approach) Value() float64 {
	return c.min
}

// At returns the elapsed time of the closest approach.
func (c *Approach) At() float64 {
	return c.at
}

func (c *Approach) Reset() {
	c.min = math.Inf(1)
	c.at = 0
}
