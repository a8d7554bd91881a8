// Package integrators advances bodies under patched gravity.
//
// The physics is written once over Field[T]. Engine wraps a typed system so
// callers can work in float64 while the integration itself runs in either
// native or arbitrary precision.
package integrators

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/san-kum/orrery/internal/dynamo"
)

type Method string

const (
	MethodEuler    Method = "euler"
	MethodLeapfrog Method = "leapfrog"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "", MethodEuler, "symplectic-euler":
		return MethodEuler, nil
	case MethodLeapfrog, "verlet":
		return MethodLeapfrog, nil
	default:
		return "", fmt.Errorf("integrators: unknown method %q", s)
	}
}

// Particle is the float64 description of a body handed to an Engine.
type Particle struct {
	State   dynamo.State
	Mu      float64
	Sources []int
}

// Engine owns an integrated system.
type Engine interface {
	// Reset replaces the system with the given particles.
	Reset(ps []Particle)
	// Advance performs steps sub-steps of h seconds each.
	Advance(h float64, steps int)
	State(i int) dynamo.State
	SetState(i int, s dynamo.State)
	Len() int
	// Precision is the mantissa width in bits.
	Precision() uint
	Method() Method
}

// NewEngine builds an engine for the method. A precision of 0 or 53 runs
// in float64; anything wider uses math/big at that many bits.
func NewEngine(method Method, precision uint) (Engine, error) {
	if precision == 0 || precision == 53 {
		e, err := newTyped[float64](Float64{}, method, 53)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	if precision < 53 || precision > big.MaxPrec {
		return nil, fmt.Errorf("integrators: precision %d out of range", precision)
	}
	e, err := newTyped[*big.Float](BigFloat{Prec: precision}, method, precision)
	if err != nil {
		return nil, err
	}
	return e, nil
}

type typed[T any] struct {
	sys     System[T]
	stepper Stepper[T]
	method  Method
	prec    uint
}

func newTyped[T any](f Field[T], method Method, prec uint) (*typed[T], error) {
	e := &typed[T]{sys: System[T]{Field: f}, method: method, prec: prec}
	switch method {
	case MethodEuler:
		e.stepper = NewSymplecticEuler[T]()
	case MethodLeapfrog:
		e.stepper = NewLeapfrog[T]()
	default:
		return nil, fmt.Errorf("integrators: unknown method %q", method)
	}
	return e, nil
}

func (e *typed[T]) Reset(ps []Particle) {
	f := e.sys.Field
	e.sys.Bodies = make([]Body[T], len(ps))
	for i, p := range ps {
		e.sys.Bodies[i] = Body[T]{
			Pos:     vecFrom(f, p.State.Pos.X, p.State.Pos.Y, p.State.Pos.Z),
			Vel:     vecFrom(f, p.State.Vel.X, p.State.Vel.Y, p.State.Vel.Z),
			Mu:      f.FromFloat(p.Mu),
			Sources: append([]int(nil), p.Sources...),
		}
	}
}

func (e *typed[T]) Advance(h float64, steps int) {
	step := e.sys.Field.FromFloat(h)
	for i := 0; i < steps; i++ {
		e.stepper.Step(&e.sys, step)
	}
}

func (e *typed[T]) State(i int) dynamo.State {
	f := e.sys.Field
	b := e.sys.Bodies[i]
	var s dynamo.State
	s.Pos.X, s.Pos.Y, s.Pos.Z = f.Float(b.Pos.X), f.Float(b.Pos.Y), f.Float(b.Pos.Z)
	s.Vel.X, s.Vel.Y, s.Vel.Z = f.Float(b.Vel.X), f.Float(b.Vel.Y), f.Float(b.Vel.Z)
	return s
}

func (e *typed[T]) SetState(i int, s dynamo.State) {
	f := e.sys.Field
	e.sys.Bodies[i].Pos = vecFrom(f, s.Pos.X, s.Pos.Y, s.Pos.Z)
	e.sys.Bodies[i].Vel = vecFrom(f, s.Vel.X, s.Vel.Y, s.Vel.Z)
}

func (e *typed[T]) Len() int        { return len(e.sys.Bodies) }
func (e *typed[T]) Precision() uint { return e.prec }
func (e *typed[T]) Method() Method  { return e.method }
