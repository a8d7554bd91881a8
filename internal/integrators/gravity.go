package integrators

// Body is one integrated particle. Sources indexes the bodies whose gravity
// acts on it; a negative index marks a missing influencer and is skipped.
type Body[T any] struct {
	Pos, Vel Vec[T]
	Mu       T // G·m, m³/s²
	Sources  []int
}

// System is the set of bodies advanced together.
type System[T any] struct {
	Field  Field[T]
	Bodies []Body[T]
}

// Accelerations fills acc with the patched-gravity acceleration of every
// body, reading positions only from pos. Coincident pairs contribute
// nothing.
func (s *System[T]) Accelerations(pos []Vec[T], acc []Vec[T]) {
	f := s.Field
	zero := f.FromFloat(0)
	for i := range s.Bodies {
		a := Vec[T]{X: zero, Y: zero, Z: zero}
		for _, j := range s.Bodies[i].Sources {
			if j < 0 || j == i || j >= len(pos) {
				continue
			}
			d := sub(f, pos[i], pos[j])
			r2 := dot(f, d, d)
			if f.IsZero(r2) {
				continue
			}
			r3 := f.Mul(r2, f.Sqrt(r2))
			k := f.Div(s.Bodies[j].Mu, r3)
			a = sub(f, a, scale(f, k, d))
		}
		acc[i] = a
	}
}

// Stepper advances a system by one step of length h.
type Stepper[T any] interface {
	Step(s *System[T], h T)
}
