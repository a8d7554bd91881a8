package integrators

// Leapfrog is the kick-drift-kick form of velocity Verlet. Second order and
// symplectic, at two force evaluations per step.
type Leapfrog[T any] struct {
	pos []Vec[T]
	acc []Vec[T]
}

func NewLeapfrog[T any]() *Leapfrog[T] {
	return &Leapfrog[T]{}
}

func (l *Leapfrog[T]) ensureScratch(n int) {
	if len(l.pos) != n {
		l.pos = make([]Vec[T], n)
		l.acc = make([]Vec[T], n)
	}
}

func (l *Leapfrog[T]) Step(s *System[T], h T) {
	f := s.Field
	l.ensureScratch(len(s.Bodies))
	halfH := f.Mul(f.FromFloat(0.5), h)

	for i := range s.Bodies {
		l.pos[i] = s.Bodies[i].Pos
	}
	s.Accelerations(l.pos, l.acc)

	for i := range s.Bodies {
		b := &s.Bodies[i]
		b.Vel = add(f, b.Vel, scale(f, halfH, l.acc[i]))
		b.Pos = add(f, b.Pos, scale(f, h, b.Vel))
		l.pos[i] = b.Pos
	}

	s.Accelerations(l.pos, l.acc)
	for i := range s.Bodies {
		b := &s.Bodies[i]
		b.Vel = add(f, b.Vel, scale(f, halfH, l.acc[i]))
	}
}
