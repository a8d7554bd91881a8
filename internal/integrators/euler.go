package integrators

// SymplecticEuler is the semi-implicit Euler method: velocities are kicked
// with accelerations from the start-of-step positions, then positions drift
// with the new velocities. It is first order but conserves a shadow
// Hamiltonian, so orbital energy does not drift secularly.
type SymplecticEuler[T any] struct {
	pos []Vec[T]
	acc []Vec[T]
}

func NewSymplecticEuler[T any]() *SymplecticEuler[T] {
	return &SymplecticEuler[T]{}
}

func (e *SymplecticEuler[T]) ensureScratch(n int) {
	if len(e.pos) != n {
		e.pos = make([]Vec[T], n)
		e.acc = make([]Vec[T], n)
	}
}

func (e *SymplecticEuler[T]) Step(s *System[T], h T) {
	f := s.Field
	e.ensureScratch(len(s.Bodies))

	for i := range s.Bodies {
		e.pos[i] = s.Bodies[i].Pos
	}
	s.Accelerations(e.pos, e.acc)

	for i := range s.Bodies {
		b := &s.Bodies[i]
		b.Vel = add(f, b.Vel, scale(f, h, e.acc[i]))
		b.Pos = add(f, b.Pos, scale(f, h, b.Vel))
	}
}
