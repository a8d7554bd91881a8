package integrators

import (
	"testing"

	"github.com/san-kum/orrery/internal/dynamo"
)

func benchEngine(b *testing.B, method Method, prec uint) {
	e, err := NewEngine(method, prec)
	if err != nil {
		b.Fatal(err)
	}
	e.Reset(circular(dynamo.AU))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Advance(900, 1)
	}
}

func BenchmarkSymplecticEuler(b *testing.B) { benchEngine(b, MethodEuler, 0) }

func BenchmarkLeapfrog(b *testing.B) { benchEngine(b, MethodLeapfrog, 0) }

func BenchmarkSymplecticEulerBig128(b *testing.B) { benchEngine(b, MethodEuler, 128) }

func BenchmarkLeapfrogBig256(b *testing.B) { benchEngine(b, MethodLeapfrog, 256) }
