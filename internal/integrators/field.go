package integrators

import (
	"math"
	"math/big"
)

// Field is the arithmetic the steppers are written against. Implementations
// must not mutate their operands.
type Field[T any] interface {
	FromFloat(x float64) T
	Float(x T) float64
	Add(a, b T) T
	Sub(a, b T) T
	Mul(a, b T) T
	Div(a, b T) T
	Sqrt(x T) T
	IsZero(x T) bool
}

// Float64 is native double precision.
type Float64 struct{}

func (Float64) FromFloat(x float64) float64 { return x }
func (Float64) Float(x float64) float64     { return x }
func (Float64) Add(a, b float64) float64    { return a + b }
func (Float64) Sub(a, b float64) float64    { return a - b }
func (Float64) Mul(a, b float64) float64    { return a * b }
func (Float64) Div(a, b float64) float64    { return a / b }
func (Float64) Sqrt(x float64) float64      { return math.Sqrt(x) }
func (Float64) IsZero(x float64) bool       { return x == 0 }

// BigFloat is binary floating point with Prec bits of mantissa. Values
// must be finite: math/big panics on NaN.
type BigFloat struct {
	Prec uint
}

func (f BigFloat) alloc() *big.Float {
	return new(big.Float).SetPrec(f.Prec)
}

func (f BigFloat) FromFloat(x float64) *big.Float {
	return f.alloc().SetFloat64(x)
}

func (BigFloat) Float(x *big.Float) float64 {
	v, _ := x.Float64()
	return v
}

func (f BigFloat) Add(a, b *big.Float) *big.Float { return f.alloc().Add(a, b) }
func (f BigFloat) Sub(a, b *big.Float) *big.Float { return f.alloc().Sub(a, b) }
func (f BigFloat) Mul(a, b *big.Float) *big.Float { return f.alloc().Mul(a, b) }
func (f BigFloat) Div(a, b *big.Float) *big.Float { return f.alloc().Quo(a, b) }
func (f BigFloat) Sqrt(x *big.Float) *big.Float   { return f.alloc().Sqrt(x) }
func (BigFloat) IsZero(x *big.Float) bool         { return x.Sign() == 0 }

// Vec is a 3-vector over a Field.
type Vec[T any] struct {
	X, Y, Z T
}

func vecFrom[T any](f Field[T], x, y, z float64) Vec[T] {
	return Vec[T]{X: f.FromFloat(x), Y: f.FromFloat(y), Z: f.FromFloat(z)}
}

func add[T any](f Field[T], a, b Vec[T]) Vec[T] {
	return Vec[T]{X: f.Add(a.X, b.X), Y: f.Add(a.Y, b.Y), Z: f.Add(a.Z, b.Z)}
}

func sub[T any](f Field[T], a, b Vec[T]) Vec[T] {
	return Vec[T]{X: f.Sub(a.X, b.X), Y: f.Sub(a.Y, b.Y), Z: f.Sub(a.Z, b.Z)}
}

func scale[T any](f Field[T], k T, v Vec[T]) Vec[T] {
	return Vec[T]{X: f.Mul(k, v.X), Y: f.Mul(k, v.Y), Z: f.Mul(k, v.Z)}
}

func dot[T any](f Field[T], a, b Vec[T]) T {
	return f.Add(f.Add(f.Mul(a.X, b.X), f.Mul(a.Y, b.Y)), f.Mul(a.Z, b.Z))
}
