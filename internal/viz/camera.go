package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	minZoom = 0.01
	maxZoom = 1000
)

// Camera maps ecliptic coordinates onto the canvas. Tilt 0 looks straight
// down the ecliptic pole; tilt π/2 looks along the plane.
type Camera struct {
	Tilt   float64 // radians about the x axis
	Zoom   float64
	Extent float64 // metres shown from centre to the nearer edge at zoom 1
}

func NewCamera() *Camera {
	return &Camera{Zoom: 1, Extent: 1.5e11}
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(maxZoom, c.Zoom*1.25) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(minZoom, c.Zoom/1.25) }

// TiltBy changes the tilt, clamped to [0, π/2].
func (c *Camera) TiltBy(a float64) {
	c.Tilt = math.Max(0, math.Min(math.Pi/2, c.Tilt+a))
}

// Fit sizes the extent so every point fits around centre and resets zoom.
func (c *Camera) Fit(points []r3.Vec, centre r3.Vec) {
	far := 0.0
	for _, p := range points {
		far = math.Max(far, r3.Norm(r3.Sub(p, centre)))
	}
	if far == 0 || math.IsNaN(far) || math.IsInf(far, 0) {
		return
	}
	c.Extent = far * 1.1
	c.Zoom = 1
}

// Project returns sub-pixel coordinates of p relative to centre on a w x h
// surface and whether they fall inside it.
func (c *Camera) Project(p, centre r3.Vec, w, h int) (int, int, bool) {
	rel := r3.Sub(p, centre)
	if c.Tilt != 0 {
		rel = r3.NewRotation(-c.Tilt, r3.Vec{X: 1}).Rotate(rel)
	}
	half := float64(min(w, h)) / 2
	scale := half / c.Extent * c.Zoom

	fx := float64(w)/2 + rel.X*scale
	fy := float64(h)/2 - rel.Y*scale
	if math.IsNaN(fx) || math.IsNaN(fy) || math.Abs(fx) > 1e9 || math.Abs(fy) > 1e9 {
		return 0, 0, false
	}
	x, y := int(math.Floor(fx)), int(math.Floor(fy))
	return x, y, x >= 0 && x < w && y >= 0 && y < h
}
