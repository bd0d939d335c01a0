package facegeom

import (
	"github.com/chewxy/math32"
)

// Landmark is a single facial keypoint in normalized image space.
// X and Y are in [0,1] relative to the frame width/height. Z is a relative
// depth whose sign and scale depend on the detector; we never interpret it
// beyond blending it.
type Landmark struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func (p Landmark) Distance(b Landmark) float32 {
	dx := p.X - b.X
	dy := p.Y - b.Y
	return math32.Sqrt(dx*dx + dy*dy)
}

// InUnitRange is true if the x and y coordinates are both inside [0,1]
func (p Landmark) InUnitRange() bool {
	return p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
}

// Rect is an axis-aligned rectangle in normalized image space
type Rect struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

func (r Rect) CenterX() float32 {
	return r.X + r.Width/2
}

func (r Rect) CenterY() float32 {
	return r.Y + r.Height/2
}

func (r Rect) Area() float32 {
	return r.Width * r.Height
}

// Frame is the full ordered set of landmarks for one detected face in one
// detection cycle. Indices are stable semantic identifiers (index 33 is always
// the same anatomical point for a given detector layout), not just positions.
type Frame []Landmark

func (f Frame) Clone() Frame {
	c := make(Frame, len(f))
	copy(c, f)
	return c
}

// Bounds returns the bounding rectangle of all landmarks.
// An empty frame yields a zero rect at the origin. An empty frame should be
// treated as "no face" upstream, but it is not an error here.
func (f Frame) Bounds() Rect {
	if len(f) == 0 {
		return Rect{}
	}
	minX, minY := f[0].X, f[0].Y
	maxX, maxY := f[0].X, f[0].Y
	for _, p := range f[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}
