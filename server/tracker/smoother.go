package tracker

import (
	"errors"

	"github.com/mirrorcam/mirror/pkg/facegeom"
)

// DefaultSmoothingAlpha is the weight given to the previous frame.
// Higher = more inertia, less jitter, more lag.
const DefaultSmoothingAlpha = 0.7

// ErrInputMismatch is returned by Smoother.Apply when the incoming frame has a
// different landmark count to the previous frame (eg the detector was
// re-initialized with a different layout).
var ErrInputMismatch = errors.New("landmark frame length mismatch")

// Smoother blends each incoming landmark frame with the previous smoothed
// frame, per landmark, per coordinate:
//
//	smoothed[i] = previous[i]*alpha + current[i]*(1-alpha)
//
// It keeps a single slot of history (the previous smoothed frame), nothing
// deeper. There is no cross-index coupling and no outlier rejection.
//
// On a frame length mismatch we fail soft: smoothing is skipped for that cycle,
// the raw frame is returned alongside ErrInputMismatch, and the raw frame
// becomes the new smoothing state. Callers that want hard failure can check
// the error; the pipeline treats it as a warning.
type Smoother struct {
	Alpha float32

	prev facegeom.Frame
}

func NewSmoother(alpha float32) *Smoother {
	return &Smoother{Alpha: alpha}
}

// Apply consumes the current raw frame and returns the new smoothed frame.
// The first frame after creation (or after Reset) is returned unchanged.
func (s *Smoother) Apply(current facegeom.Frame) (facegeom.Frame, error) {
	if s.prev == nil {
		s.prev = current.Clone()
		return s.prev, nil
	}
	if len(s.prev) != len(current) {
		s.prev = current.Clone()
		return s.prev, ErrInputMismatch
	}
	a := s.Alpha
	b := 1 - a
	out := make(facegeom.Frame, len(current))
	for i := range current {
		out[i] = facegeom.Landmark{
			X: s.prev[i].X*a + current[i].X*b,
			Y: s.prev[i].Y*a + current[i].Y*b,
			Z: s.prev[i].Z*a + current[i].Z*b,
		}
	}
	s.prev = out
	return out, nil
}

// Reset discards the smoothing state, so the next frame passes through unchanged
func (s *Smoother) Reset() {
	s.prev = nil
}
