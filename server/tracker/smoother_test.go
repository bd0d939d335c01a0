package tracker

import (
	"math/rand"
	"testing"

	"github.com/mirrorcam/mirror/pkg/facegeom"
	"github.com/stretchr/testify/require"
)

func randomFrame(rng *rand.Rand, n int) facegeom.Frame {
	f := make(facegeom.Frame, n)
	for i := range f {
		f[i] = facegeom.Landmark{
			X: rng.Float32(),
			Y: rng.Float32(),
			Z: rng.Float32()*2 - 1,
		}
	}
	return f
}

func TestSmootherColdStart(t *testing.T) {
	s := NewSmoother(DefaultSmoothingAlpha)
	f := randomFrame(rand.New(rand.NewSource(1)), 20)
	out, err := s.Apply(f)
	require.NoError(t, err)
	require.Equal(t, f, out)
}

// Every smoothed coordinate must be a convex combination of the previous and
// current values.
func TestSmootherConvexity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := NewSmoother(DefaultSmoothingAlpha)
	prev, err := s.Apply(randomFrame(rng, 50))
	require.NoError(t, err)
	for iter := 0; iter < 10; iter++ {
		cur := randomFrame(rng, 50)
		out, err := s.Apply(cur)
		require.NoError(t, err)
		require.Len(t, out, 50)
		// Tiny epsilon for float32 rounding when prev and cur are nearly equal
		const eps = 1e-6
		for i := range out {
			require.GreaterOrEqual(t, out[i].X, min(prev[i].X, cur[i].X)-eps)
			require.LessOrEqual(t, out[i].X, max(prev[i].X, cur[i].X)+eps)
			require.GreaterOrEqual(t, out[i].Y, min(prev[i].Y, cur[i].Y)-eps)
			require.LessOrEqual(t, out[i].Y, max(prev[i].Y, cur[i].Y)+eps)
			require.GreaterOrEqual(t, out[i].Z, min(prev[i].Z, cur[i].Z)-eps)
			require.LessOrEqual(t, out[i].Z, max(prev[i].Z, cur[i].Z)+eps)
		}
		prev = out
	}
}

func TestSmootherAlphaExtremes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	first := randomFrame(rng, 10)
	second := randomFrame(rng, 10)

	// Alpha 1: output sticks to the previous frame
	s := NewSmoother(1)
	s.Apply(first)
	out, err := s.Apply(second)
	require.NoError(t, err)
	require.Equal(t, first, out)

	// Alpha 0: output tracks the current frame exactly
	s = NewSmoother(0)
	s.Apply(first)
	out, err = s.Apply(second)
	require.NoError(t, err)
	require.Equal(t, second, out)
}

func TestSmootherLengthMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	s := NewSmoother(DefaultSmoothingAlpha)
	s.Apply(randomFrame(rng, 20))

	// Detector re-initialized with a different landmark count: fail soft,
	// raw frame passes through and becomes the new smoothing state.
	shorter := randomFrame(rng, 10)
	out, err := s.Apply(shorter)
	require.ErrorIs(t, err, ErrInputMismatch)
	require.Equal(t, shorter, out)

	// Next frame of the new length smooths normally
	next := randomFrame(rng, 10)
	out, err = s.Apply(next)
	require.NoError(t, err)
	require.Len(t, out, 10)
}

func TestSmootherReset(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	s := NewSmoother(DefaultSmoothingAlpha)
	s.Apply(randomFrame(rng, 5))
	s.Reset()
	f := randomFrame(rng, 5)
	out, err := s.Apply(f)
	require.NoError(t, err)
	require.Equal(t, f, out)
}
