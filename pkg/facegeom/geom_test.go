package facegeom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBounds(t *testing.T) {
	f := Frame{
		{X: 0, Y: 0},
		{X: 1, Y: 0},
		{X: 0, Y: 1},
		{X: 1, Y: 1},
		{X: 0.3, Y: 0.7},
		{X: 0.5, Y: 0.5},
	}
	r := f.Bounds()
	require.Equal(t, float32(0), r.X)
	require.Equal(t, float32(0), r.Y)
	require.Equal(t, float32(1), r.Width)
	require.Equal(t, float32(1), r.Height)
	require.Equal(t, float32(0.5), r.CenterX())
	require.Equal(t, float32(0.5), r.CenterY())
}

func TestBoundsEmpty(t *testing.T) {
	require.Equal(t, Rect{}, Frame{}.Bounds())
}

func TestFeatureMap(t *testing.T) {
	m := Mesh468()
	require.Equal(t, 33, m.Index(FeatureLeftEyeOuter))
	require.Equal(t, 263, m.Index(FeatureRightEyeOuter))
	require.Equal(t, -1, m.Index(Feature("earlobe")))

	frame := make(Frame, 468)
	frame[1] = Landmark{X: 0.5, Y: 0.6, Z: -0.1}
	p, ok := m.Lookup(frame, FeatureNoseTip)
	require.True(t, ok)
	require.Equal(t, float32(0.5), p.X)

	// Frame shorter than the layout: lookups past the end miss, but don't panic
	_, ok = m.Lookup(frame[:100], FeatureRightEyeOuter)
	require.False(t, ok)

	_, err := NewFeatureMap(100, map[Feature]int{FeatureNoseTip: 150})
	require.Error(t, err)
}

func TestInUnitRange(t *testing.T) {
	require.True(t, Landmark{X: 0, Y: 1}.InUnitRange())
	require.True(t, Landmark{X: 0.5, Y: 0.5, Z: -3}.InUnitRange())
	require.False(t, Landmark{X: -0.01, Y: 0.5}.InUnitRange())
	require.False(t, Landmark{X: 0.5, Y: 1.01}.InUnitRange())
}
