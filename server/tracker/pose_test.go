package tracker

import (
	"testing"

	"github.com/mirrorcam/mirror/pkg/facegeom"
	"github.com/stretchr/testify/require"
)

// meshFrame builds a 468-point frame with every landmark at a sane default,
// then applies overrides for specific features.
func meshFrame(features *facegeom.FeatureMap, overrides map[facegeom.Feature]facegeom.Landmark) facegeom.Frame {
	f := make(facegeom.Frame, 468)
	for i := range f {
		f[i] = facegeom.Landmark{X: 0.5, Y: 0.5}
	}
	for feature, p := range overrides {
		f[features.Index(feature)] = p
	}
	return f
}

func TestPoseConfidence(t *testing.T) {
	features := facegeom.Mesh468()
	e := NewPoseEstimator(features)

	// All four checked landmarks in range
	f := meshFrame(features, nil)
	require.Equal(t, float32(1), e.Estimate(f).Confidence)

	// All four out of range
	out := facegeom.Landmark{X: -2, Y: -2}
	f = meshFrame(features, map[facegeom.Feature]facegeom.Landmark{
		facegeom.FeatureLeftEyeOuter:  out,
		facegeom.FeatureRightEyeOuter: out,
		facegeom.FeatureNoseTip:       out,
		facegeom.FeatureNoseBridge:    out,
	})
	require.Equal(t, float32(0), e.Estimate(f).Confidence)

	// 2 of 4 valid
	f = meshFrame(features, map[facegeom.Feature]facegeom.Landmark{
		facegeom.FeatureNoseTip:    out,
		facegeom.FeatureNoseBridge: out,
	})
	require.Equal(t, float32(0.5), e.Estimate(f).Confidence)
}

func TestPoseAngles(t *testing.T) {
	features := facegeom.Mesh468()
	e := NewPoseEstimator(features)

	// Eyes level, nose exactly at eye-center x: roll and yaw are both zero
	f := meshFrame(features, map[facegeom.Feature]facegeom.Landmark{
		facegeom.FeatureLeftEyeCenter:  {X: 0.4, Y: 0.5},
		facegeom.FeatureRightEyeCenter: {X: 0.6, Y: 0.5},
		facegeom.FeatureNoseTip:        {X: 0.5, Y: 0.5},
	})
	p := e.Estimate(f)
	require.Equal(t, float32(0), p.Roll)
	require.Equal(t, float32(0), p.Yaw)
	require.Equal(t, float32(0), p.Pitch)

	// Tilted eye line produces a non-zero roll, and the sign follows the tilt
	f = meshFrame(features, map[facegeom.Feature]facegeom.Landmark{
		facegeom.FeatureLeftEyeCenter:  {X: 0.4, Y: 0.45},
		facegeom.FeatureRightEyeCenter: {X: 0.6, Y: 0.55},
		facegeom.FeatureNoseTip:        {X: 0.5, Y: 0.5},
	})
	require.Greater(t, e.Estimate(f).Roll, float32(0))

	// Nose offset right of eye center produces positive yaw
	f = meshFrame(features, map[facegeom.Feature]facegeom.Landmark{
		facegeom.FeatureLeftEyeCenter:  {X: 0.4, Y: 0.5},
		facegeom.FeatureRightEyeCenter: {X: 0.6, Y: 0.5},
		facegeom.FeatureNoseTip:        {X: 0.55, Y: 0.5},
	})
	require.Greater(t, e.Estimate(f).Yaw, float32(0))
}

func TestPoseMissingLandmarks(t *testing.T) {
	features := facegeom.Mesh468()
	e := NewPoseEstimator(features)

	// A frame too short to contain the pose landmarks: zero angles, no failure
	short := make(facegeom.Frame, 10)
	p := e.Estimate(short)
	require.Equal(t, float32(0), p.Roll)
	require.Equal(t, float32(0), p.Yaw)
	require.Equal(t, float32(0), p.Pitch)

	// Empty frame: zero rect, no failure
	p = e.Estimate(facegeom.Frame{})
	require.Equal(t, facegeom.Rect{}, p.Bounds)
}
