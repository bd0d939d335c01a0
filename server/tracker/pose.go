package tracker

import (
	"github.com/chewxy/math32"
	"github.com/mirrorcam/mirror/pkg/facegeom"
)

// PoseDepthK is the denominator used when converting the nose offset into yaw
// and pitch angles. It is an empirically tuned constant, not a calibrated
// projection parameter; change it and the apparent head pose sensitivity changes.
const PoseDepthK = 0.1

// PoseSummary is a per-frame derived view of the head pose.
// Angles are radians. Confidence is a presence/sanity fraction, not a
// statistical confidence: it counts how many of a small fixed set of feature
// landmarks have x,y inside [0,1].
// SYNC-POSE-SUMMARY
type PoseSummary struct {
	Pitch      float32       `json:"pitch"`
	Yaw        float32       `json:"yaw"`
	Roll       float32       `json:"roll"`
	Bounds     facegeom.Rect `json:"bounds"`
	Confidence float32       `json:"confidence"`
}

// confidenceFeatures is the fixed set of landmarks checked by the confidence score
var confidenceFeatures = []facegeom.Feature{
	facegeom.FeatureLeftEyeOuter,
	facegeom.FeatureRightEyeOuter,
	facegeom.FeatureNoseTip,
	facegeom.FeatureNoseBridge,
}

// PoseEstimator derives a PoseSummary from a landmark frame
type PoseEstimator struct {
	Features *facegeom.FeatureMap
	DepthK   float32 // zero value falls back to PoseDepthK
}

func NewPoseEstimator(features *facegeom.FeatureMap) *PoseEstimator {
	return &PoseEstimator{
		Features: features,
		DepthK:   PoseDepthK,
	}
}

func (e *PoseEstimator) depthK() float32 {
	if e.DepthK == 0 {
		return PoseDepthK
	}
	return e.DepthK
}

// Estimate never fails. Missing pose landmarks produce zero angles, and an
// empty frame produces a zero bounding rect.
func (e *PoseEstimator) Estimate(f facegeom.Frame) PoseSummary {
	p := PoseSummary{
		Bounds:     f.Bounds(),
		Confidence: e.confidence(f),
	}

	leftEye, okL := e.Features.Lookup(f, facegeom.FeatureLeftEyeCenter)
	rightEye, okR := e.Features.Lookup(f, facegeom.FeatureRightEyeCenter)
	nose, okN := e.Features.Lookup(f, facegeom.FeatureNoseTip)
	if !okL || !okR || !okN {
		return p
	}

	// In-plane rotation from the eye line
	p.Roll = math32.Atan2(rightEye.Y-leftEye.Y, rightEye.X-leftEye.X)

	// Yaw and pitch are small-angle proxies derived from the nose offset
	// relative to the eye midpoint. This is deliberately not a perspective
	// pose solve; the downstream overlay placement was tuned against these
	// approximations.
	eyeCenterX := (leftEye.X + rightEye.X) / 2
	eyeCenterY := (leftEye.Y + rightEye.Y) / 2
	k := e.depthK()
	p.Yaw = math32.Atan2(nose.X-eyeCenterX, k)
	p.Pitch = math32.Atan2(nose.Y-eyeCenterY, k)
	return p
}

func (e *PoseEstimator) confidence(f facegeom.Frame) float32 {
	valid := 0
	for _, feature := range confidenceFeatures {
		if p, ok := e.Features.Lookup(f, feature); ok && p.InUnitRange() {
			valid++
		}
	}
	return float32(valid) / float32(len(confidenceFeatures))
}
