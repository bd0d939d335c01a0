package tracker

import (
	"github.com/chewxy/math32"
	"github.com/mirrorcam/mirror/pkg/facegeom"
)

// Placement tuning constants. These are empirically tuned values carried over
// from the original try-on behavior; they are exposed on PlacementEngine so
// deployments can override them, but the defaults are the reference behavior.
const (
	// DefaultFrustumSize is the height of the orthographic view volume that
	// normalized landmark coordinates are mapped into.
	DefaultFrustumSize = 2.0

	// DefaultBaseScale multiplies the world-space eye distance to get the
	// overlay scale.
	DefaultBaseScale = 0.8

	// DefaultHeightOffsetFactor converts the user's height-offset parameter
	// (pixel-like units) into a world-space vertical nudge.
	DefaultHeightOffsetFactor = 0.001

	// DefaultFlatWidthFactor converts the pixel-space eye distance into the
	// drawn width of a flat overlay asset.
	DefaultFlatWidthFactor = 2.0
)

// OverlayParams are the user-controlled overlay adjustments. They persist
// across frames until changed by an explicit control event; the per-frame
// pipeline never mutates them.
// SYNC-OVERLAY-PARAMS
type OverlayParams struct {
	Scale        float32 `json:"scale"`        // uniform scale multiplier, > 0
	Width        float32 `json:"width"`        // width multiplier, > 0
	HeightOffset float32 `json:"heightOffset"` // vertical offset, pixel-like units
	AssetID      int64   `json:"assetID"`      // active overlay asset
}

func DefaultOverlayParams() OverlayParams {
	return OverlayParams{
		Scale: 1,
		Width: 1,
	}
}

// Placement is the world-space transform for a rendered overlay asset on one
// tick: position, in-plane rotation about the viewing axis, and a single
// combined scale. Width and height are intentionally not independent axes
// here; the width multiplier folds into the same uniform scale. That coupling
// is reference behavior, not a bug.
// SYNC-PLACEMENT
type Placement struct {
	X        float32 `json:"x"`
	Y        float32 `json:"y"`
	Z        float32 `json:"z"`
	Rotation float32 `json:"rotation"` // radians, in-plane roll
	Scale    float32 `json:"scale"`
}

// FlatPlacement is the pixel-space rectangle for a flat (2D image) overlay
// asset. Rotation is carried but only applied when the asset's rotation
// policy says so.
type FlatPlacement struct {
	CenterX  float32 `json:"centerX"`
	CenterY  float32 `json:"centerY"`
	Width    float32 `json:"width"`
	Height   float32 `json:"height"`
	Rotation float32 `json:"rotation"` // radians; zero unless the asset applies rotation
}

// PlacementEngine maps the two eye landmarks plus overlay parameters into a
// placement transform.
type PlacementEngine struct {
	Features           *facegeom.FeatureMap
	FrustumSize        float32
	BaseScale          float32
	HeightOffsetFactor float32
	FlatWidthFactor    float32
}

func NewPlacementEngine(features *facegeom.FeatureMap) *PlacementEngine {
	return &PlacementEngine{
		Features:           features,
		FrustumSize:        DefaultFrustumSize,
		BaseScale:          DefaultBaseScale,
		HeightOffsetFactor: DefaultHeightOffsetFactor,
		FlatWidthFactor:    DefaultFlatWidthFactor,
	}
}

// worldFromNormalized converts a normalized landmark into the orthographic
// world space used by the renderer. Y flips sign; X does not. Every path that
// converts eye coordinates MUST go through this function, so the 3D and flat
// overlay paths can never disagree on orientation.
func (e *PlacementEngine) worldFromNormalized(p facegeom.Landmark, viewportWidth, viewportHeight int) (x, y float32) {
	aspect := float32(viewportWidth) / float32(viewportHeight)
	x = (p.X - 0.5) * e.FrustumSize * aspect
	y = -(p.Y - 0.5) * e.FrustumSize
	return
}

// EyePoints extracts the two eye landmarks used for placement from a frame.
// Returns false if either is unavailable, in which case the caller must keep
// the previous placement rather than producing an undefined one.
func (e *PlacementEngine) EyePoints(f facegeom.Frame) (left, right facegeom.Landmark, ok bool) {
	left, okL := e.Features.Lookup(f, facegeom.FeatureLeftEyeOuter)
	right, okR := e.Features.Lookup(f, facegeom.FeatureRightEyeOuter)
	return left, right, okL && okR
}

// Place computes the world-space placement transform for a 3D overlay asset
func (e *PlacementEngine) Place(leftEye, rightEye facegeom.Landmark, viewportWidth, viewportHeight int, params OverlayParams) Placement {
	lx, ly := e.worldFromNormalized(leftEye, viewportWidth, viewportHeight)
	rx, ry := e.worldFromNormalized(rightEye, viewportWidth, viewportHeight)

	dx := rx - lx
	dy := ry - ly
	dist := math32.Sqrt(dx*dx + dy*dy)

	return Placement{
		X:        (lx + rx) / 2,
		Y:        (ly+ry)/2 + params.HeightOffset*e.HeightOffsetFactor,
		Z:        0,
		Rotation: math32.Atan2(dy, dx),
		Scale:    dist * e.BaseScale * params.Scale * params.Width,
	}
}

// PlaceFlat computes the pixel-space rectangle for a flat overlay asset.
// assetAspect is the asset's own width/height ratio. applyRotation is a
// per-asset policy: the reference behavior never rotated flat assets, so the
// default asset policy is false, but it is a named choice rather than an
// accident of the code.
func (e *PlacementEngine) PlaceFlat(leftEye, rightEye facegeom.Landmark, viewportWidth, viewportHeight int, params OverlayParams, assetAspect float32, applyRotation bool) FlatPlacement {
	lx := leftEye.X * float32(viewportWidth)
	ly := leftEye.Y * float32(viewportHeight)
	rx := rightEye.X * float32(viewportWidth)
	ry := rightEye.Y * float32(viewportHeight)

	dx := rx - lx
	dy := ry - ly
	dist := math32.Sqrt(dx*dx + dy*dy)

	if assetAspect <= 0 {
		assetAspect = 1
	}
	width := dist * e.FlatWidthFactor * params.Scale * params.Width
	rotation := float32(0)
	if applyRotation {
		rotation = math32.Atan2(dy, dx)
	}
	return FlatPlacement{
		CenterX:  (lx + rx) / 2,
		CenterY:  (ly+ry)/2 + params.HeightOffset,
		Width:    width,
		Height:   width / assetAspect,
		Rotation: rotation,
	}
}
