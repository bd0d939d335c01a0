package facegeom

import "fmt"

// Feature is a semantic name for an anatomical landmark
type Feature string

const (
	FeatureLeftEyeOuter   Feature = "leftEyeOuter"
	FeatureRightEyeOuter  Feature = "rightEyeOuter"
	FeatureLeftEyeCenter  Feature = "leftEyeCenter"
	FeatureRightEyeCenter Feature = "rightEyeCenter"
	FeatureNoseTip        Feature = "noseTip"
	FeatureNoseBridge     Feature = "noseBridge"
)

// FeatureMap resolves semantic feature names to landmark indices for a
// particular detector layout. The map is resolved once at startup, so that
// transform logic never hardcodes raw indices.
type FeatureMap struct {
	NumLandmarks int
	indices      map[Feature]int
}

// Mesh468 is the layout of the common 468-point face mesh detectors.
func Mesh468() *FeatureMap {
	m, _ := NewFeatureMap(468, map[Feature]int{
		FeatureLeftEyeOuter:   33,
		FeatureRightEyeOuter:  263,
		FeatureLeftEyeCenter:  159,
		FeatureRightEyeCenter: 386,
		FeatureNoseTip:        1,
		FeatureNoseBridge:     9,
	})
	return m
}

func NewFeatureMap(numLandmarks int, indices map[Feature]int) (*FeatureMap, error) {
	for feature, idx := range indices {
		if idx < 0 || idx >= numLandmarks {
			return nil, fmt.Errorf("Feature '%v' index %v is outside the %v-landmark layout", feature, idx, numLandmarks)
		}
	}
	c := make(map[Feature]int, len(indices))
	for k, v := range indices {
		c[k] = v
	}
	return &FeatureMap{
		NumLandmarks: numLandmarks,
		indices:      c,
	}, nil
}

// Lookup returns the landmark for the named feature, or (zero, false) if the
// feature is unmapped or the frame is too short to contain it.
func (m *FeatureMap) Lookup(f Frame, feature Feature) (Landmark, bool) {
	idx, ok := m.indices[feature]
	if !ok || idx >= len(f) {
		return Landmark{}, false
	}
	return f[idx], true
}

// Index returns the raw index of a feature, or -1 if unmapped
func (m *FeatureMap) Index(feature Feature) int {
	idx, ok := m.indices[feature]
	if !ok {
		return -1
	}
	return idx
}
