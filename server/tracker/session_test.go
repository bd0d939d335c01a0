package tracker

import (
	"testing"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/mirrorcam/mirror/pkg/facegeom"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) *Tracker {
	tr := NewTracker(logs.NewTestingLog(t), facegeom.Mesh468())
	// No rate limiting in tests, so every submitted frame gets processed
	tr.MinDetectInterval = 0
	return tr
}

// faceFrame is a full mesh frame with the eyes where placement needs them
func faceFrame(features *facegeom.FeatureMap) facegeom.Frame {
	return meshFrame(features, map[facegeom.Feature]facegeom.Landmark{
		facegeom.FeatureLeftEyeOuter:   {X: 0.4, Y: 0.5},
		facegeom.FeatureRightEyeOuter:  {X: 0.6, Y: 0.5},
		facegeom.FeatureLeftEyeCenter:  {X: 0.42, Y: 0.5},
		facegeom.FeatureRightEyeCenter: {X: 0.58, Y: 0.5},
		facegeom.FeatureNoseTip:        {X: 0.5, Y: 0.6},
		facegeom.FeatureNoseBridge:     {X: 0.5, Y: 0.45},
	})
}

func waitForState(t *testing.T, ch chan *TrackState) *TrackState {
	select {
	case state := <-ch:
		return state
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for track state")
		return nil
	}
}

func TestSessionValidation(t *testing.T) {
	tr := newTestTracker(t)
	defer tr.Close()

	_, err := tr.NewSession(0, 480, DefaultOverlayParams())
	require.Error(t, err)
	_, err = tr.NewSession(640, -1, DefaultOverlayParams())
	require.Error(t, err)
	_, err = tr.NewSession(640, 480, OverlayParams{Scale: 0, Width: 1})
	require.Error(t, err)

	s, err := tr.NewSession(640, 480, DefaultOverlayParams())
	require.NoError(t, err)
	require.Equal(t, s, tr.Session(s.ID))

	tr.CloseSession(s.ID)
	require.Nil(t, tr.Session(s.ID))
}

func TestSessionTracking(t *testing.T) {
	tr := newTestTracker(t)
	defer tr.Close()

	s, err := tr.NewSession(100, 100, DefaultOverlayParams())
	require.NoError(t, err)
	ch := tr.AddWatcher(s.ID)
	defer tr.RemoveWatcher(s.ID, ch)

	// Initial state: nothing tracked yet
	require.False(t, s.State().HaveFace)
	require.False(t, s.State().HavePlacement)

	// A frame with a face produces pose + placement
	s.Submit(faceFrame(tr.Features))
	state := waitForState(t, ch)
	require.True(t, state.HaveFace)
	require.True(t, state.HavePlacement)
	require.Equal(t, float32(1), state.Pose.Confidence)
	require.Equal(t, float32(0), state.Placement.Rotation)
	require.InDelta(t, 0.32, state.Placement.Scale, 1e-5)
	require.Equal(t, float32(50), state.Flat.CenterX)

	// State() observes the same published snapshot
	require.Equal(t, state, s.State())

	// No face this cycle: HaveFace drops, but the placement carries forward
	// so the overlay never jumps to an undefined position
	s.Submit(nil)
	state = waitForState(t, ch)
	require.False(t, state.HaveFace)
	require.True(t, state.HavePlacement)
	require.InDelta(t, 0.32, state.Placement.Scale, 1e-5)
}

func TestSessionParams(t *testing.T) {
	tr := newTestTracker(t)
	defer tr.Close()

	s, err := tr.NewSession(100, 100, DefaultOverlayParams())
	require.NoError(t, err)
	ch := tr.AddWatcher(s.ID)
	defer tr.RemoveWatcher(s.ID, ch)

	// Rapid successive updates: the last one wins, and the next processed
	// cycle uses it
	for i := 1; i <= 5; i++ {
		p := DefaultOverlayParams()
		p.Scale = float32(i)
		s.SetParams(p)
	}
	require.Equal(t, float32(5), s.Params().Scale)

	s.Submit(faceFrame(tr.Features))
	state := waitForState(t, ch)
	require.InDelta(t, 0.32*5, state.Placement.Scale, 1e-4)
}

func TestSessionAssetProfile(t *testing.T) {
	tr := newTestTracker(t)
	defer tr.Close()

	s, err := tr.NewSession(100, 100, DefaultOverlayParams())
	require.NoError(t, err)
	ch := tr.AddWatcher(s.ID)
	defer tr.RemoveWatcher(s.ID, ch)

	// Tilted eyes, default asset profile: flat rotation stays zero
	tilted := meshFrame(tr.Features, map[facegeom.Feature]facegeom.Landmark{
		facegeom.FeatureLeftEyeOuter:  {X: 0.4, Y: 0.45},
		facegeom.FeatureRightEyeOuter: {X: 0.6, Y: 0.55},
	})
	s.Submit(tilted)
	state := waitForState(t, ch)
	require.Equal(t, float32(0), state.Flat.Rotation)
	require.NotEqual(t, float32(0), state.Placement.Rotation)

	// Asset that opts into rotation, with a 2:1 aspect
	s.SetAssetProfile(2, true)
	s.Submit(tilted)
	state = waitForState(t, ch)
	require.NotEqual(t, float32(0), state.Flat.Rotation)
	require.InDelta(t, state.Flat.Width/2, state.Flat.Height, 1e-4)
}

func TestSessionPoseHistory(t *testing.T) {
	tr := newTestTracker(t)
	defer tr.Close()

	s, err := tr.NewSession(100, 100, DefaultOverlayParams())
	require.NoError(t, err)
	ch := tr.AddWatcher(s.ID)
	defer tr.RemoveWatcher(s.ID, ch)

	for i := 0; i < 3; i++ {
		s.Submit(faceFrame(tr.Features))
		waitForState(t, ch)
	}
	history := s.PoseHistory()
	require.Len(t, history, 3)
	for _, p := range history {
		require.Equal(t, float32(1), p.Confidence)
	}

	stats := s.Stats()
	require.Equal(t, int64(3), stats.FramesProcessed)
	require.Equal(t, int64(0), stats.FramesDropped)
}

func TestSessionStop(t *testing.T) {
	tr := newTestTracker(t)
	s, err := tr.NewSession(100, 100, DefaultOverlayParams())
	require.NoError(t, err)

	s.Submit(faceFrame(tr.Features))
	tr.CloseSession(s.ID)

	// Submit after stop is a no-op, and the final state stays readable
	s.Submit(faceFrame(tr.Features))
	require.NotNil(t, s.State())

	tr.Close()
}

func TestWatcherClosedOnSessionClose(t *testing.T) {
	tr := newTestTracker(t)
	defer tr.Close()

	s, err := tr.NewSession(100, 100, DefaultOverlayParams())
	require.NoError(t, err)
	ch := tr.AddWatcher(s.ID)
	tr.CloseSession(s.ID)

	// Streaming consumers see the session end as a closed channel
	_, ok := <-ch
	require.False(t, ok)

	// RemoveWatcher after the teardown is a harmless no-op
	tr.RemoveWatcher(s.ID, ch)
}

func TestWatcherRemove(t *testing.T) {
	tr := newTestTracker(t)
	defer tr.Close()

	s, err := tr.NewSession(100, 100, DefaultOverlayParams())
	require.NoError(t, err)
	ch1 := tr.AddWatcher(s.ID)
	ch2 := tr.AddWatcher(s.ID)
	tr.RemoveWatcher(s.ID, ch1)

	s.Submit(faceFrame(tr.Features))
	state := waitForState(t, ch2)
	require.True(t, state.HaveFace)
	require.Equal(t, 0, len(ch1))
}
