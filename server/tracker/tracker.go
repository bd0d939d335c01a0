package tracker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/mirrorcam/mirror/pkg/facegeom"
)

// Tracker owns all live try-on sessions. Each session runs its own processing
// goroutine: incoming landmark frames -> smoother -> pose estimator + placement
// engine -> atomically published TrackState.

// DefaultMinDetectInterval rate-limits how often a session processes landmark
// frames, independent of how fast the client captures them.
const DefaultMinDetectInterval = 33 * time.Millisecond

type Tracker struct {
	Log      logs.Log
	Features *facegeom.FeatureMap

	// Tuning. Set before creating sessions; applied to each new session.
	SmoothingAlpha    float32
	MinDetectInterval time.Duration

	nextSessionID atomic.Int64
	sessionsLock  sync.Mutex
	sessions      map[int64]*Session

	watchersLock sync.RWMutex
	watchers     map[int64][]chan *TrackState
}

func NewTracker(logger logs.Log, features *facegeom.FeatureMap) *Tracker {
	return &Tracker{
		Log:               logger,
		Features:          features,
		SmoothingAlpha:    DefaultSmoothingAlpha,
		MinDetectInterval: DefaultMinDetectInterval,
		sessions:          map[int64]*Session{},
		watchers:          map[int64][]chan *TrackState{},
	}
}

// NewSession creates a session and starts its processing goroutine
func (t *Tracker) NewSession(viewportWidth, viewportHeight int, params OverlayParams) (*Session, error) {
	if viewportWidth <= 0 || viewportHeight <= 0 {
		return nil, fmt.Errorf("Invalid viewport %vx%v", viewportWidth, viewportHeight)
	}
	if params.Scale <= 0 || params.Width <= 0 {
		return nil, fmt.Errorf("Overlay scale and width must be positive")
	}
	s := newSession(t, t.nextSessionID.Add(1), viewportWidth, viewportHeight, params)
	t.sessionsLock.Lock()
	t.sessions[s.ID] = s
	t.sessionsLock.Unlock()
	s.start()
	t.Log.Infof("Session %v created (%vx%v)", s.ID, viewportWidth, viewportHeight)
	return s, nil
}

// Session returns the live session with the given ID, or nil
func (t *Tracker) Session(id int64) *Session {
	t.sessionsLock.Lock()
	defer t.sessionsLock.Unlock()
	return t.sessions[id]
}

// CloseSession stops a session's processing goroutine and forgets it.
// The final TrackState remains readable by anybody still holding the session.
// Watcher channels are closed, so streaming consumers see the end of session.
func (t *Tracker) CloseSession(id int64) {
	t.sessionsLock.Lock()
	s := t.sessions[id]
	delete(t.sessions, id)
	t.sessionsLock.Unlock()
	if s != nil {
		s.stop()
		t.closeWatchers(id)
		t.Log.Infof("Session %v closed", id)
	}
}

// Close stops all sessions
func (t *Tracker) Close() {
	t.Log.Infof("Tracker shutting down")
	t.sessionsLock.Lock()
	sessions := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		sessions = append(sessions, s)
	}
	t.sessions = map[int64]*Session{}
	t.sessionsLock.Unlock()
	for _, s := range sessions {
		s.stop()
		t.closeWatchers(s.ID)
	}
	t.Log.Infof("Tracker is closed")
}
