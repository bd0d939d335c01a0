package tracker

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmharper/ringbuffer"
	"github.com/cyclopcam/logs"
	"github.com/mirrorcam/mirror/pkg/facegeom"
	"github.com/mirrorcam/mirror/pkg/perfstats"
)

// Number of recent pose summaries we retain per session (rounded up to a power of 2)
const poseHistorySize = 30

// How many frames can queue between the network reader and the session loop.
// We want latest-value-wins, not backlog, so this stays tiny.
const sessionInputQueueSize = 4

// TrackState is the result of one processed detection cycle. It is published
// by atomic pointer swap, so a reader always observes a fully-written state,
// never a partially updated one. The struct is immutable after publication.
// SYNC-TRACK-STATE
type TrackState struct {
	SessionID     int64         `json:"sessionID"`
	FrameIndex    int64         `json:"frameIndex"`
	HaveFace      bool          `json:"haveFace"`
	Pose          PoseSummary   `json:"pose"`
	HavePlacement bool          `json:"havePlacement"`
	Placement     Placement     `json:"placement"`
	Flat          FlatPlacement `json:"flat"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// assetProfile is what the placement engine needs to know about the active
// overlay asset. Swapped atomically when the active asset changes.
type assetProfile struct {
	aspect        float32 // width/height of a flat asset; <= 0 means unknown
	applyRotation bool    // rotation policy for the flat path
}

// detectionInput is one cycle's worth of detector output.
// A nil Frame means "no face detected this cycle", which is a normal state,
// not an error.
type detectionInput struct {
	frame facegeom.Frame
	when  time.Time
}

// Session is one client's live try-on pipeline
type Session struct {
	ID             int64
	ViewportWidth  int
	ViewportHeight int

	log      logs.Log
	tracker  *Tracker
	smoother *Smoother
	pose     *PoseEstimator
	engine   *PlacementEngine

	params atomic.Pointer[OverlayParams]
	asset  atomic.Pointer[assetProfile]
	state  atomic.Pointer[TrackState]

	incoming    chan detectionInput
	quit        chan bool
	loopStopped chan bool
	mustStop    atomic.Bool

	minInterval     time.Duration
	lastProcessed   time.Time
	lastMismatchLog time.Time
	nFramesDropped  int64
	lastDropLog     time.Time

	historyLock sync.Mutex
	poseHistory ringbuffer.RingP[PoseSummary]

	statsLock sync.Mutex
	cycleTime perfstats.TimeAccumulator
}

// SessionStats are cumulative processing counters for one session
type SessionStats struct {
	FramesProcessed int64   `json:"framesProcessed"`
	FramesDropped   int64   `json:"framesDropped"`
	AverageCycleMS  float64 `json:"averageCycleMS"`
}

func nextPowerOf2(n int) int {
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}

func newSession(t *Tracker, id int64, viewportWidth, viewportHeight int, params OverlayParams) *Session {
	s := &Session{
		ID:             id,
		ViewportWidth:  viewportWidth,
		ViewportHeight: viewportHeight,
		log:            t.Log,
		tracker:        t,
		smoother:       NewSmoother(t.SmoothingAlpha),
		pose:           NewPoseEstimator(t.Features),
		engine:         NewPlacementEngine(t.Features),
		incoming:       make(chan detectionInput, sessionInputQueueSize),
		quit:           make(chan bool),
		loopStopped:    make(chan bool),
		minInterval:    t.MinDetectInterval,
		poseHistory:    ringbuffer.NewRingP[PoseSummary](nextPowerOf2(poseHistorySize)),
	}
	p := params
	s.params.Store(&p)
	s.asset.Store(&assetProfile{})
	s.state.Store(&TrackState{
		SessionID: id,
		UpdatedAt: time.Now(),
	})
	return s
}

func (s *Session) start() {
	go s.loop()
}

func (s *Session) stop() {
	s.mustStop.Store(true)
	close(s.quit)
	<-s.loopStopped
}

// Submit feeds one detection cycle's output into the session. A nil frame
// means "no face". Never blocks: if the session is falling behind, older
// queued frames are discarded so the newest wins.
func (s *Session) Submit(frame facegeom.Frame) {
	if s.mustStop.Load() {
		return
	}
	input := detectionInput{frame: frame, when: time.Now()}
	for {
		select {
		case s.incoming <- input:
			return
		default:
		}
		// Queue full. Drop the oldest queued frame and try again.
		select {
		case <-s.incoming:
		default:
		}
	}
}

// State returns the most recently published track state. The returned value
// is immutable.
func (s *Session) State() *TrackState {
	return s.state.Load()
}

// Params returns the current overlay parameters
func (s *Session) Params() OverlayParams {
	return *s.params.Load()
}

// SetParams replaces the overlay parameters. Takes effect on the next
// processed cycle; rapid successive calls are latest-value-wins.
func (s *Session) SetParams(p OverlayParams) {
	s.params.Store(&p)
}

// SetAssetProfile tells the placement engine about the active overlay asset
func (s *Session) SetAssetProfile(aspect float32, applyRotation bool) {
	s.asset.Store(&assetProfile{aspect: aspect, applyRotation: applyRotation})
}

// Stats returns cumulative processing counters
func (s *Session) Stats() SessionStats {
	s.statsLock.Lock()
	defer s.statsLock.Unlock()
	return SessionStats{
		FramesProcessed: s.cycleTime.Samples,
		FramesDropped:   s.nFramesDropped,
		AverageCycleMS:  float64(s.cycleTime.Average().Nanoseconds()) / 1e6,
	}
}

// PoseHistory returns the most recent pose summaries, oldest first
func (s *Session) PoseHistory() []PoseSummary {
	s.historyLock.Lock()
	defer s.historyLock.Unlock()
	out := make([]PoseSummary, 0, s.poseHistory.Len())
	for i := 0; i < s.poseHistory.Len(); i++ {
		out = append(out, s.poseHistory.Peek(i))
	}
	return out
}

func (s *Session) loop() {
	for !s.mustStop.Load() {
		select {
		case <-s.quit:
		case input := <-s.incoming:
			if s.mustStop.Load() {
				break
			}
			// Explicit rate limit, independent of the client's capture rate.
			// Frames arriving faster than minInterval are dropped; the next
			// one that arrives after the window carries the newest landmarks
			// anyway.
			if !s.lastProcessed.IsZero() && input.when.Sub(s.lastProcessed) < s.minInterval {
				s.statsLock.Lock()
				s.nFramesDropped++
				dropped := s.nFramesDropped
				s.statsLock.Unlock()
				if time.Since(s.lastDropLog) > 30*time.Second {
					s.log.Debugf("Session %v dropped %v over-rate frames", s.ID, dropped)
					s.lastDropLog = time.Now()
				}
				continue
			}
			s.lastProcessed = input.when
			s.processCycle(input)
		}
	}
	close(s.loopStopped)
}

func (s *Session) processCycle(input detectionInput) {
	start := time.Now()
	prev := s.state.Load()
	next := &TrackState{
		SessionID:  s.ID,
		FrameIndex: prev.FrameIndex + 1,
		UpdatedAt:  time.Now(),
		// No-detection policy: the overlay must never snap to an undefined
		// position, so the last known placement is always carried forward.
		HavePlacement: prev.HavePlacement,
		Placement:     prev.Placement,
		Flat:          prev.Flat,
	}

	if len(input.frame) != 0 {
		smoothed, err := s.smoother.Apply(input.frame)
		if err == ErrInputMismatch {
			// Fail soft: this cycle runs on the raw frame, unsmoothed
			if time.Since(s.lastMismatchLog) > 10*time.Second {
				s.log.Warnf("Session %v landmark count changed; skipping smoothing for this cycle", s.ID)
				s.lastMismatchLog = time.Now()
			}
		}
		next.HaveFace = true
		next.Pose = s.pose.Estimate(smoothed)

		if leftEye, rightEye, ok := s.engine.EyePoints(smoothed); ok {
			params := *s.params.Load()
			asset := s.asset.Load()
			next.Placement = s.engine.Place(leftEye, rightEye, s.ViewportWidth, s.ViewportHeight, params)
			next.Flat = s.engine.PlaceFlat(leftEye, rightEye, s.ViewportWidth, s.ViewportHeight, params, asset.aspect, asset.applyRotation)
			next.HavePlacement = true
		}

		s.historyLock.Lock()
		s.poseHistory.Add(next.Pose)
		s.historyLock.Unlock()
	}

	// Single atomic swap: readers see the whole new state or the whole old one
	s.state.Store(next)
	s.tracker.sendToWatchers(next)

	s.statsLock.Lock()
	s.cycleTime.AddSample(time.Since(start))
	s.statsLock.Unlock()
}
