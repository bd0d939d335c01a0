package tracker

import "github.com/mirrorcam/mirror/pkg/gen"

// SYNC-WATCHER-CHANNEL-SIZE
const WatcherChannelSize = 100

// AddWatcher registers to receive track states for a specific session
func (t *Tracker) AddWatcher(sessionID int64) chan *TrackState {
	t.watchersLock.Lock()
	defer t.watchersLock.Unlock()
	ch := make(chan *TrackState, WatcherChannelSize)
	t.watchers[sessionID] = append(t.watchers[sessionID], ch)
	return ch
}

// RemoveWatcher unregisters from track states for a specific session
func (t *Tracker) RemoveWatcher(sessionID int64, ch chan *TrackState) {
	t.watchersLock.Lock()
	defer t.watchersLock.Unlock()
	if _, exists := t.watchers[sessionID]; !exists {
		// Session was closed, which already tore the watchers down
		return
	}
	for i, w := range t.watchers[sessionID] {
		if w == ch {
			t.watchers[sessionID] = gen.DeleteFromSliceUnordered(t.watchers[sessionID], i)
			return
		}
	}
	t.Log.Warnf("Tracker.RemoveWatcher failed to find channel for session %v", sessionID)
}

// closeWatchers tears down all watcher channels for a session. Must only be
// called after the session's loop has stopped, so no sends can race the close.
func (t *Tracker) closeWatchers(sessionID int64) {
	t.watchersLock.Lock()
	defer t.watchersLock.Unlock()
	for _, ch := range t.watchers[sessionID] {
		close(ch)
	}
	delete(t.watchers, sessionID)
}

func (t *Tracker) sendToWatchers(state *TrackState) {
	t.watchersLock.RLock()
	for _, ch := range t.watchers[state.SessionID] {
		// SYNC-WATCHER-CHANNEL-SIZE
		if len(ch) >= cap(ch)*9/10 {
			// A stalled consumer must not stall the session pipeline, so we
			// choose to drop states.
			t.Log.Warnf("Watcher on session %v is falling behind. I am going to drop states.", state.SessionID)
		} else {
			ch <- state
		}
	}
	t.watchersLock.RUnlock()
}
