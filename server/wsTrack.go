package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/mirrorcam/mirror/server/tracker"
)

type webSocketMsg int

const (
	webSocketMsgPause  webSocketMsg = iota // pause stream (eg browser tab deactivated)
	webSocketMsgResume                     // resume stream (eg browser tab reactivated)
)

// Sent by client over websocket, either a command or a landmark frame.
// A message with a non-empty Command is a command; anything else is treated
// as a landmark frame (SYNC-LANDMARK-FRAME).
// SYNC-WEBSOCKET-JSON-MSG
type webSocketJSON struct {
	Command   string       `json:"command"`
	Landmarks [][3]float32 `json:"landmarks"`
}

// Number of track states we will buffer on the send side, before dropping
// states to the sender. Tracking output is latest-value-wins, so dropping
// is always safe.
const WebSocketSendBufferSize = 50

var nextWebSocketStreamerID int64

// trackWebSocketStreamer pushes TrackStates down a websocket as they are
// published, and feeds landmark frames from the same socket into the session.
type trackWebSocketStreamer struct {
	log          logs.Log
	streamerID   int64 // Intended to aid in logging/debugging
	session      *tracker.Session
	trk          *tracker.Tracker
	closed       atomic.Bool
	paused       atomic.Bool
	fromClient   chan webSocketMsg
	sendQueue    chan *tracker.TrackState
	lastDropMsg  time.Time
	nSent        int64
	nDropped     int64
	lastCountMsg time.Time
}

func (s *Server) httpSessionTrackWS(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	session := s.sessionFromParams(params)
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Errorf("Websocket upgrade failed: %v", err)
		return
	}
	streamer := &trackWebSocketStreamer{
		log:        s.Log,
		streamerID: atomic.AddInt64(&nextWebSocketStreamerID, 1),
		session:    session,
		trk:        s.tracker,
		sendQueue:  make(chan *tracker.TrackState, WebSocketSendBufferSize),
		fromClient: make(chan webSocketMsg, 1),
	}
	streamer.run(conn)
}

func (s *trackWebSocketStreamer) run(conn *websocket.Conn) {
	watcher := s.trk.AddWatcher(s.session.ID)
	defer s.trk.RemoveWatcher(s.session.ID, watcher)
	defer conn.Close()

	go s.webSocketReader(conn)
	go s.webSocketWriter(conn)

	s.closed.Store(false)
	s.paused.Store(false)
	webSocketClosed := false

	for !s.closed.Load() {
		select {
		case state, ok := <-watcher:
			if !ok {
				// Session was closed; end the stream
				s.log.Infof("WebSocket %v session %v closed", s.streamerID, s.session.ID)
				s.closed.Store(true)
				break
			}
			if !s.paused.Load() {
				s.onState(state)
			}
		case msg, ok := <-s.fromClient:
			if !ok {
				s.log.Infof("WebSocket %v closed by client", s.streamerID)
				webSocketClosed = true
				s.closed.Store(true)
				break
			}
			switch msg {
			case webSocketMsgPause:
				s.paused.Store(true)
			case webSocketMsgResume:
				s.paused.Store(false)
			}
		}
	}
	close(s.sendQueue)
	if !webSocketClosed {
		conn.Close()
	}
}

func (s *trackWebSocketStreamer) onState(state *tracker.TrackState) {
	now := time.Now()
	if len(s.sendQueue) >= WebSocketSendBufferSize {
		s.nDropped++
		if now.Sub(s.lastDropMsg) > 5*time.Second {
			s.log.Infof("WebSocket %v dropped %v/%v states", s.streamerID, s.nDropped, s.nDropped+s.nSent)
			s.lastDropMsg = now
		}
	} else {
		s.nSent++
		if now.Sub(s.lastCountMsg) > 60*time.Second {
			s.log.Infof("WebSocket %v sent %v/%v states", s.streamerID, s.nSent, s.nDropped+s.nSent)
			s.lastCountMsg = now
		}
		s.sendQueue <- state
	}
}

// Read from the websocket. Landmark frames go straight into the session,
// which never blocks. Commands are posted to our own channel, so that run()
// handles them in a single loop alongside tracking output.
func (s *trackWebSocketStreamer) webSocketReader(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		msg := webSocketJSON{}
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warnf("WebSocket %v received unparseable message: %v", s.streamerID, err)
			continue
		}
		switch msg.Command {
		case "":
			frame := landmarkFrame{Landmarks: msg.Landmarks}
			s.session.Submit(frame.toFrame())
		case "pause":
			s.fromClient <- webSocketMsgPause
		case "resume":
			s.fromClient <- webSocketMsgResume
		default:
			s.log.Warnf("WebSocket %v received unknown command '%v'", s.streamerID, msg.Command)
		}
	}
	close(s.fromClient)
}

func (s *trackWebSocketStreamer) webSocketWriter(conn *websocket.Conn) {
	for state := range s.sendQueue {
		if err := conn.WriteJSON(state); err != nil {
			break
		}
	}
}
