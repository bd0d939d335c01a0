package server

import (
	"net/http"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
	"github.com/mirrorcam/mirror/pkg/facegeom"
	"github.com/mirrorcam/mirror/server/tracker"
)

// SYNC-CREATE-SESSION-REQUEST
type createSessionRequest struct {
	ViewportWidth  int                    `json:"viewportWidth"`
	ViewportHeight int                    `json:"viewportHeight"`
	Params         *tracker.OverlayParams `json:"params"` // Optional. Defaults if omitted
}

type sessionInfo struct {
	ID             int64                 `json:"id"`
	ViewportWidth  int                   `json:"viewportWidth"`
	ViewportHeight int                   `json:"viewportHeight"`
	Params         tracker.OverlayParams `json:"params"`
}

// landmarkFrame is one detector output, sent by the client over HTTP or the
// tracking websocket. Empty landmarks means "no face detected", which is a
// normal message, not an error.
// SYNC-LANDMARK-FRAME
type landmarkFrame struct {
	Landmarks [][3]float32 `json:"landmarks"`
}

func (lf *landmarkFrame) toFrame() facegeom.Frame {
	if len(lf.Landmarks) == 0 {
		return nil
	}
	f := make(facegeom.Frame, len(lf.Landmarks))
	for i, p := range lf.Landmarks {
		f[i] = facegeom.Landmark{X: p[0], Y: p[1], Z: p[2]}
	}
	return f
}

func (s *Server) sessionFromParams(params httprouter.Params) *tracker.Session {
	id := www.ParseID(params.ByName("id"))
	session := s.tracker.Session(id)
	if session == nil {
		www.PanicNotFound()
	}
	return session
}

func infoFromSession(session *tracker.Session) *sessionInfo {
	return &sessionInfo{
		ID:             session.ID,
		ViewportWidth:  session.ViewportWidth,
		ViewportHeight: session.ViewportHeight,
		Params:         session.Params(),
	}
}

func (s *Server) httpSessionCreate(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	req := createSessionRequest{}
	www.ReadJSON(w, r, &req, 1024*1024)
	overlayParams := tracker.DefaultOverlayParams()
	if req.Params != nil {
		overlayParams = *req.Params
	}
	session, err := s.tracker.NewSession(req.ViewportWidth, req.ViewportHeight, overlayParams)
	www.CheckClient(err)
	if overlayParams.AssetID != 0 {
		s.applyAssetProfile(session, overlayParams.AssetID)
	}
	www.SendJSON(w, infoFromSession(session))
}

func (s *Server) httpSessionGet(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, infoFromSession(s.sessionFromParams(params)))
}

func (s *Server) httpSessionDelete(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	session := s.sessionFromParams(params)
	s.tracker.CloseSession(session.ID)
	www.SendOK(w)
}

func (s *Server) httpSessionState(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.sessionFromParams(params).State())
}

func (s *Server) httpSessionGetParams(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.sessionFromParams(params).Params())
}

func (s *Server) httpSessionSetParams(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	session := s.sessionFromParams(params)
	p := tracker.OverlayParams{}
	www.ReadJSON(w, r, &p, 1024*1024)
	if p.Scale <= 0 || p.Width <= 0 {
		www.PanicBadRequestf("Overlay scale and width must be positive")
	}
	if p.AssetID != 0 && p.AssetID != session.Params().AssetID {
		s.applyAssetProfile(session, p.AssetID)
	}
	session.SetParams(p)
	www.SendOK(w)
}

// httpSessionFrame is the plain-HTTP ingest path. The websocket path in
// httpSessionTrackWS is preferred; this one exists for clients that can't
// hold a websocket open.
func (s *Server) httpSessionFrame(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	session := s.sessionFromParams(params)
	lf := landmarkFrame{}
	www.ReadJSON(w, r, &lf, 4*1024*1024)
	session.Submit(lf.toFrame())
	www.SendOK(w)
}

func (s *Server) httpSessionPoseHistory(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.sessionFromParams(params).PoseHistory())
}

func (s *Server) httpSessionStats(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.sessionFromParams(params).Stats())
}

func (s *Server) httpSessionApplyPreset(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	session := s.sessionFromParams(params)
	preset, err := s.configDB.GetPresetFromID(www.ParseID(params.ByName("presetID")))
	www.CheckClient(err)
	p := tracker.OverlayParams{
		Scale:        float32(preset.Scale),
		Width:        float32(preset.Width),
		HeightOffset: float32(preset.HeightOffset),
		AssetID:      preset.AssetID,
	}
	s.applyAssetProfile(session, p.AssetID)
	session.SetParams(p)
	www.SendJSON(w, p)
}

// applyAssetProfile pushes an asset's placement-relevant attributes into the
// session, so the flat draw path knows the aspect ratio and rotation policy.
func (s *Server) applyAssetProfile(session *tracker.Session, assetID int64) {
	asset, err := s.configDB.GetAssetFromID(assetID)
	if err != nil {
		www.PanicBadRequestf("Unknown asset %v", assetID)
	}
	session.SetAssetProfile(float32(asset.AspectRatio), asset.ApplyRotation)
}
