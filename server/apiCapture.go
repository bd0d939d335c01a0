package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
	"github.com/mirrorcam/mirror/server/configdb"
	"github.com/mirrorcam/mirror/server/overlay"
	"github.com/mirrorcam/mirror/server/storage"
)

const maxCaptureUploadBytes = 16 * 1024 * 1024

// httpCapture takes a JPEG camera frame in the request body, burns the active
// overlay asset into it at the session's current tracked placement, stores the
// result, and returns the snapshot record.
func (s *Server) httpCapture(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	session := s.sessionFromParams(params)
	state := session.State()
	if !state.HavePlacement {
		www.PanicBadRequestf("Nothing to capture: no face has been tracked yet in this session")
	}

	raw := www.ReadLimited(w, r, maxCaptureUploadBytes)

	assetID := session.Params().AssetID
	var asset *overlay.LoadedAsset
	if assetID != 0 {
		rec, err := s.configDB.GetAssetFromID(assetID)
		www.CheckClient(err)
		asset = s.assets.Load(rec)
	} else {
		asset = s.assets.Builtin()
	}

	composed, err := overlay.Composite(raw, asset, state.Flat)
	www.CheckClient(err)

	snapshot := configdb.Snapshot{
		AssetID: assetID,
		Width:   session.ViewportWidth,
		Height:  session.ViewportHeight,
	}
	www.Check(s.configDB.CreateSnapshot(&snapshot))
	snapshot.FileName = fmt.Sprintf("snapshots/%v.jpg", snapshot.ID)
	if err := storage.WriteFile(s.storage, snapshot.FileName, bytes.NewReader(composed)); err != nil {
		s.configDB.DeleteSnapshot(snapshot.ID)
		www.Check(err)
	}
	www.Check(s.configDB.DB.Save(&snapshot).Error)
	s.Log.Infof("Captured snapshot %v for session %v", snapshot.ID, session.ID)
	www.SendJSON(w, &snapshot)
}

func (s *Server) httpSnapshotList(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	snapshots, err := s.configDB.ListSnapshots()
	www.Check(err)
	www.SendJSON(w, snapshots)
}

func (s *Server) httpSnapshotFile(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	snapshot, err := s.configDB.GetSnapshotFromID(www.ParseID(params.ByName("id")))
	www.CheckClient(err)
	if url, err := s.storage.URL(snapshot.FileName); err == nil {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}
	raw, err := storage.ReadFile(s.storage, snapshot.FileName)
	www.Check(err)
	www.SendFileDownload(w, fmt.Sprintf("snapshot-%v.jpg", snapshot.ID), "image/jpeg", raw)
}

func (s *Server) httpSnapshotDelete(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	snapshot, err := s.configDB.GetSnapshotFromID(www.ParseID(params.ByName("id")))
	www.CheckClient(err)
	www.Check(s.configDB.DeleteSnapshot(snapshot.ID))
	if err := s.storage.DeleteFile(snapshot.FileName); err != nil {
		s.Log.Warnf("Failed to delete snapshot file %v: %v", snapshot.FileName, err)
	}
	www.SendOK(w)
}
