package server

import (
	"bytes"
	"fmt"
	"image"
	"net/http"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
	"github.com/mirrorcam/mirror/server/configdb"
	"github.com/mirrorcam/mirror/server/storage"
)

const maxAssetUploadBytes = 8 * 1024 * 1024

func (s *Server) httpAssetList(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	assets, err := s.configDB.ListAssets()
	www.Check(err)
	www.SendJSON(w, assets)
}

func (s *Server) httpAssetGet(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	asset, err := s.configDB.GetAssetFromID(www.ParseID(params.ByName("id")))
	www.CheckClient(err)
	www.SendJSON(w, asset)
}

func (s *Server) httpAssetFile(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	asset, err := s.configDB.GetAssetFromID(www.ParseID(params.ByName("id")))
	www.CheckClient(err)

	// A public bucket lets clients fetch the file straight from GCS
	if url, err := s.storage.URL(asset.FileName); err == nil {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}
	raw, err := storage.ReadFile(s.storage, asset.FileName)
	www.Check(err)
	www.SendFileDownload(w, asset.FileName, "image/png", raw)
}

// httpAssetCreate accepts a raw PNG or JPEG body, with metadata in the query
// string: name (required), applyRotation (0 or 1).
func (s *Server) httpAssetCreate(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	name := www.RequiredQueryValue(r, "name")
	applyRotation := www.QueryInt(r, "applyRotation") == 1

	raw := www.ReadLimited(w, r, maxAssetUploadBytes)
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		www.PanicBadRequestf("Unable to decode image: %v", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		www.PanicBadRequestf("Image is empty")
	}

	asset := configdb.Asset{
		Name:          name,
		Kind:          configdb.AssetKindFlat,
		ApplyRotation: applyRotation,
		AspectRatio:   float64(img.Bounds().Dx()) / float64(img.Bounds().Dy()),
	}
	www.CheckClient(s.configDB.CreateAsset(&asset))
	asset.FileName = fmt.Sprintf("assets/%v.png", asset.ID)
	if err := storage.WriteFile(s.storage, asset.FileName, bytes.NewReader(raw)); err != nil {
		s.configDB.DeleteAsset(asset.ID)
		www.Check(err)
	}
	www.Check(s.configDB.UpdateAsset(&asset))
	s.Log.Infof("Created asset %v '%v'", asset.ID, asset.Name)
	www.SendJSON(w, &asset)
}

func (s *Server) httpAssetDelete(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := www.ParseID(params.ByName("id"))
	asset, err := s.configDB.GetAssetFromID(id)
	www.CheckClient(err)
	www.CheckClient(s.configDB.DeleteAsset(id))
	if err := s.storage.DeleteFile(asset.FileName); err != nil {
		s.Log.Warnf("Failed to delete asset file %v: %v", asset.FileName, err)
	}
	s.assets.Invalidate(id)
	www.SendOK(w)
}

func (s *Server) httpPresetList(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	presets, err := s.configDB.ListPresets()
	www.Check(err)
	www.SendJSON(w, presets)
}

func (s *Server) httpPresetCreate(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	preset := configdb.Preset{}
	www.ReadJSON(w, r, &preset, 1024*1024)
	if _, err := s.configDB.GetAssetFromID(preset.AssetID); err != nil {
		www.PanicBadRequestf("Unknown asset %v", preset.AssetID)
	}
	www.CheckClient(s.configDB.CreatePreset(&preset))
	www.SendJSON(w, &preset)
}

func (s *Server) httpPresetDelete(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.Check(s.configDB.DeletePreset(www.ParseID(params.ByName("id"))))
	www.SendOK(w)
}
