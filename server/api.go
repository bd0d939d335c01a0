package server

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cyclopcam/staticfiles"
	"github.com/cyclopcam/www"
	"github.com/go-chi/httprate"
	"github.com/julienschmidt/httprouter"
)

//go:embed www
var staticWWW embed.FS

func (s *Server) setupHttpRoutes() error {
	router := httprouter.New()

	plain := func(method, route string, handle httprouter.Handle) {
		www.Handle(s.Log, router, method, route, handle)
	}

	// ratelimited protects the expensive endpoints (image decode + encode).
	// We create a unique rate limiter per endpoint, so we don't need httprate.KeyByEndpoint.
	ratelimited := func(method, route string, handle func(w http.ResponseWriter, r *http.Request, params httprouter.Params), requestLimit int, windowLength time.Duration) {
		limited := httprate.Limit(requestLimit, windowLength, httprate.WithKeyFuncs(httprate.KeyByIP))
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handle(w, r, params)
			})).ServeHTTP(w, r)
		})
	}

	plain("GET", "/api/ping", s.httpPing)

	plain("POST", "/api/session", s.httpSessionCreate)
	plain("GET", "/api/session/:id", s.httpSessionGet)
	plain("DELETE", "/api/session/:id", s.httpSessionDelete)
	plain("GET", "/api/session/:id/state", s.httpSessionState)
	plain("GET", "/api/session/:id/params", s.httpSessionGetParams)
	plain("POST", "/api/session/:id/params", s.httpSessionSetParams)
	plain("POST", "/api/session/:id/frame", s.httpSessionFrame)
	plain("GET", "/api/session/:id/poseHistory", s.httpSessionPoseHistory)
	plain("GET", "/api/session/:id/stats", s.httpSessionStats)
	plain("POST", "/api/session/:id/preset/:presetID", s.httpSessionApplyPreset)
	plain("GET", "/api/ws/session/:id/track", s.httpSessionTrackWS)

	plain("GET", "/api/assets", s.httpAssetList)
	plain("GET", "/api/asset/:id", s.httpAssetGet)
	plain("GET", "/api/asset/:id/file", s.httpAssetFile)
	ratelimited("POST", "/api/asset", s.httpAssetCreate, 10, time.Minute)
	plain("DELETE", "/api/asset/:id", s.httpAssetDelete)

	plain("GET", "/api/presets", s.httpPresetList)
	plain("POST", "/api/preset", s.httpPresetCreate)
	plain("DELETE", "/api/preset/:id", s.httpPresetDelete)

	ratelimited("POST", "/api/session/:id/capture", s.httpCapture, 30, time.Minute)
	plain("GET", "/api/snapshots", s.httpSnapshotList)
	plain("GET", "/api/snapshot/:id/file", s.httpSnapshotFile)
	plain("DELETE", "/api/snapshot/:id", s.httpSnapshotDelete)

	isImmutable := true
	var fsys fs.FS
	fsysRoot := "www"
	fsys = staticWWW
	if s.HotReloadWWW {
		relRoot := "server/www"
		absRoot, err := filepath.Abs(relRoot)
		if err != nil {
			s.Log.Errorf("Failed to resolve static file directory %v: %v", relRoot, err)
			return errors.New("Failed to resolve static file directory for hot reload")
		}
		s.Log.Infof("Serving static files from %v, with hot reload", absRoot)
		fsys = os.DirFS(absRoot)
		fsysRoot = ""
		isImmutable = false
	}

	static, err := staticfiles.NewCachedStaticFileServer(fsys, fsysRoot, []string{"/api/"}, s.Log, isImmutable, nil)
	if err != nil {
		s.Log.Warnf("Error in static files: %v", err)
	}
	router.NotFound = static

	s.httpRouter = router
	return nil
}

func (s *Server) httpPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, map[string]any{
		"service": "mirror",
		"time":    time.Now().Unix(),
	})
}
