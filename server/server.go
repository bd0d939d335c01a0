package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/mirrorcam/mirror/pkg/facegeom"
	"github.com/mirrorcam/mirror/server/configdb"
	"github.com/mirrorcam/mirror/server/overlay"
	"github.com/mirrorcam/mirror/server/storage"
	"github.com/mirrorcam/mirror/server/tracker"
)

type Server struct {
	HotReloadWWW bool
	Log          logs.Log

	configDB   *configdb.ConfigDB
	tracker    *tracker.Tracker
	storage    storage.Storage
	assets     *overlay.Library
	signalIn   chan os.Signal
	httpServer *http.Server
	httpRouter *httprouter.Router
	wsUpgrader websocket.Upgrader
}

func NewServer(logger logs.Log, cfg *Config) (*Server, error) {
	cdb, err := configdb.NewConfigDB(logger, cfg.DB)
	if err != nil {
		return nil, err
	}

	var store storage.Storage
	if cfg.Storage.GCS != nil {
		store, err = storage.NewStorageGCS(logger, cfg.Storage.GCS.Bucket, cfg.Storage.GCS.Public)
	} else if cfg.Storage.Filesystem != nil {
		store, err = storage.NewStorageFS(logger, cfg.Storage.Filesystem.Root)
	} else {
		store, err = storage.NewStorageFS(logger, filepath.Join(filepath.Dir(cfg.DB), "blobs"))
	}
	if err != nil {
		return nil, err
	}

	trk := tracker.NewTracker(logger, facegeom.Mesh468())
	trk.SmoothingAlpha = cfg.Tracking.alpha()
	trk.MinDetectInterval = cfg.Tracking.minInterval()

	s := &Server{
		Log:      logger,
		configDB: cdb,
		tracker:  trk,
		storage:  store,
		assets:   overlay.NewLibrary(logger, store),
	}
	if err := s.seedBuiltinAsset(); err != nil {
		return nil, err
	}
	if err := s.setupHttpRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadConfig reads the JSON config file. A missing file is not an error:
// we fall back to a sqlite DB and blob store under the user's home directory,
// so a dev box can run with zero configuration.
func LoadConfig(configFile string) (*Config, error) {
	cfg := Config{}
	cfgB, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		home, _ := os.UserHomeDir()
		if home == "" {
			home = "/var/lib"
		}
		cfg.DB = filepath.Join(home, "mirror", "config.sqlite")
		return &cfg, nil
	} else if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cfgB, &cfg); err != nil {
		return nil, fmt.Errorf("Error parsing config file %v: %w", configFile, err)
	}
	if cfg.DB == "" {
		return nil, fmt.Errorf("Config file %v must specify 'db'", configFile)
	}
	return &cfg, nil
}

// seedBuiltinAsset makes sure the fallback asset exists in the catalog and in
// storage, so an empty deployment can still render an overlay.
func (s *Server) seedBuiltinAsset() error {
	builtin, err := s.configDB.BuiltinAsset()
	if err != nil {
		return err
	}
	if builtin != nil {
		return nil
	}
	png, err := overlay.BuiltinPNG()
	if err != nil {
		return err
	}
	if err := storage.WriteFile(s.storage, overlay.BuiltinAssetFileName, bytes.NewReader(png)); err != nil {
		return err
	}
	asset := configdb.Asset{
		Name:        "Classic Round",
		Kind:        configdb.AssetKindFlat,
		FileName:    overlay.BuiltinAssetFileName,
		AspectRatio: 512.0 / 205.0,
		Builtin:     true,
	}
	if err := s.configDB.CreateAsset(&asset); err != nil {
		return err
	}
	s.Log.Infof("Seeded builtin asset '%v' (id %v)", asset.Name, asset.ID)
	return nil
}

// port example: ":8080"
func (s *Server) ListenHTTP(port string) error {
	s.Log.Infof("Listening on %v", port)
	s.httpServer = &http.Server{
		Addr:    port,
		Handler: s.httpRouter,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) ListenForKillSignals() {
	s.Log.Infof("ListenForKillSignals starting")
	s.signalIn = make(chan os.Signal, 1)
	signal.Notify(s.signalIn, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig, ok := <-s.signalIn
		if ok {
			s.Log.Infof("Received OS signal '%v'. ListenForKillSignals will exit after shutdown", sig.String())
			s.Shutdown()
		} else {
			// This path gets hit when Shutdown() is called by something other than ourselves, and Shutdown() closes the signalIn channel.
			s.Log.Infof("signalIn closed. ListenForKillSignals will exit now")
		}
	}()
}

func (s *Server) Shutdown() {
	s.Log.Infof("Shutdown")
	signal.Stop(s.signalIn)
	close(s.signalIn)
	s.tracker.Close()
	s.Log.Infof("Closing HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	err := s.httpServer.Shutdown(ctx)
	defer cancel()
	if err != nil {
		s.Log.Warnf("Shutdown complete, with error: %v", err)
	} else {
		s.Log.Infof("Shutdown complete")
	}
	s.Log.Close()
}
