package server

import (
	"time"

	"github.com/mirrorcam/mirror/server/tracker"
)

type Config struct {
	DB       string         `json:"db"`      // Path to the sqlite config database
	Storage  StorageConfig  `json:"storage"` // Where snapshots and asset files live
	Tracking TrackingConfig `json:"tracking"`
}

// One of the storage options must be configured (i.e. either 'filesystem' or 'gcs').
// If neither is set, we default to a filesystem store next to the DB.
type StorageConfig struct {
	Filesystem *StorageConfigFS  `json:"filesystem"`
	GCS        *StorageConfigGCS `json:"gcs"`
}

type StorageConfigFS struct {
	Root string `json:"root"` // Path to the root of the filesystem
}

type StorageConfigGCS struct {
	Bucket string `json:"bucket"` // Name of the GCS bucket
	Public bool   `json:"public"` // Whether the bucket is public. This allows us to give clients direct URLs into GCS, instead of passing the data through our service
}

type TrackingConfig struct {
	SmoothingAlpha      float32 `json:"smoothingAlpha"`      // 0..1, higher = smoother. Default 0.7 if omitted
	MinDetectIntervalMS int     `json:"minDetectIntervalMS"` // Minimum milliseconds between processed frames. Default 33 (30 Hz)
}

func (c *TrackingConfig) alpha() float32 {
	if c.SmoothingAlpha == 0 {
		return tracker.DefaultSmoothingAlpha
	}
	return c.SmoothingAlpha
}

func (c *TrackingConfig) minInterval() time.Duration {
	if c.MinDetectIntervalMS == 0 {
		return tracker.DefaultMinDetectInterval
	}
	return time.Duration(c.MinDetectIntervalMS) * time.Millisecond
}
