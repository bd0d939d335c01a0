package configdb

import (
	"github.com/cyclopcam/dbh"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// AssetKind says how an overlay asset gets rendered
type AssetKind string

const (
	AssetKindFlat  AssetKind = "flat"  // 2D image drawn in pixel space
	AssetKindModel AssetKind = "model" // 3D model placed in world space
)

func IsValidAssetKind(k AssetKind) bool {
	return k == AssetKindFlat || k == AssetKindModel
}

// SYNC-RECORD-ASSET
type Asset struct {
	BaseModel
	Name          string      `json:"name"`                               // Friendly name, unique
	Kind          AssetKind   `json:"kind"`                               // flat or model
	FileName      string      `json:"fileName"`                           // Key of the asset's file in storage
	ApplyRotation bool        `json:"applyRotation"`                      // Rotation policy for the flat draw path
	AspectRatio   float64     `json:"aspectRatio" gorm:"default:null"`    // width/height of a flat asset; 0 = unknown
	Builtin       bool        `json:"builtin"`                            // Fallback asset shipped with the server, not deletable
	CreatedAt     dbh.IntTime `json:"createdAt"`
	UpdatedAt     dbh.IntTime `json:"updatedAt"`
}

// SYNC-RECORD-PRESET
type Preset struct {
	BaseModel
	Name         string      `json:"name"` // Friendly name, unique
	AssetID      int64       `json:"assetID"`
	Scale        float64     `json:"scale"`
	Width        float64     `json:"width"`
	HeightOffset float64     `json:"heightOffset"`
	CreatedAt    dbh.IntTime `json:"createdAt"`
}

// Snapshot is one captured try-on image. The JPEG itself lives in storage;
// this record is the index entry.
type Snapshot struct {
	BaseModel
	FileName  string      `json:"fileName"`
	AssetID   int64       `json:"assetID" gorm:"default:null"`
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	CreatedAt dbh.IntTime `json:"createdAt"`
}

type Variable struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `json:"value"`
}
