package configdb

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyclopcam/dbh"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("Record not found")

func (c *ConfigDB) GetAssetFromID(id int64) (*Asset, error) {
	asset := Asset{}
	if err := c.DB.First(&asset, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

func (c *ConfigDB) ListAssets() ([]Asset, error) {
	assets := []Asset{}
	if err := c.DB.Order("name").Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (c *ConfigDB) CreateAsset(asset *Asset) error {
	if !IsValidAssetKind(asset.Kind) {
		return fmt.Errorf("Invalid asset kind '%v'", asset.Kind)
	}
	now := dbh.MakeIntTime(time.Now())
	asset.CreatedAt = now
	asset.UpdatedAt = now
	return c.DB.Create(asset).Error
}

func (c *ConfigDB) UpdateAsset(asset *Asset) error {
	if !IsValidAssetKind(asset.Kind) {
		return fmt.Errorf("Invalid asset kind '%v'", asset.Kind)
	}
	asset.UpdatedAt = dbh.MakeIntTime(time.Now())
	return c.DB.Save(asset).Error
}

// DeleteAsset removes the catalog record. Builtin assets are the fallback of
// last resort, so they refuse to die.
func (c *ConfigDB) DeleteAsset(id int64) error {
	asset, err := c.GetAssetFromID(id)
	if err != nil {
		return err
	}
	if asset.Builtin {
		return fmt.Errorf("Asset '%v' is builtin and cannot be deleted", asset.Name)
	}
	return c.DB.Delete(&Asset{}, id).Error
}

// BuiltinAsset returns the fallback asset, or nil if it was never seeded
func (c *ConfigDB) BuiltinAsset() (*Asset, error) {
	asset := Asset{}
	err := c.DB.Where("builtin = ?", true).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (c *ConfigDB) GetPresetFromID(id int64) (*Preset, error) {
	preset := Preset{}
	if err := c.DB.First(&preset, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &preset, nil
}

func (c *ConfigDB) ListPresets() ([]Preset, error) {
	presets := []Preset{}
	if err := c.DB.Order("name").Find(&presets).Error; err != nil {
		return nil, err
	}
	return presets, nil
}

func (c *ConfigDB) CreatePreset(preset *Preset) error {
	if preset.Scale <= 0 || preset.Width <= 0 {
		return fmt.Errorf("Preset scale and width must be positive")
	}
	preset.CreatedAt = dbh.MakeIntTime(time.Now())
	return c.DB.Create(preset).Error
}

func (c *ConfigDB) DeletePreset(id int64) error {
	return c.DB.Delete(&Preset{}, id).Error
}

func (c *ConfigDB) GetSnapshotFromID(id int64) (*Snapshot, error) {
	snapshot := Snapshot{}
	if err := c.DB.First(&snapshot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}

func (c *ConfigDB) ListSnapshots() ([]Snapshot, error) {
	snapshots := []Snapshot{}
	if err := c.DB.Order("created_at desc").Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (c *ConfigDB) CreateSnapshot(snapshot *Snapshot) error {
	snapshot.CreatedAt = dbh.MakeIntTime(time.Now())
	return c.DB.Create(snapshot).Error
}

func (c *ConfigDB) DeleteSnapshot(id int64) error {
	return c.DB.Delete(&Snapshot{}, id).Error
}
