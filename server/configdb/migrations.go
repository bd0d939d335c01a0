package configdb

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE asset(
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			file_name TEXT NOT NULL,
			apply_rotation INT NOT NULL DEFAULT 0,
			aspect_ratio REAL,
			builtin INT NOT NULL DEFAULT 0,
			created_at INT NOT NULL,
			updated_at INT NOT NULL
		);
		CREATE UNIQUE INDEX idx_asset_name ON asset (name);

		CREATE TABLE preset(
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			asset_id INT NOT NULL,
			scale REAL NOT NULL,
			width REAL NOT NULL,
			height_offset REAL NOT NULL,
			created_at INT NOT NULL
		);
		CREATE UNIQUE INDEX idx_preset_name ON preset (name);

		CREATE TABLE variable(
			key TEXT PRIMARY KEY,
			value TEXT
		);
	`))

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE snapshot(
			id INTEGER PRIMARY KEY,
			file_name TEXT NOT NULL,
			asset_id INT,
			width INT NOT NULL,
			height INT NOT NULL,
			created_at INT NOT NULL
		);
		CREATE INDEX idx_snapshot_created_at ON snapshot (created_at);
	`))

	return migs
}
