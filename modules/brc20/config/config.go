package config

import (
	"github.com/gaze-network/brc20-indexer/core/datasources"
	"github.com/gaze-network/brc20-indexer/internal/postgres"
)

type Config struct {
	Database   string           `mapstructure:"database"` // Database to store data. `memory`, `postgres` or `badger`
	Datasource DatasourceConfig `mapstructure:"datasource"`
	Postgres   postgres.Config  `mapstructure:"postgres"`
	Badger     BadgerConfig     `mapstructure:"badger"`
	Changelog  ChangelogConfig  `mapstructure:"changelog"`

	// StartHeight is the first block to index when nothing is indexed yet.
	StartHeight int64 `mapstructure:"start_height"`
}

// DatasourceConfig locates "<height>.json" block files.
type DatasourceConfig struct {
	Type string               `mapstructure:"type"` // `local` or `s3`
	Path string               `mapstructure:"path"` // directory of block files for `local`
	S3   datasources.S3Config `mapstructure:"s3"`
}

type BadgerConfig struct {
	Path string `mapstructure:"path"` // empty path keeps the database in memory
}

type ChangelogConfig struct {
	Enabled bool                 `mapstructure:"enabled"`
	Output  string               `mapstructure:"output"` // `local` or `s3`
	Path    string               `mapstructure:"path"`   // output directory for `local`
	S3      datasources.S3Config `mapstructure:"s3"`
}
