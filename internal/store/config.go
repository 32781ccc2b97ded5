package store

import (
	"github.com/loykin/curlproxy/internal/retry"
	"github.com/loykin/curlproxy/internal/store/postgresql"
	"github.com/loykin/curlproxy/internal/store/sqlite"
)

// SqliteConfig and PostgresConfig are the per-driver settings.
type (
	SqliteConfig   = sqlite.Config
	PostgresConfig = postgresql.Config
)

type Config struct {
	Driver string `mapstructure:"driver"`
	// TablePrefix turns proxy_runs into <prefix>_proxy_runs.
	TablePrefix string `mapstructure:"table_prefix"`
	// SaveOutput keeps the captured stdout and stderr of every run.
	SaveOutput   bool `mapstructure:"save_output"`
	DriverConfig DriverConfig
	Retry        *retry.Config
}

type DriverConfig interface {
	ToMap() map[string]interface{}
}
