package constants

import (
	"net/http"
	"time"
)

// Proxy defaults
const (
	DefaultBinary     = "curl"
	DefaultTimeout    = 30 * time.Second
	DefaultKillWait   = 2 * time.Second
	DefaultRejectMode = "drop"
)

// Server defaults
const (
	DefaultServerAddr      = ":8080"
	DefaultBasePath        = "/api/curl"
	DefaultCORSOrigin      = "*"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultExecutePath     = "/api/data/{smid}"
	DefaultEnvURLTemplate  = "https://api-%s.example.com"
	HealthMessage          = "Curl API Proxy is running"
)

// DefaultExecuteParameters is the curl parameter template /execute fills with the smid.
const DefaultExecuteParameters = `-X POST -H 'CSRF: DFSDKJFHDKJFHDSKJFHFOREUEOWIFNVHFDSGORO' -H 'Content-Type: application/json' ` +
	`--data-raw '{"clientNumber":"{smid}","callmode":"01"}'`

// DefaultEnvironments are the environments /execute accepts when none are configured.
var DefaultEnvironments = []string{"test", "qa", "qap1"}

// Database Constants
const (
	DriverSqlite     = "sqlite"
	DriverPostgresql = "postgresql"

	DefaultSqlitePath = "curlproxy.db"

	// PostgreSQL defaults
	DefaultPostgresPort    = 5432
	DefaultPostgresSSLMode = "disable"

	// Connection pool settings
	DefaultPostgresMaxConnections = 25
	DefaultPostgresMaxIdleConns   = 5
	DefaultSQLiteMaxConnections   = 1 // SQLite allows only one writer
	DefaultSQLiteMaxIdleConns     = 1

	DefaultProxyRunsTable = "proxy_runs"
	ProxyRunsSuffix       = "_proxy_runs"

	DefaultListLimit = 50
	MaxListLimit     = 1000
)

// Connection pool lifetimes
const (
	DefaultMaxConnLifetime = 5 * time.Minute
	DefaultMaxIdleTime     = 1 * time.Minute
	DefaultSQLiteLifetime  = 10 * time.Minute
	DefaultSQLiteIdleTime  = 5 * time.Minute
)

// Wait Configuration Constants
const (
	DefaultWaitTimeout  = 60 * time.Second
	DefaultWaitInterval = 2 * time.Second
	DefaultWaitStatus   = http.StatusOK
	DefaultWaitMethod   = http.MethodGet
)

// Client defaults
const (
	DefaultServerURL     = "http://localhost:8080"
	DefaultClientTimeout = 60 * time.Second
)
