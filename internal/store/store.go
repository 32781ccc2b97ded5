// Package store keeps the execution history of proxied commands in SQLite or PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/loykin/curlproxy/internal/common"
	"github.com/loykin/curlproxy/internal/constants"
	"github.com/loykin/curlproxy/internal/retry"
	"github.com/loykin/curlproxy/internal/store/connector"
	"github.com/loykin/curlproxy/internal/store/postgresql"
	"github.com/loykin/curlproxy/internal/store/sqlite"
	"github.com/loykin/curlproxy/internal/util"
)

const (
	DriverSqlite     = constants.DriverSqlite
	DriverPostgresql = constants.DriverPostgresql

	// DbFileName is the default SQLite history database.
	DbFileName = constants.DefaultSqlitePath
)

// Run is one recorded invocation.
type Run = connector.Run

// ErrRunNotFound is returned by Get for an unknown id.
var ErrRunNotFound = connector.ErrRunNotFound

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TableNames derives the table identifiers from an optional prefix.
func TableNames(prefix string) (connector.TableNames, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return connector.TableNames{ProxyRuns: constants.DefaultProxyRunsTable}, nil
	}
	if !identRe.MatchString(prefix) {
		return connector.TableNames{}, fmt.Errorf("invalid table prefix %q: only letters, digits and underscore are allowed", prefix)
	}
	return connector.TableNames{ProxyRuns: prefix + constants.ProxyRunsSuffix}, nil
}

// Store is the history of proxy runs. It is safe for concurrent use.
type Store struct {
	connector  connector.Connector
	tn         connector.TableNames
	retry      *retry.Config
	logger     *common.Logger
	driver     string
	saveOutput bool
}

type loggerSetter interface {
	SetLogger(*common.Logger)
}

func newConnector(driver string) (connector.Connector, string, error) {
	switch util.TrimAndLower(driver) {
	case "", "sqlite", "sqlite3":
		return sqlite.NewStore(), DriverSqlite, nil
	case "postgres", "postgresql", "pg":
		return postgresql.NewStore(), DriverPostgresql, nil
	default:
		return nil, "", fmt.Errorf("unsupported store driver: %s", driver)
	}
}

// Open connects the configured backend and ensures its table exists.
func Open(ctx context.Context, cfg Config, logger *common.Logger) (*Store, error) {
	if logger == nil {
		logger = common.GetLogger()
	}
	conn, driver, err := newConnector(cfg.Driver)
	if err != nil {
		return nil, err
	}
	tn, err := TableNames(cfg.TablePrefix)
	if err != nil {
		return nil, err
	}
	if ls, ok := conn.(loggerSetter); ok {
		ls.SetLogger(logger)
	}

	dc := cfg.DriverConfig
	if dc == nil && driver == DriverSqlite {
		dc = &SqliteConfig{Path: DbFileName}
	}
	if dc != nil {
		if err := conn.Load(dc.ToMap()); err != nil {
			return nil, fmt.Errorf("load %s config: %w", driver, err)
		}
	}
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	if _, err := conn.Connect(); err != nil {
		return nil, err
	}

	s := &Store{
		connector:  conn,
		tn:         tn,
		retry:      cfg.Retry,
		logger:     logger.WithStore(driver),
		driver:     driver,
		saveOutput: cfg.SaveOutput,
	}
	if err := retry.Do(ctx, s.retry, s.logger, func(ctx context.Context) error {
		return conn.Ensure(ctx, tn)
	}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	s.logger.Info("history store ready", "table", tn.ProxyRuns)
	return s, nil
}

// Driver returns the normalized driver name.
func (s *Store) Driver() string { return s.driver }

// Table returns the runs table name.
func (s *Store) Table() string { return s.tn.ProxyRuns }

// SaveOutput reports whether captured output is stored with each run.
func (s *Store) SaveOutput() bool { return s.saveOutput }

// Record stores one run.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	return retry.Do(ctx, s.retry, s.logger, func(ctx context.Context) error {
		return s.connector.Record(ctx, s.tn, run)
	})
}

// List returns the newest runs first. limit <= 0 means DefaultListLimit.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = constants.DefaultListLimit
	}
	if limit > constants.MaxListLimit {
		limit = constants.MaxListLimit
	}
	return retry.Value(ctx, s.retry, s.logger, func(ctx context.Context) ([]Run, error) {
		return s.connector.List(ctx, s.tn, limit)
	})
}

// Get returns one run or ErrRunNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	return retry.Value(ctx, s.retry, s.logger, func(ctx context.Context) (*Run, error) {
		return s.connector.Get(ctx, s.tn, id)
	})
}

// Close releases the connection.
func (s *Store) Close() error {
	if s == nil || s.connector == nil {
		return nil
	}
	return s.connector.Close()
}
