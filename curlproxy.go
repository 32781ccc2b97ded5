// Package curlproxy runs an external HTTP client (curl by default) on behalf of
// callers and returns its output as a structured Response.
package curlproxy

import (
	"context"

	"github.com/loykin/curlproxy/internal/auth"
	"github.com/loykin/curlproxy/internal/command"
	"github.com/loykin/curlproxy/internal/common"
	"github.com/loykin/curlproxy/internal/executor"
	"github.com/loykin/curlproxy/internal/proxy"
	"github.com/loykin/curlproxy/internal/server"
	"github.com/loykin/curlproxy/internal/store"
	"github.com/loykin/curlproxy/internal/verbose"
)

// Re-export commonly used types for public API

// Spec is one request: a target URL plus a shell-like parameter string.
type Spec = command.Spec

// Builder turns a Spec into an argument vector.
type Builder = command.Builder

// Executor runs one process per call with a deadline.
type Executor = executor.Executor

// Result is the raw outcome of one process run.
type Result = executor.Result

// Metadata is what the verbose parser extracts from -v output.
type Metadata = verbose.Metadata

// Response is the assembled answer returned to callers.
type Response = proxy.Response

// Options configure a Service.
type Options = proxy.Options

// Service is the request/response pipeline.
type Service = proxy.Service

// Recorder persists finished runs.
type Recorder = proxy.Recorder

// RejectMode values
const (
	RejectDrop = proxy.RejectDrop
	RejectFail = proxy.RejectFail
)

// ErrEmptyTargetURL is returned for a Spec without a URL.
var ErrEmptyTargetURL = proxy.ErrEmptyTargetURL

// New builds a Service.
func New(opts Options) *Service { return proxy.New(opts) }

// Execute runs spec with default options.
func Execute(ctx context.Context, spec Spec) (*Response, error) {
	return proxy.New(Options{}).Execute(ctx, spec)
}

// Tokenize splits a parameter string the way the builder does.
func Tokenize(raw string) []string { return command.Tokenize(raw) }

// IsValidParameter reports whether a token passes the default denylist.
func IsValidParameter(token string) bool { return command.IsValid(token) }

// ParseVerbose extracts status, content type and headers from -v output.
func ParseVerbose(text string) Metadata { return verbose.Parse(text) }

// Store is the execution history.
type Store = store.Store

// StoreConfig selects and configures the history backend.
type StoreConfig = store.Config

// Run is one recorded invocation.
type Run = store.Run

type (
	SqliteConfig   = store.SqliteConfig
	PostgresConfig = store.PostgresConfig
)

// Driver names
const (
	DriverSqlite     = store.DriverSqlite
	DriverPostgresql = store.DriverPostgresql
	StoreDBFileName  = store.DbFileName
)

// OpenStore opens the history store and ensures its table exists.
func OpenStore(ctx context.Context, cfg StoreConfig, logger *Logger) (*Store, error) {
	return store.Open(ctx, cfg, logger)
}

// NewRecorder returns a Recorder writing masked runs to s.
func NewRecorder(s *Store) Recorder { return store.NewRecorder(s, nil) }

// Server exposes a Service over HTTP.
type Server = server.Server

// ServerConfig configures the HTTP surface.
type ServerConfig = server.Config

// NewServer builds the HTTP server; s may be nil when history is disabled.
func NewServer(cfg ServerConfig, svc *Service, s *Store, logger *Logger) *Server {
	if s == nil {
		return server.New(cfg, svc, nil, logger)
	}
	return server.New(cfg, svc, s, logger)
}

// AuthMethod Plugin-style provider interface and registration
type AuthMethod = auth.Method

type AuthFactory = auth.Factory

// RegisterAuthProvider exposes custom auth provider registration for library users.
func RegisterAuthProvider(typ string, f AuthFactory) { auth.Register(typ, f) }

// AcquireAuth resolves a provider by type and returns the header to set and its value.
func AcquireAuth(ctx context.Context, typ string, spec map[string]interface{}) (header, value string, err error) {
	return auth.Config{Type: typ, Spec: spec}.Acquire(ctx)
}

// Logger re-exports
type (
	Logger   = common.Logger
	LogLevel = common.LogLevel
)

const (
	LogLevelError = common.LogLevelError
	LogLevelWarn  = common.LogLevelWarn
	LogLevelInfo  = common.LogLevelInfo
	LogLevelDebug = common.LogLevelDebug
)

func NewLogger(level LogLevel) *Logger      { return common.NewLogger(level) }
func NewJSONLogger(level LogLevel) *Logger  { return common.NewJSONLogger(level) }
func NewColorLogger(level LogLevel) *Logger { return common.NewColorLogger(level) }
func SetDefaultLogger(logger *Logger)       { common.SetDefaultLogger(logger) }
func GetLogger() *Logger                    { return common.GetLogger() }

// EnableMasking toggles masking of secrets in logs and recorded commands.
func EnableMasking(enabled bool) { common.EnableMasking(enabled) }

// MaskSensitiveData masks secrets in s with the global masker.
func MaskSensitiveData(s string) string { return common.MaskSensitiveData(s) }
