package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/loykin/curlproxy/internal/auth"
	"github.com/loykin/curlproxy/internal/auth/jwtauth"
	"github.com/loykin/curlproxy/internal/command"
	"github.com/loykin/curlproxy/internal/common"
	"github.com/loykin/curlproxy/internal/constants"
	"github.com/loykin/curlproxy/internal/executor"
	"github.com/loykin/curlproxy/internal/httpc"
	"github.com/loykin/curlproxy/internal/proxy"
	"github.com/loykin/curlproxy/internal/retry"
	"github.com/loykin/curlproxy/internal/server"
	"github.com/loykin/curlproxy/internal/store"
	"github.com/loykin/curlproxy/internal/store/postgresql"
	"github.com/loykin/curlproxy/internal/util"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every environment override, e.g. CURLPROXY_SERVER_ADDR.
	EnvPrefix = "CURLPROXY"
	// DefaultPath is read when present; any other path must exist.
	DefaultPath = "curlproxy.yaml"
	// DotEnvPath is loaded into the environment before overrides are applied.
	DotEnvPath = ".env"
)

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	BasePath        string        `mapstructure:"base_path" yaml:"base_path"`
	CORSOrigin      string        `mapstructure:"cors_origin" yaml:"cors_origin"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type ProxyConfig struct {
	Binary      string        `mapstructure:"binary" yaml:"binary"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	KillWait    time.Duration `mapstructure:"kill_wait" yaml:"kill_wait"`
	RejectMode  string        `mapstructure:"reject_mode" yaml:"reject_mode"` // drop, fail
	ParseStderr bool          `mapstructure:"parse_stderr" yaml:"parse_stderr"`
	Unquote     bool          `mapstructure:"unquote" yaml:"unquote"`
	// Deny adds substrings to the built-in parameter denylist.
	Deny []string `mapstructure:"deny" yaml:"deny"`
}

type ExecuteConfig struct {
	Path       string `mapstructure:"path" yaml:"path"`
	Parameters string `mapstructure:"parameters" yaml:"parameters"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret" yaml:"secret"`
	Issuer     string        `mapstructure:"issuer" yaml:"issuer"`
	Audience   string        `mapstructure:"audience" yaml:"audience"`
	RequireJTI bool          `mapstructure:"require_jti" yaml:"require_jti"`
	ClockSkew  time.Duration `mapstructure:"clock_skew" yaml:"clock_skew"`
}

type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt"`
}

type SQLiteStoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type StoreConfig struct {
	Disabled    bool              `mapstructure:"disabled" yaml:"disabled"`
	Driver      string            `mapstructure:"driver" yaml:"driver"`
	TablePrefix string            `mapstructure:"table_prefix" yaml:"table_prefix"`
	SaveOutput  bool              `mapstructure:"save_output" yaml:"save_output"`
	MaxRetries  *int              `mapstructure:"max_retries" yaml:"max_retries"`
	SQLite      SQLiteStoreConfig `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres    postgresql.Config `mapstructure:"postgres" yaml:"postgres"`
}

type LoggingConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`                   // error, warn, info, debug
	Format        string `mapstructure:"format" yaml:"format"`                 // text, json, color
	MaskSensitive *bool  `mapstructure:"mask_sensitive" yaml:"mask_sensitive"` // enable/disable sensitive data masking
	Color         *bool  `mapstructure:"color" yaml:"color"`                   // enable/disable colorized output
}

type ClientConfig struct {
	ServerURL string            `mapstructure:"server_url" yaml:"server_url"`
	Timeout   time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	Insecure  bool              `mapstructure:"insecure" yaml:"insecure"`
	MinTLS    string            `mapstructure:"min_tls_version" yaml:"min_tls_version"`
	MaxTLS    string            `mapstructure:"max_tls_version" yaml:"max_tls_version"`
	Headers   map[string]string `mapstructure:"headers" yaml:"headers"`
	Retries   int               `mapstructure:"retries" yaml:"retries"`
	Auth      auth.Config       `mapstructure:"auth" yaml:"auth"`
}

type WaitConfig struct {
	URL      string        `mapstructure:"url" yaml:"url"`
	Method   string        `mapstructure:"method" yaml:"method"`
	Status   int           `mapstructure:"status" yaml:"status"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

type ConfigDoc struct {
	Server       ServerConfig      `mapstructure:"server" yaml:"server"`
	Proxy        ProxyConfig       `mapstructure:"proxy" yaml:"proxy"`
	Environments map[string]string `mapstructure:"environments" yaml:"environments"`
	Execute      ExecuteConfig     `mapstructure:"execute" yaml:"execute"`
	Auth         AuthConfig        `mapstructure:"auth" yaml:"auth"`
	Store        StoreConfig       `mapstructure:"store" yaml:"store"`
	Logging      LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Client       ClientConfig      `mapstructure:"client" yaml:"client"`
	Wait         WaitConfig        `mapstructure:"wait" yaml:"wait"`
}

// Load decodes a YAML file directly, without defaults or environment overrides.
func (c *ConfigDoc) Load(path string) error {
	clean := filepath.Clean(path)
	if info, statErr := os.Stat(clean); statErr != nil || !info.Mode().IsRegular() {
		if statErr != nil {
			return statErr
		}
		return fmt.Errorf("not a regular file: %s", clean)
	}
	// #nosec G304 -- config path is provided intentionally by the operator
	f, err := os.Open(clean)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return yaml.NewDecoder(f).Decode(c)
}

// SetDefaults registers the defaults viper falls back to. Registering a key also
// lets AutomaticEnv override it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", constants.DefaultServerAddr)
	v.SetDefault("server.base_path", constants.DefaultBasePath)
	v.SetDefault("server.cors_origin", constants.DefaultCORSOrigin)
	v.SetDefault("server.read_timeout", constants.DefaultReadTimeout)
	v.SetDefault("server.shutdown_timeout", constants.DefaultShutdownTimeout)
	v.SetDefault("proxy.binary", constants.DefaultBinary)
	v.SetDefault("proxy.timeout", constants.DefaultTimeout)
	v.SetDefault("proxy.kill_wait", constants.DefaultKillWait)
	v.SetDefault("proxy.reject_mode", constants.DefaultRejectMode)
	v.SetDefault("proxy.parse_stderr", false)
	v.SetDefault("proxy.unquote", false)
	v.SetDefault("execute.path", constants.DefaultExecutePath)
	v.SetDefault("execute.parameters", constants.DefaultExecuteParameters)
	v.SetDefault("auth.jwt.secret", "")
	v.SetDefault("store.disabled", false)
	v.SetDefault("store.driver", constants.DriverSqlite)
	v.SetDefault("store.save_output", false)
	v.SetDefault("store.sqlite.path", constants.DefaultSqlitePath)
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("client.server_url", constants.DefaultServerURL)
	v.SetDefault("client.timeout", constants.DefaultClientTimeout)
	v.SetDefault("wait.method", constants.DefaultWaitMethod)
	v.SetDefault("wait.status", constants.DefaultWaitStatus)
	v.SetDefault("wait.timeout", constants.DefaultWaitTimeout)
	v.SetDefault("wait.interval", constants.DefaultWaitInterval)
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win; a missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// FromViper reads the config file named by the "config" key (when present),
// applies environment overrides and decodes everything into a ConfigDoc.
// required makes a missing config file an error.
func FromViper(v *viper.Viper, required bool) (*ConfigDoc, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path, ok := util.TrimEmptyCheck(v.GetString("config")); ok {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		case required || !errors.Is(statErr, os.ErrNotExist):
			return nil, fmt.Errorf("config %s: %w", path, statErr)
		}
	}

	var doc ConfigDoc
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&doc, hooks); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &doc, nil
}

// SetupLogging configures the global logger based on config settings
func (c *ConfigDoc) SetupLogging() (*common.Logger, error) {
	level, err := common.ParseLogLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := common.ParseLogFormat(c.Logging.Format)
	if err != nil {
		return nil, err
	}
	if c.Logging.Color != nil && *c.Logging.Color && format == common.FormatText {
		format = common.FormatColor
	}

	logger := common.NewLoggerTo(common.Output, level, format)

	maskingEnabled := true
	if c.Logging.MaskSensitive != nil {
		maskingEnabled = *c.Logging.MaskSensitive
	}
	logger.EnableMasking(maskingEnabled)
	common.SetDefaultLogger(logger)
	common.EnableMasking(maskingEnabled)

	logger.Debug("logging configured",
		"level", level.String(),
		"format", string(format),
		"mask_sensitive", maskingEnabled)
	return logger, nil
}

// ProxyOptions builds the proxy pipeline settings. Recorder is left to the caller.
func (c *ConfigDoc) ProxyOptions(logger *common.Logger) (proxy.Options, error) {
	mode, err := proxy.ParseRejectMode(c.Proxy.RejectMode)
	if err != nil {
		return proxy.Options{}, err
	}
	return proxy.Options{
		Builder: command.Builder{
			Binary:    strings.TrimSpace(c.Proxy.Binary),
			Sanitizer: command.NewSanitizer(c.Proxy.Deny...),
			Unquote:   c.Proxy.Unquote,
		},
		Executor: &executor.Executor{
			Timeout:  c.Proxy.Timeout,
			KillWait: c.Proxy.KillWait,
		},
		RejectMode:  mode,
		ParseStderr: c.Proxy.ParseStderr,
		Logger:      logger,
	}, nil
}

// ServerConfig maps the server, environments, execute and auth.jwt sections.
func (c *ConfigDoc) ServerConfig() server.Config {
	return server.Config{
		Addr:              c.Server.Addr,
		BasePath:          c.Server.BasePath,
		CORSOrigin:        c.Server.CORSOrigin,
		ReadTimeout:       c.Server.ReadTimeout,
		ShutdownTimeout:   c.Server.ShutdownTimeout,
		Environments:      c.Environments,
		ExecutePath:       c.Execute.Path,
		ExecuteParameters: c.Execute.Parameters,
		JWT: jwtauth.VerifyConfig{
			Secret:          []byte(c.Auth.JWT.Secret),
			RequireJTI:      c.Auth.JWT.RequireJTI,
			AllowedIssuer:   c.Auth.JWT.Issuer,
			AllowedAudience: c.Auth.JWT.Audience,
			ClockSkew:       c.Auth.JWT.ClockSkew,
		},
	}
}

// StoreOptions maps the store section; nil when history is disabled.
func (c *ConfigDoc) StoreOptions() *store.Config {
	if c.Store.Disabled {
		return nil
	}
	cfg := &store.Config{
		Driver:      c.Store.Driver,
		TablePrefix: c.Store.TablePrefix,
		SaveOutput:  c.Store.SaveOutput,
	}
	switch util.TrimAndLower(c.Store.Driver) {
	case "postgres", "postgresql", "pg":
		pg := c.Store.Postgres
		cfg.DriverConfig = &pg
	default:
		cfg.DriverConfig = &store.SqliteConfig{Path: util.TrimWithDefault(c.Store.SQLite.Path, constants.DefaultSqlitePath)}
	}
	if c.Store.MaxRetries != nil {
		rc := retry.DefaultRetryConfig()
		rc.MaxRetries = *c.Store.MaxRetries
		cfg.Retry = rc
	}
	return cfg
}

// OpenStore opens the history store; (nil, nil) when it is disabled.
func (c *ConfigDoc) OpenStore(ctx context.Context, logger *common.Logger) (*store.Store, error) {
	cfg := c.StoreOptions()
	if cfg == nil {
		return nil, nil
	}
	return store.Open(ctx, *cfg, logger)
}

// HTTPClient builds the resty client for the client section.
func (c *ConfigDoc) HTTPClient(logger *common.Logger) (*resty.Client, error) {
	return httpc.New(httpc.Config{
		BaseURL:  c.Client.ServerURL,
		Timeout:  c.Client.Timeout,
		Insecure: c.Client.Insecure,
		MinTLS:   c.Client.MinTLS,
		MaxTLS:   c.Client.MaxTLS,
		Headers:  c.Client.Headers,
		Retries:  c.Client.Retries,
	}, logger)
}
