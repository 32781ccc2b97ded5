// Package httpc builds the resty client the CLI uses to talk to a running proxy server.
package httpc

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/curlproxy/internal/common"
)

// Config holds client settings, as found under client.* in the config file.
type Config struct {
	BaseURL  string            `mapstructure:"server_url"`
	Timeout  time.Duration     `mapstructure:"timeout"`
	Insecure bool              `mapstructure:"insecure"`
	MinTLS   string            `mapstructure:"min_tls"`
	MaxTLS   string            `mapstructure:"max_tls"`
	Headers  map[string]string `mapstructure:"headers"`
	Retries  int               `mapstructure:"retries"`
}

// parseTLSVersion maps "1.2", "tls1.2", "TLS12" and similar to a crypto/tls constant; 0 when unknown.
func parseTLSVersion(s string) uint16 {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "tls")
	v = strings.TrimPrefix(v, "v")
	switch v {
	case "1.0", "10":
		return tls.VersionTLS10
	case "1.1", "11":
		return tls.VersionTLS11
	case "1.2", "12":
		return tls.VersionTLS12
	case "1.3", "13":
		return tls.VersionTLS13
	default:
		return 0
	}
}

// TLSConfig returns nil when the config leaves TLS at resty's defaults.
func (c Config) TLSConfig() (*tls.Config, error) {
	if !c.Insecure && strings.TrimSpace(c.MinTLS) == "" && strings.TrimSpace(c.MaxTLS) == "" {
		return nil, nil
	}
	cfg := &tls.Config{InsecureSkipVerify: c.Insecure} //nolint:gosec // opt-in via client.insecure
	if s := strings.TrimSpace(c.MinTLS); s != "" {
		if cfg.MinVersion = parseTLSVersion(s); cfg.MinVersion == 0 {
			return nil, fmt.Errorf("httpc: unknown min_tls %q", s)
		}
	}
	if s := strings.TrimSpace(c.MaxTLS); s != "" {
		if cfg.MaxVersion = parseTLSVersion(s); cfg.MaxVersion == 0 {
			return nil, fmt.Errorf("httpc: unknown max_tls %q", s)
		}
	}
	if cfg.MinVersion != 0 && cfg.MaxVersion != 0 && cfg.MinVersion > cfg.MaxVersion {
		return nil, fmt.Errorf("httpc: min_tls %s is above max_tls %s", c.MinTLS, c.MaxTLS)
	}
	return cfg, nil
}

// New returns a resty.Client configured from cfg. A nil logger uses the process default.
func New(cfg Config, logger *common.Logger) (*resty.Client, error) {
	if logger == nil {
		logger = common.GetLogger()
	}
	tlsCfg, err := cfg.TLSConfig()
	if err != nil {
		return nil, err
	}
	c := resty.New().SetLogger(restyLogger{l: logger.WithComponent("httpc")})
	if tlsCfg != nil {
		c.SetTLSClientConfig(tlsCfg)
	}
	if u := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); u != "" {
		c.SetBaseURL(u)
	}
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	if cfg.Retries > 0 {
		c.SetRetryCount(cfg.Retries)
	}
	for k, v := range cfg.Headers {
		c.SetHeader(k, v)
	}
	return c, nil
}

type restyLogger struct{ l *common.Logger }

func (r restyLogger) Errorf(format string, v ...interface{}) {
	r.l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (r restyLogger) Warnf(format string, v ...interface{}) {
	r.l.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (r restyLogger) Debugf(format string, v ...interface{}) {
	r.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
