// Package auth acquires the credential the CLI attaches when it calls a
// running proxy server.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/loykin/curlproxy/internal/auth/basic"
	"github.com/loykin/curlproxy/internal/auth/jwtauth"
	"github.com/loykin/curlproxy/internal/auth/oauth2"
	xoauth2 "golang.org/x/oauth2"
)

// Method acquires one header value, e.g. "Bearer ..." or "Basic ...".
type Method interface {
	Acquire(ctx context.Context) (header string, value string, err error)
}

// Factory builds a Method from a loosely typed spec map.
type Factory func(spec map[string]interface{}) (Method, error)

var (
	mu        sync.RWMutex
	providers = map[string]Factory{}
)

func normalizeKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register adds a provider under a type key. Empty keys and nil factories are ignored.
func Register(typ string, f Factory) {
	key := normalizeKey(typ)
	if key == "" || f == nil {
		return
	}
	mu.Lock()
	providers[key] = f
	mu.Unlock()
}

// New builds the Method registered under typ.
func New(typ string, spec map[string]interface{}) (Method, error) {
	mu.RLock()
	f, ok := providers[normalizeKey(typ)]
	mu.RUnlock()
	if !ok {
		return nil, errors.New("auth: unsupported provider type: " + typ)
	}
	return f(spec)
}

// Config selects a provider and its settings, as found under client.auth.
type Config struct {
	Type string                 `mapstructure:"type"`
	Spec map[string]interface{} `mapstructure:"spec"`
}

// Enabled reports whether a provider was configured.
func (c Config) Enabled() bool { return strings.TrimSpace(c.Type) != "" }

// Acquire resolves the provider and returns the header to set and its value.
func (c Config) Acquire(ctx context.Context) (string, string, error) {
	if !c.Enabled() {
		return "", "", errors.New("auth: missing type")
	}
	m, err := New(c.Type, c.Spec)
	if err != nil {
		return "", "", err
	}
	h, v, err := m.Acquire(ctx)
	if err != nil {
		return "", "", fmt.Errorf("auth %s: %w", normalizeKey(c.Type), err)
	}
	return h, v, nil
}

// WithHTTPClient makes token requests go through hc (TLS settings, timeouts).
func WithHTTPClient(ctx context.Context, hc *http.Client) context.Context {
	if hc == nil {
		return ctx
	}
	return context.WithValue(ctx, xoauth2.HTTPClient, hc)
}

// StaticConfig attaches a fixed token.
type StaticConfig struct {
	Header string `mapstructure:"header"`
	Token  string `mapstructure:"token"`
	// Scheme prefixes Token; default Bearer, "none" sends the token as is.
	Scheme string `mapstructure:"scheme"`
}

type staticMethod struct{ c StaticConfig }

func (m staticMethod) Acquire(context.Context) (string, string, error) {
	tok := strings.TrimSpace(m.c.Token)
	if tok == "" {
		return "", "", errors.New("static: token is required")
	}
	header := strings.TrimSpace(m.c.Header)
	if header == "" {
		header = "Authorization"
	}
	switch scheme := strings.TrimSpace(m.c.Scheme); {
	case strings.EqualFold(scheme, "none"):
		return header, tok, nil
	case scheme == "":
		return header, "Bearer " + tok, nil
	default:
		return header, scheme + " " + tok, nil
	}
}

func decode(spec map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(spec)
}

// Built-in provider registrations
func init() {
	static := func(spec map[string]interface{}) (Method, error) {
		var c StaticConfig
		if err := decode(spec, &c); err != nil {
			return nil, err
		}
		return staticMethod{c: c}, nil
	}
	Register("static", static)
	Register("bearer", static)

	Register("basic", func(spec map[string]interface{}) (Method, error) {
		var c basic.Config
		if err := decode(spec, &c); err != nil {
			return nil, err
		}
		return c, nil
	})

	Register("oauth2", func(spec map[string]interface{}) (Method, error) {
		var c oauth2.Config
		if err := decode(spec, &c); err != nil {
			return nil, err
		}
		m, err := c.GrantMethod()
		if err != nil {
			return nil, err
		}
		return m, nil
	})

	Register(jwtauth.Type, func(spec map[string]interface{}) (Method, error) {
		var c jwtauth.IssueConfig
		if err := decode(spec, &c); err != nil {
			return nil, err
		}
		return c, nil
	})
}
