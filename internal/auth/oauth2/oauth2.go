package oauth2

import (
	"context"
	"errors"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	golangoauth2 "golang.org/x/oauth2"
)

// Method is implemented by every grant. It matches auth.Method.
type Method interface {
	Acquire(ctx context.Context) (header string, value string, err error)
}

// Config selects a grant and carries its settings.
type Config struct {
	GrantType   string                 `mapstructure:"grant_type"`
	GrantConfig map[string]interface{} `mapstructure:"grant_config"`
}

// GrantMethod builds the grant-specific Method named by GrantType.
func (c Config) GrantMethod() (Method, error) {
	gt := strings.ToLower(strings.TrimSpace(c.GrantType))
	if gt == "" {
		return nil, errors.New("auth: oauth2 grant_type is required")
	}
	if c.GrantConfig == nil {
		return nil, errors.New("auth: oauth2 grant_config is required")
	}
	switch gt {
	case "password":
		var pc PasswordConfig
		if err := mapstructure.WeakDecode(c.GrantConfig, &pc); err != nil {
			return nil, err
		}
		return passwordMethod{c: pc}, nil
	case "client_credentials", "client-credentials":
		var cc ClientCredentialsConfig
		if err := mapstructure.WeakDecode(c.GrantConfig, &cc); err != nil {
			return nil, err
		}
		return clientCredentialsMethod{c: cc}, nil
	default:
		return nil, errors.New("auth: unsupported oauth2 grant_type: " + gt)
	}
}

func headerOrDefault(h string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return "Authorization"
	}
	return h
}

// normalizeToken builds the header value from a token, defaulting the type to Bearer.
func normalizeToken(header string, tok *golangoauth2.Token) (string, string, error) {
	if tok == nil || !tok.Valid() || strings.TrimSpace(tok.AccessToken) == "" {
		return "", "", errors.New("oauth2: received invalid token")
	}
	typ := strings.TrimSpace(tok.TokenType)
	if typ == "" || strings.EqualFold(typ, "bearer") {
		typ = "Bearer"
	}
	return headerOrDefault(header), typ + " " + tok.AccessToken, nil
}
