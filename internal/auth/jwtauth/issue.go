// Package jwtauth issues and verifies the HS256 bearer tokens that guard the proxy server.
package jwtauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Type is the auth provider key for IssueConfig.
const Type = "jwt"

// DefaultTTL applies when neither TTLSeconds nor ExpiresAt is set.
const DefaultTTL = 5 * time.Minute

// IssueConfig describes a token signed with a shared HMAC secret.
type IssueConfig struct {
	// Secret is the HMAC secret key used for HS256 signing (required)
	Secret     string `mapstructure:"secret" yaml:"secret"`
	TTLSeconds int64  `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
	Header     string `mapstructure:"header" yaml:"header"`

	Subject   string   `mapstructure:"sub" yaml:"sub"`
	Issuer    string   `mapstructure:"iss" yaml:"iss"`
	Audience  []string `mapstructure:"aud" yaml:"aud"`
	NotBefore int64    `mapstructure:"nbf" yaml:"nbf"`
	ExpiresAt int64    `mapstructure:"exp" yaml:"exp"`
	ID        string   `mapstructure:"jti" yaml:"jti"`

	// Custom claims are copied into the token as is.
	Custom map[string]interface{} `mapstructure:"custom" yaml:"custom"`
}

// Issue creates a signed token string.
func (c IssueConfig) Issue() (string, error) {
	return c.issueAt(time.Now())
}

func (c IssueConfig) issueAt(now time.Time) (string, error) {
	if c.Secret == "" {
		return "", errors.New("jwt: secret required")
	}
	exp := c.ExpiresAt
	if exp == 0 {
		ttl := time.Duration(c.TTLSeconds) * time.Second
		if ttl <= 0 {
			ttl = DefaultTTL
		}
		exp = now.Add(ttl).Unix()
	}
	claims := jwt.MapClaims{"iat": now.Unix()}
	for k, v := range c.Custom {
		claims[k] = v
	}
	if c.Subject != "" {
		claims["sub"] = c.Subject
	}
	if c.Issuer != "" {
		claims["iss"] = c.Issuer
	}
	if len(c.Audience) > 0 {
		claims["aud"] = c.Audience
	}
	if c.NotBefore > 0 {
		claims["nbf"] = c.NotBefore
	}
	if c.ID != "" {
		claims["jti"] = c.ID
	}
	claims["exp"] = exp

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.Secret))
}

// Acquire issues a fresh token and returns it as a Bearer credential.
func (c IssueConfig) Acquire(context.Context) (string, string, error) {
	tok, err := c.Issue()
	if err != nil {
		return "", "", err
	}
	header := strings.TrimSpace(c.Header)
	if header == "" {
		header = "Authorization"
	}
	return header, "Bearer " + tok, nil
}
