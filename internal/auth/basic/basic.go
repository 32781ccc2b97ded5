package basic

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
)

// Config holds configuration for Basic authentication.
type Config struct {
	Header   string `mapstructure:"header"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Acquire returns the header (Authorization when empty) and a Basic credential.
func (c Config) Acquire(context.Context) (string, string, error) {
	u := strings.TrimSpace(c.Username)
	p := strings.TrimSpace(c.Password)
	if u == "" || p == "" {
		return "", "", errors.New("basic: username and password are required")
	}
	header := strings.TrimSpace(c.Header)
	if header == "" {
		header = "Authorization"
	}
	return header, "Basic " + base64.StdEncoding.EncodeToString([]byte(u+":"+p)), nil
}
