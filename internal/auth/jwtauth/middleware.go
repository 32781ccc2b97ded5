package jwtauth

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ClaimsKey is the gin context key holding verified claims.
const ClaimsKey = "jwt_claims"

// VerifyConfig configures the verification middleware.
type VerifyConfig struct {
	Secret          []byte
	RequireJTI      bool
	AllowedIssuer   string
	AllowedAudience string
	ClockSkew       time.Duration
}

// Enabled reports whether a secret is configured.
func (c VerifyConfig) Enabled() bool { return len(c.Secret) > 0 }

// Middleware rejects requests without a valid "Authorization: Bearer" HS256 token.
func Middleware(cfg VerifyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := cfg.Verify(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// Claims returns the claims stored by Middleware, or nil.
func Claims(c *gin.Context) jwt.MapClaims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(jwt.MapClaims); ok {
			return claims
		}
	}
	return nil
}

// Verify parses an Authorization header value and validates the token it carries.
func (c VerifyConfig) Verify(authorization string) (jwt.MapClaims, error) {
	if !c.Enabled() {
		return nil, errors.New("jwt secret not configured")
	}
	if len(authorization) < len("Bearer ") || !strings.EqualFold(authorization[:len("Bearer ")], "bearer ") {
		return nil, errors.New("missing or invalid Authorization header")
	}
	raw := strings.TrimSpace(authorization[len("Bearer "):])

	// Time-based claims are checked by validateClaims so ClockSkew applies to them.
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.Secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	if err := validateClaims(claims, c, time.Now()); err != nil {
		return nil, err
	}
	return claims, nil
}

func validateClaims(claims jwt.MapClaims, cfg VerifyConfig, now time.Time) error {
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		if now.After(exp.Add(cfg.ClockSkew)) {
			return errors.New("token expired")
		}
	}
	if nbf, err := claims.GetNotBefore(); err == nil && nbf != nil {
		if now.Add(cfg.ClockSkew).Before(nbf.Time) {
			return errors.New("token not yet valid")
		}
	}
	if cfg.RequireJTI {
		if jti, _ := claims["jti"].(string); jti == "" {
			return errors.New("token missing jti")
		}
	}
	if cfg.AllowedIssuer != "" {
		if iss, _ := claims.GetIssuer(); iss != cfg.AllowedIssuer {
			return errors.New("invalid iss")
		}
	}
	if cfg.AllowedAudience != "" {
		aud, _ := claims.GetAudience()
		if !slices.Contains([]string(aud), cfg.AllowedAudience) {
			return errors.New("invalid aud")
		}
	}
	return nil
}
