package common

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
)

// MaskedValue replaces every secret found by a Masker.
const MaskedValue = "***MASKED***"

// SensitivePattern represents a pattern to detect and mask sensitive information
type SensitivePattern struct {
	Name        string         // Pattern name (e.g., "password", "api_key")
	Regex       *regexp.Regexp // Regular expression to match sensitive data
	Replacement string         // Replacement string, may reference capture groups
	Keys        []string       // Specific keys to mask (case-insensitive)
}

// DefaultSensitivePatterns contains common patterns for sensitive information.
// Header patterns come first so a header value is replaced as a whole before the
// key=value patterns look at it.
var DefaultSensitivePatterns = []SensitivePattern{
	{
		Name:        "header",
		Regex:       regexp.MustCompile(`(?i)\b(authorization|proxy-authorization|cookie|set-cookie|csrf|x-csrf-token|x-xsrf-token|x-api-key)("?\s*:\s*"?)([^'"\r\n]+)`),
		Replacement: "${1}${2}" + MaskedValue,
		Keys:        []string{"authorization", "cookie", "csrf", "x-csrf-token", "x-api-key"},
	},
	{
		Name:        "curl_user",
		Regex:       regexp.MustCompile(`(\s|^)(-u|--user|--proxy-user)(\s+['"]?)([^:\s'"]+):([^\s'"]+)`),
		Replacement: "${1}${2}${3}${4}:" + MaskedValue,
	},
	{
		Name:        "password",
		Regex:       regexp.MustCompile(`(?i)\b((?:password|passwd|pwd)"?\s*[:=]\s*"?)([^"',}\]\s&]+)`),
		Replacement: "${1}" + MaskedValue,
		Keys:        []string{"password", "passwd", "pwd"},
	},
	{
		Name:        "api_key",
		Regex:       regexp.MustCompile(`(?i)\b((?:api[_-]?key|apikey)"?\s*[:=]\s*"?)([^"',}\]\s&]+)`),
		Replacement: "${1}" + MaskedValue,
		Keys:        []string{"api_key", "apikey", "api-key"},
	},
	{
		Name:        "token",
		Regex:       regexp.MustCompile(`(?i)\b((?:access[_-]?token|auth[_-]?token|token)"?\s*[:=]\s*"?)([^"',}\]\s&]+)`),
		Replacement: "${1}" + MaskedValue,
		Keys:        []string{"token", "access_token", "auth_token", "access-token", "auth-token"},
	},
	{
		Name:        "bearer_token",
		Regex:       regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9\-._~+/]+=*`),
		Replacement: "Bearer " + MaskedValue,
	},
	{
		Name:        "basic_auth",
		Regex:       regexp.MustCompile(`(?i)\bBasic\s+[A-Za-z0-9+/]+=*`),
		Replacement: "Basic " + MaskedValue,
	},
	{
		Name:        "secret",
		Regex:       regexp.MustCompile(`(?i)\b((?:client[_-]?secret|secret)"?\s*[:=]\s*"?)([^"',}\]\s&]+)`),
		Replacement: "${1}" + MaskedValue,
		Keys:        []string{"secret", "client_secret", "client-secret", "jwt_secret"},
	},
}

// Masker handles masking of sensitive information in logs and stored commands
type Masker struct {
	patterns []SensitivePattern
	enabled  atomic.Bool
}

// NewMasker creates a new masker with default patterns
func NewMasker() *Masker {
	return NewMaskerWithPatterns(DefaultSensitivePatterns)
}

// NewMaskerWithPatterns creates a new masker with custom patterns
func NewMaskerWithPatterns(patterns []SensitivePattern) *Masker {
	m := &Masker{patterns: append([]SensitivePattern(nil), patterns...)}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables masking
func (m *Masker) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// IsEnabled returns whether masking is enabled
func (m *Masker) IsEnabled() bool {
	return m.enabled.Load()
}

// AddPattern adds a new sensitive pattern. A pattern without a regex gets one built from its keys.
func (m *Masker) AddPattern(pattern SensitivePattern) {
	if pattern.Regex == nil {
		if len(pattern.Keys) == 0 {
			return
		}
		quoted := make([]string, len(pattern.Keys))
		for i, k := range pattern.Keys {
			quoted[i] = regexp.QuoteMeta(k)
		}
		expr := fmt.Sprintf(`(?i)\b((?:%s)"?\s*[:=]\s*['"]?)([^'",\s}\]]+)`, strings.Join(quoted, "|"))
		pattern.Regex = regexp.MustCompile(expr)
		if pattern.Replacement == "" {
			pattern.Replacement = "${1}" + MaskedValue
		}
	}
	m.patterns = append(m.patterns, pattern)
}

// MaskString masks sensitive information in a string
func (m *Masker) MaskString(input string) string {
	if !m.IsEnabled() || input == "" {
		return input
	}

	result := input
	for _, pattern := range m.patterns {
		result = pattern.Regex.ReplaceAllString(result, pattern.Replacement)
	}
	return result
}

// MaskArgs masks every element of an argument vector.
func (m *Masker) MaskArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = m.MaskString(a)
	}
	return out
}

// MaskValue masks sensitive information based on key-value context
func (m *Masker) MaskValue(key string, value interface{}) interface{} {
	if !m.IsEnabled() {
		return value
	}

	lowerKey := strings.ToLower(key)
	for _, pattern := range m.patterns {
		for _, sensitiveKey := range pattern.Keys {
			if lowerKey == strings.ToLower(sensitiveKey) {
				return MaskedValue
			}
		}
	}

	strValue, ok := value.(string)
	if !ok {
		strValue = toString(value)
		if strValue == "" {
			return value
		}
	}
	return m.MaskString(strValue)
}

// toString converts various types to string representation
func toString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case error:
		return val.Error()
	default:
		return ""
	}
}

// Global masker instance
var globalMasker = NewMasker()

// SetGlobalMasker sets the global masker instance
func SetGlobalMasker(masker *Masker) {
	if masker != nil {
		globalMasker = masker
	}
}

// GetGlobalMasker returns the global masker instance
func GetGlobalMasker() *Masker {
	return globalMasker
}

// MaskSensitiveData masks sensitive data using the global masker
func MaskSensitiveData(input string) string {
	return globalMasker.MaskString(input)
}

// EnableMasking enables/disables global masking
func EnableMasking(enabled bool) {
	globalMasker.SetEnabled(enabled)
}
