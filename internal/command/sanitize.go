package command

import "strings"

// DefaultDenylist holds the substrings that get a parameter token rejected.
// It is a denylist and cannot prove a token safe; the builder never invokes a
// shell, so it only narrows what reaches the external client.
var DefaultDenylist = []string{";", "&", "|", "$(", "`", "rm ", "del ", "format "}

// Sanitizer accepts or rejects parameter tokens.
type Sanitizer struct {
	denylist []string
}

// NewSanitizer returns a Sanitizer using DefaultDenylist plus any extra patterns.
func NewSanitizer(extra ...string) *Sanitizer {
	deny := make([]string, 0, len(DefaultDenylist)+len(extra))
	deny = append(deny, DefaultDenylist...)
	for _, e := range extra {
		if e != "" {
			deny = append(deny, e)
		}
	}
	return &Sanitizer{denylist: deny}
}

// Check reports whether token is acceptable and, when it is not, the first
// denylisted substring it contains.
func (s *Sanitizer) Check(token string) (bool, string) {
	for _, d := range s.denylist {
		if strings.Contains(token, d) {
			return false, d
		}
	}
	return true, ""
}

// Valid reports whether token is acceptable.
func (s *Sanitizer) Valid(token string) bool {
	ok, _ := s.Check(token)
	return ok
}

var defaultSanitizer = NewSanitizer()

// IsValid checks token against DefaultDenylist.
func IsValid(token string) bool {
	return defaultSanitizer.Valid(token)
}
