package command

import (
	"strings"

	"github.com/google/shlex"
)

// DefaultBinary is the external client invoked when none is configured.
const DefaultBinary = "curl"

// Spec is the input of one proxy invocation.
type Spec struct {
	TargetURL     string
	RawParameters string
}

// Rejection records a token the sanitizer dropped.
type Rejection struct {
	Token   string
	Pattern string
}

// Vector is the argument list of one invocation: binary first, accepted
// parameter tokens in their original order, target URL last.
type Vector struct {
	// Args is what gets reported as the command line.
	Args []string
	// Exec is what is handed to the process; it differs from Args only when unquoting.
	Exec     []string
	Rejected []Rejection
}

// String joins Args with single spaces.
func (v Vector) String() string {
	return strings.Join(v.Args, " ")
}

// Params returns the parameter tokens, without binary and URL.
func (v Vector) Params() []string {
	if len(v.Args) < 2 {
		return nil
	}
	return v.Args[1 : len(v.Args)-1]
}

// HasFlag reports whether any parameter token equals one of names exactly.
func (v Vector) HasFlag(names ...string) bool {
	for _, p := range v.Params() {
		for _, n := range names {
			if p == n {
				return true
			}
		}
	}
	return false
}

// Verbose reports whether the client was asked for verbose output.
func (v Vector) Verbose() bool {
	return v.HasFlag("-v", "--verbose")
}

// RejectedTokens returns the dropped tokens in order.
func (v Vector) RejectedTokens() []string {
	if len(v.Rejected) == 0 {
		return nil
	}
	out := make([]string, len(v.Rejected))
	for i, r := range v.Rejected {
		out[i] = r.Token
	}
	return out
}

// Builder assembles argument vectors.
type Builder struct {
	// Binary is the external client. Empty means DefaultBinary.
	Binary string
	// Sanitizer filters parameter tokens. Nil means the default denylist.
	Sanitizer *Sanitizer
	// Unquote passes accepted tokens through POSIX word splitting before
	// execution, so the client receives what a shell would have passed.
	Unquote bool
}

// Build produces the vector for spec. The target URL is appended verbatim.
func (b Builder) Build(spec Spec) Vector {
	binary := b.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	san := b.Sanitizer
	if san == nil {
		san = defaultSanitizer
	}

	v := Vector{Args: []string{binary}, Exec: []string{binary}}
	for _, tok := range Tokenize(strings.TrimSpace(spec.RawParameters)) {
		if ok, pattern := san.Check(tok); !ok {
			v.Rejected = append(v.Rejected, Rejection{Token: tok, Pattern: pattern})
			continue
		}
		v.Args = append(v.Args, tok)
		v.Exec = append(v.Exec, b.execForm(tok)...)
	}
	v.Args = append(v.Args, spec.TargetURL)
	v.Exec = append(v.Exec, spec.TargetURL)
	return v
}

func (b Builder) execForm(tok string) []string {
	if !b.Unquote {
		return []string{tok}
	}
	words, err := shlex.Split(tok)
	if err != nil || len(words) != 1 {
		return []string{tok}
	}
	return words
}
