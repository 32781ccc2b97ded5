// Package verbose extracts the HTTP status line and response headers that a
// command-line client prints in verbose mode.
package verbose

import (
	"strconv"
	"strings"
)

const (
	responsePrefix    = "< "
	statusPrefix      = "< HTTP/"
	contentTypeHeader = "content-type:"
)

// Metadata is what Parse found. Absent fields stay nil.
type Metadata struct {
	HTTPStatusCode  *int
	ContentType     *string
	ResponseHeaders map[string]string
}

// Empty reports whether nothing was found.
func (m *Metadata) Empty() bool {
	return m == nil || (m.HTTPStatusCode == nil && m.ContentType == nil && len(m.ResponseHeaders) == 0)
}

// Parse scans text line by line. Lines ending in "\r\n" or "\n" are both accepted.
// Lines that look like a status or header line but do not parse are skipped.
func Parse(text string) Metadata {
	var m Metadata
	m.apply(text)
	return m
}

// ParseStreams scans stdout first and stderr after, so a value found on stderr
// overrides one found on stdout.
func ParseStreams(stdout, stderr string) Metadata {
	var m Metadata
	m.apply(stdout)
	m.apply(stderr)
	return m
}

func (m *Metadata) apply(text string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		m.line(strings.TrimSuffix(line, "\r"))
	}
}

func (m *Metadata) line(line string) {
	switch {
	case strings.HasPrefix(line, statusPrefix):
		fields := strings.Fields(line[len(responsePrefix):])
		if len(fields) < 2 {
			return
		}
		code, err := strconv.Atoi(fields[1])
		if err != nil {
			return
		}
		m.HTTPStatusCode = &code

	case hasPrefixFold(line, responsePrefix+contentTypeHeader):
		ct := strings.TrimSpace(line[len(responsePrefix)+len(contentTypeHeader):])
		m.ContentType = &ct

	case strings.HasPrefix(line, responsePrefix):
		rest := line[len(responsePrefix):]
		idx := strings.Index(rest, ":")
		if idx <= 0 {
			return
		}
		name := strings.ToLower(strings.TrimSpace(rest[:idx]))
		if name == "" {
			return
		}
		if m.ResponseHeaders == nil {
			m.ResponseHeaders = make(map[string]string)
		}
		m.ResponseHeaders[name] = strings.TrimSpace(rest[idx+1:])
	}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
