package verbose

import (
	"reflect"
	"testing"
)

func TestParse_Example(t *testing.T) {
	m := Parse("< HTTP/1.1 200 OK\n< content-type: application/json\n< x-custom: val\n")
	if m.HTTPStatusCode == nil || *m.HTTPStatusCode != 200 {
		t.Fatalf("status = %v", m.HTTPStatusCode)
	}
	if m.ContentType == nil || *m.ContentType != "application/json" {
		t.Fatalf("content type = %v", m.ContentType)
	}
	if !reflect.DeepEqual(m.ResponseHeaders, map[string]string{"x-custom": "val"}) {
		t.Fatalf("headers = %v", m.ResponseHeaders)
	}
}

func TestParse_CRLF(t *testing.T) {
	m := Parse("* Connected\r\n> GET / HTTP/1.1\r\n< HTTP/2 404 \r\n< Content-Type: text/html; charset=utf-8\r\n< X-Request-Id:  abc \r\n\r\nbody")
	if m.HTTPStatusCode == nil || *m.HTTPStatusCode != 404 {
		t.Fatalf("status = %v", m.HTTPStatusCode)
	}
	if m.ContentType == nil || *m.ContentType != "text/html; charset=utf-8" {
		t.Fatalf("content type = %v", m.ContentType)
	}
	if got := m.ResponseHeaders["x-request-id"]; got != "abc" {
		t.Fatalf("x-request-id = %q", got)
	}
}

func TestParse_NoMatches(t *testing.T) {
	for _, in := range []string{"", "plain body\n", "> GET / HTTP/1.1\n* done"} {
		m := Parse(in)
		if !m.Empty() {
			t.Fatalf("Parse(%q) = %+v, want empty", in, m)
		}
		if m.ResponseHeaders != nil {
			t.Fatalf("headers should stay absent for %q", in)
		}
	}
}

func TestParse_MalformedLinesAreSkipped(t *testing.T) {
	m := Parse("< HTTP/1.1 abc\n< HTTP/1.1\n< no colon here\n< : empty name\n< server: nginx\n")
	if m.HTTPStatusCode != nil {
		t.Fatalf("status should be absent, got %d", *m.HTTPStatusCode)
	}
	if !reflect.DeepEqual(m.ResponseHeaders, map[string]string{"server": "nginx"}) {
		t.Fatalf("headers = %v", m.ResponseHeaders)
	}
}

func TestParse_LastOccurrenceWins(t *testing.T) {
	m := Parse("< HTTP/1.1 301 Moved\n< Location: /a\n< HTTP/1.1 200 OK\n< location: /b\n< CONTENT-TYPE: text/plain\n< content-type: application/xml\n")
	if *m.HTTPStatusCode != 200 {
		t.Fatalf("status = %d", *m.HTTPStatusCode)
	}
	if *m.ContentType != "application/xml" {
		t.Fatalf("content type = %s", *m.ContentType)
	}
	if m.ResponseHeaders["location"] != "/b" {
		t.Fatalf("location = %q", m.ResponseHeaders["location"])
	}
	if _, ok := m.ResponseHeaders["content-type"]; ok {
		t.Fatalf("content-type must not be stored as a generic header")
	}
}

func TestParse_HeaderValueKeepsLaterColons(t *testing.T) {
	m := Parse("< date: Mon, 02 Jan 2026 03:04:05 GMT\n")
	if got := m.ResponseHeaders["date"]; got != "Mon, 02 Jan 2026 03:04:05 GMT" {
		t.Fatalf("date = %q", got)
	}
}

func TestParseStreams_StderrAppliedAfterStdout(t *testing.T) {
	m := ParseStreams("< HTTP/1.1 500 Oops\n< x-a: 1\n", "< HTTP/1.1 201 Created\n< x-b: 2\n")
	if *m.HTTPStatusCode != 201 {
		t.Fatalf("status = %d", *m.HTTPStatusCode)
	}
	if !reflect.DeepEqual(m.ResponseHeaders, map[string]string{"x-a": "1", "x-b": "2"}) {
		t.Fatalf("headers = %v", m.ResponseHeaders)
	}
}

func FuzzParse(f *testing.F) {
	f.Add("< HTTP/1.1 200 OK\n< content-type: application/json\n")
	f.Add("<\n< :\n< HTTP/")
	f.Fuzz(func(t *testing.T, s string) {
		m := Parse(s)
		for k := range m.ResponseHeaders {
			if k == "" {
				t.Fatalf("empty header name from %q", s)
			}
		}
	})
}
