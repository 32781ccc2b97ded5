package proxy

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/loykin/curlproxy/internal/executor"
	"github.com/loykin/curlproxy/internal/verbose"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestAssemble_SuccessFollowsExitCodeOnly(t *testing.T) {
	res := executor.Result{Stdout: "not found", ExitCode: 0, CommandLine: "curl -v https://x", Elapsed: 15 * time.Millisecond, Outcome: executor.OutcomeCompleted}
	r := Assemble(res, &verbose.Metadata{HTTPStatusCode: intPtr(404)})
	if !r.Success {
		t.Fatalf("exit code 0 must be success even with HTTP 404")
	}
	if r.HTTPSuccess {
		t.Fatalf("404 must not be an HTTP success")
	}
	if r.ExecutionTimeMs == nil || *r.ExecutionTimeMs != 15 {
		t.Fatalf("execution time = %v", r.ExecutionTimeMs)
	}

	failed := Assemble(executor.Result{ExitCode: 6, Stderr: "Could not resolve host", Outcome: executor.OutcomeCompleted}, nil)
	if failed.Success {
		t.Fatalf("nonzero exit must not be success")
	}
	if failed.Error != "Could not resolve host" {
		t.Fatalf("error = %q", failed.Error)
	}
}

func TestAssemble_ContentTypeFlags(t *testing.T) {
	tests := []struct {
		ct                string
		jsonR, xmlR, html bool
	}{
		{"application/json; charset=utf-8", true, false, false},
		{"Application/JSON", true, false, false},
		{"text/xml", false, true, false},
		{"application/xml", false, true, false},
		{"text/html", false, false, true},
		{"text/plain", false, false, false},
	}
	for _, tt := range tests {
		r := Assemble(executor.Result{}, &verbose.Metadata{ContentType: strPtr(tt.ct)})
		if r.JSONResponse != tt.jsonR || r.XMLResponse != tt.xmlR || r.HTMLResponse != tt.html {
			t.Fatalf("%q: json=%v xml=%v html=%v", tt.ct, r.JSONResponse, r.XMLResponse, r.HTMLResponse)
		}
	}
}

func TestAssemble_ValidJSONAndField(t *testing.T) {
	r := Assemble(executor.Result{Stdout: ` {"data":{"id":42,"tags":["a","b"]}}` + "\n"}, nil)
	if !r.ValidJSON {
		t.Fatalf("expected valid json")
	}
	if got := r.Field("data.id").Int(); got != 42 {
		t.Fatalf("data.id = %d", got)
	}
	if got := r.Field("data.tags.1").String(); got != "b" {
		t.Fatalf("data.tags.1 = %q", got)
	}

	for _, out := range []string{"", "   ", "<html></html>", "{broken"} {
		r := Assemble(executor.Result{Stdout: out}, nil)
		if r.ValidJSON {
			t.Fatalf("%q should not be valid json", out)
		}
		if r.Field("a").Exists() {
			t.Fatalf("Field on invalid output must not exist")
		}
	}
}

func TestResponseJSON_OptionalFieldsOmitted(t *testing.T) {
	b, err := json.Marshal(Assemble(executor.Result{Outcome: executor.OutcomeCompleted}, nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"responseHeaders", "httpStatusCode", "contentType", "runId", "rejectedParameters"} {
		if _, ok := m[k]; ok {
			t.Fatalf("%s should be omitted: %s", k, b)
		}
	}
	for _, k := range []string{"output", "error", "exitCode", "timestamp", "command", "success", "executionTimeMs", "outcome", "validJson"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("%s should be present: %s", k, b)
		}
	}

	b, _ = json.Marshal(Assemble(executor.Result{}, &verbose.Metadata{
		HTTPStatusCode:  intPtr(200),
		ContentType:     strPtr("application/json"),
		ResponseHeaders: map[string]string{"x-custom": "val"},
	}))
	m = nil
	_ = json.Unmarshal(b, &m)
	if m["httpStatusCode"] != float64(200) || m["contentType"] != "application/json" {
		t.Fatalf("metadata missing: %s", b)
	}
}

func TestRejectedResponse(t *testing.T) {
	r := rejectedResponse("curl -X GET https://x", "id", []string{"'a;b'", "x|y"})
	if r.ExitCode != -1 || r.Outcome != OutcomeRejected || r.Success {
		t.Fatalf("unexpected response: %+v", r)
	}
	if r.Error != "Rejected parameters: 'a;b', x|y" {
		t.Fatalf("error = %q", r.Error)
	}
	if r.ExecutionTimeMs != nil {
		t.Fatalf("no process ran, execution time must be absent")
	}
}
