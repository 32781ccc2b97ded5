package proxy

import (
	"strings"
	"time"

	"github.com/loykin/curlproxy/internal/executor"
	"github.com/loykin/curlproxy/internal/verbose"
	"github.com/tidwall/gjson"
)

// OutcomeRejected marks a request refused before any process was started.
const OutcomeRejected executor.Outcome = "rejected"

// Response is the externally visible result of one invocation. It is built by
// Assemble and not modified afterwards.
type Response struct {
	Output          string            `json:"output"`
	Error           string            `json:"error"`
	ExitCode        int32             `json:"exitCode"`
	Timestamp       time.Time         `json:"timestamp"`
	Command         string            `json:"command"`
	ExecutionTimeMs *int64            `json:"executionTimeMs,omitempty"`
	ResponseHeaders map[string]string `json:"responseHeaders,omitempty"`
	HTTPStatusCode  *int              `json:"httpStatusCode,omitempty"`
	ContentType     *string           `json:"contentType,omitempty"`

	Success      bool `json:"success"`
	HTTPSuccess  bool `json:"httpSuccess"`
	JSONResponse bool `json:"jsonResponse"`
	XMLResponse  bool `json:"xmlResponse"`
	HTMLResponse bool `json:"htmlResponse"`
	ValidJSON    bool `json:"validJson"`

	Outcome            executor.Outcome `json:"outcome"`
	RunID              string           `json:"runId,omitempty"`
	RejectedParameters []string         `json:"rejectedParameters,omitempty"`
}

// Assemble merges an execution result with optional verbose metadata.
// Success depends on the exit code only; an HTTP error status reported by a
// client that exited 0 is still a success here.
func Assemble(res executor.Result, meta *verbose.Metadata) *Response {
	return assemble(res, meta, "", nil)
}

func assemble(res executor.Result, meta *verbose.Metadata, runID string, rejected []string) *Response {
	elapsed := res.ElapsedMs()
	r := &Response{
		Output:          res.Stdout,
		Error:           res.Stderr,
		ExitCode:        res.ExitCode,
		Timestamp:       time.Now().UTC(),
		Command:         res.CommandLine,
		ExecutionTimeMs: &elapsed,
		Success:         res.ExitCode == 0,
		Outcome:         res.Outcome,

		RunID:              runID,
		RejectedParameters: rejected,
	}
	if meta != nil {
		r.HTTPStatusCode = meta.HTTPStatusCode
		r.ContentType = meta.ContentType
		if len(meta.ResponseHeaders) > 0 {
			r.ResponseHeaders = meta.ResponseHeaders
		}
	}
	r.derive()
	return r
}

// rejectedResponse is returned when reject mode is fail and the builder dropped tokens.
func rejectedResponse(commandLine, runID string, rejected []string) *Response {
	r := &Response{
		RunID:              runID,
		Error:              "Rejected parameters: " + strings.Join(rejected, ", "),
		ExitCode:           executor.ExitCodeNotRun,
		Timestamp:          time.Now().UTC(),
		Command:            commandLine,
		Outcome:            OutcomeRejected,
		RejectedParameters: rejected,
	}
	r.derive()
	return r
}

func (r *Response) derive() {
	if r.HTTPStatusCode != nil {
		r.HTTPSuccess = *r.HTTPStatusCode >= 200 && *r.HTTPStatusCode < 300
	}
	if r.ContentType != nil {
		ct := strings.ToLower(*r.ContentType)
		r.JSONResponse = strings.Contains(ct, "application/json")
		r.XMLResponse = strings.Contains(ct, "application/xml") || strings.Contains(ct, "text/xml")
		r.HTMLResponse = strings.Contains(ct, "text/html")
	}
	out := strings.TrimSpace(r.Output)
	r.ValidJSON = out != "" && gjson.Valid(out)
}

// Field evaluates a gjson path against the captured output.
func (r *Response) Field(path string) gjson.Result {
	if !r.ValidJSON {
		return gjson.Result{}
	}
	return gjson.Get(r.Output, path)
}
