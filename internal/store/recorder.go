package store

import (
	"context"
	"time"

	"github.com/loykin/curlproxy/internal/command"
	"github.com/loykin/curlproxy/internal/common"
	"github.com/loykin/curlproxy/internal/proxy"
)

// Recorder adapts a Store to proxy.Recorder. Commands, URLs and any kept
// output pass through the masker before they are written.
type Recorder struct {
	store  *Store
	masker *common.Masker
}

// NewRecorder returns a Recorder; a nil masker means the global one.
func NewRecorder(s *Store, masker *common.Masker) *Recorder {
	if masker == nil {
		masker = common.GetGlobalMasker()
	}
	return &Recorder{store: s, masker: masker}
}

// Record implements proxy.Recorder.
func (r *Recorder) Record(ctx context.Context, spec command.Spec, resp *proxy.Response) error {
	return r.store.Record(ctx, r.toRun(spec, resp))
}

func (r *Recorder) toRun(spec command.Spec, resp *proxy.Response) Run {
	ranAt := resp.Timestamp
	if ranAt.IsZero() {
		ranAt = time.Now()
	}
	run := Run{
		ID:          resp.RunID,
		Command:     r.masker.MaskString(resp.Command),
		TargetURL:   r.masker.MaskString(spec.TargetURL),
		ExitCode:    int(resp.ExitCode),
		Outcome:     string(resp.Outcome),
		HTTPStatus:  resp.HTTPStatusCode,
		ContentType: resp.ContentType,
		ElapsedMs:   resp.ExecutionTimeMs,
		Success:     resp.Success,
		RanAt:       ranAt.UTC().Format(time.RFC3339Nano),
	}
	if r.store.SaveOutput() {
		out := r.masker.MaskString(resp.Output)
		errText := r.masker.MaskString(resp.Error)
		run.Output = &out
		run.Error = &errText
	}
	return run
}

var _ proxy.Recorder = (*Recorder)(nil)
