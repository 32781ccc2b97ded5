// Package proxy wires the command builder, the executor and the verbose
// parser into one request/response pipeline.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/loykin/curlproxy/internal/command"
	"github.com/loykin/curlproxy/internal/common"
	"github.com/loykin/curlproxy/internal/executor"
	"github.com/loykin/curlproxy/internal/verbose"
)

// ErrEmptyTargetURL is returned for a Spec without a target URL.
var ErrEmptyTargetURL = errors.New("target url is required")

// RejectMode decides what happens to a request with denylisted parameter tokens.
type RejectMode string

const (
	// RejectDrop removes the offending tokens and runs the rest.
	RejectDrop RejectMode = "drop"
	// RejectFail refuses the whole request without starting a process.
	RejectFail RejectMode = "fail"
)

// ParseRejectMode maps a config string to a RejectMode. Empty means drop.
func ParseRejectMode(s string) (RejectMode, error) {
	switch RejectMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", RejectDrop:
		return RejectDrop, nil
	case RejectFail:
		return RejectFail, nil
	default:
		return RejectDrop, fmt.Errorf("invalid reject mode: %s (valid: drop, fail)", s)
	}
}

// Recorder persists finished invocations. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, spec command.Spec, resp *Response) error
}

// Options configure a Service.
type Options struct {
	Builder     command.Builder
	Executor    *executor.Executor
	RejectMode  RejectMode
	ParseStderr bool
	Recorder    Recorder
	Logger      *common.Logger
}

// Service runs proxy invocations. It is not modified after New and can be shared.
type Service struct {
	builder     command.Builder
	exec        *executor.Executor
	rejectMode  RejectMode
	parseStderr bool
	recorder    Recorder
	logger      *common.Logger
}

// New builds a Service. A nil Executor gets the default timeout; a nil Logger discards.
func New(opts Options) *Service {
	s := &Service{
		builder:     opts.Builder,
		exec:        opts.Executor,
		rejectMode:  opts.RejectMode,
		parseStderr: opts.ParseStderr,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
	}
	if s.exec == nil {
		s.exec = &executor.Executor{}
	}
	if s.rejectMode == "" {
		s.rejectMode = RejectDrop
	}
	if s.logger == nil {
		s.logger = common.NewDiscardLogger()
	}
	s.logger = s.logger.WithComponent("proxy")
	return s
}

// Validate checks the parts of spec the pipeline cannot work without.
func (s *Service) Validate(spec command.Spec) error {
	if strings.TrimSpace(spec.TargetURL) == "" {
		return ErrEmptyTargetURL
	}
	return nil
}

// Execute runs one invocation and blocks until its Response is ready.
// Subprocess failures are reported inside the Response; the error is only
// non-nil when spec fails Validate.
func (s *Service) Execute(ctx context.Context, spec command.Spec) (*Response, error) {
	if err := s.Validate(spec); err != nil {
		return nil, err
	}
	return s.run(ctx, spec), nil
}

// ExecuteAsync starts one invocation and returns at once. The channel receives
// exactly one Response and is then closed.
func (s *Service) ExecuteAsync(ctx context.Context, spec command.Spec) (<-chan *Response, error) {
	if err := s.Validate(spec); err != nil {
		return nil, err
	}
	ch := make(chan *Response, 1)
	go func() {
		defer close(ch)
		ch <- s.run(ctx, spec)
	}()
	return ch, nil
}

func (s *Service) run(ctx context.Context, spec command.Spec) *Response {
	runID := uuid.NewString()
	log := s.logger.WithRun(runID, spec.TargetURL)

	vec := s.builder.Build(spec)
	for _, r := range vec.Rejected {
		log.Warn("rejected parameter", "token", r.Token, "pattern", r.Pattern)
	}
	rejected := vec.RejectedTokens()

	var resp *Response
	if len(rejected) > 0 && s.rejectMode == RejectFail {
		log.Error("request refused", "rejected", len(rejected), "command", vec.String())
		resp = rejectedResponse(vec.String(), runID, rejected)
	} else {
		log.Debug("executing", "command", vec.String())
		res := s.exec.WithLogger(log).RunAs(ctx, vec.Exec, vec.String())

		var meta *verbose.Metadata
		if vec.Verbose() {
			var m verbose.Metadata
			if s.parseStderr {
				m = verbose.ParseStreams(res.Stdout, res.Stderr)
			} else {
				m = verbose.Parse(res.Stdout)
			}
			meta = &m
		}
		resp = assemble(res, meta, runID, rejected)
	}

	s.record(ctx, log, spec, resp)
	return resp
}

func (s *Service) record(ctx context.Context, log *common.Logger, spec command.Spec, resp *Response) {
	if s.recorder == nil {
		return
	}
	// A canceled request still gets its run recorded.
	if err := s.recorder.Record(context.WithoutCancel(ctx), spec, resp); err != nil {
		log.Error("failed to record run", "error", err)
	}
}
