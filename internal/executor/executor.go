// Package executor runs one external command per call, capturing stdout and
// stderr separately and bounding the run with a deadline.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/loykin/curlproxy/internal/common"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTimeout bounds a run when Executor.Timeout is zero.
	DefaultTimeout = 30 * time.Second
	// DefaultKillWait is how long a killed process gets to release its pipes.
	DefaultKillWait = 2 * time.Second
)

var errEmptyCommand = errors.New("empty command")

// Executor spawns processes directly (no shell). The zero value is usable.
type Executor struct {
	Timeout  time.Duration
	KillWait time.Duration
	Logger   *common.Logger

	controller processController
}

// New returns an executor with the given timeout; zero means DefaultTimeout.
func New(timeout time.Duration, logger *common.Logger) *Executor {
	return &Executor{Timeout: timeout, Logger: logger}
}

func (e *Executor) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}

func (e *Executor) killWait() time.Duration {
	if e.KillWait > 0 {
		return e.KillWait
	}
	return DefaultKillWait
}

func (e *Executor) logger() *common.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return common.NewDiscardLogger()
}

func (e *Executor) proc() processController {
	if e.controller != nil {
		return e.controller
	}
	return newProcessController()
}

// Run executes argv and reports the command line as strings.Join(argv, " ").
func (e *Executor) Run(ctx context.Context, argv []string) Result {
	return e.RunAs(ctx, argv, strings.Join(argv, " "))
}

// RunAs executes argv and reports commandLine in the result.
//
// Failures never escape as errors: launch problems, the deadline and parent
// cancellation all come back as a Result with ExitCode -1 and a distinct Outcome.
func (e *Executor) RunAs(ctx context.Context, argv []string, commandLine string) Result {
	log := e.logger()
	timeout := e.timeout()
	start := time.Now()
	since := func() time.Duration { return time.Since(start) }

	fail := func(outcome Outcome, msg string) Result {
		r := notRun(argv, outcome, msg, since())
		r.CommandLine = commandLine
		return r
	}

	if len(argv) == 0 {
		return fail(OutcomeLaunchFailed, "Execution error: "+errEmptyCommand.Error())
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// #nosec G204 -- argv is built from a fixed binary plus sanitized tokens; no shell is involved
	cmd := exec.Command(argv[0], argv[1:]...)
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fail(OutcomeLaunchFailed, "Execution error: "+err.Error())
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return fail(OutcomeLaunchFailed, "Execution error: "+err.Error())
	}

	ctl := e.proc()
	if err := ctl.Start(cmd); err != nil {
		log.Error("failed to start command", "error", err, "command", commandLine)
		return fail(OutcomeLaunchFailed, "Execution error: "+err.Error())
	}
	log.Debug("command started", "pid", cmd.Process.Pid, "timeout", timeout)

	var stdout, stderr bytes.Buffer
	var drain errgroup.Group
	drain.Go(func() error {
		_, err := io.Copy(&stdout, stdoutPipe)
		return err
	})
	drain.Go(func() error {
		_, err := io.Copy(&stderr, stderrPipe)
		return err
	})

	// Wait must only be called once both pipes are drained.
	done := make(chan error, 1)
	go func() {
		drainErr := drain.Wait()
		waitErr := cmd.Wait()
		if waitErr == nil && drainErr != nil {
			waitErr = drainErr
		}
		done <- waitErr
	}()

	completed := func(waitErr error) Result {
		elapsed := since()
		res := Result{
			Stdout:      stdout.String(),
			Stderr:      stderr.String(),
			ExitCode:    exitCode(cmd, waitErr),
			CommandLine: commandLine,
			Elapsed:     elapsed,
			Outcome:     OutcomeCompleted,
		}
		if waitErr != nil && !isExitError(waitErr) {
			log.Warn("command finished with an I/O error", "error", waitErr)
		}
		log.Info("command completed", "exit_code", res.ExitCode, "elapsed", elapsed)
		return res
	}

	if finished, waitErr := awaitExit(runCtx, done); finished {
		return completed(waitErr)
	}

	if err := ctl.Kill(cmd); err != nil {
		log.Warn("failed to kill process group", "error", err)
	}
	select {
	case <-done:
	case <-time.After(e.killWait()):
		log.Warn("process did not release its pipes after kill", "kill_wait", e.killWait())
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		log.Error("command timed out", "timeout", timeout, "command", commandLine)
		return fail(OutcomeTimedOut, fmt.Sprintf("Command timed out after %s", formatTimeout(timeout)))
	}
	log.Warn("command canceled", "error", ctx.Err())
	return fail(OutcomeCanceled, "Execution error: "+ctx.Err().Error())
}

// awaitExit blocks until the process is reaped or ctx is done. When both are
// ready the exit wins, so a process finishing at the deadline is not reported
// as timed out.
func awaitExit(ctx context.Context, done <-chan error) (bool, error) {
	select {
	case err := <-done:
		return true, err
	case <-ctx.Done():
	}
	select {
	case err := <-done:
		return true, err
	default:
		return false, nil
	}
}

// exitCode reports the process exit status. A process ended by a signal gets
// 128+signal, as a POSIX shell reports it, so -1 stays reserved for runs that
// never completed.
func exitCode(cmd *exec.Cmd, waitErr error) int32 {
	if cmd.ProcessState != nil {
		if code, ok := signalExitCode(cmd.ProcessState); ok {
			return code
		}
		return int32(cmd.ProcessState.ExitCode())
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return int32(exitErr.ExitCode())
	}
	return ExitCodeNotRun
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// formatTimeout renders whole seconds as "30 seconds", anything else as a Go duration.
func formatTimeout(d time.Duration) string {
	if d%time.Second == 0 {
		n := int64(d / time.Second)
		if n == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", n)
	}
	return d.String()
}

// WithLogger returns a copy of e that logs to l.
func (e *Executor) WithLogger(l *common.Logger) *Executor {
	c := *e
	c.Logger = l
	return &c
}
