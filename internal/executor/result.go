package executor

import (
	"strings"
	"time"
)

// Outcome is the terminal state of one run.
type Outcome string

const (
	OutcomeCompleted    Outcome = "completed"
	OutcomeTimedOut     Outcome = "timeout"
	OutcomeLaunchFailed Outcome = "launch_failed"
	OutcomeCanceled     Outcome = "canceled"
)

// ExitCodeNotRun marks results where the process never produced an exit code of its own.
const ExitCodeNotRun int32 = -1

// Result is what one run produced. It is not modified after Run returns.
type Result struct {
	Stdout      string
	Stderr      string
	ExitCode    int32
	CommandLine string
	Elapsed     time.Duration
	Outcome     Outcome
}

// ElapsedMs returns the elapsed time in whole milliseconds, never negative.
func (r Result) ElapsedMs() int64 {
	if r.Elapsed < 0 {
		return 0
	}
	return r.Elapsed.Milliseconds()
}

func notRun(argv []string, outcome Outcome, msg string, elapsed time.Duration) Result {
	return Result{
		Stderr:      msg,
		ExitCode:    ExitCodeNotRun,
		CommandLine: strings.Join(argv, " "),
		Elapsed:     elapsed,
		Outcome:     outcome,
	}
}
