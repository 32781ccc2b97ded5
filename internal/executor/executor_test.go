//go:build !windows

package executor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRun_Success(t *testing.T) {
	e := &Executor{}
	res := e.Run(context.Background(), []string{"sh", "-c", "printf 'hello\\nworld\\n'; printf 'warn' >&2"})
	if res.Outcome != OutcomeCompleted || res.ExitCode != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Stdout != "hello\nworld\n" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
	if res.Stderr != "warn" {
		t.Fatalf("stderr = %q", res.Stderr)
	}
	if res.CommandLine != "sh -c printf 'hello\\nworld\\n'; printf 'warn' >&2" {
		t.Fatalf("command line = %q", res.CommandLine)
	}
	if res.ElapsedMs() < 0 {
		t.Fatalf("negative elapsed")
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	res := (&Executor{}).Run(context.Background(), []string{"sh", "-c", "echo nope >&2; exit 7"})
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if res.ExitCode != 7 {
		t.Fatalf("exit code = %d", res.ExitCode)
	}
	if strings.TrimSpace(res.Stderr) != "nope" {
		t.Fatalf("stderr = %q", res.Stderr)
	}
}

func TestRun_KilledBySignalReportsShellStyleCode(t *testing.T) {
	res := (&Executor{}).Run(context.Background(), []string{"sh", "-c", "kill -TERM $$"})
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if res.ExitCode != 143 {
		t.Fatalf("exit code = %d, want 143 (128+SIGTERM)", res.ExitCode)
	}
}

func TestAwaitExit_ExitWinsOverExpiredDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 100; i++ {
		done := make(chan error, 1)
		done <- nil
		if finished, _ := awaitExit(ctx, done); !finished {
			t.Fatalf("iteration %d: deadline chosen over an exited process", i)
		}
	}
}

func TestAwaitExit_DeadlineWithoutExit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if finished, _ := awaitExit(ctx, make(chan error, 1)); finished {
		t.Fatalf("expected deadline when the process is still running")
	}
}

func TestRun_Timeout(t *testing.T) {
	timeout := 300 * time.Millisecond
	e := &Executor{Timeout: timeout, KillWait: time.Second}
	res := e.Run(context.Background(), []string{"sh", "-c", "echo started; sleep 10"})

	if res.Outcome != OutcomeTimedOut || res.ExitCode != -1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.Contains(res.Stderr, "timed out") {
		t.Fatalf("stderr = %q", res.Stderr)
	}
	if res.Stdout != "" {
		t.Fatalf("stdout must be abandoned on timeout, got %q", res.Stdout)
	}
	if res.Elapsed < timeout || res.Elapsed > timeout+2*time.Second {
		t.Fatalf("elapsed %v not close to timeout %v", res.Elapsed, timeout)
	}
}

func TestRun_TimeoutMessageSeconds(t *testing.T) {
	if got := formatTimeout(30 * time.Second); got != "30 seconds" {
		t.Fatalf("formatTimeout(30s) = %q", got)
	}
	if got := formatTimeout(time.Second); got != "1 second" {
		t.Fatalf("formatTimeout(1s) = %q", got)
	}
	if got := formatTimeout(1500 * time.Millisecond); got != "1.5s" {
		t.Fatalf("formatTimeout(1.5s) = %q", got)
	}
}

func TestRun_LaunchFailure(t *testing.T) {
	res := (&Executor{}).Run(context.Background(), []string{"definitely-not-a-real-binary-xyz", "https://x"})
	if res.Outcome != OutcomeLaunchFailed || res.ExitCode != -1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.HasPrefix(res.Stderr, "Execution error: ") {
		t.Fatalf("stderr = %q", res.Stderr)
	}
	if res.CommandLine != "definitely-not-a-real-binary-xyz https://x" {
		t.Fatalf("command line = %q", res.CommandLine)
	}
}

func TestRun_EmptyArgv(t *testing.T) {
	res := (&Executor{}).Run(context.Background(), nil)
	if res.Outcome != OutcomeLaunchFailed || res.ExitCode != -1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRun_ParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	res := (&Executor{Timeout: 10 * time.Second}).Run(ctx, []string{"sleep", "10"})
	if res.Outcome != OutcomeCanceled || res.ExitCode != -1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Elapsed > 5*time.Second {
		t.Fatalf("cancel did not stop the process promptly: %v", res.Elapsed)
	}
}

func TestRun_LargeOutputDoesNotDeadlock(t *testing.T) {
	// Well past a pipe buffer on both streams.
	script := "i=0; while [ $i -lt 4000 ]; do echo 'xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx'; echo 'yyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyy' >&2; i=$((i+1)); done"
	res := (&Executor{Timeout: 20 * time.Second}).Run(context.Background(), []string{"sh", "-c", script})
	if res.Outcome != OutcomeCompleted || res.ExitCode != 0 {
		t.Fatalf("unexpected result: outcome=%s exit=%d stderr_len=%d", res.Outcome, res.ExitCode, len(res.Stderr))
	}
	if len(res.Stdout) != 4000*51 || len(res.Stderr) != 4000*51 {
		t.Fatalf("stdout=%d stderr=%d", len(res.Stdout), len(res.Stderr))
	}
}

func TestRun_ConcurrentInvocationsAreIndependent(t *testing.T) {
	e := &Executor{}
	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Run(context.Background(), []string{"sh", "-c", "echo $0", string(rune('a' + i))})
		}(i)
	}
	wg.Wait()
	for i, r := range results {
		want := string(rune('a'+i)) + "\n"
		if r.Stdout != want {
			t.Fatalf("result %d stdout=%q want %q", i, r.Stdout, want)
		}
	}
}

func TestRunAs_ReportsGivenCommandLine(t *testing.T) {
	res := (&Executor{}).RunAs(context.Background(), []string{"echo", "x: y"}, "curl -H 'x: y'")
	if res.CommandLine != "curl -H 'x: y'" || res.Stdout != "x: y\n" {
		t.Fatalf("unexpected result: %+v", res)
	}
}
