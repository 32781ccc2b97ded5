//go:build !windows

package executor

import (
	"os"
	"os/exec"
	"syscall"
)

type unixProcessController struct{}

func newPlatformProcessController() processController {
	return unixProcessController{}
}

// Start puts the child in a new process group before starting it.
func (unixProcessController) Start(cmd *exec.Cmd) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	setPdeathsig(cmd.SysProcAttr)
	return cmd.Start()
}

// Kill sends SIGKILL to the process group (negative pid).
func (unixProcessController) Kill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return errProcessNotStarted
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		return cmd.Process.Kill()
	}
	return nil
}

// signalExitCode maps a signaled process to 128+signal.
func signalExitCode(state *os.ProcessState) (int32, bool) {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}
	return 128 + int32(ws.Signal()), true
}
