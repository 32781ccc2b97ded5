//go:build windows

package executor

import (
	"os"
	"os/exec"
)

type windowsProcessController struct{}

func newPlatformProcessController() processController {
	return windowsProcessController{}
}

func (windowsProcessController) Start(cmd *exec.Cmd) error {
	return cmd.Start()
}

func (windowsProcessController) Kill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return errProcessNotStarted
	}
	return cmd.Process.Kill()
}

// signalExitCode never applies on windows; the exit code is always the real one.
func signalExitCode(*os.ProcessState) (int32, bool) {
	return 0, false
}
