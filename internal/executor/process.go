package executor

import (
	"errors"
	"os/exec"
)

var errProcessNotStarted = errors.New("process not started")

// processController starts a command in its own process group and can kill
// the whole group, so helpers spawned by the client die with it.
type processController interface {
	Start(cmd *exec.Cmd) error
	Kill(cmd *exec.Cmd) error
}

func newProcessController() processController {
	return newPlatformProcessController()
}
