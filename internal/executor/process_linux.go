//go:build linux

package executor

import "syscall"

// setPdeathsig kills the child if the proxy itself dies.
func setPdeathsig(attr *syscall.SysProcAttr) {
	attr.Pdeathsig = syscall.SIGKILL
}
