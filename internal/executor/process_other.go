//go:build !linux && !windows

package executor

import "syscall"

func setPdeathsig(*syscall.SysProcAttr) {}
