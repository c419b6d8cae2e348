//go:build unix

package executor

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the child as a process group leader and makes
// context cancellation kill the whole group, so helpers spawned by the
// aws program do not outlive it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
