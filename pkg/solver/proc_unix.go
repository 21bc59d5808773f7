//go:build unix

package solver

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the solver in its own process group and kills the
// whole group on cancellation, so helper processes do not outlive the run.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
