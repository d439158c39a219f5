//go:build unix

package osascript

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the interpreter in its own process group so a
// timeout kills any helpers it spawned along with it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
