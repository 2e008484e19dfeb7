//go:build !windows

package cmdexec

import (
	"os/exec"
	"syscall"
	"time"
)

// configurePlatform puts the child in its own process group so killProcess
// can terminate the whole tree, not just the direct child.
func configurePlatform(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcess sends SIGTERM to the process group and escalates to SIGKILL
// after KillGracePeriod if the process is still alive.
func killProcess(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	_ = syscall.Kill(-pid, syscall.SIGTERM)
	time.Sleep(KillGracePeriod)
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
