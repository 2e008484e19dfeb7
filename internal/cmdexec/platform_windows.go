//go:build windows

package cmdexec

import (
	"fmt"
	"os/exec"
)

func configurePlatform(cmd *exec.Cmd) {}

func killProcess(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = exec.Command("taskkill", "/pid", fmt.Sprint(cmd.Process.Pid), "/f", "/t").Run()
}
