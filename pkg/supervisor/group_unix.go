//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// shell is the interpreter every command line is passed to.
var shell = "/bin/sh"

func shellCommand(commandLine string) *exec.Cmd {
	return exec.Command(shell, "-c", commandLine)
}

// setNewProcessGroup makes the child call setpgid(0, 0) after fork and before
// exec. It must be called before cmd.Start. Once started, the child is the
// leader of a new group whose id equals its pid, and every descendant that
// does not move itself elsewhere shares that group.
func setNewProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	cmd.SysProcAttr.Pgid = 0
}

// signalGroup sends SIGTERM to the process group led by pid. A negative pid
// addresses the whole group.
func signalGroup(pid int) error {
	if pid <= 0 {
		return ErrInvalidPID
	}
	return unix.Kill(-pid, unix.SIGTERM)
}
