//go:build windows

package supervisor

import (
	"os"
	"os/exec"
	"syscall"
)

func shellCommand(commandLine string) *exec.Cmd {
	return exec.Command("cmd", "/C", commandLine)
}

// setNewProcessGroup starts the child in a new console process group. It must
// be called before cmd.Start.
func setNewProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags |= syscall.CREATE_NEW_PROCESS_GROUP
}

// signalGroup terminates the leader. Windows has no group-wide SIGTERM, so
// descendants of the shell are not reached.
func signalGroup(pid int) error {
	if pid <= 0 {
		return ErrInvalidPID
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Kill()
}
