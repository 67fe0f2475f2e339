//go:build windows

package process

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

// Windows has no interrupt signal for arbitrary processes; both rungs of
// the ladder terminate outright.
func interruptProcess(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

func killProcess(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
