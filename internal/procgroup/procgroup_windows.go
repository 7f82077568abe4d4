//go:build windows

package procgroup

import "os/exec"

func setupProcessGroup(*exec.Cmd) {}

// killProcessGroup kills the direct child only; WaitDelay still bounds the
// wait for pipes held by its descendants.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
