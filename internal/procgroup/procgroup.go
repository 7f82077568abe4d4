// Package procgroup makes context cancellation stop a subprocess together
// with every process it spawned.
package procgroup

import (
	"os/exec"
	"time"
)

// WaitDelay bounds how long Wait keeps draining output pipes after the
// process group was killed.
const WaitDelay = 2 * time.Second

// Bind configures cmd to run in its own process group and to kill the whole
// group when the command's context is done. cmd must come from
// exec.CommandContext and must not be started yet.
func Bind(cmd *exec.Cmd) {
	setupProcessGroup(cmd)
	cmd.Cancel = func() error {
		return killProcessGroup(cmd)
	}
	cmd.WaitDelay = WaitDelay
}
