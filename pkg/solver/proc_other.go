//go:build !unix

package solver

import "os/exec"

// setProcessGroup keeps the default behaviour: only the solver process
// itself is killed on cancellation.
func setProcessGroup(cmd *exec.Cmd) {}
