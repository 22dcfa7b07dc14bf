//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
)

// signalStatus follows the shell convention of 128 plus the signal number
// for a child killed by a signal.
func signalStatus(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return 1
}
