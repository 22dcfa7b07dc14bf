package runner

import "os/exec"

func signalStatus(*exec.ExitError) int {
	return 1
}
