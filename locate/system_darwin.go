package locate

import (
	"context"
	"os/exec"
	"strings"
)

// systemLocate asks xcrun for the command line tools' git.
func systemLocate(ctx context.Context, name string) string {
	xcrun, err := exec.LookPath("xcrun")
	if err != nil {
		return ""
	}
	out, err := exec.CommandContext(ctx, xcrun, "--find", name).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
