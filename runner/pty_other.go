//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package runner

import (
	"context"
	"errors"

	"github.com/global-git/global-git/translate"
)

const ptySupported = false

var errNoPTY = errors.New("pseudo-terminals are not supported on this platform")

// Terminal is unavailable here; SelectMode never picks ModePTY.
func (r *Runner) Terminal(ctx context.Context, args []string, rw *translate.Rewriter) (int, error) {
	return 1, errNoPTY
}
