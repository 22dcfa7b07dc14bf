package runner

import (
	"os"

	"golang.org/x/term"
)

// Mode is how the child process is run.
type Mode int

const (
	// ModeDirect inherits stdio and performs no output rewriting.
	ModeDirect Mode = iota
	// ModePipe captures stdout and stderr and rewrites them after exit.
	ModePipe
	// ModePTY runs the child on a pseudo-terminal and rewrites its output
	// as it streams.
	ModePTY
)

func (m Mode) String() string {
	switch m {
	case ModeDirect:
		return "direct"
	case ModePipe:
		return "pipe"
	case ModePTY:
		return "pty"
	default:
		return "unknown"
	}
}

// Capabilities describes the session, checked once at startup.
type Capabilities struct {
	StdinTerminal  bool
	StdoutTerminal bool
	// PTY is true when pseudo-terminal and termios support is built in.
	PTY bool
}

// Detect inspects stdin and stdout. Nil files are not terminals.
func Detect(stdin, stdout *os.File) Capabilities {
	return Capabilities{
		StdinTerminal:  isTerminal(stdin),
		StdoutTerminal: isTerminal(stdout),
		PTY:            ptySupported,
	}
}

func isTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// SelectMode picks the execution mode. Output rewriting needs a phrase
// map; streaming through a pseudo-terminal additionally needs an
// interactive session on a platform that supports it.
func SelectMode(haveOutputMap bool, c Capabilities) Mode {
	if !haveOutputMap {
		return ModeDirect
	}
	if c.PTY && c.StdinTerminal && c.StdoutTerminal {
		return ModePTY
	}
	return ModePipe
}
