// global-git is a localization shim for git. Installed as git ahead of
// the real binary, it translates localized subcommands and options, runs
// the real git and optionally rewrites its output.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/global-git/global-git/execenv"
	"github.com/global-git/global-git/i18n"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Tag styles of the log helpers. The renderer follows stderr, so colours
// disappear when stderr is not a terminal or NO_COLOR is set.
var (
	stderrRenderer = lipgloss.NewRenderer(os.Stderr)

	successTag = stderrRenderer.NewStyle().Foreground(lipgloss.Color("2"))
	warningTag = stderrRenderer.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errorTag   = stderrRenderer.NewStyle().Foreground(lipgloss.Color("1"))
)

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, successTag.Render("[OK]")+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, warningTag.Render("[WARN]")+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, errorTag.Render("[ERROR]")+" "+format+"\n", args...)
}

// newDebugLogger returns the pipeline tracer. It only prints when
// GLOBAL_GIT_DEBUG is set.
func newDebugLogger() *log.Logger {
	level := log.WarnLevel
	if execenv.Truthy(os.Getenv(execenv.EnvDebug)) {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "global-git",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           level,
	})
}

func main() {
	i18n.Init("")
	os.Exit(run(os.Args))
}
