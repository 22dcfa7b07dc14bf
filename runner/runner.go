// Package runner executes the genuine git with translated arguments and,
// when a phrase map is configured, rewrites its output.
//
// Three modes exist besides bypass: direct passthrough, pipe capture and
// pseudo-terminal streaming (see Mode). The caller picks one once per
// invocation with SelectMode.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"

	"github.com/charmbracelet/log"

	"github.com/global-git/global-git/translate"
)

// Exit statuses with a fixed meaning.
const (
	ExitNotFound    = 127
	ExitInterrupted = 130
)

// ErrNotFound is returned when there is no executable to run.
var ErrNotFound = errors.New("git executable not found")

// Runner runs one child process.
type Runner struct {
	// Path is the resolved executable.
	Path string
	// Env is the full child environment.
	Env []string

	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer

	// Codec converts between the terminal charset and text.
	Codec  Codec
	Logger *log.Logger
}

// New returns a runner on the process's standard streams.
func New(path string, env []string, codec Codec, logger *log.Logger) *Runner {
	return &Runner{
		Path:   path,
		Env:    env,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Codec:  codec,
		Logger: logger,
	}
}

func (r *Runner) debug(msg string, kv ...any) {
	if r.Logger != nil {
		r.Logger.Debug(msg, kv...)
	}
}

func (r *Runner) command(ctx context.Context, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, r.Path, args...)
	cmd.Env = r.Env
	return cmd
}

// stdin returns the runner's stdin for exec. A nil *os.File must not be
// stored in the io.Reader field of exec.Cmd.
func (r *Runner) stdin() io.Reader {
	if r.Stdin == nil {
		return nil
	}
	return r.Stdin
}

// Run executes args in the given mode and returns the child's exit code.
func (r *Runner) Run(ctx context.Context, mode Mode, args []string, rw *translate.Rewriter) (int, error) {
	if r.Path == "" {
		return ExitNotFound, ErrNotFound
	}
	r.debug("running git", "mode", mode, "path", r.Path, "args", args)
	switch mode {
	case ModePTY:
		return r.Terminal(ctx, args, rw)
	case ModePipe:
		return r.Piped(ctx, args, rw)
	default:
		return r.Direct(ctx, args)
	}
}

// Bypass runs args untouched with inherited stdio.
func (r *Runner) Bypass(ctx context.Context, args []string) (int, error) {
	if r.Path == "" {
		return ExitNotFound, ErrNotFound
	}
	return r.Direct(ctx, args)
}

// Direct runs args with inherited stdio. An interrupt received while the
// child runs yields ExitInterrupted once the child has exited; the
// terminal delivers the interrupt to the child itself.
func (r *Runner) Direct(ctx context.Context, args []string) (int, error) {
	cmd := r.command(ctx, args)
	cmd.Stdin = r.stdin()
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("starting %s: %w", r.Path, err)
	}
	err := cmd.Wait()

	select {
	case <-sigCh:
		return ExitInterrupted, nil
	default:
	}
	return exitCode(err)
}

// Piped runs args with stdout and stderr captured, then writes both
// rewritten. Output that does not decode in the terminal charset is
// written unchanged. An interrupt is forwarded to the child and yields
// ExitInterrupted.
func (r *Runner) Piped(ctx context.Context, args []string, rw *translate.Rewriter) (int, error) {
	var stdout, stderr bytes.Buffer
	cmd := r.command(ctx, args)
	cmd.Stdin = r.stdin()
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("starting %s: %w", r.Path, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-sigCh:
		r.debug("interrupt, forwarding to git")
		interrupt(cmd.Process)
		<-done
		return ExitInterrupted, nil
	}

	r.emit(r.Stdout, stdout.Bytes(), rw)
	r.emit(r.Stderr, stderr.Bytes(), rw)
	return exitCode(waitErr)
}

// emit writes data to w, rewritten when it decodes cleanly.
func (r *Runner) emit(w io.Writer, data []byte, rw *translate.Rewriter) {
	if len(data) == 0 || w == nil {
		return
	}
	text, err := r.Codec.Decode(data)
	if err != nil {
		r.debug("output not decodable, passing through", "charset", r.Codec.Name(), "err", err)
		_, _ = w.Write(data)
		return
	}
	_, _ = w.Write(r.Codec.Encode(rw.Rewrite(text)))
}

// interrupt forwards an interrupt to p, killing it if that fails.
func interrupt(p *os.Process) {
	if p == nil {
		return
	}
	if err := p.Signal(os.Interrupt); err != nil {
		_ = p.Kill()
	}
}

// exitCode maps the result of Wait to an exit status.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		return signalStatus(exitErr), nil
	}
	return 1, err
}
