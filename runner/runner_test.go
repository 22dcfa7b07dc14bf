//go:build !windows

package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/global-git/global-git/translate"
)

func shellRunner(stdout, stderr *bytes.Buffer) *Runner {
	return &Runner{
		Path:   "/bin/sh",
		Env:    []string{"PATH=/usr/bin:/bin"},
		Stdout: stdout,
		Stderr: stderr,
		Codec:  NewCodec("UTF-8"),
	}
}

func TestPipedRewritesBothStreams(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := shellRunner(&stdout, &stderr)
	rw := translate.NewRewriter(map[string]string{
		"On branch": "En la rama",
		"fatal":     "fatal (es)",
	})

	code, err := r.Piped(context.Background(), []string{"-c", "echo 'On branch main'; echo 'fatal: nope' >&2; exit 3"}, rw)
	if err != nil {
		t.Fatalf("Piped() error = %v", err)
	}
	if code != 3 {
		t.Fatalf("Piped() = %d, want 3", code)
	}
	if got, want := stdout.String(), "En la rama main\n"; got != want {
		t.Fatalf("stdout = %q, want %q", got, want)
	}
	if got, want := stderr.String(), "fatal (es): nope\n"; got != want {
		t.Fatalf("stderr = %q, want %q", got, want)
	}
}

func TestPipedPassesInvalidBytesThrough(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := shellRunner(&stdout, &stderr)
	rw := translate.NewRewriter(map[string]string{"abc": "xyz"})

	code, err := r.Piped(context.Background(), []string{"-c", `printf 'abc\377'`}, rw)
	if err != nil || code != 0 {
		t.Fatalf("Piped() = %d, %v", code, err)
	}
	if got, want := stdout.Bytes(), []byte("abc\xff"); !bytes.Equal(got, want) {
		t.Fatalf("stdout = %q, want %q", got, want)
	}
}

func TestDirectExitCode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := shellRunner(&stdout, &stderr)

	code, err := r.Direct(context.Background(), []string{"-c", "echo hi; exit 5"})
	if err != nil {
		t.Fatalf("Direct() error = %v", err)
	}
	if code != 5 {
		t.Fatalf("Direct() = %d, want 5", code)
	}
	if stdout.String() != "hi\n" {
		t.Fatalf("stdout = %q, want %q", stdout.String(), "hi\n")
	}
}

func TestRunWithoutExecutable(t *testing.T) {
	r := &Runner{Codec: NewCodec("UTF-8")}
	code, err := r.Run(context.Background(), ModeDirect, []string{"status"}, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Run() error = %v, want ErrNotFound", err)
	}
	if code != ExitNotFound {
		t.Fatalf("Run() = %d, want %d", code, ExitNotFound)
	}
	if code, _ := r.Bypass(context.Background(), nil); code != ExitNotFound {
		t.Fatalf("Bypass() = %d, want %d", code, ExitNotFound)
	}
}

func TestRunDirectIgnoresRewriter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := shellRunner(&stdout, &stderr)
	rw := translate.NewRewriter(map[string]string{"hi": "hola"})

	if _, err := r.Run(context.Background(), ModeDirect, []string{"-c", "echo hi"}, rw); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stdout.String() != "hi\n" {
		t.Fatalf("stdout = %q, want %q", stdout.String(), "hi\n")
	}
}

func TestTerminalRewritesStream(t *testing.T) {
	if !ptySupported {
		t.Skip("no pseudo-terminal support")
	}
	var stdout, stderr bytes.Buffer
	r := shellRunner(&stdout, &stderr)
	rw := translate.NewRewriter(map[string]string{"hola": "hello"})

	code, err := r.Terminal(context.Background(), []string{"-c", "printf 'hola mundo\\n'; exit 2"}, rw)
	if err != nil {
		t.Skipf("cannot run on a pseudo-terminal here: %v", err)
	}
	if code != 2 {
		t.Fatalf("Terminal() = %d, want 2", code)
	}
	if got := stdout.String(); !strings.Contains(got, "hello mundo") {
		t.Fatalf("stdout = %q, want it to contain %q", got, "hello mundo")
	}
}

// interruptDuring sends SIGINT to the test process every 100ms until fn
// returns. The test process catches the signal itself, so an interrupt
// that arrives while fn is not listening is absorbed.
func interruptDuring(t *testing.T, fn func() (int, error)) (int, error) {
	t.Helper()
	catch := make(chan os.Signal, 1)
	signal.Notify(catch, os.Interrupt)
	defer signal.Stop(catch)

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		tick := time.NewTicker(100 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				_ = syscall.Kill(os.Getpid(), syscall.SIGINT)
			}
		}
	}()

	code, err := fn()
	close(stop)
	<-stopped
	return code, err
}

func TestInterruptExitCode(t *testing.T) {
	tests := []struct {
		name   string
		script string
		run    func(r *Runner, args []string) (int, error)
	}{
		{
			name:   "piped",
			script: "exec sleep 5",
			run: func(r *Runner, args []string) (int, error) {
				return r.Piped(context.Background(), args, translate.NewRewriter(map[string]string{"a": "b"}))
			},
		},
		{
			name:   "terminal",
			script: "exec sleep 5",
			run: func(r *Runner, args []string) (int, error) {
				return r.Terminal(context.Background(), args, translate.NewRewriter(map[string]string{"a": "b"}))
			},
		},
		{
			// Direct leaves the interrupt to the terminal, so the child runs
			// to completion here.
			name:   "direct",
			script: "sleep 1",
			run: func(r *Runner, args []string) (int, error) {
				return r.Direct(context.Background(), args)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.name == "terminal" && !ptySupported {
				t.Skip("no pseudo-terminal support")
			}
			var stdout, stderr bytes.Buffer
			r := shellRunner(&stdout, &stderr)

			start := time.Now()
			code, err := interruptDuring(t, func() (int, error) {
				return tc.run(r, []string{"-c", tc.script})
			})
			if err != nil {
				if tc.name == "terminal" {
					t.Skipf("cannot run on a pseudo-terminal here: %v", err)
				}
				t.Fatalf("error = %v", err)
			}
			if code != ExitInterrupted {
				t.Fatalf("exit code = %d, want %d", code, ExitInterrupted)
			}
			if tc.name != "direct" && time.Since(start) > 4*time.Second {
				t.Fatalf("child was not interrupted, ran %v", time.Since(start))
			}
		})
	}
}
