//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/global-git/global-git/translate"
)

const ptySupported = true

// Bytes written to the self-pipe by the signal relay.
const (
	sigByteInterrupt byte = 'i'
	sigByteResize    byte = 'w'
)

// Terminal runs args on a pseudo-terminal and rewrites its output as it
// streams. The real stdin is switched to cbreak mode and relayed byte for
// byte; it is restored on every return path.
//
// The loop waits in select(2) without a timeout on three descriptors: the
// pty master (child output), stdin (keystrokes) and a self-pipe the signal
// relay writes to, so interrupts and window resizes wake the same wait.
func (r *Runner) Terminal(ctx context.Context, args []string, rw *translate.Rewriter) (int, error) {
	sigR, sigW, err := os.Pipe()
	if err != nil {
		return 1, fmt.Errorf("creating signal pipe: %w", err)
	}
	defer sigR.Close()
	defer sigW.Close()

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGWINCH)
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		for s := range sigCh {
			b := sigByteResize
			if s == os.Interrupt {
				b = sigByteInterrupt
			}
			_, _ = sigW.Write([]byte{b})
		}
	}()
	defer func() {
		signal.Stop(sigCh)
		close(sigCh)
		<-relayDone
	}()

	var size *pty.Winsize
	if r.Stdin != nil {
		if ws, err := pty.GetsizeFull(r.Stdin); err == nil {
			size = ws
		}
	}

	cmd := r.command(ctx, args)
	// StartWithAttrs closes the subordinate side in this process once the
	// child is running, and closes the master itself on failure.
	ptmx, err := pty.StartWithAttrs(cmd, size, &syscall.SysProcAttr{Setsid: true, Setctty: true})
	if err != nil {
		return 1, fmt.Errorf("starting %s on a pseudo-terminal: %w", r.Path, err)
	}
	defer ptmx.Close()

	stdinFd := -1
	if r.Stdin != nil && term.IsTerminal(int(r.Stdin.Fd())) {
		fd := int(r.Stdin.Fd())
		if old, err := setCbreak(fd); err == nil {
			stdinFd = fd
			defer func() { _ = term.Restore(fd, old) }()
		} else {
			r.debug("cannot switch stdin to cbreak mode, not relaying input", "err", err)
		}
	}

	masterFd := int(ptmx.Fd())
	sigFd := int(sigR.Fd())

	dec := r.Codec.NewStreamDecoder()
	p := newPump(rw, func(s string) {
		_, _ = r.Stdout.Write(r.Codec.Encode(s))
	})

	out := make([]byte, 4096)
	in := make([]byte, 1024)
	sigs := make([]byte, 16)

	for {
		var rset unix.FdSet
		rset.Zero()
		rset.Set(masterFd)
		rset.Set(sigFd)
		nfd := max(masterFd, sigFd)
		if stdinFd >= 0 {
			rset.Set(stdinFd)
			nfd = max(nfd, stdinFd)
		}

		if _, err := unix.Select(nfd+1, &rset, nil, nil, nil); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			abort(cmd.Process, cmd.Wait)
			return 1, fmt.Errorf("waiting for terminal activity: %w", err)
		}

		if rset.IsSet(sigFd) {
			n, _ := unix.Read(sigFd, sigs)
			for _, b := range sigs[:max(n, 0)] {
				switch b {
				case sigByteInterrupt:
					r.debug("interrupt, forwarding to git")
					abort(cmd.Process, cmd.Wait)
					return ExitInterrupted, nil
				case sigByteResize:
					if r.Stdin != nil {
						_ = pty.InheritSize(r.Stdin, ptmx)
					}
				}
			}
		}

		if rset.IsSet(masterFd) {
			n, err := unix.Read(masterFd, out)
			if err != nil {
				if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
					continue
				}
				// EIO is how the master reports that the child hung up.
				if !errors.Is(err, unix.EIO) {
					abort(cmd.Process, cmd.Wait)
					return 1, fmt.Errorf("reading from pseudo-terminal: %w", err)
				}
				n = 0
			}
			if n <= 0 {
				break
			}
			p.push(dec.Decode(out[:n]))
		}

		if stdinFd >= 0 && rset.IsSet(stdinFd) {
			n, err := unix.Read(stdinFd, in)
			if err != nil || n <= 0 {
				stdinFd = -1
			} else if err := writeAll(masterFd, in[:n]); err != nil {
				r.debug("relaying input failed", "err", err)
			}
		}
	}

	p.push(dec.Flush())
	p.flush()

	return exitCode(cmd.Wait())
}

// abort interrupts the child and reaps it.
func abort(proc *os.Process, wait func() error) {
	interrupt(proc)
	_ = wait()
}

// setCbreak turns off line buffering and echo on fd while keeping signal
// generation, and returns the previous state for term.Restore.
func setCbreak(fd int) (*term.State, error) {
	old, err := term.GetState(fd)
	if err != nil {
		return nil, err
	}
	t, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, err
	}
	t.Lflag &^= unix.ECHO | unix.ICANON
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, t); err != nil {
		return nil, err
	}
	return old, nil
}

func writeAll(fd int, b []byte) error {
	for len(b) > 0 {
		n, err := unix.Write(fd, b)
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			return err
		}
		b = b[n:]
	}
	return nil
}
