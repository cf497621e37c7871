// Package executil runs external commands with a time limit and a bound on
// captured output.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

const (
	maxStderrLen = 500

	// DefaultTimeout bounds a command when the executor has no timeout set.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxOutput bounds captured stdout when the executor has no limit set.
	DefaultMaxOutput = 1 << 20

	// waitDelay bounds how long Wait blocks on open pipes after the process
	// is killed, so an orphaned grandchild holding stdout can't hang us.
	waitDelay = 2 * time.Second
)

// ErrTimeout is returned when a command does not finish within its timeout.
var ErrTimeout = errors.New("command timed out")

// limitedWriter caps writes to a bytes.Buffer at a maximum byte count.
// Bytes beyond the limit are silently discarded.
type limitedWriter struct {
	buf       *bytes.Buffer
	n         int64
	max       int64
	truncated bool
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.n >= w.max {
		w.truncated = w.truncated || len(p) > 0
		return len(p), nil
	}
	remaining := w.max - w.n
	origLen := len(p)
	if int64(origLen) > remaining {
		p = p[:remaining]
		w.truncated = true
	}
	n, err := w.buf.Write(p)
	w.n += int64(n)
	if err != nil {
		return n, err
	}
	return origLen, nil
}

// Result is the captured outcome of a command.
type Result struct {
	Stdout    []byte
	Truncated bool
}

// Executor runs shell command lines.
type Executor interface {
	// Sh runs cmd through `sh -c` in dir (empty means inherit cwd) and
	// returns its stdout, capped at the executor's output limit.
	Sh(ctx context.Context, dir, cmd string) (Result, error)
	// ShStream runs cmd through `sh -c` in dir, streaming output to the writers.
	ShStream(ctx context.Context, dir, cmd string, stdout, stderr io.Writer) error
}

// RealExecutor calls actual shell commands.
type RealExecutor struct {
	Timeout   time.Duration
	MaxOutput int64
}

// NewRealExecutor returns an executor with the given limits. Non-positive
// values fall back to DefaultTimeout and DefaultMaxOutput.
func NewRealExecutor(timeout time.Duration, maxOutput int64) *RealExecutor {
	return &RealExecutor{Timeout: timeout, MaxOutput: maxOutput}
}

func (e *RealExecutor) timeout() time.Duration {
	if e.Timeout <= 0 {
		return DefaultTimeout
	}
	return e.Timeout
}

func (e *RealExecutor) maxOutput() int64 {
	if e.MaxOutput <= 0 {
		return DefaultMaxOutput
	}
	return e.MaxOutput
}

// Sh runs cmd and captures stdout. On failure, stderr is returned as the
// error message, capped at 500 bytes to keep ANSI-polluted output out of
// logs and notifications. The original *exec.ExitError is preserved via
// wrapping so callers can inspect exit codes with errors.As.
func (e *RealExecutor) Sh(ctx context.Context, dir, cmd string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	c := shell(ctx, dir, cmd)

	var stdout, stderr bytes.Buffer
	out := &limitedWriter{buf: &stdout, max: e.maxOutput()}
	c.Stdout = out
	c.Stderr = &limitedWriter{buf: &stderr, max: maxStderrLen}

	err := c.Run()
	res := Result{Stdout: stdout.Bytes(), Truncated: out.truncated}
	if err != nil {
		return res, e.wrap(ctx, err, stderr.String())
	}
	return res, nil
}

// ShStream runs cmd with the executor's timeout, streaming its output.
func (e *RealExecutor) ShStream(ctx context.Context, dir, cmd string, stdout, stderr io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	c := shell(ctx, dir, cmd)
	c.Stdout = stdout
	c.Stderr = stderr

	if err := c.Run(); err != nil {
		return e.wrap(ctx, err, "")
	}
	return nil
}

func (e *RealExecutor) wrap(ctx context.Context, err error, stderr string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrTimeout, e.timeout(), err)
	}
	if msg := strings.TrimSpace(stderr); msg != "" {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return err
}

func shell(ctx context.Context, dir, cmd string) *exec.Cmd {
	c := exec.CommandContext(ctx, "sh", "-c", cmd)
	if dir != "" {
		c.Dir = dir
	}
	c.WaitDelay = waitDelay
	return c
}

// Lines splits output into trimmed, non-blank lines.
func Lines(out []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
