package executil

import (
	"context"
	"io"
	"sync"
)

// Call is one command line seen by a RecordingExecutor.
type Call struct {
	Dir      string
	Line     string
	Streamed bool
}

// Reply is the canned outcome for a command line.
type Reply struct {
	Stdout    []byte
	Truncated bool
	Err       error
}

// RecordingExecutor is an Executor for tests. It runs nothing: each call is
// recorded and answered with the Reply registered for its exact line, or
// the zero Reply. A cancelled context fails the call after recording it.
type RecordingExecutor struct {
	mu      sync.Mutex
	calls   []Call
	replies map[string]Reply
}

// Reply registers the outcome for line and returns e for chaining.
func (e *RecordingExecutor) Reply(line string, r Reply) *RecordingExecutor {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.replies == nil {
		e.replies = make(map[string]Reply)
	}
	e.replies[line] = r
	return e
}

func (e *RecordingExecutor) Sh(ctx context.Context, dir, cmd string) (Result, error) {
	r := e.answer(ctx, Call{Dir: dir, Line: cmd})
	return Result{Stdout: r.Stdout, Truncated: r.Truncated}, r.Err
}

// ShStream copies the reply's stdout to stdout; stderr is never written.
func (e *RecordingExecutor) ShStream(ctx context.Context, dir, cmd string, stdout, _ io.Writer) error {
	r := e.answer(ctx, Call{Dir: dir, Line: cmd, Streamed: true})
	if stdout != nil && len(r.Stdout) > 0 {
		if _, err := stdout.Write(r.Stdout); err != nil {
			return err
		}
	}
	return r.Err
}

func (e *RecordingExecutor) answer(ctx context.Context, c Call) Reply {
	e.mu.Lock()
	e.calls = append(e.calls, c)
	r := e.replies[c.Line]
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Reply{Err: err}
	}
	return r
}

// Calls returns the recorded calls in order.
func (e *RecordingExecutor) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// Reset forgets recorded calls. Replies are kept.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}
