package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

var (
	// ErrTimeout is returned when a command exceeds its time budget.
	ErrTimeout = errors.New("command timed out")

	// ErrStart is returned when a command cannot be started at all
	// (missing binary, permission denied).
	ErrStart = errors.New("command could not be started")
)

// Runner runs a command with arguments and captures its output.
type Runner interface {
	// Run executes command with args and blocks until it exits. A non-zero
	// exit status is reported in Result.ExitCode, not as an error.
	Run(ctx context.Context, command string, args ...string) (*Result, error)
}

// Result captures the outcome of a command.
type Result struct {
	ExitCode int
	Output   string // stdout and stderr interleaved in arrival order
	TimedOut bool
}

// Func adapts an ordinary function to the Runner interface.
type Func func(ctx context.Context, command string, args ...string) (*Result, error)

// Run calls f(ctx, command, args...).
func (f Func) Run(ctx context.Context, command string, args ...string) (*Result, error) {
	return f(ctx, command, args...)
}

// waitDelay bounds how long Run waits for output pipes after the process is
// killed; tools that fork helpers can otherwise keep them open.
const waitDelay = 2 * time.Second

// ExecRunner runs commands as real subprocesses via os/exec.
type ExecRunner struct {
	// Timeout limits each Run call; zero means no limit.
	Timeout time.Duration
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env replaces the process environment when non-nil.
	Env []string
	// Echo, when set, receives a copy of the combined output as it streams.
	Echo io.Writer
}

// Run executes command with args. Arguments are passed verbatim, without a
// shell.
func (r *ExecRunner) Run(ctx context.Context, command string, args ...string) (*Result, error) {
	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, command, args...)
	cmd.Dir = r.Dir
	cmd.Env = r.Env
	cmd.WaitDelay = waitDelay

	var buf bytes.Buffer
	var out io.Writer = &buf
	if r.Echo != nil {
		out = io.MultiWriter(&buf, r.Echo)
	}
	// Same writer for both streams keeps them interleaved.
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	result := &Result{Output: buf.String()}
	if err == nil {
		return result, nil
	}

	result.ExitCode = -1
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("running %s: %w", command, ctxErr)
	}
	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		return result, fmt.Errorf("running %s: %w after %s", command, ErrTimeout, r.Timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return result, fmt.Errorf("running %s: %w: %w", command, ErrStart, err)
}
