package detect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bootimgpack/bootimg/internal/runner"
	"github.com/bootimgpack/bootimg/internal/scratch"
	"github.com/bootimgpack/bootimg/internal/toolkit"
	"github.com/charmbracelet/log"
)

// ErrIO is matched when the scratch directory or a type record cannot be
// managed. It aborts the current operation.
var ErrIO = scratch.ErrIO

// DefaultTimeout bounds a single unpack attempt.
const DefaultTimeout = 60 * time.Second

// Toolkit is the registry view the detector needs.
type Toolkit interface {
	Get(typ string) (toolkit.ToolEntry, error)
	ListTypesDescending() []string
}

// Attempt describes one probe. Failed attempts are routine and never
// surface as errors from DetectType.
type Attempt struct {
	Type     string
	Command  string
	ExitCode int
	Output   string
	Duration time.Duration
	TimedOut bool
	Err      error  // non-nil when the tool could not run to completion
	Matched  bool
	Reason   string // why the attempt failed; empty when Matched
}

// Detector runs the probing loop. It owns one scratch location and is not
// meant to be shared: concurrent calls on the same Detector are serialized.
// Use one Detector per goroutine (see DetectAll) for parallel detection.
type Detector struct {
	mu       sync.Mutex
	tools    Toolkit
	runner   runner.Runner
	fixed    *scratch.Dir // caller-owned scratch dir, nil to acquire per run
	base     string
	timeout  time.Duration
	strict   bool
	logger   *log.Logger
	observer func(Attempt)
}

// Option configures a Detector.
type Option func(*Detector)

// WithRunner replaces the subprocess runner.
func WithRunner(r runner.Runner) Option {
	return func(d *Detector) { d.runner = r }
}

// WithScratch makes the detector use a caller-owned scratch directory. It is
// cleared around every attempt and left absent after each run, but the
// caller keeps responsibility for the location.
func WithScratch(dir *scratch.Dir) Option {
	return func(d *Detector) { d.fixed = dir }
}

// WithScratchBase sets the parent directory for per-run scratch directories.
func WithScratchBase(base string) Option {
	return func(d *Detector) { d.base = base }
}

// WithTimeout sets the per-attempt timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Detector) { d.timeout = timeout }
}

// WithRequireZeroExit makes a non-zero exit status fail the attempt even when
// the artifacts are present. By default only output markers and artifacts
// decide.
func WithRequireZeroExit(strict bool) Option {
	return func(d *Detector) { d.strict = strict }
}

// WithLogger sets the logger used for attempt diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(d *Detector) { d.logger = l }
}

// WithObserver registers fn to receive every attempt. DetectAll calls it
// from several goroutines.
func WithObserver(fn func(Attempt)) Option {
	return func(d *Detector) { d.observer = fn }
}

// New returns a Detector probing the types registered in tools.
func New(tools Toolkit, opts ...Option) *Detector {
	d := &Detector{
		tools:   tools,
		runner:  &runner.ExecRunner{},
		timeout: DefaultTimeout,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectType returns the first type, in ListTypesDescending order, whose
// unpack tool successfully unpacks bootFile. ok is false when no type
// matched. The scratch directory is absent when DetectType returns; an error
// is returned only for context cancellation or scratch I/O failures.
func (d *Detector) DetectType(ctx context.Context, bootFile string) (typ string, ok bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dir, release, err := d.acquire()
	if err != nil {
		return "", false, err
	}
	defer func() {
		if rerr := release(); rerr != nil && err == nil {
			typ, ok, err = "", false, rerr
		}
	}()

	d.logger.Debug("detecting boot image type", "file", bootFile, "scratch", dir.Path())

	for _, candidate := range d.tools.ListTypesDescending() {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}

		attempt, err := d.try(ctx, dir, candidate, bootFile)
		if err != nil {
			return "", false, err
		}
		d.report(attempt)

		if attempt.Matched {
			d.logger.Info("boot image type detected", "file", bootFile, "type", candidate)
			return candidate, true, nil
		}
	}

	d.logger.Info("no toolchain matched", "file", bootFile)
	return "", false, nil
}

func (d *Detector) acquire() (*scratch.Dir, func() error, error) {
	if d.fixed != nil {
		return d.fixed, d.fixed.Reset, nil
	}
	dir, err := scratch.Acquire(d.base)
	if err != nil {
		return nil, nil, err
	}
	return dir, dir.Release, nil
}

// try runs one candidate. The returned error is fatal; tool failures are
// recorded in the Attempt instead.
func (d *Detector) try(ctx context.Context, dir *scratch.Dir, typ, bootFile string) (Attempt, error) {
	attempt := Attempt{Type: typ}

	entry, err := d.tools.Get(typ)
	if err != nil {
		attempt.Err = err
		attempt.Reason = "no tool entry"
		return attempt, nil
	}
	attempt.Command = entry.Unpack

	if err := dir.Reset(); err != nil {
		return attempt, err
	}

	attemptCtx, cancel := ctx, context.CancelFunc(func() {})
	if d.timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, d.timeout)
	}
	start := time.Now()
	res, runErr := d.runner.Run(attemptCtx, entry.Unpack, bootFile, dir.Path())
	attempt.Duration = time.Since(start)
	// A tool that exits cleanly as the deadline fires still counts.
	timedOut := runErr != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
	cancel()

	if err := ctx.Err(); err != nil {
		return attempt, fmt.Errorf("detecting %s: %w", bootFile, err)
	}

	if res != nil {
		attempt.ExitCode = res.ExitCode
		attempt.Output = res.Output
		timedOut = timedOut || res.TimedOut
	}
	attempt.TimedOut = timedOut

	switch {
	case timedOut:
		attempt.Err = runErr
		attempt.Reason = fmt.Sprintf("timed out after %s", d.timeout)
	case runErr != nil:
		attempt.Err = runErr
		attempt.Reason = "could not run: " + runErr.Error()
	case d.strict && attempt.ExitCode != 0:
		attempt.Reason = fmt.Sprintf("exit status %d", attempt.ExitCode)
	default:
		attempt.Matched, attempt.Reason = evaluate(attempt.Output, dir)
	}

	if err := dir.Reset(); err != nil {
		return attempt, err
	}
	return attempt, nil
}

func (d *Detector) report(a Attempt) {
	if a.Matched {
		d.logger.Debug("attempt matched", "type", a.Type, "exit", a.ExitCode, "took", a.Duration)
	} else {
		d.logger.Debug("attempt failed", "type", a.Type, "exit", a.ExitCode, "reason", a.Reason)
	}
	if d.observer != nil {
		d.observer(a)
	}
}
