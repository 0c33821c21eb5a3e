// Package scratch owns the ephemeral directory an unpack probe writes into.
// A Dir is a single path reserved for one detector; it is removed before and
// after every attempt so no probe can observe another probe's output.
package scratch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrIO is matched by every filesystem failure while managing a Dir.
var ErrIO = errors.New("scratch directory I/O error")

// Dir is an exclusively owned scratch directory path. The directory itself
// only exists while an unpack tool has created it; Reset and Release remove it.
type Dir struct {
	path string
	// parent is removed on Release when the Dir created it.
	parent string
}

// Acquire reserves a new, unique scratch location under base (the OS temp
// dir when base is empty). The reserved path does not exist on return, so
// unpack tools can create it themselves.
func Acquire(base string) (*Dir, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0755); err != nil {
			return nil, fmt.Errorf("%w: creating scratch base %s: %w", ErrIO, base, err)
		}
	}
	parent, err := os.MkdirTemp(base, "bootimg-probe-")
	if err != nil {
		return nil, fmt.Errorf("%w: reserving scratch directory: %w", ErrIO, err)
	}
	return &Dir{path: filepath.Join(parent, "out"), parent: parent}, nil
}

// At wraps an existing path as a Dir. Release removes only that path.
func At(path string) *Dir {
	return &Dir{path: filepath.Clean(path)}
}

// Path returns the directory handed to unpack tools.
func (d *Dir) Path() string { return d.path }

// Reset removes the directory and everything in it, leaving the path absent.
func (d *Dir) Reset() error {
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("%w: clearing %s: %w", ErrIO, d.path, err)
	}
	return nil
}

// Release removes the directory and, for acquired Dirs, the reservation that
// holds it. Safe to call more than once.
func (d *Dir) Release() error {
	if err := d.Reset(); err != nil {
		return err
	}
	if d.parent != "" {
		if err := os.RemoveAll(d.parent); err != nil {
			return fmt.Errorf("%w: removing %s: %w", ErrIO, d.parent, err)
		}
	}
	return nil
}

// Exists reports whether the directory is currently present.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ContainsAny reports whether at least one of the slash-separated relative
// paths exists under the directory.
func (d *Dir) ContainsAny(rel ...string) bool {
	for _, r := range rel {
		if _, err := os.Stat(filepath.Join(d.path, filepath.FromSlash(r))); err == nil {
			return true
		}
	}
	return false
}
