package toolkit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfig is matched by every toolkit loading failure.
	ErrConfig = errors.New("invalid toolkit configuration")

	// ErrNotFound is matched when a type identifier is not registered.
	ErrNotFound = errors.New("boot image type not found")
)

// Issue is a single schema violation in a toolkit document.
type Issue struct {
	Path    string // Instance location (e.g., "/tools/0/pack")
	Message string // Human-readable error message
	Keyword string // Schema keyword that failed
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// ConfigError describes why a toolkit document could not be loaded.
type ConfigError struct {
	Source string
	Issues []Issue
	Err    error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "toolkit %s", e.Source)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Issues) > 0 {
		parts := make([]string, 0, len(e.Issues))
		for _, issue := range e.Issues {
			parts = append(parts, issue.String())
		}
		fmt.Fprintf(&b, ": %s", strings.Join(parts, "; "))
	}
	return b.String()
}

// Is reports ErrConfig as the sentinel for every ConfigError.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

func (e *ConfigError) Unwrap() error { return e.Err }

// NotFoundError is returned by Registry.Get for unknown types.
type NotFoundError struct {
	Type string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("boot image type %q is not registered", e.Type)
}

// Is reports ErrNotFound as the sentinel for every NotFoundError.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
