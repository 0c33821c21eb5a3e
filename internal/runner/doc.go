// Package runner executes external boot image tools. The Runner interface is
// the only way the detector touches a subprocess, so tests can substitute a
// fake that manipulates the filesystem directly.
package runner
