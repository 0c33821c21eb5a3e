package platform

import (
	"errors"
	"fmt"
	"os"
	"runtime"
)

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// ErrNotExecutable is returned by CheckExecutable for a regular file that
// lacks every execute bit.
var ErrNotExecutable = errors.New("not executable")

// CheckExecutable returns nil when path is a regular file the current user
// can execute. On Windows only existence is checked.
func CheckExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS == "windows" {
		return nil
	}
	if info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("%s is %w (mode %o)", path, ErrNotExecutable, info.Mode().Perm())
	}
	return nil
}
