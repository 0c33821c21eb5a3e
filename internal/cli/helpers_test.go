package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/bootimgpack/bootimg/internal/config"
	"github.com/bootimgpack/bootimg/internal/platform"
	"github.com/spf13/viper"
)

// testEnv holds an isolated BOOTIMG_HOME and a toolkit built from shell scripts.
type testEnv struct {
	HomeDir  string
	ToolsDir string
	Toolkit  string
}

// setupTestEnv sandboxes config under a temp BOOTIMG_HOME and writes a toolkit
// with two types. SONY aborts on everything; COMMON unpacks any image whose
// content is "android" and packs by concatenating the recorded kernel.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell tools require a POSIX shell")
	}

	env := &testEnv{HomeDir: t.TempDir(), ToolsDir: t.TempDir()}
	t.Setenv("BOOTIMG_HOME", env.HomeDir)
	t.Setenv("BOOTIMG_SCRATCH_DIR", t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)

	writeScript(t, filepath.Join(env.ToolsDir, "sony", "unpack"), `echo "Aborted"; exit 1`)
	writeScript(t, filepath.Join(env.ToolsDir, "sony", "pack"), `exit 1`)
	writeScript(t, filepath.Join(env.ToolsDir, "common", "unpack"), `
if [ "$(cat "$1")" != "android" ]; then
  echo "Could not find any embedded ramdisk images"
  exit 0
fi
mkdir -p "$2/ramdisk"
echo kernel > "$2/kernel"
echo init > "$2/ramdisk/init.rc"
echo "unpacked $1"`)
	writeScript(t, filepath.Join(env.ToolsDir, "common", "pack"), `cat "$1/kernel" > "$2"`)

	env.Toolkit = filepath.Join(env.ToolsDir, "toolkit.yaml")
	writeFile(t, env.Toolkit, `version: "1.0"
tools:
  - type: COMMON
    unpack: common/unpack
    pack: common/pack
  - type: SONY
    unpack: sony/unpack
    pack: sony/pack
`)
	return env
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag variable to its default between runs.
func resetFlags() {
	toolkitFlag, toolsRootFlag, logLevelFlag = "", "", ""
	detectJobs, detectJSON, detectTimeout, detectStrictExit = 1, false, 0, false
	unpackType, unpackTimeout, unpackStrictExit = "", 0, false
	packType, packTimeout = "", 0
	typesJSON = false
	doctorFix = false
	versionShort, versionJSON = false, false
}

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	writeFile(t, path, "#!/bin/sh\n"+body+"\n")
	if err := platform.Chmod(path, 0755); err != nil {
		t.Fatalf("chmod %s: %v", path, err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// setupConfig resets viper and loads config from the current BOOTIMG_HOME.
func setupConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	config.Load()
}
