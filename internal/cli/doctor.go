package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/bootimgpack/bootimg/internal/platform"
	"github.com/bootimgpack/bootimg/internal/toolkit"
	"github.com/spf13/cobra"
)

var doctorFix bool

const toolPerm = 0755

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the toolkit and its tools",
	Long: `Validate the toolkit document and verify that every registered unpack and
pack tool exists and is executable. With --fix, tools missing their execute
bits are made executable.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Set execute permissions on tools that lack them")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path := toolkitPath()

	fmt.Fprintf(out, "Toolkit check: %s\n", path)
	reg, err := loadToolkit()
	if err != nil {
		reportConfigError(out, err)
		return fmt.Errorf("toolkit %s is not usable", path)
	}
	fmt.Fprintf(out, "  [ OK ] %d type(s), tools root %s\n", reg.Len(), reg.ToolsRoot())
	for _, o := range reg.Overridden() {
		fmt.Fprintf(out, "  [WARN] %s declared more than once; %s is ignored\n", o.Type, o.Unpack)
	}

	return checkTools(out, reg, doctorFix)
}

func reportConfigError(out io.Writer, err error) {
	var cfgErr *toolkit.ConfigError
	if !errors.As(err, &cfgErr) || len(cfgErr.Issues) == 0 {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return
	}
	fmt.Fprintf(out, "  [FAIL] %d validation issue(s):\n", len(cfgErr.Issues))
	for _, issue := range cfgErr.Issues {
		fmt.Fprintf(out, "    - %s\n", issue)
	}
}

// checkTools reports every tool that is missing or not executable. With fix,
// tools that only lack execute bits are repaired.
func checkTools(out io.Writer, reg *toolkit.Registry, fix bool) error {
	fmt.Fprintln(out, "Tools check:")
	problems := 0
	for _, e := range reg.Entries() {
		for _, tool := range []struct{ role, path string }{{"unpack", e.Unpack}, {"pack", e.Pack}} {
			err := platform.CheckExecutable(tool.path)
			if err == nil {
				fmt.Fprintf(out, "  [ OK ] %s %s: %s\n", e.Type, tool.role, tool.path)
				continue
			}
			if fix && errors.Is(err, platform.ErrNotExecutable) {
				fmt.Fprintf(out, "  [WARN] %s %s: %v\n", e.Type, tool.role, err)
				chErr := platform.Chmod(tool.path, toolPerm)
				if chErr == nil {
					fmt.Fprintf(out, "  [FIX ] Fixed permissions on %s to %o\n", tool.path, toolPerm)
					continue
				}
				fmt.Fprintf(out, "  [FAIL] Could not fix permissions on %s: %v\n", tool.path, chErr)
			} else {
				fmt.Fprintf(out, "  [FAIL] %s %s: %v\n", e.Type, tool.role, err)
			}
			problems++
		}
	}
	if problems > 0 {
		return fmt.Errorf("%d tool problem(s) found", problems)
	}
	return nil
}
