package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bootimgpack/bootimg/internal/detect"
	"github.com/bootimgpack/bootimg/internal/runner"
	"github.com/bootimgpack/bootimg/internal/toolkit"
	"github.com/spf13/cobra"
)

var (
	unpackType       string
	unpackTimeout    time.Duration
	unpackStrictExit bool
)

var unpackCmd = &cobra.Command{
	Use:   "unpack <bootimg> <outdir>",
	Short: "Unpack a boot image with its detected toolchain",
	Long: `Detect the boot image type (unless --type is given), run the matching unpack
tool into <outdir>, and record the type in <outdir>/type.config so that
"pack" can rebuild the image without detecting again.`,
	Args: cobra.ExactArgs(2),
	RunE: runUnpack,
}

func init() {
	unpackCmd.Flags().StringVarP(&unpackType, "type", "t", "", "Skip detection and use this type")
	unpackCmd.Flags().DurationVar(&unpackTimeout, "timeout", 0, "Per-attempt timeout (default from config, 60s)")
	unpackCmd.Flags().BoolVar(&unpackStrictExit, "strict-exit", false, "Fail detection attempts whose tool exits non-zero")
	rootCmd.AddCommand(unpackCmd)
}

func runUnpack(cmd *cobra.Command, args []string) error {
	bootFile, outDir := args[0], args[1]
	if _, err := os.Stat(bootFile); err != nil {
		return fmt.Errorf("boot image %s: %w", bootFile, err)
	}

	reg, err := loadToolkit()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	typ := unpackType
	if typ == "" {
		det := detect.New(reg, detectorOptions(unpackTimeout, unpackStrictExit)...)
		detected, ok, err := det.DetectType(ctx, bootFile)
		if err != nil {
			return fmt.Errorf("detecting type of %s: %w", bootFile, err)
		}
		if !ok {
			return fmt.Errorf("no registered toolchain can unpack %s (try --type)", bootFile)
		}
		typ = detected
	}

	entry, err := resolveEntry(reg, typ)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Unpacking %s as %s...\n", bootFile, typ)
	if err := runTool(ctx, cmd, entry.Unpack, attemptTimeout(unpackTimeout), bootFile, outDir); err != nil {
		return fmt.Errorf("unpacking %s: %w", bootFile, err)
	}

	if err := detect.StoreType(typ, outDir); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Unpacked %s into %s (type %s)\n", bootFile, outDir, typ)
	return nil
}

// runTool runs a pack or unpack tool, streaming its output to stderr.
func runTool(ctx context.Context, cmd *cobra.Command, tool string, timeout time.Duration, args ...string) error {
	r := &runner.ExecRunner{Timeout: timeout, Echo: cmd.ErrOrStderr()}
	res, err := r.Run(ctx, tool, args...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%s exited with code %d", tool, res.ExitCode)
	}
	return nil
}

// resolveEntry looks up typ and turns an unknown type into a hint.
func resolveEntry(reg *toolkit.Registry, typ string) (toolkit.ToolEntry, error) {
	entry, err := reg.Get(typ)
	if err != nil {
		return toolkit.ToolEntry{}, fmt.Errorf("%w (run `types` to list registered types)", err)
	}
	return entry, nil
}
