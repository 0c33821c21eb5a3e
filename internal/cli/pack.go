package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/bootimgpack/bootimg/internal/detect"
	"github.com/spf13/cobra"
)

var (
	packType    string
	packTimeout time.Duration
)

var packCmd = &cobra.Command{
	Use:   "pack <unpacked-dir> <bootimg>",
	Short: "Rebuild a boot image from an unpacked directory",
	Long: `Read the type recorded by "unpack" in <unpacked-dir>/type.config and run the
matching pack tool to produce <bootimg>. Without a usable record the COMMON
type is assumed; --type overrides the record.`,
	Args: cobra.ExactArgs(2),
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringVarP(&packType, "type", "t", "", "Use this type instead of the recorded one")
	packCmd.Flags().DurationVar(&packTimeout, "timeout", 0, "Pack tool timeout (default from config, 60s)")
	rootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	unpackedDir, bootFile := args[0], args[1]
	info, err := os.Stat(unpackedDir)
	if err != nil {
		return fmt.Errorf("unpacked directory %s: %w", unpackedDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", unpackedDir)
	}

	reg, err := loadToolkit()
	if err != nil {
		return err
	}

	typ := packType
	if typ == "" {
		typ = detect.RetrieveType(unpackedDir)
	}

	entry, err := resolveEntry(reg, typ)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Packing %s as %s...\n", unpackedDir, typ)
	if err := runTool(cmd.Context(), cmd, entry.Pack, attemptTimeout(packTimeout), unpackedDir, bootFile); err != nil {
		return fmt.Errorf("packing %s: %w", unpackedDir, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Packed %s into %s (type %s)\n", unpackedDir, bootFile, typ)
	return nil
}
