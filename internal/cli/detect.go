package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bootimgpack/bootimg/internal/detect"
	"github.com/spf13/cobra"
)

var (
	detectJobs       int
	detectJSON       bool
	detectTimeout    time.Duration
	detectStrictExit bool
)

var detectCmd = &cobra.Command{
	Use:   "detect <bootimg>...",
	Short: "Detect the toolchain type of boot images",
	Long: `Probe each boot image with every registered unpack tool, highest priority
first, and print the first type that unpacks it cleanly.

Types are tried in reverse lexicographic order of their identifiers. An
attempt succeeds when the tool output contains neither "Aborted" nor "Could
not find any embedded ramdisk images" and the output directory holds a kernel
(kernel or zImage) and an init script (ramdisk/init.rc or RAMDISK/init.rc).

Exits non-zero when any image matches no type.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().IntVarP(&detectJobs, "jobs", "j", 1, "Number of images to probe in parallel")
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "Output in JSON format")
	detectCmd.Flags().DurationVar(&detectTimeout, "timeout", 0, "Per-attempt timeout (default from config, 60s)")
	detectCmd.Flags().BoolVar(&detectStrictExit, "strict-exit", false, "Fail attempts whose tool exits non-zero")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	for _, file := range args {
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("boot image %s: %w", file, err)
		}
	}

	reg, err := loadToolkit()
	if err != nil {
		return err
	}

	results, err := detect.DetectAll(cmd.Context(), reg, args, detectJobs, detectorOptions(detectTimeout, detectStrictExit)...)
	if err != nil {
		return fmt.Errorf("detecting boot image types: %w", err)
	}

	if detectJSON {
		err = printDetectJSON(cmd, results)
	} else {
		err = printDetectTable(cmd, results)
	}
	if err != nil {
		return err
	}

	unmatched := 0
	for _, r := range results {
		if !r.Matched {
			unmatched++
		}
	}
	if unmatched > 0 {
		return fmt.Errorf("%d of %d boot images matched no toolchain", unmatched, len(results))
	}
	return nil
}

func printDetectTable(cmd *cobra.Command, results []detect.Detection) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FILE\tTYPE")
	for _, r := range results {
		typ := r.Type
		if !r.Matched {
			typ = "-"
		}
		fmt.Fprintf(w, "%s\t%s\n", r.File, typ)
	}
	return w.Flush()
}

func printDetectJSON(cmd *cobra.Command, results []detect.Detection) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
