package detect

import (
	"strconv"
	"strings"

	"github.com/bootimgpack/bootimg/internal/scratch"
)

// Failure markers printed by unpack tools. Either one fails the attempt
// regardless of exit status, so a tool that prints them on success will be
// misclassified.
const (
	MarkerNoRamdisk = "Could not find any embedded ramdisk images"
	MarkerAborted   = "Aborted"
)

// FailureMarkers lists every marker checked against tool output.
var FailureMarkers = []string{MarkerNoRamdisk, MarkerAborted}

// Artifacts an unpack tool must leave in the scratch directory. Tools differ
// in the casing of the ramdisk folder, so both variants are accepted.
var (
	KernelArtifacts = []string{"kernel", "zImage"}
	InitArtifacts   = []string{"ramdisk/init.rc", "RAMDISK/init.rc"}
)

// failureMarker returns the first failure marker found in output.
func failureMarker(output string) (string, bool) {
	for _, m := range FailureMarkers {
		if strings.Contains(output, m) {
			return m, true
		}
	}
	return "", false
}

// evaluate applies the success predicate to one attempt. The reason is empty
// on success.
func evaluate(output string, dir *scratch.Dir) (bool, string) {
	if m, found := failureMarker(output); found {
		return false, "output contains " + strconv.Quote(m)
	}
	if !dir.ContainsAny(KernelArtifacts...) {
		return false, "no kernel artifact (" + strings.Join(KernelArtifacts, ", ") + ")"
	}
	if !dir.ContainsAny(InitArtifacts...) {
		return false, "no init script (" + strings.Join(InitArtifacts, ", ") + ")"
	}
	return true, ""
}
