package detect

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Detection is the outcome for one file in a batch.
type Detection struct {
	File    string `json:"file"`
	Type    string `json:"type,omitempty"`
	Matched bool   `json:"matched"`
}

// DetectAll classifies files with up to jobs detections in flight. Every file
// gets its own Detector and scratch directory; WithScratch is ignored because
// a caller-owned directory cannot be shared between probes. Results keep the
// order of files. The first fatal error cancels the remaining detections.
func DetectAll(ctx context.Context, tools Toolkit, files []string, jobs int, opts ...Option) ([]Detection, error) {
	if jobs < 1 {
		jobs = 1
	}

	results := make([]Detection, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, file := range files {
		g.Go(func() error {
			det := New(tools, opts...)
			det.fixed = nil

			typ, ok, err := det.DetectType(gctx, file)
			if err != nil {
				return err
			}
			results[i] = Detection{File: file, Type: typ, Matched: ok}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
