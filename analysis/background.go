// Package analysis implements the post-segmentation statistical engine:
// background estimation, plausibility filtering, AOI membership, marker
// positivity, and the per-series pipeline that ties them together.
package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/cellquant/nucleiquant/images"
	"github.com/cellquant/nucleiquant/regions"
)

// Stats is the background intensity estimate used as an adaptive floor by
// the region filter. It is recomputed per image per channel and never
// cached across images.
type Stats struct {
	Mean   float64
	StdDev float64
}

// BackgroundStats estimates background intensity from everything that is
// not yet-known signal: it rasterizes the union of all detected regions
// into one grid (a single pass, not pairwise shape unions) and measures
// mean and standard deviation over the complement. When the union covers
// nothing or everything, whole-image statistics are the fallback.
//
// This must run before filtering, because the filter consumes its result
// and the union must include detections the filter would discard.
func BackgroundStats(c *images.Channel, detected []*regions.Region) Stats {
	union := images.NewMask(c.W, c.H)
	for _, r := range detected {
		regions.Rasterize(r, union)
	}

	samples := make([]float64, 0, len(c.Pix))
	for i, v := range c.Pix {
		if !union.Bits[i] {
			samples = append(samples, float64(v))
		}
	}
	if len(samples) == 0 || len(samples) == len(c.Pix) {
		samples = samples[:0]
		for _, v := range c.Pix {
			samples = append(samples, float64(v))
		}
	}

	mean, sd := stat.MeanStdDev(samples, nil)
	if len(samples) < 2 {
		sd = 0
	}
	return Stats{Mean: mean, StdDev: sd}
}
