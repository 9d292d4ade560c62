package analysis

import (
	"github.com/cellquant/nucleiquant/config"
	"github.com/cellquant/nucleiquant/images"
	"github.com/cellquant/nucleiquant/regions"
)

// MarkerCall is one region's classification against one marker channel.
// The raw pixel counts make the call reproducible from the record alone:
// Positive == (PositivePx/TotalPx >= minFraction).
type MarkerCall struct {
	Marker     string
	Positive   bool
	TotalPx    int
	PositivePx int
	// Classified is false for zero-pixel regions, which are excluded from
	// classification rather than default-classified either way.
	Classified bool
}

// KeptRegion is a detected region that survived plausibility filtering,
// together with its derived measurements.
type KeptRegion struct {
	Region        *regions.Region
	Area          int
	MeanIntensity float64
	// Circularity is NaN for degenerate masks and excluded from means.
	Circularity float64
	InAOI       bool
	Markers     []MarkerCall
}

// FilterRegions applies the plausibility tests to every candidate and
// returns the survivors in input order. The three predicates are
// independent conjunctions; area runs first only because it is cheapest.
// The filter is idempotent: re-running it over an already-kept set with
// the same thresholds keeps every region again.
func FilterRegions(cands []*regions.Region, ref *images.Channel, bg Stats, f config.Filter) []*KeptRegion {
	var kept []*KeptRegion
	for _, r := range cands {
		area := regions.Area(r, ref)
		if area < f.SizeMin || area > f.SizeMax {
			continue
		}
		mean := regions.Mean(r, ref)
		if f.MinMeanIntensity > 0 && mean < f.MinMeanIntensity {
			continue
		}
		if f.SigmaAboveBg > 0 && mean < bg.Mean+f.SigmaAboveBg*bg.StdDev {
			continue
		}
		kept = append(kept, &KeptRegion{
			Region:        r,
			Area:          area,
			MeanIntensity: mean,
			Circularity:   regions.Circularity(r),
		})
	}
	return kept
}
