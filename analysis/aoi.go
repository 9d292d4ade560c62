package analysis

import (
	"github.com/cellquant/nucleiquant/config"
	"github.com/cellquant/nucleiquant/images"
	"github.com/cellquant/nucleiquant/regions"
)

// BuildAOIMask derives the area-of-interest mask from the auxiliary
// channel: optional median denoise, then the configured number of
// background-subtraction passes (denoise strictly before background
// subtraction), then a single fixed-value threshold. The input channel is
// never mutated. The mask is rebuilt from scratch for every series; there
// is no cross-image caching.
func BuildAOIMask(c *images.Channel, cfg config.AOI) *images.Mask {
	proc := images.MedianDenoise(c, cfg.MedianRadius)
	proc = images.SubtractBackground(proc, cfg.RollingRadius, cfg.RollingRepeats)
	return images.Binarize(proc, cfg.Threshold)
}

// ApplyAOI flags each kept region whose overlap fraction with the mask
// reaches minFrac, and returns how many qualified.
func ApplyAOI(kept []*KeptRegion, mask *images.Mask, minFrac float64) int {
	n := 0
	for _, k := range kept {
		k.InAOI = regions.OverlapFraction(mask, k.Region) >= minFrac
		if k.InAOI {
			n++
		}
	}
	return n
}
