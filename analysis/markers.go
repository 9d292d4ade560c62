package analysis

import (
	"github.com/cellquant/nucleiquant/images"
	"github.com/cellquant/nucleiquant/regions"
)

// ClassifyMarker counts the region's pixels at or above the marker's fixed
// threshold and calls the region positive when the positive fraction
// reaches minFrac. A region with zero in-bounds pixels is excluded from
// classification (Classified=false), never defaulted to either call.
func ClassifyMarker(r *regions.Region, marker *images.Channel, threshold, minFrac float64) MarkerCall {
	thr := float32(threshold)
	total, pos := 0, 0
	regions.ForEach(r, marker.W, marker.H, func(x, y int) {
		total++
		if marker.At(x, y) >= thr {
			pos++
		}
	})
	if total == 0 {
		return MarkerCall{Marker: marker.Title}
	}
	return MarkerCall{
		Marker:     marker.Title,
		Positive:   float64(pos)/float64(total) >= minFrac,
		TotalPx:    total,
		PositivePx: pos,
		Classified: true,
	}
}
