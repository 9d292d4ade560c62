package segment

import (
	"sort"

	"github.com/cellquant/nucleiquant/images"
	"gonum.org/v1/gonum/stat"
	"gorgonia.org/tensor"
)

// Normalize maps a channel to [0,1] between its pLow and pHigh intensity
// percentiles and stages the result as a float32 [1,1,H,W] tensor the model
// input expects. Values outside the percentile window are clamped. A flat
// plane (both percentiles equal) normalizes to all zeros.
func Normalize(c *images.Channel, pLow, pHigh float64) *tensor.Dense {
	sorted := make([]float64, len(c.Pix))
	for i, v := range c.Pix {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)

	lo := stat.Quantile(pLow/100, stat.Empirical, sorted, nil)
	hi := stat.Quantile(pHigh/100, stat.Empirical, sorted, nil)

	buf := make([]float32, len(c.Pix))
	if hi > lo {
		span := float32(hi - lo)
		flo := float32(lo)
		for i, v := range c.Pix {
			n := (v - flo) / span
			if n < 0 {
				n = 0
			}
			if n > 1 {
				n = 1
			}
			buf[i] = n
		}
	}

	return tensor.New(
		tensor.WithShape(1, 1, c.H, c.W),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(buf),
	)
}
