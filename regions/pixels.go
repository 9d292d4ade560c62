package regions

import (
	"image"

	"github.com/cellquant/nucleiquant/images"
)

// ForEach visits every pixel of the region that lies inside [0,w)x[0,h)
// and inside the region's fine mask (if present; otherwise every pixel of
// the bounding box). Coordinates outside the plane are silently dropped:
// regions computed at a different scale or with rounding error must never
// index out of bounds.
func ForEach(r *Region, w, h int, fn func(x, y int)) {
	bw := r.Box.Dx()
	for yy := 0; yy < r.Box.Dy(); yy++ {
		gy := r.Box.Min.Y + yy
		if gy < 0 || gy >= h {
			continue
		}
		for xx := 0; xx < bw; xx++ {
			gx := r.Box.Min.X + xx
			if gx < 0 || gx >= w {
				continue
			}
			if r.Mask != nil && !r.Mask[yy*bw+xx] {
				continue
			}
			fn(gx, gy)
		}
	}
}

// Pixels materializes the coordinates ForEach would visit.
func Pixels(r *Region, w, h int) []image.Point {
	var pts []image.Point
	ForEach(r, w, h, func(x, y int) {
		pts = append(pts, image.Pt(x, y))
	})
	return pts
}

// Area returns the number of region pixels inside the channel bounds.
func Area(r *Region, c *images.Channel) int {
	n := 0
	ForEach(r, c.W, c.H, func(x, y int) { n++ })
	return n
}

// Mean returns the mean channel intensity over the region, and 0.0 (never
// NaN) when the region covers no in-bounds pixel; classification code
// downstream relies on the safe numeric default.
func Mean(r *Region, c *images.Channel) float64 {
	var sum float64
	n := 0
	ForEach(r, c.W, c.H, func(x, y int) {
		sum += float64(c.At(x, y))
		n++
	})
	if n == 0 {
		return 0.0
	}
	return sum / float64(n)
}

// OverlapFraction returns the fraction of the region's in-bounds pixels
// that fall on foreground pixels of the mask, and 0.0 when the region has
// no in-bounds pixels. The result is always within [0,1].
func OverlapFraction(m *images.Mask, r *Region) float64 {
	inside, total := 0, 0
	ForEach(r, m.W, m.H, func(x, y int) {
		total++
		if m.At(x, y) {
			inside++
		}
	})
	if total == 0 {
		return 0.0
	}
	return float64(inside) / float64(total)
}

// Rasterize ORs the region's pixels into the shared mask. Marking every
// detection into one grid and scanning it once replaces the quadratic
// pairwise shape-union the background estimator would otherwise need.
func Rasterize(r *Region, m *images.Mask) {
	ForEach(r, m.W, m.H, func(x, y int) {
		m.Set(x, y, true)
	})
}
