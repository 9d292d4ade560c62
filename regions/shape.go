package regions

import (
	"math"

	"github.com/chewxy/math32"
)

// Circularity returns 4*pi*Area/Perimeter^2 computed from the region's
// binary mask rasterized at its own working resolution (never rescaled),
// capped at 1.0. Degenerate regions (empty mask, zero perimeter) yield
// NaN, which must propagate distinctly from 0 through aggregation: NaN
// values are excluded from means, not treated as zero.
func Circularity(r *Region) float64 {
	bits, w, h := localMask(r)
	area := 0
	for _, b := range bits {
		if b {
			area++
		}
	}
	if area == 0 {
		return math.NaN()
	}
	p := tracePerimeter(bits, w, h)
	if p == 0 {
		return math.NaN()
	}
	c := 4 * math.Pi * float64(area) / (p * p)
	if c > 1 {
		c = 1.0
	}
	return c
}

// Perimeter returns the boundary length of the region's rasterized mask,
// traced along the outer contour. Isolated single pixels report 0.
func Perimeter(r *Region) float64 {
	bits, w, h := localMask(r)
	return tracePerimeter(bits, w, h)
}

// Centroid returns the pixel-mask centroid in global coordinates. Unlike
// the bounding-box center this stays inside highly non-convex shapes,
// which is what overlay labels need. The second return is false for an
// empty mask.
func Centroid(r *Region) (Point, bool) {
	bits, w, _ := localMask(r)
	var sx, sy float32
	n := 0
	for i, b := range bits {
		if !b {
			continue
		}
		sx += float32(i % w)
		sy += float32(i / w)
		n++
	}
	if n == 0 {
		return Point{}, false
	}
	return Point{
		X: float32(r.Box.Min.X) + sx/float32(n) + 0.5,
		Y: float32(r.Box.Min.Y) + sy/float32(n) + 0.5,
	}, true
}

// localMask returns the region's footprint over its bounding box,
// synthesizing an all-true grid for rectangle-only regions.
func localMask(r *Region) ([]bool, int, int) {
	w, h := r.Box.Dx(), r.Box.Dy()
	if r.Mask != nil {
		return r.Mask, w, h
	}
	bits := make([]bool, w*h)
	for i := range bits {
		bits[i] = true
	}
	return bits, w, h
}

var traceDirs = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// tracePerimeter follows the outer boundary of the first connected blob in
// the mask with Moore neighbor tracing and sums the chain step lengths
// (1 for orthogonal moves, sqrt2 for diagonal moves). Revisiting the start
// pixel alone is not enough to stop, since a boundary can legitimately pass
// through it more than once; the walk ends when the first move out of the
// start pixel is about to repeat, so the chain is counted exactly once.
// Isolated single pixels have no chain and report 0.
func tracePerimeter(bits []bool, w, h int) float64 {
	start := -1
	for i, b := range bits {
		if b {
			start = i
			break
		}
	}
	if start < 0 {
		return 0
	}
	sx, sy := start%w, start/w

	at := func(x, y int) bool {
		return x >= 0 && x < w && y >= 0 && y < h && bits[y*w+x]
	}
	// next returns the first foreground neighbor found sweeping clockwise
	// from the given direction.
	next := func(px, py, from int) (int, int, int, bool) {
		for i := 0; i < 8; i++ {
			d := (from + i) % 8
			qx, qy := px+traceDirs[d][0], py+traceDirs[d][1]
			if at(qx, qy) {
				return qx, qy, d, true
			}
		}
		return 0, 0, 0, false
	}
	step := func(d int) float64 {
		if d%2 == 0 {
			return 1
		}
		return float64(math32.Sqrt2)
	}

	// The start pixel is the first foreground pixel in scan order, so its
	// west neighbor is background and the clockwise sweep begins there.
	fx, fy, fd, ok := next(sx, sy, 4)
	if !ok {
		return 0
	}
	perim := step(fd)
	cx, cy, dir := fx, fy, fd
	limit := 4 * w * h
	for steps := 0; steps < limit; steps++ {
		// Resuming the sweep two positions counter-clockwise of the last
		// move keeps the walk on the boundary instead of cutting into the
		// interior along straight edges.
		nx, ny, nd, ok := next(cx, cy, (dir+6)%8)
		if !ok {
			return perim
		}
		if cx == sx && cy == sy && nx == fx && ny == fy && nd == fd {
			return perim
		}
		perim += step(nd)
		cx, cy, dir = nx, ny, nd
	}
	return perim
}
