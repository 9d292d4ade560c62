// Package regions - detected-object geometry and mask primitives.
//
// A Region is the identifier-free geometric footprint of one detected
// object (a nucleus, or an AOI blob): a polygon contour, a rectangle, or a
// rectangle plus a fine binary mask local to it. Regions are produced once
// by the segmentation step and are immutable; every downstream computation
// reads them and never mutates them.
package regions

import (
	"image"

	"github.com/chewxy/math32"
)

// Point is a polygon vertex in pixel coordinates.
type Point struct {
	X, Y float32
}

// Region is one detected object. Exactly one of three shapes backs it:
// a polygon (Poly non-empty), a fine mask (Mask non-nil, local to Box),
// or the bounding box alone. Treat all fields as read-only.
type Region struct {
	// Poly is the ordered contour, empty for box/mask-only regions.
	Poly []Point
	// Box is the integer bounding box in global pixel coordinates
	// (Max exclusive, like image.Rectangle).
	Box image.Rectangle
	// Mask is the local binary footprint, row-major over Box, or nil when
	// every pixel of Box belongs to the region.
	Mask []bool
	// Score is the optional per-object confidence from the segmentation
	// model, 0 when the provider reports none.
	Score float32
}

// FromRect builds a rectangle-only region.
func FromRect(box image.Rectangle) *Region {
	return &Region{Box: box.Canon()}
}

// FromMask builds a region from a bounding box and its local mask.
// len(mask) must equal box.Dx()*box.Dy().
func FromMask(box image.Rectangle, mask []bool) *Region {
	return &Region{Box: box.Canon(), Mask: mask}
}

// FromPolygon builds a region from an ordered contour. The bounding box is
// the integer hull of the vertices and the local mask is the even-odd
// scanline rasterization of the polygon, so pixel iteration, area, and
// overlap all see the true non-rectangular footprint.
func FromPolygon(poly []Point, score float32) *Region {
	if len(poly) == 0 {
		return &Region{Score: score}
	}

	minX, minY := poly[0].X, poly[0].Y
	maxX, maxY := minX, minY
	for _, p := range poly[1:] {
		minX = math32.Min(minX, p.X)
		minY = math32.Min(minY, p.Y)
		maxX = math32.Max(maxX, p.X)
		maxY = math32.Max(maxY, p.Y)
	}
	box := image.Rect(
		int(math32.Floor(minX)), int(math32.Floor(minY)),
		int(math32.Ceil(maxX)), int(math32.Ceil(maxY)),
	)
	if box.Dx() < 1 {
		box.Max.X = box.Min.X + 1
	}
	if box.Dy() < 1 {
		box.Max.Y = box.Min.Y + 1
	}

	r := &Region{
		Poly:  append([]Point(nil), poly...),
		Box:   box,
		Score: score,
	}
	r.Mask = rasterizePolygon(poly, box)
	return r
}

// HasPolygon reports whether a fine contour is available for
// polygon-preserving rescaling.
func (r *Region) HasPolygon() bool {
	return len(r.Poly) > 0
}

// rasterizePolygon fills the polygon into a mask local to box using
// even-odd scanline crossings sampled at pixel centers.
func rasterizePolygon(poly []Point, box image.Rectangle) []bool {
	w, h := box.Dx(), box.Dy()
	mask := make([]bool, w*h)
	if len(poly) < 3 {
		// Degenerate contour: keep the bbox footprint.
		for i := range mask {
			mask[i] = true
		}
		return mask
	}

	xs := make([]float32, 0, len(poly))
	for yy := 0; yy < h; yy++ {
		cy := float32(box.Min.Y+yy) + 0.5
		xs = xs[:0]
		j := len(poly) - 1
		for i := 0; i < len(poly); i++ {
			a, b := poly[i], poly[j]
			if (a.Y > cy) != (b.Y > cy) {
				x := a.X + (cy-a.Y)/(b.Y-a.Y)*(b.X-a.X)
				xs = append(xs, x)
			}
			j = i
		}
		sortFloat32(xs)
		for k := 0; k+1 < len(xs); k += 2 {
			for xx := 0; xx < w; xx++ {
				cx := float32(box.Min.X+xx) + 0.5
				if cx >= xs[k] && cx < xs[k+1] {
					mask[yy*w+xx] = true
				}
			}
		}
	}
	return mask
}

// sortFloat32 is an insertion sort; crossing lists are tiny.
func sortFloat32(xs []float32) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}
