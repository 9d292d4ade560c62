package regions

import (
	"image"

	"github.com/chewxy/math32"
)

// Rescale maps a region detected at a working resolution back to native
// coordinates, scaling x and y independently (non-uniform factors are
// supported).
//
// Polygon regions are rescaled vertex by vertex, reconstructing a polygon
// of the same vertex count and order, so the fine shape survives. Regions
// without a contour fall back to scaling the bounding box corners with
// round-to-nearest and a width/height floor of one pixel; a fine mask, if
// present, is carried over by nearest-neighbor resampling into the scaled
// box. Not every provider of region data guarantees a contour, which is why
// the fallback exists at all.
func Rescale(r *Region, sx, sy float32) *Region {
	if r.HasPolygon() {
		scaled := make([]Point, len(r.Poly))
		for i, p := range r.Poly {
			scaled[i] = Point{X: p.X * sx, Y: p.Y * sy}
		}
		return FromPolygon(scaled, r.Score)
	}

	nx := int(math32.Round(float32(r.Box.Min.X) * sx))
	ny := int(math32.Round(float32(r.Box.Min.Y) * sy))
	nw := int(math32.Round(float32(r.Box.Dx()) * sx))
	nh := int(math32.Round(float32(r.Box.Dy()) * sy))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	box := image.Rect(nx, ny, nx+nw, ny+nh)

	out := &Region{Box: box, Score: r.Score}
	if r.Mask != nil {
		out.Mask = resampleMask(r.Mask, r.Box.Dx(), r.Box.Dy(), nw, nh)
	}
	return out
}

// resampleMask nearest-neighbor resamples a local mask to a new size.
func resampleMask(bits []bool, ow, oh, nw, nh int) []bool {
	out := make([]bool, nw*nh)
	for y := 0; y < nh; y++ {
		oy := y * oh / nh
		for x := 0; x < nw; x++ {
			ox := x * ow / nw
			out[y*nw+x] = bits[oy*ow+ox]
		}
	}
	return out
}
