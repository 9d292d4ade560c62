package regions

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRescaleRoundTrip(t *testing.T) {
	poly := []Point{{X: 10.5, Y: 20.25}, {X: 40, Y: 22}, {X: 35.75, Y: 55.5}, {X: 12, Y: 50}}
	for _, s := range []float32{0.5, 1.0, 2.0} {
		up := Rescale(FromPolygon(poly, 0.9), s, s)
		back := Rescale(up, 1/s, 1/s)
		require.Len(t, back.Poly, len(poly), "vertex count preserved at s=%v", s)
		for i := range poly {
			assert.InDelta(t, float64(poly[i].X), float64(back.Poly[i].X), 1e-4)
			assert.InDelta(t, float64(poly[i].Y), float64(back.Poly[i].Y), 1e-4)
		}
		assert.InDelta(t, 0.9, float64(back.Score), 1e-6, "score carried through rescaling")
	}
}

func TestRescaleNonUniform(t *testing.T) {
	poly := []Point{{X: 10, Y: 10}, {X: 20, Y: 10}, {X: 20, Y: 30}, {X: 10, Y: 30}}
	r := Rescale(FromPolygon(poly, 0), 2, 0.5)
	require.Len(t, r.Poly, 4)
	assert.InDelta(t, 40.0, float64(r.Poly[1].X), 1e-5)
	assert.InDelta(t, 5.0, float64(r.Poly[1].Y), 1e-5)
}

func TestRescaleBoxFallback(t *testing.T) {
	r := FromRect(image.Rect(10, 20, 30, 40))
	scaled := Rescale(r, 2, 2)
	assert.Equal(t, image.Rect(20, 40, 60, 80), scaled.Box)
	assert.False(t, scaled.HasPolygon())
}

func TestRescaleBoxMinimumSize(t *testing.T) {
	r := FromRect(image.Rect(4, 4, 6, 6))
	scaled := Rescale(r, 0.1, 0.1)
	assert.GreaterOrEqual(t, scaled.Box.Dx(), 1, "width clamped to >= 1")
	assert.GreaterOrEqual(t, scaled.Box.Dy(), 1, "height clamped to >= 1")
}

func TestRescaleMaskCarriedOver(t *testing.T) {
	mask := []bool{
		true, false,
		false, true,
	}
	r := FromMask(image.Rect(0, 0, 2, 2), mask)
	scaled := Rescale(r, 2, 2)
	require.NotNil(t, scaled.Mask)
	assert.Equal(t, image.Rect(0, 0, 4, 4), scaled.Box)
	assert.Len(t, scaled.Mask, 16)
	// Top-left quadrant stays foreground after nearest-neighbor resampling.
	assert.True(t, scaled.Mask[0])
	assert.False(t, scaled.Mask[3])
}

func TestFromPolygonSquareArea(t *testing.T) {
	// 20x20 axis-aligned square at (10,10): rasterized footprint covers
	// the 400 pixel centers inside it.
	poly := []Point{{X: 10, Y: 10}, {X: 30, Y: 10}, {X: 30, Y: 30}, {X: 10, Y: 30}}
	r := FromPolygon(poly, 0)
	count := 0
	for _, b := range r.Mask {
		if b {
			count++
		}
	}
	assert.Equal(t, 400, count)
}
