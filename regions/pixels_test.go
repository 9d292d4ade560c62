package regions

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellquant/nucleiquant/images"
)

func flatChannel(w, h int, v float32) *images.Channel {
	c := images.NewChannel("C1-DAPI", w, h, 65535)
	for i := range c.Pix {
		c.Pix[i] = v
	}
	return c
}

func TestAreaEqualsPixelCount(t *testing.T) {
	ch := flatChannel(100, 100, 7)
	tests := []struct {
		name string
		r    *Region
	}{
		{"full box", FromRect(image.Rect(10, 10, 30, 30))},
		{"clipped box", FromRect(image.Rect(-5, -5, 10, 10))},
		{"masked", FromMask(image.Rect(0, 0, 4, 1), []bool{true, false, true, false})},
		{"fully outside", FromRect(image.Rect(200, 200, 210, 210))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts := Pixels(tt.r, ch.W, ch.H)
			assert.Equal(t, len(pts), Area(tt.r, ch))
			bboxArea := tt.r.Box.Dx() * tt.r.Box.Dy()
			assert.LessOrEqual(t, Area(tt.r, ch), bboxArea)
			assert.GreaterOrEqual(t, Area(tt.r, ch), 0)
		})
	}
}

func TestPixelsClipToBounds(t *testing.T) {
	ch := flatChannel(20, 20, 1)
	r := FromRect(image.Rect(15, 15, 25, 25))
	for _, p := range Pixels(r, ch.W, ch.H) {
		assert.True(t, p.X >= 0 && p.X < 20)
		assert.True(t, p.Y >= 0 && p.Y < 20)
	}
	assert.Equal(t, 25, Area(r, ch))
}

func TestMeanEmptyRegionIsZero(t *testing.T) {
	ch := flatChannel(10, 10, 42)
	r := FromRect(image.Rect(50, 50, 60, 60))
	m := Mean(r, ch)
	require.Equal(t, 0.0, m, "empty region mean must be exactly 0.0, never NaN")
}

func TestMeanFlatRegion(t *testing.T) {
	ch := flatChannel(10, 10, 42)
	r := FromRect(image.Rect(2, 2, 6, 6))
	assert.InDelta(t, 42.0, Mean(r, ch), 1e-9)
}

func TestOverlapFraction(t *testing.T) {
	// Mask covering exactly the left half of a 100x100 plane.
	mask := images.NewMask(100, 100)
	for y := 0; y < 100; y++ {
		for x := 0; x < 50; x++ {
			mask.Set(x, y, true)
		}
	}

	fullyInside := FromRect(image.Rect(10, 10, 30, 30))
	assert.Equal(t, 1.0, OverlapFraction(mask, fullyInside))

	disjoint := FromRect(image.Rect(60, 10, 80, 30))
	assert.Equal(t, 0.0, OverlapFraction(mask, disjoint))

	// 80% of this region's columns fall inside the left half.
	partial := FromRect(image.Rect(42, 10, 52, 20))
	assert.InDelta(t, 0.8, OverlapFraction(mask, partial), 1e-9)

	empty := FromRect(image.Rect(500, 500, 510, 510))
	assert.Equal(t, 0.0, OverlapFraction(mask, empty))
}

func TestOverlapFractionRange(t *testing.T) {
	mask := images.NewMask(30, 30)
	for i := 0; i < len(mask.Bits); i += 3 {
		mask.Bits[i] = true
	}
	for _, r := range []*Region{
		FromRect(image.Rect(0, 0, 30, 30)),
		FromRect(image.Rect(-10, -10, 5, 5)),
		FromMask(image.Rect(5, 5, 8, 8), make([]bool, 9)),
	} {
		f := OverlapFraction(mask, r)
		assert.GreaterOrEqual(t, f, 0.0)
		assert.LessOrEqual(t, f, 1.0)
	}
}

func TestRasterizeUnion(t *testing.T) {
	mask := images.NewMask(50, 50)
	Rasterize(FromRect(image.Rect(0, 0, 10, 10)), mask)
	Rasterize(FromRect(image.Rect(5, 5, 15, 15)), mask)
	// Overlapping boxes OR together: 100 + 100 - 25.
	assert.Equal(t, 175, mask.Count())
}
