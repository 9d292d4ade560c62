package images

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
)

// Downscale resamples the channel to the working resolution given by the
// scale factor (0.5 halves each dimension). A factor of 1.0 returns a
// plain copy. Output dimensions are clamped to at least 1x1.
//
// The resample goes through a 16-bit grayscale representation, which is
// lossless for the integer bit depths the importer produces and is only
// used to feed the segmentation model, never for measurement.
func Downscale(c *Channel, factor float64) *Channel {
	if factor == 1.0 {
		return c.Clone()
	}

	w := int(float64(c.W)*factor + 0.5)
	h := int(float64(c.H)*factor + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	gray := image.NewGray16(image.Rect(0, 0, c.W, c.H))
	scale := 65535.0 / c.MaxValue
	for y := 0; y < c.H; y++ {
		for x := 0; x < c.W; x++ {
			v := float64(c.At(x, y)) * scale
			if v < 0 {
				v = 0
			}
			if v > 65535 {
				v = 65535
			}
			gray.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}

	resized := resize.Resize(uint(w), uint(h), gray, resize.Bilinear)

	out := NewChannel(c.Title, w, h, c.MaxValue)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := resized.At(x, y).RGBA()
			out.Set(x, y, float32(float64(r)/scale))
		}
	}
	return out
}
