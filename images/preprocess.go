package images

import (
	"image"

	"gocv.io/x/gocv"
)

// MedianDenoise returns a median-filtered copy of the channel. radius <= 0
// returns an unfiltered copy. OpenCV restricts median apertures on float
// data to 3 or 5, so the effective kernel is clamped to 5x5.
func MedianDenoise(c *Channel, radius int) *Channel {
	if radius <= 0 {
		return c.Clone()
	}
	ksize := 2*radius + 1
	if ksize > 5 {
		ksize = 5
	}

	src := toMat(c)
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()
	gocv.MedianBlur(src, &dst, ksize)
	return fromMat(dst, c.Title, c.MaxValue)
}

// SubtractBackground flattens uneven illumination by subtracting a
// grayscale morphological opening with an elliptical structuring element of
// the given radius, repeated `repeats` times. This is the opening-based
// equivalent of a rolling-ball background pass and keeps the original bit
// depth. radius <= 0 or repeats <= 0 returns an untouched copy.
func SubtractBackground(c *Channel, radius, repeats int) *Channel {
	if radius <= 0 || repeats <= 0 {
		return c.Clone()
	}

	src := toMat(c)
	defer src.Close()
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(2*radius+1, 2*radius+1))
	defer kernel.Close()

	opened := gocv.NewMat()
	defer opened.Close()
	flat := gocv.NewMat()
	defer flat.Close()

	for i := 0; i < repeats; i++ {
		gocv.MorphologyEx(src, &opened, gocv.MorphOpen, kernel)
		gocv.Subtract(src, opened, &flat)
		flat.CopyTo(&src)
	}
	return fromMat(src, c.Title, c.MaxValue)
}

// Binarize classifies every pixel at or above threshold as foreground.
// The threshold is expressed in the channel's native bit depth.
func Binarize(c *Channel, threshold float64) *Mask {
	m := NewMask(c.W, c.H)
	thr := float32(threshold)
	for i, v := range c.Pix {
		if v >= thr {
			m.Bits[i] = true
		}
	}
	return m
}
