package images

import "gocv.io/x/gocv"

// toMat copies a channel into a freshly allocated CV32F Mat. The caller
// owns the Mat and must Close it.
func toMat(c *Channel) gocv.Mat {
	m := gocv.NewMatWithSize(c.H, c.W, gocv.MatTypeCV32F)
	for y := 0; y < c.H; y++ {
		for x := 0; x < c.W; x++ {
			m.SetFloatAt(y, x, c.Pix[y*c.W+x])
		}
	}
	return m
}

// fromMat copies a CV32F Mat back into a channel with the given identity.
func fromMat(m gocv.Mat, title string, maxValue float64) *Channel {
	h, w := m.Rows(), m.Cols()
	out := NewChannel(title, w, h, maxValue)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*w+x] = m.GetFloatAt(y, x)
		}
	}
	return out
}
