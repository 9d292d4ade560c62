// Package images - channel grids and pixel-level preprocessing.
package images

// Channel is a single 2-D intensity plane of one acquisition channel.
//
// Values are stored as float32 regardless of the file's native bit depth;
// MaxValue records the native range so fixed thresholds expressed in the
// original bit depth stay meaningful.
//
// Channels are owned per processing step: callers Clone() before any
// destructive operation so the original plane stays available for later
// re-measurement.
type Channel struct {
	// Title is the channel identifier used for substring matching
	// (e.g. "C1-DAPI").
	Title string
	// W and H are the plane dimensions in pixels.
	W, H int
	// MaxValue is the native intensity range upper bound (e.g. 255, 65535).
	MaxValue float64
	// Pix holds row-major intensities, len = W*H.
	Pix []float32
}

// NewChannel allocates a zeroed channel plane.
func NewChannel(title string, w, h int, maxValue float64) *Channel {
	return &Channel{
		Title:    title,
		W:        w,
		H:        h,
		MaxValue: maxValue,
		Pix:      make([]float32, w*h),
	}
}

// At returns the intensity at (x, y), 0 outside bounds.
func (c *Channel) At(x, y int) float32 {
	if x < 0 || x >= c.W || y < 0 || y >= c.H {
		return 0
	}
	return c.Pix[y*c.W+x]
}

// Set writes the intensity at (x, y); out-of-bounds writes are dropped.
func (c *Channel) Set(x, y int, v float32) {
	if x < 0 || x >= c.W || y < 0 || y >= c.H {
		return
	}
	c.Pix[y*c.W+x] = v
}

// InBounds reports whether (x, y) lies inside [0,W)x[0,H).
func (c *Channel) InBounds(x, y int) bool {
	return x >= 0 && x < c.W && y >= 0 && y < c.H
}

// Clone returns a deep copy of the channel.
func (c *Channel) Clone() *Channel {
	dup := &Channel{
		Title:    c.Title,
		W:        c.W,
		H:        c.H,
		MaxValue: c.MaxValue,
		Pix:      make([]float32, len(c.Pix)),
	}
	copy(dup.Pix, c.Pix)
	return dup
}

// Mask is a binary pixel classification of one plane (true = foreground).
type Mask struct {
	W, H int
	Bits []bool
}

// NewMask allocates an all-false mask.
func NewMask(w, h int) *Mask {
	return &Mask{W: w, H: h, Bits: make([]bool, w*h)}
}

// At returns the mask bit at (x, y), false outside bounds.
func (m *Mask) At(x, y int) bool {
	if x < 0 || x >= m.W || y < 0 || y >= m.H {
		return false
	}
	return m.Bits[y*m.W+x]
}

// Set writes the mask bit at (x, y); out-of-bounds writes are dropped.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || x >= m.W || y < 0 || y >= m.H {
		return
	}
	m.Bits[y*m.W+x] = v
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}
