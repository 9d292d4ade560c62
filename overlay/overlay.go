// Package overlay builds the QC visualization artifacts: region outlines
// colored by classification outcome plus optional short text labels
// anchored at each region's mask centroid. Rendering is cosmetic and best
// effort; failures here are logged by callers and never affect data output.
package overlay

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"regexp"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/cellquant/nucleiquant/images"
	"github.com/cellquant/nucleiquant/regions"
)

// Classification colors, matching the original QC maps.
var (
	ColorPositive = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	ColorNegative = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	ColorAOI      = color.RGBA{R: 0, G: 128, B: 255, A: 255}
)

// ClassColor selects the outline color for a positivity call.
func ClassColor(positive bool) color.RGBA {
	if positive {
		return ColorPositive
	}
	return ColorNegative
}

// Outline is one region to draw.
type Outline struct {
	Region *regions.Region
	Color  color.RGBA
	// Label is an optional short text (e.g. "P"/"N") drawn at the mask
	// centroid; empty draws nothing.
	Label string
}

// Render paints the base channel as grayscale and draws each outline's
// boundary pixels and label over it.
func Render(base *images.Channel, outlines []Outline) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, base.W, base.H))
	scale := 255.0 / base.MaxValue
	for y := 0; y < base.H; y++ {
		for x := 0; x < base.W; x++ {
			v := float64(base.At(x, y)) * scale
			if v > 255 {
				v = 255
			}
			g := uint8(v)
			img.SetRGBA(x, y, color.RGBA{R: g, G: g, B: g, A: 255})
		}
	}

	for _, o := range outlines {
		drawBoundary(img, o.Region, base.W, base.H, o.Color)
		if o.Label == "" {
			continue
		}
		if c, ok := regions.Centroid(o.Region); ok {
			drawLabel(img, int(c.X), int(c.Y), o.Label, o.Color)
		}
	}
	return img
}

// drawBoundary colors every region pixel that touches a non-region
// 4-neighbor.
func drawBoundary(img *image.RGBA, r *regions.Region, w, h int, col color.RGBA) {
	inside := func(gx, gy int) bool {
		lx, ly := gx-r.Box.Min.X, gy-r.Box.Min.Y
		if lx < 0 || lx >= r.Box.Dx() || ly < 0 || ly >= r.Box.Dy() {
			return false
		}
		return r.Mask == nil || r.Mask[ly*r.Box.Dx()+lx]
	}
	regions.ForEach(r, w, h, func(x, y int) {
		if !inside(x+1, y) || !inside(x-1, y) || !inside(x, y+1) || !inside(x, y-1) {
			img.SetRGBA(x, y, col)
		}
	})
}

func drawLabel(img *image.RGBA, x, y int, text string, col color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// SavePNG writes the rendered overlay.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[\\/:*?"<>|]+`)

// SafeName sanitizes a series title into a filename, the same substitution
// and length cap the original overlay export used.
func SafeName(s string) string {
	s = unsafeName.ReplaceAllString(s, "_")
	if len(s) > 180 {
		s = s[:180]
	}
	return s
}
