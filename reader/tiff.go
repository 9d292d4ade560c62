package reader

import (
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff"

	"github.com/cellquant/nucleiquant/images"
)

// TIFFReader reads one TIFF file as a single series. Grayscale files yield
// one channel; color files are split into per-channel gray planes named
// C1-R, C2-G, C3-B, mirroring the channel-split step of the original
// pipeline so substring matching keeps working.
type TIFFReader struct{}

// Open decodes the file and builds its channel planes.
func (TIFFReader) Open(path string) ([]Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}

	name := filepath.Base(path)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var chans []*images.Channel
	switch src := img.(type) {
	case *image.Gray:
		ch := images.NewChannel("C1-GRAY", w, h, 255)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				ch.Set(x, y, float32(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
		chans = []*images.Channel{ch}
	case *image.Gray16:
		ch := images.NewChannel("C1-GRAY", w, h, 65535)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				ch.Set(x, y, float32(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
		chans = []*images.Channel{ch}
	default:
		r := images.NewChannel("C1-R", w, h, 65535)
		g := images.NewChannel("C2-G", w, h, 65535)
		bl := images.NewChannel("C3-B", w, h, 65535)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				cr, cg, cb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				r.Set(x, y, float32(cr))
				g.Set(x, y, float32(cg))
				bl.Set(x, y, float32(cb))
			}
		}
		chans = []*images.Channel{r, g, bl}
	}

	return []Series{{Name: name, Channels: chans}}, nil
}
