package analysis

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cellquant/nucleiquant/images"
	"github.com/cellquant/nucleiquant/regions"
)

func TestBackgroundStatsExcludesDetections(t *testing.T) {
	// Background at 10, one bright 10x10 detection at 1000.
	ch := images.NewChannel("C1-DAPI", 40, 40, 65535)
	for i := range ch.Pix {
		ch.Pix[i] = 10
	}
	det := regions.FromRect(image.Rect(5, 5, 15, 15))
	regions.ForEach(det, 40, 40, func(x, y int) { ch.Set(x, y, 1000) })

	bg := BackgroundStats(ch, []*regions.Region{det})
	assert.InDelta(t, 10.0, bg.Mean, 1e-9, "detection pixels excluded from the estimate")
	assert.InDelta(t, 0.0, bg.StdDev, 1e-9)
}

func TestBackgroundStatsWholeImageFallback(t *testing.T) {
	ch := images.NewChannel("C1-DAPI", 10, 10, 255)
	for i := range ch.Pix {
		ch.Pix[i] = float32(i % 5)
	}

	// No detections: whole-image statistics.
	noDet := BackgroundStats(ch, nil)
	assert.InDelta(t, 2.0, noDet.Mean, 1e-9)

	// Detections covering everything: same fallback.
	all := regions.FromRect(image.Rect(0, 0, 10, 10))
	covered := BackgroundStats(ch, []*regions.Region{all})
	assert.InDelta(t, noDet.Mean, covered.Mean, 1e-9)
	assert.InDelta(t, noDet.StdDev, covered.StdDev, 1e-9)
}
