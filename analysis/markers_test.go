package analysis

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellquant/nucleiquant/images"
	"github.com/cellquant/nucleiquant/regions"
)

func TestClassifyMarkerFraction(t *testing.T) {
	// 10x10 region with 30 pixels above threshold.
	marker := images.NewChannel("C3-CY5", 20, 20, 65535)
	r := regions.FromRect(image.Rect(0, 0, 10, 10))
	lit := 0
	regions.ForEach(r, 20, 20, func(x, y int) {
		if lit < 30 {
			marker.Set(x, y, 900)
			lit++
		}
	})

	tests := []struct {
		name     string
		minFrac  float64
		positive bool
	}{
		{"fraction above cutoff", 0.25, true},
		{"fraction at cutoff", 0.30, true},
		{"fraction below cutoff", 0.35, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			call := ClassifyMarker(r, marker, 500, tc.minFrac)
			require.True(t, call.Classified)
			assert.Equal(t, 100, call.TotalPx)
			assert.Equal(t, 30, call.PositivePx)
			assert.Equal(t, tc.positive, call.Positive)
		})
	}
}

func TestClassifyMarkerZeroChannelAllNegative(t *testing.T) {
	marker := images.NewChannel("C3-CY5", 50, 50, 65535)
	for i := 0; i < 5; i++ {
		r := regions.FromRect(image.Rect(i*10, 0, i*10+8, 8))
		call := ClassifyMarker(r, marker, 100, 0.05)
		require.True(t, call.Classified)
		assert.False(t, call.Positive, "zero-intensity marker channel cannot produce positives")
		assert.Zero(t, call.PositivePx)
	}
}

func TestClassifyMarkerZeroPixelRegion(t *testing.T) {
	marker := images.NewChannel("C3-CY5", 10, 10, 65535)
	// Region entirely outside the channel bounds contributes no pixels.
	r := regions.FromRect(image.Rect(50, 50, 60, 60))
	call := ClassifyMarker(r, marker, 100, 0.05)
	assert.False(t, call.Classified, "zero-pixel regions are excluded, not defaulted")
	assert.False(t, call.Positive)
	assert.Zero(t, call.TotalPx)
}

func TestClassifyMarkerReproducibleFromCounts(t *testing.T) {
	marker := images.NewChannel("C3-CY5", 30, 30, 65535)
	for i := range marker.Pix {
		marker.Pix[i] = float32(i % 700)
	}
	for _, box := range []image.Rectangle{
		image.Rect(0, 0, 12, 9),
		image.Rect(5, 14, 25, 28),
		image.Rect(20, 0, 30, 30),
	} {
		r := regions.FromRect(box)
		call := ClassifyMarker(r, marker, 350, 0.4)
		require.True(t, call.Classified)
		redo := float64(call.PositivePx)/float64(call.TotalPx) >= 0.4
		assert.Equal(t, call.Positive, redo, "call must follow from the recorded counts")
	}
}
