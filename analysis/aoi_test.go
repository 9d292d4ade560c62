package analysis

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellquant/nucleiquant/config"
	"github.com/cellquant/nucleiquant/images"
	"github.com/cellquant/nucleiquant/regions"
)

// leftHalfAOI builds an AOI channel bright on the left half of a 100x100
// frame. Radii are zero so no smoothing runs and the mask boundary stays
// exactly at x=50.
func leftHalfAOI(t *testing.T) *images.Mask {
	t.Helper()
	ch := images.NewChannel("C2-GFP", 100, 100, 65535)
	for y := 0; y < 100; y++ {
		for x := 0; x < 50; x++ {
			ch.Set(x, y, 2000)
		}
	}
	mask := BuildAOIMask(ch, config.AOI{Threshold: 1000})
	require.Equal(t, 50*100, mask.Count())
	return mask
}

func keptAt(box image.Rectangle) *KeptRegion {
	return &KeptRegion{Region: regions.FromRect(box), Area: box.Dx() * box.Dy()}
}

func TestApplyAOIMembership(t *testing.T) {
	mask := leftHalfAOI(t)

	tests := []struct {
		name    string
		box     image.Rectangle
		minFrac float64
		inAOI   bool
	}{
		{"fully inside", image.Rect(10, 10, 20, 20), 0.5, true},
		{"fully outside", image.Rect(60, 10, 70, 20), 0.5, false},
		{"80 percent inside passes half", image.Rect(42, 10, 52, 20), 0.5, true},
		{"80 percent inside fails 0.9", image.Rect(42, 10, 52, 20), 0.9, false},
		{"exactly at the cutoff", image.Rect(45, 10, 55, 20), 0.5, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kept := []*KeptRegion{keptAt(tc.box)}
			n := ApplyAOI(kept, mask, tc.minFrac)
			assert.Equal(t, tc.inAOI, kept[0].InAOI)
			if tc.inAOI {
				assert.Equal(t, 1, n)
			} else {
				assert.Equal(t, 0, n)
			}
		})
	}
}

func TestApplyAOICountsMembers(t *testing.T) {
	mask := leftHalfAOI(t)
	kept := []*KeptRegion{
		keptAt(image.Rect(0, 0, 10, 10)),
		keptAt(image.Rect(20, 20, 30, 30)),
		keptAt(image.Rect(80, 80, 90, 90)),
	}
	assert.Equal(t, 2, ApplyAOI(kept, mask, 0.5))
}

func TestBuildAOIMaskThreshold(t *testing.T) {
	ch := images.NewChannel("C2-GFP", 4, 1, 65535)
	ch.Set(0, 0, 999)
	ch.Set(1, 0, 1000)
	ch.Set(2, 0, 1001)
	mask := BuildAOIMask(ch, config.AOI{Threshold: 1000})
	assert.False(t, mask.At(0, 0))
	assert.True(t, mask.At(1, 0), "threshold itself is inside the AOI")
	assert.True(t, mask.At(2, 0))
	assert.False(t, mask.At(3, 0))
}
