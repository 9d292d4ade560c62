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

// brightSquare builds a flat channel and one square region whose pixels
// sit well above the rest of the image.
func brightSquare(side int) (*images.Channel, *regions.Region) {
	ch := images.NewChannel("C1-DAPI", 100, 100, 65535)
	for i := range ch.Pix {
		ch.Pix[i] = 5
	}
	r := regions.FromRect(image.Rect(40, 40, 40+side, 40+side))
	regions.ForEach(r, 100, 100, func(x, y int) { ch.Set(x, y, 500) })
	return ch, r
}

func TestFilterRegionsAreaBounds(t *testing.T) {
	ch, r := brightSquare(20) // area 400
	bg := Stats{Mean: 5, StdDev: 1}

	tests := []struct {
		name string
		f    config.Filter
		keep bool
	}{
		{"within bounds", config.Filter{SizeMin: 50, SizeMax: 500}, true},
		{"too large", config.Filter{SizeMin: 50, SizeMax: 300}, false},
		{"too small", config.Filter{SizeMin: 500, SizeMax: 1000}, false},
		{"exact lower bound", config.Filter{SizeMin: 400, SizeMax: 500}, true},
		{"exact upper bound", config.Filter{SizeMin: 50, SizeMax: 400}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kept := FilterRegions([]*regions.Region{r}, ch, bg, tc.f)
			if tc.keep {
				require.Len(t, kept, 1)
				assert.Equal(t, 400, kept[0].Area)
			} else {
				assert.Empty(t, kept)
			}
		})
	}
}

func TestFilterRegionsIntensityPredicates(t *testing.T) {
	ch, r := brightSquare(20) // mean intensity 500
	f := config.Filter{SizeMin: 50, SizeMax: 500}

	t.Run("min mean intensity", func(t *testing.T) {
		f := f
		f.MinMeanIntensity = 600
		assert.Empty(t, FilterRegions([]*regions.Region{r}, ch, Stats{Mean: 5}, f))
		f.MinMeanIntensity = 400
		assert.Len(t, FilterRegions([]*regions.Region{r}, ch, Stats{Mean: 5}, f), 1)
	})

	t.Run("sigma above background", func(t *testing.T) {
		f := f
		f.SigmaAboveBg = 1.5
		// Background so bright the region no longer clears it.
		assert.Empty(t, FilterRegions([]*regions.Region{r}, ch, Stats{Mean: 490, StdDev: 100}, f))
		assert.Len(t, FilterRegions([]*regions.Region{r}, ch, Stats{Mean: 5, StdDev: 2}, f), 1)
	})

	t.Run("disabled predicates keep everything", func(t *testing.T) {
		kept := FilterRegions([]*regions.Region{r}, ch, Stats{Mean: 1e6, StdDev: 1e6}, f)
		assert.Len(t, kept, 1, "zero thresholds disable the intensity tests")
	})
}

func TestFilterRegionsIdempotent(t *testing.T) {
	ch, _ := brightSquare(20)
	var cands []*regions.Region
	for i := 0; i < 4; i++ {
		r := regions.FromRect(image.Rect(i*22, 0, i*22+10+i, 10+i))
		regions.ForEach(r, 100, 100, func(x, y int) { ch.Set(x, y, 300) })
		cands = append(cands, r)
	}
	bg := Stats{Mean: 5, StdDev: 1}
	f := config.Filter{SizeMin: 110, SizeMax: 200, SigmaAboveBg: 1.5}

	first := FilterRegions(cands, ch, bg, f)
	require.NotEmpty(t, first)
	require.Less(t, len(first), len(cands))

	again := make([]*regions.Region, len(first))
	for i, k := range first {
		again[i] = k.Region
	}
	second := FilterRegions(again, ch, bg, f)
	require.Len(t, second, len(first), "re-filtering survivors must keep them all")
	for i := range second {
		assert.Same(t, first[i].Region, second[i].Region)
	}
}

func TestFilterRegionsComputesMeasurements(t *testing.T) {
	ch, r := brightSquare(20)
	kept := FilterRegions([]*regions.Region{r}, ch, Stats{Mean: 5, StdDev: 1}, config.Filter{SizeMin: 50, SizeMax: 500})
	require.Len(t, kept, 1)
	assert.Equal(t, 400, kept[0].Area)
	assert.InDelta(t, 500.0, kept[0].MeanIntensity, 1e-6)
	assert.Greater(t, kept[0].Circularity, 0.0)
	assert.LessOrEqual(t, kept[0].Circularity, 1.0)
	assert.False(t, kept[0].InAOI, "membership is assigned later, not by the filter")
}
