package analysis

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cellquant/nucleiquant/config"
	"github.com/cellquant/nucleiquant/images"
	"github.com/cellquant/nucleiquant/overlay"
	"github.com/cellquant/nucleiquant/reader"
	"github.com/cellquant/nucleiquant/regions"
	"github.com/cellquant/nucleiquant/report"
	"github.com/cellquant/nucleiquant/segment"
)

// Sinks groups the tabular outputs of one run.
type Sinks struct {
	// Regions receives one row per kept region (area, circularity, AOI).
	Regions report.Sink
	// SeriesSummary receives one row per processed series.
	SeriesSummary report.Sink
	// MarkerDetail receives one row per kept region per marker.
	MarkerDetail report.Sink
	// MarkerSummary receives one row per series per marker.
	MarkerSummary report.Sink
	// Counts receives per-series kept counts plus the final TOTAL row.
	Counts report.Sink
}

// Pipeline processes series sequentially: one series is fully measured and
// exported before the next begins, and all intermediate state (background
// statistics, AOI mask, kept regions) is local to the series and discarded
// afterward.
type Pipeline struct {
	Cfg config.Config
	Seg segment.Segmenter
	Out Sinks
	Log zerolog.Logger
	// OverlayDir receives QC PNGs; empty disables overlay export.
	OverlayDir string
}

// ProcessSeries runs the full flow for one series: segmentation at working
// resolution, rescaling to native coordinates, background-aware filtering,
// AOI membership, marker classification, and row export. It returns the
// kept-region count for the batch grand total.
//
// A missing required channel or a failed segmentation call is returned as
// an error; the batch driver logs it and skips the series. Finding nothing
// is not an error: summary rows with zero counts are still emitted so
// consumers can tell "processed, found nothing" from "not processed".
func (p *Pipeline) ProcessSeries(imageName string, s reader.Series) (int, error) {
	ref, ok := reader.FindChannel(s, p.Cfg.NucleiPatterns)
	if !ok {
		return 0, errors.Errorf("no nuclei channel matches %v", p.Cfg.NucleiPatterns)
	}

	var aoiChannel *images.Channel
	if len(p.Cfg.AOI.Patterns) > 0 {
		if aoiChannel, ok = reader.FindChannel(s, p.Cfg.AOI.Patterns); !ok {
			return 0, errors.Errorf("no AOI channel matches %v", p.Cfg.AOI.Patterns)
		}
	}

	markerChannels := make([]*images.Channel, len(p.Cfg.Markers.Patterns))
	for i, pat := range p.Cfg.Markers.Patterns {
		if markerChannels[i], ok = reader.FindChannel(s, []string{pat}); !ok {
			return 0, errors.Errorf("no marker channel matches %q", pat)
		}
	}

	detected, err := p.segmentSeries(ref)
	if err != nil {
		return 0, err
	}
	p.Log.Info().Str("series", s.Name).Int("detections", len(detected)).Msg("segmentation done")

	// Background statistics must precede filtering and must include every
	// detection, kept or not.
	bg := BackgroundStats(ref, detected)
	kept := FilterRegions(detected, ref, bg, p.Cfg.Filter)
	p.Log.Info().Str("series", s.Name).
		Float64("bg_mean", bg.Mean).Float64("bg_sd", bg.StdDev).
		Int("kept", len(kept)).Msg("plausibility filter applied")

	inAOI := 0
	if aoiChannel != nil {
		mask := BuildAOIMask(aoiChannel, p.Cfg.AOI)
		inAOI = ApplyAOI(kept, mask, p.Cfg.AOI.MinOverlapFraction)
		p.Log.Info().Str("series", s.Name).Int("in_aoi", inAOI).Msg("AOI membership computed")
	}

	if err := p.exportRegions(imageName, s.Name, kept, inAOI); err != nil {
		return 0, err
	}
	if err := p.classifyMarkers(imageName, s.Name, kept, markerChannels); err != nil {
		return 0, err
	}
	if err := p.Out.Counts.Append(report.CountRow{Image: imageName, Series: s.Name, Count: len(kept)}); err != nil {
		return 0, err
	}
	return len(kept), nil
}

// segmentSeries invokes the external model at working resolution and maps
// the detections back to native coordinates.
func (p *Pipeline) segmentSeries(ref *images.Channel) ([]*regions.Region, error) {
	seg := p.Cfg.Segmentation
	working := images.Downscale(ref, seg.ScaleFactor)

	res, err := p.Seg.Segment(segment.Request{
		Input:         segment.Normalize(working, seg.PercentileLow, seg.PercentileHigh),
		Width:         working.W,
		Height:        working.H,
		ProbThreshold: seg.ProbThreshold,
		NMSThreshold:  seg.NMSThreshold,
		Tiles:         seg.Tiles,
	})
	if err != nil {
		return nil, errors.Wrap(err, "segmentation failed")
	}

	detected := segment.Regions(res, working.W, working.H)
	if working.W != ref.W || working.H != ref.H {
		sx := float32(ref.W) / float32(working.W)
		sy := float32(ref.H) / float32(working.H)
		for i, r := range detected {
			detected[i] = regions.Rescale(r, sx, sy)
		}
	}
	return detected, nil
}

// exportRegions writes the per-region rows and the series summary.
// Mean circularities exclude NaN values instead of counting them as zero.
func (p *Pipeline) exportRegions(imageName, series string, kept []*KeptRegion, inAOI int) error {
	for i, k := range kept {
		row := report.RegionRow{
			Image: imageName, Series: series, Index: i + 1,
			AreaPx: k.Area, Circularity: k.Circularity, InAOI: k.InAOI,
		}
		if err := p.Out.Regions.Append(row); err != nil {
			return err
		}
	}

	var areaSum, circSum, circInSum float64
	circN, circInN := 0, 0
	for _, k := range kept {
		areaSum += float64(k.Area)
		if !math.IsNaN(k.Circularity) {
			circSum += k.Circularity
			circN++
			if k.InAOI {
				circInSum += k.Circularity
				circInN++
			}
		}
	}
	sum := report.SeriesSummaryRow{Image: imageName, Series: series, Kept: len(kept), InAOI: inAOI}
	if len(kept) > 0 {
		sum.MeanArea = areaSum / float64(len(kept))
	}
	if circN > 0 {
		sum.MeanCirc = circSum / float64(circN)
	}
	if circInN > 0 {
		sum.MeanCircInAOI = circInSum / float64(circInN)
	}
	return p.Out.SeriesSummary.Append(sum)
}

// classifyMarkers runs positivity classification per configured marker.
// With AOIRestricted set, only the in-AOI subset is classified; otherwise
// every kept region is.
func (p *Pipeline) classifyMarkers(imageName, series string, kept []*KeptRegion, markerChannels []*images.Channel) error {
	for mi, marker := range markerChannels {
		thr := p.Cfg.Markers.Thresholds[mi]
		minFrac := p.Cfg.Markers.MinPositiveFractions[mi]

		total, positive := 0, 0
		for i, k := range kept {
			if p.Cfg.Markers.AOIRestricted && !k.InAOI {
				continue
			}
			call := ClassifyMarker(k.Region, marker, thr, minFrac)
			k.Markers = append(k.Markers, call)
			if !call.Classified {
				continue
			}
			total++
			if call.Positive {
				positive++
			}
			row := report.MarkerDetailRow{
				Image: imageName, Series: series, Index: i + 1, Marker: marker.Title,
				TotalPx: call.TotalPx, PositivePx: call.PositivePx, Positive: call.Positive,
			}
			if err := p.Out.MarkerDetail.Append(row); err != nil {
				return err
			}
		}

		pct := 0.0
		if total > 0 {
			pct = 100 * float64(positive) / float64(total)
		}
		row := report.MarkerSummaryRow{
			Image: imageName, Series: series, Marker: marker.Title,
			Total: total, Positive: positive, Negative: total - positive,
			PercentPositive: pct,
		}
		if err := p.Out.MarkerSummary.Append(row); err != nil {
			return err
		}
		p.Log.Info().Str("series", series).Str("marker", marker.Title).
			Int("positive", positive).Int("total", total).Msg("marker classified")

		p.saveOverlay(series, marker, kept, mi)
	}
	return nil
}

// saveOverlay exports the P/N QC map for one marker. Overlay export is
// cosmetic: failures are logged and ignored.
func (p *Pipeline) saveOverlay(series string, marker *images.Channel, kept []*KeptRegion, mi int) {
	if p.OverlayDir == "" {
		return
	}
	var outlines []overlay.Outline
	for _, k := range kept {
		if mi >= len(k.Markers) || !k.Markers[mi].Classified {
			continue
		}
		label := "N"
		if k.Markers[mi].Positive {
			label = "P"
		}
		outlines = append(outlines, overlay.Outline{
			Region: k.Region,
			Color:  overlay.ClassColor(k.Markers[mi].Positive),
			Label:  label,
		})
	}
	name := overlay.SafeName(fmt.Sprintf("%s__%s__PosNeg.png", series, marker.Title))
	path := filepath.Join(p.OverlayDir, name)
	if err := overlay.SavePNG(path, overlay.Render(marker, outlines)); err != nil {
		p.Log.Warn().Err(err).Str("path", path).Msg("overlay export failed")
	}
}

var supportedExtensions = []string{".tif", ".tiff"}

// Batch processes every supported file in the folder in sorted order, one
// series at a time. Each file and series is an independent unit of work:
// open or processing failures are logged and skipped, never aborting the
// run. At the very end a single grand-total row is appended, the sum of
// the per-series kept counts.
func (p *Pipeline) Batch(folder string, rdr reader.Reader) error {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return errors.Wrapf(err, "reading folder %s", folder)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, s := range supportedExtensions {
			if ext == s {
				names = append(names, e.Name())
				break
			}
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	grand := 0
	for _, name := range names {
		series, err := rdr.Open(filepath.Join(folder, name))
		if err != nil {
			p.Log.Warn().Err(err).Str("image", name).Msg("open failed, skipping file")
			continue
		}
		for i := range series {
			if len(series) > 1 {
				series[i].Name = fmt.Sprintf("%s_Series%d", name, i+1)
			} else if series[i].Name == "" {
				series[i].Name = name
			}
			kept, err := p.ProcessSeries(name, series[i])
			if err != nil {
				p.Log.Warn().Err(err).Str("series", series[i].Name).Msg("skipping series")
				continue
			}
			grand += kept
		}
	}

	return p.Out.Counts.Append(report.CountRow{Image: "TOTAL", Series: "", Count: grand})
}
