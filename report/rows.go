// Package report - append-only tabular output.
//
// Rows are flat immutable records. Once appended they are never updated;
// re-runs produce additional rows, not in-place corrections, so a partial
// output file is always a valid prefix of a full one.
package report

import (
	"math"
	"strconv"
)

// Row is one appendable record. Header is written once per output file, on
// first creation.
type Row interface {
	Header() []string
	Record() []string
}

// FormatBool serializes a boolean as the literal CSV tokens the original
// tables used.
func FormatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// FormatFloat renders fixed-point notation with the given precision;
// scientific notation never appears in the output.
func FormatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// FormatCirc renders a circularity value, sanitizing undefined (NaN)
// values to the empty string so they stay distinguishable from 0.
func FormatCirc(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return FormatFloat(v, 6)
}

// RegionRow is the per-region record of the AOI pipeline.
type RegionRow struct {
	Image       string
	Series      string
	Index       int
	AreaPx      int
	Circularity float64
	InAOI       bool
}

func (r RegionRow) Header() []string {
	return []string{"Image", "Series", "ROI_Index", "Area_px", "Circ", "In_AOI"}
}

func (r RegionRow) Record() []string {
	return []string{
		r.Image, r.Series, strconv.Itoa(r.Index), strconv.Itoa(r.AreaPx),
		FormatCirc(r.Circularity), FormatBool(r.InAOI),
	}
}

// MarkerDetailRow carries the raw classification counts for one region and
// one marker, so the positive/negative call is reproducible from the row
// alone.
type MarkerDetailRow struct {
	Image      string
	Series     string
	Index      int
	Marker     string
	TotalPx    int
	PositivePx int
	Positive   bool
}

func (r MarkerDetailRow) Header() []string {
	return []string{"Image", "Series", "ROI_Index", "Marker", "ROI_px", "PosPix", "Is_Positive"}
}

func (r MarkerDetailRow) Record() []string {
	return []string{
		r.Image, r.Series, strconv.Itoa(r.Index), r.Marker,
		strconv.Itoa(r.TotalPx), strconv.Itoa(r.PositivePx), FormatBool(r.Positive),
	}
}

// MarkerSummaryRow is the per-series, per-marker aggregate.
type MarkerSummaryRow struct {
	Image           string
	Series          string
	Marker          string
	Total           int
	Positive        int
	Negative        int
	PercentPositive float64
}

func (r MarkerSummaryRow) Header() []string {
	return []string{"Image", "Series", "Marker", "N_total", "Positive", "Negative", "Percent_Positive"}
}

func (r MarkerSummaryRow) Record() []string {
	return []string{
		r.Image, r.Series, r.Marker, strconv.Itoa(r.Total),
		strconv.Itoa(r.Positive), strconv.Itoa(r.Negative),
		FormatFloat(r.PercentPositive, 6),
	}
}

// SeriesSummaryRow is the per-series aggregate. Mean circularities average
// the non-NaN values only; a series with zero kept regions still emits a
// row (zero counts, zero means), so "processed, found nothing" remains
// distinguishable from "not processed".
type SeriesSummaryRow struct {
	Image         string
	Series        string
	Kept          int
	InAOI         int
	MeanArea      float64
	MeanCirc      float64
	MeanCircInAOI float64
}

func (r SeriesSummaryRow) Header() []string {
	return []string{"Image", "Series", "N_ROIs", "N_In_AOI", "Mean_Area_px", "Mean_Circ", "Mean_Circ_In_AOI"}
}

func (r SeriesSummaryRow) Record() []string {
	return []string{
		r.Image, r.Series, strconv.Itoa(r.Kept), strconv.Itoa(r.InAOI),
		FormatFloat(r.MeanArea, 6), FormatFloat(r.MeanCirc, 6), FormatFloat(r.MeanCircInAOI, 6),
	}
}

// CountRow is the per-series kept-nuclei count; the batch driver emits one
// final TOTAL row summing the per-series counts (a plain sum, not a
// re-derived statistic).
type CountRow struct {
	Image  string
	Series string
	Count  int
}

func (r CountRow) Header() []string {
	return []string{"Image", "Series", "Total_Nuclei_Count"}
}

func (r CountRow) Record() []string {
	return []string{r.Image, r.Series, strconv.Itoa(r.Count)}
}
