// Package segment defines the interface to the external instance
// segmentation model and converts its raw per-pixel output into regions.
//
// The model itself is a collaborator, not part of this engine: it receives
// a normalized 2-D intensity array and returns polygon contours, an
// integer label image assigning each pixel to at most one object, or both.
// Everything downstream accepts either representation.
package segment

import (
	"image"

	"github.com/cellquant/nucleiquant/regions"
	"gorgonia.org/tensor"
)

// Request is one blocking segmentation call.
type Request struct {
	// Input is the normalized intensity plane, float32 [1,1,H,W] in [0,1].
	Input *tensor.Dense
	// Width and Height are the working-resolution plane dimensions.
	Width, Height int
	// ProbThreshold is the per-object probability cutoff.
	ProbThreshold float32
	// NMSThreshold is the contour overlap cutoff, forwarded to models that
	// honor it.
	NMSThreshold float32
	// Tiles is a tiling hint for large inputs, e.g. "1,1".
	Tiles string
}

// Result is the raw model output in whichever representation the provider
// produced.
type Result struct {
	// Contours holds one ordered polygon per detected object, or nil.
	Contours [][]regions.Point
	// Labels is a row-major label image (0 = background), or nil.
	Labels []int32
	// Scores holds optional per-object confidences, aligned with Contours
	// when present.
	Scores []float32
}

// Segmenter is the external-model contract. Segment blocks until the model
// returns; there is no timeout or cancellation, and a failing call causes
// the series to be skipped by the batch driver.
type Segmenter interface {
	Segment(req Request) (*Result, error)
	Close() error
}

// Regions converts a Result into detection regions at the resolution the
// request ran at. Contours are preferred because they survive
// polygon-preserving rescaling; a label image yields mask-backed regions.
func Regions(res *Result, w, h int) []*regions.Region {
	if len(res.Contours) > 0 {
		return RegionsFromContours(res.Contours, res.Scores)
	}
	if res.Labels != nil {
		return RegionsFromLabels(res.Labels, w, h)
	}
	return nil
}

// RegionsFromContours builds one polygon-backed region per contour.
// Scores may be shorter than contours; missing entries default to 0.
func RegionsFromContours(contours [][]regions.Point, scores []float32) []*regions.Region {
	out := make([]*regions.Region, 0, len(contours))
	for i, poly := range contours {
		var score float32
		if i < len(scores) {
			score = scores[i]
		}
		out = append(out, regions.FromPolygon(poly, score))
	}
	return out
}

// RegionsFromLabels extracts one mask-backed region per positive label id.
// A single pass collects each label's bounding box, a second pass fills the
// local masks.
func RegionsFromLabels(labels []int32, w, h int) []*regions.Region {
	type span struct {
		minX, minY, maxX, maxY int
		seen                   bool
	}
	spans := make(map[int32]*span)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			id := labels[y*w+x]
			if id <= 0 {
				continue
			}
			s := spans[id]
			if s == nil {
				s = &span{minX: x, minY: y, maxX: x, maxY: y, seen: true}
				spans[id] = s
				continue
			}
			if x < s.minX {
				s.minX = x
			}
			if x > s.maxX {
				s.maxX = x
			}
			if y < s.minY {
				s.minY = y
			}
			if y > s.maxY {
				s.maxY = y
			}
		}
	}

	ids := make([]int32, 0, len(spans))
	for id := range spans {
		ids = append(ids, id)
	}
	sortInt32(ids)

	out := make([]*regions.Region, 0, len(ids))
	for _, id := range ids {
		s := spans[id]
		box := image.Rect(s.minX, s.minY, s.maxX+1, s.maxY+1)
		bw := box.Dx()
		mask := make([]bool, bw*box.Dy())
		for y := box.Min.Y; y < box.Max.Y; y++ {
			for x := box.Min.X; x < box.Max.X; x++ {
				if labels[y*w+x] == id {
					mask[(y-box.Min.Y)*bw+(x-box.Min.X)] = true
				}
			}
		}
		out = append(out, regions.FromMask(box, mask))
	}
	return out
}

// LabelComponents assigns 4-connected component labels (1..n) to the
// foreground of a binary mask.
func LabelComponents(mask []bool, w, h int) []int32 {
	labels := make([]int32, w*h)
	var next int32
	stack := make([]int, 0, 256)
	for i := range mask {
		if !mask[i] || labels[i] != 0 {
			continue
		}
		next++
		stack = append(stack[:0], i)
		labels[i] = next
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				q := ny*w + nx
				if mask[q] && labels[q] == 0 {
					labels[q] = next
					stack = append(stack, q)
				}
			}
		}
	}
	return labels
}

func sortInt32(xs []int32) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}
