// Package reader abstracts the bio-image importer: given a file path it
// yields an ordered list of series, each exposing per-channel 2-D planes
// with title strings used for channel identification.
package reader

import (
	"github.com/cellquant/nucleiquant/config"
	"github.com/cellquant/nucleiquant/images"
)

// Series is one acquisition within a file.
type Series struct {
	// Name identifies the series in log lines and output rows
	// (e.g. "slide3.tif_Series2").
	Name string
	// Channels are the per-channel intensity planes, importer order.
	Channels []*images.Channel
}

// Reader opens a file into its series.
type Reader interface {
	Open(path string) ([]Series, error)
}

// FindChannel returns the first channel whose title matches any of the
// configured identifier substrings (case-insensitive), the way the
// original runs resolved "c1-"/"dapi"/"total" channels. The second return
// is false when no channel matches.
func FindChannel(s Series, patterns []string) (*images.Channel, bool) {
	for _, ch := range s.Channels {
		if config.MatchChannel(ch.Title, patterns) {
			return ch, true
		}
	}
	return nil, false
}
