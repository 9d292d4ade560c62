// Package config provides the run configuration for the nuclei
// quantification pipeline. A Config is constructed once per run (from a
// YAML file, CLI flags, or both), validated, and passed down to every
// component; there is no ambient or global configuration state.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MaxMarkers is the maximum number of marker channels a run may configure.
const MaxMarkers = 6

// Segmentation holds parameters forwarded to the external
// instance-segmentation model.
type Segmentation struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string `yaml:"modelPath"`
	// ProbThreshold is the per-object probability threshold.
	ProbThreshold float32 `yaml:"probThreshold"`
	// NMSThreshold is the non-maximum-suppression overlap threshold.
	NMSThreshold float32 `yaml:"nmsThreshold"`
	// Tiles is the tiling hint for large inputs ("1,1" disables tiling).
	Tiles string `yaml:"tiles"`
	// PercentileLow and PercentileHigh bound the input normalization.
	PercentileLow  float64 `yaml:"percentileLow"`
	PercentileHigh float64 `yaml:"percentileHigh"`
	// ScaleFactor downsamples the reference channel to the working
	// resolution before segmentation (1.0 = native resolution).
	ScaleFactor float64 `yaml:"scaleFactor"`
}

// Filter holds the plausibility tests applied to raw detections.
type Filter struct {
	// SizeMin and SizeMax bound the region pixel count (inclusive).
	SizeMin int `yaml:"sizeMin"`
	SizeMax int `yaml:"sizeMax"`
	// MinMeanIntensity is an absolute mean-intensity floor; 0 disables it.
	MinMeanIntensity float64 `yaml:"minMeanIntensity"`
	// SigmaAboveBg rejects regions whose mean is below
	// bgMean + SigmaAboveBg*bgStdDev; 0 disables the test.
	SigmaAboveBg float64 `yaml:"sigmaAboveBg"`
}

// AOI configures construction of the area-of-interest mask and the
// membership test against it.
type AOI struct {
	// Patterns identifies the AOI channel by case-insensitive substring.
	Patterns []string `yaml:"patterns"`
	// Threshold is the fixed binarization value in original bit depth.
	Threshold float64 `yaml:"threshold"`
	// MedianRadius is the optional denoise radius; 0 disables it.
	MedianRadius int `yaml:"medianRadius"`
	// RollingRadius is the background-subtraction radius; 0 disables it.
	RollingRadius int `yaml:"rollingRadius"`
	// RollingRepeats is how many times background subtraction is applied.
	RollingRepeats int `yaml:"rollingRepeats"`
	// MinOverlapFraction is the minimum fraction of a region's pixels that
	// must fall inside the mask for the region to count as "in AOI".
	MinOverlapFraction float64 `yaml:"minOverlapFraction"`
}

// Markers configures positivity classification.
type Markers struct {
	// Patterns identifies marker channels, one substring list entry each.
	Patterns []string `yaml:"patterns"`
	// Thresholds are fixed per-marker intensity thresholds in original bit
	// depth; length must equal len(Patterns).
	Thresholds []float64 `yaml:"thresholds"`
	// MinPositiveFractions are per-marker minimum positive-pixel fractions.
	// A single entry is broadcast to all markers during validation.
	MinPositiveFractions []float64 `yaml:"minPositiveFractions"`
	// AOIRestricted restricts classification to the in-AOI subset of kept
	// regions instead of all kept regions.
	AOIRestricted bool `yaml:"aoiRestricted"`
}

// Output configures the tabular sinks and overlay artifacts.
type Output struct {
	// Dir receives CSV files and overlay PNGs.
	Dir string `yaml:"dir"`
	// Delimiter separates CSV fields; must be ";" or ",".
	Delimiter string `yaml:"delimiter"`
	// Overlays enables PNG overlay export (cosmetic, best effort).
	Overlays bool `yaml:"overlays"`
}

// Config is the immutable top-level run configuration.
type Config struct {
	// NucleiPatterns identifies the reference (segmentation) channel.
	NucleiPatterns []string `yaml:"nucleiPatterns"`

	Segmentation Segmentation `yaml:"segmentation"`
	Filter       Filter       `yaml:"filter"`
	AOI          AOI          `yaml:"aoi"`
	Markers      Markers      `yaml:"markers"`
	Output       Output       `yaml:"output"`
}

// Default returns a Config with the same defaults the original batch runs
// used.
func Default() Config {
	return Config{
		NucleiPatterns: []string{"c1-", "dapi"},
		Segmentation: Segmentation{
			ProbThreshold:  0.5,
			NMSThreshold:   0.5,
			Tiles:          "1,1",
			PercentileLow:  0.0,
			PercentileHigh: 100.0,
			ScaleFactor:    1.0,
		},
		Filter: Filter{
			SizeMin:      50,
			SizeMax:      2500,
			SigmaAboveBg: 1.5,
		},
		AOI: AOI{
			Patterns:           []string{"c2-", "total"},
			Threshold:          1000,
			RollingRadius:      50,
			RollingRepeats:     1,
			MinOverlapFraction: 0.5,
		},
		Markers: Markers{
			MinPositiveFractions: []float64{0.05},
		},
		Output: Output{
			Dir:       ".",
			Delimiter: ";",
			Overlays:  true,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks ranges and normalizes the per-marker lists. A single
// threshold or fraction is broadcast to the configured marker count; any
// other length mismatch is an error.
func (c *Config) Validate() error {
	if len(c.NucleiPatterns) == 0 {
		return errors.New("config: at least one nuclei channel pattern is required")
	}
	if c.Filter.SizeMin <= 0 || c.Filter.SizeMax < c.Filter.SizeMin {
		return errors.Errorf("config: invalid size range [%d, %d]", c.Filter.SizeMin, c.Filter.SizeMax)
	}
	if c.Filter.MinMeanIntensity < 0 || c.Filter.SigmaAboveBg < 0 {
		return errors.New("config: intensity filters must be >= 0")
	}
	if c.Segmentation.ScaleFactor <= 0 {
		return errors.Errorf("config: scale factor must be > 0, got %f", c.Segmentation.ScaleFactor)
	}
	if c.Segmentation.PercentileLow < 0 || c.Segmentation.PercentileHigh > 100 ||
		c.Segmentation.PercentileLow >= c.Segmentation.PercentileHigh {
		return errors.Errorf("config: invalid normalization percentiles [%f, %f]",
			c.Segmentation.PercentileLow, c.Segmentation.PercentileHigh)
	}
	if c.AOI.MinOverlapFraction < 0 || c.AOI.MinOverlapFraction > 1 {
		return errors.Errorf("config: AOI overlap fraction %f outside [0,1]", c.AOI.MinOverlapFraction)
	}
	if c.AOI.RollingRepeats < 0 || c.AOI.RollingRadius < 0 || c.AOI.MedianRadius < 0 {
		return errors.New("config: AOI preprocessing parameters must be >= 0")
	}

	n := len(c.Markers.Patterns)
	if n > MaxMarkers {
		return errors.Errorf("config: %d marker channels configured, at most %d supported", n, MaxMarkers)
	}
	if n > 0 {
		thr, err := broadcast(c.Markers.Thresholds, n, "marker thresholds")
		if err != nil {
			return err
		}
		c.Markers.Thresholds = thr
		frac, err := broadcast(c.Markers.MinPositiveFractions, n, "marker positive fractions")
		if err != nil {
			return err
		}
		for _, f := range frac {
			if f < 0 || f > 1 {
				return errors.Errorf("config: marker positive fraction %f outside [0,1]", f)
			}
		}
		c.Markers.MinPositiveFractions = frac
		if c.Markers.AOIRestricted && len(c.AOI.Patterns) == 0 {
			return errors.New("config: aoiRestricted requires an AOI channel pattern")
		}
	}

	switch c.Output.Delimiter {
	case ";", ",":
	default:
		return errors.Errorf("config: delimiter %q must be \";\" or \",\"", c.Output.Delimiter)
	}
	return nil
}

// DelimiterRune returns the validated delimiter as a rune for encoding/csv.
func (c *Config) DelimiterRune() rune {
	return rune(c.Output.Delimiter[0])
}

func broadcast(vals []float64, n int, what string) ([]float64, error) {
	switch len(vals) {
	case n:
		return vals, nil
	case 1:
		out := make([]float64, n)
		for i := range out {
			out[i] = vals[0]
		}
		return out, nil
	default:
		return nil, errors.Errorf("config: %d %s for %d markers (supply one value or one per marker)",
			len(vals), what, n)
	}
}

// MatchChannel reports whether a channel title matches any of the given
// identifier substrings, case-insensitively. An empty pattern list never
// matches.
func MatchChannel(title string, patterns []string) bool {
	t := strings.ToLower(title)
	for _, p := range patterns {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" && strings.Contains(t, p) {
			return true
		}
	}
	return false
}
