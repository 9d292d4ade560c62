// Command nucleiquant batch-processes a folder of fluorescence microscopy
// images: it segments nuclei through an external ONNX model, filters the
// detections for plausibility, tests AOI membership, classifies marker
// positivity, and appends per-region and per-series rows to CSV files.
package main

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cellquant/nucleiquant/analysis"
	"github.com/cellquant/nucleiquant/config"
	"github.com/cellquant/nucleiquant/reader"
	"github.com/cellquant/nucleiquant/report"
	"github.com/cellquant/nucleiquant/segment"
)

func main() {
	var (
		folder      string
		configPath  string
		modelPath   string
		libraryPath string
		scaleFactor float64
		sizeMin     int
		sizeMax     int
		sigmaBg     float64
		aoiThr      float64
		markers     string
		markerThr   string
		debug       bool
	)
	flag.StringVar(&folder, "folder", "", "Folder with images to process")
	flag.StringVar(&configPath, "config", "", "Optional YAML config file")
	flag.StringVar(&modelPath, "model", "", "Path to the segmentation ONNX model")
	flag.StringVar(&libraryPath, "ort-library", "", "Optional ONNX Runtime shared library path")
	flag.Float64Var(&scaleFactor, "scale", 0, "Pre-scaling factor (0.5=down, 1.0=off); 0 keeps config value")
	flag.IntVar(&sizeMin, "size-min", 0, "Min nucleus area in px; 0 keeps config value")
	flag.IntVar(&sizeMax, "size-max", 0, "Max nucleus area in px; 0 keeps config value")
	flag.Float64Var(&sigmaBg, "sigma-bg", -1, "Min sigma above background (0=off); -1 keeps config value")
	flag.Float64Var(&aoiThr, "aoi-threshold", 0, "AOI fixed threshold; 0 keeps config value")
	flag.StringVar(&markers, "markers", "", "Comma-separated marker channel identifiers (e.g. 'c2-,c3-')")
	flag.StringVar(&markerThr, "marker-thresholds", "", "Comma-separated fixed marker thresholds")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	if folder == "" {
		log.Fatal().Msg("-folder is required")
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatal().Err(err).Msg("loading config")
		}
	}
	applyFlagOverrides(&cfg, scaleFactor, sizeMin, sizeMax, sigmaBg, aoiThr, markers, markerThr)
	if modelPath != "" {
		cfg.Segmentation.ModelPath = modelPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	seg, err := segment.NewONNXSegmenter(segment.ONNXConfig{
		ModelPath:   cfg.Segmentation.ModelPath,
		LibraryPath: libraryPath,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("initializing segmenter")
	}
	defer seg.Close()

	outDir := cfg.Output.Dir
	if outDir == "" || outDir == "." {
		outDir = folder
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", outDir).Msg("creating output directory")
	}
	overlayDir := ""
	if cfg.Output.Overlays {
		overlayDir = filepath.Join(outDir, "overlays")
		if err := os.MkdirAll(overlayDir, 0o755); err != nil {
			log.Warn().Err(err).Msg("creating overlay directory, overlays disabled")
			overlayDir = ""
		}
	}

	d := cfg.DelimiterRune()
	sinks := analysis.Sinks{
		Regions:       report.NewCSVSink(filepath.Join(outDir, "nuclei_perROI.csv"), d),
		SeriesSummary: report.NewCSVSink(filepath.Join(outDir, "nuclei_summary.csv"), d),
		MarkerDetail:  report.NewCSVSink(filepath.Join(outDir, "nuclei_posneg_perROI.csv"), d),
		MarkerSummary: report.NewCSVSink(filepath.Join(outDir, "nuclei_posneg.csv"), d),
		Counts:        report.NewCSVSink(filepath.Join(outDir, "nuclei_counts.csv"), d),
	}

	p := &analysis.Pipeline{
		Cfg:        cfg,
		Seg:        seg,
		Out:        sinks,
		Log:        log,
		OverlayDir: overlayDir,
	}

	if err := p.Batch(folder, reader.TIFFReader{}); err != nil {
		log.Fatal().Err(err).Msg("batch run failed")
	}

	log.Info().
		Str("per_roi", filepath.Join(outDir, "nuclei_perROI.csv")).
		Str("summary", filepath.Join(outDir, "nuclei_summary.csv")).
		Str("posneg", filepath.Join(outDir, "nuclei_posneg.csv")).
		Str("posneg_per_roi", filepath.Join(outDir, "nuclei_posneg_perROI.csv")).
		Str("counts", filepath.Join(outDir, "nuclei_counts.csv")).
		Msg("done")
}

// applyFlagOverrides layers non-default CLI flags over the config.
func applyFlagOverrides(cfg *config.Config, scale float64, sizeMin, sizeMax int,
	sigmaBg, aoiThr float64, markers, markerThr string) {
	if scale > 0 {
		cfg.Segmentation.ScaleFactor = scale
	}
	if sizeMin > 0 {
		cfg.Filter.SizeMin = sizeMin
	}
	if sizeMax > 0 {
		cfg.Filter.SizeMax = sizeMax
	}
	if sigmaBg >= 0 {
		cfg.Filter.SigmaAboveBg = sigmaBg
	}
	if aoiThr > 0 {
		cfg.AOI.Threshold = aoiThr
	}
	if markers != "" {
		cfg.Markers.Patterns = splitList(markers)
	}
	if markerThr != "" {
		var thrs []float64
		for _, s := range splitList(markerThr) {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				thrs = append(thrs, v)
			}
		}
		cfg.Markers.Thresholds = thrs
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
