package segment

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig configures the ONNX-backed segmenter.
type ONNXConfig struct {
	// ModelPath is the path to the exported segmentation model (a
	// StarDist-style network with a per-pixel object probability head).
	ModelPath string
	// LibraryPath optionally overrides the ONNX Runtime shared library
	// location; empty keeps the runtime's default search.
	LibraryPath string
	// InputName and OutputName are the model's tensor bindings.
	InputName, OutputName string
}

// ONNXSegmenter runs the external model through ONNX Runtime. The runtime
// environment is initialized once per process and torn down on Close.
type ONNXSegmenter struct {
	cfg ONNXConfig
	mu  sync.Mutex
}

var ortInitOnce sync.Once

// NewONNXSegmenter validates the model file and prepares the runtime
// environment.
func NewONNXSegmenter(cfg ONNXConfig) (*ONNXSegmenter, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "segmentation model %s", cfg.ModelPath)
	}
	if cfg.InputName == "" {
		cfg.InputName = "input"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "prob"
	}

	var initErr error
	ortInitOnce.Do(func() {
		if cfg.LibraryPath != "" {
			if _, err := os.Stat(cfg.LibraryPath); err != nil {
				initErr = errors.Wrapf(err, "ONNX Runtime library %s", cfg.LibraryPath)
				return
			}
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, errors.Wrap(initErr, "initializing ONNX Runtime environment")
	}
	return &ONNXSegmenter{cfg: cfg}, nil
}

// Segment runs one blocking inference over the normalized plane and
// converts the probability map into a label image by thresholding and
// 4-connected component labeling.
func (s *ONNXSegmenter) Segment(req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := req.Input.Data().([]float32)
	shape := ort.NewShape(1, 1, int64(req.Height), int64(req.Width))
	input, err := ort.NewTensor(shape, data)
	if err != nil {
		return nil, errors.Wrap(err, "creating input tensor")
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](shape)
	if err != nil {
		return nil, errors.Wrap(err, "creating output tensor")
	}
	defer output.Destroy()

	// Input shapes vary per image, so a session is bound per call rather
	// than preallocated the way fixed-shape detector pipelines do it.
	session, err := ort.NewAdvancedSession(
		s.cfg.ModelPath,
		[]string{s.cfg.InputName},
		[]string{s.cfg.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		nil,
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating ONNX session")
	}
	defer session.Destroy()

	if err := session.Run(); err != nil {
		return nil, errors.Wrap(err, "running segmentation model")
	}

	prob := output.GetData()
	mask := make([]bool, req.Width*req.Height)
	for i, p := range prob {
		if p >= req.ProbThreshold {
			mask[i] = true
		}
	}
	return &Result{Labels: LabelComponents(mask, req.Width, req.Height)}, nil
}

// Close releases the process-wide runtime environment.
func (s *ONNXSegmenter) Close() error {
	return ort.DestroyEnvironment()
}
