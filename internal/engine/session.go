package engine

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"shelfwatchd/internal/vision"
)

// SessionConfig describes the fixed geometry of the exported model.
type SessionConfig struct {
	WeightsPath string
	InputSize   int // square model input side, e.g. 640
	NumClasses  int
	// Thread counts passed to ONNX Runtime. Zero lets the runtime decide.
	IntraOpThreads int
	InterOpThreads int
	// Graph input/output tensor names from the export.
	InputName  string
	OutputName string
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.InputName == "" {
		c.InputName = "images"
	}
	if c.OutputName == "" {
		c.OutputName = "output0"
	}
	if c.NumClasses <= 0 {
		c.NumClasses = 1
	}
	return c
}

// Session is a Runner backed by one ONNX Runtime advanced session with
// pre-created input and output tensors. A Session must not be shared
// between concurrent Run calls.
type Session struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewSession loads the weights and builds a session with fixed-shape
// tensors [1,3,S,S] -> [1,4+C,anchors].
func NewSession(cfg SessionConfig) (*Session, error) {
	cfg = cfg.withDefaults()

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer options.Destroy()
	if cfg.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("intra op threads: %w", err)
		}
	}
	if cfg.InterOpThreads > 0 {
		if err := options.SetInterOpNumThreads(cfg.InterOpThreads); err != nil {
			return nil, fmt.Errorf("inter op threads: %w", err)
		}
	}

	size := int64(cfg.InputSize)
	anchors := int64(vision.AnchorCount(cfg.InputSize))
	inputShape := ort.NewShape(1, 3, size, size)
	outputShape := ort.NewShape(1, int64(4+cfg.NumClasses), anchors)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.WeightsPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &Session{session: session, input: inputTensor, output: outputTensor}, nil
}

// Run copies input into the session tensor and executes the graph.
func (s *Session) Run(input []float32) ([]float32, error) {
	dst := s.input.GetData()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("input length %d, want %d", len(input), len(dst))
	}
	copy(dst, input)
	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}
	return s.output.GetData(), nil
}

// Close releases the native session and its tensors.
func (s *Session) Close() error {
	var firstErr error
	if s.session != nil {
		if err := s.session.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.input != nil {
		if err := s.input.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.output != nil {
		if err := s.output.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewFactory returns a Factory building one Session per worker slot.
func NewFactory(cfg SessionConfig) Factory {
	return func() (Runner, error) {
		return NewSession(cfg)
	}
}
