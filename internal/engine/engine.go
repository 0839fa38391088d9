// Package engine wraps the ONNX Runtime session behind a small Runner
// interface so the serving layer and tests do not depend on the native
// runtime being present.
package engine

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// RuntimeName identifies the execution backend in responses and metrics.
const RuntimeName = "onnx-cpu"

// Runner executes the frozen detection graph on a prepared input tensor.
// Implementations are not required to be safe for concurrent Run calls;
// the worker pool gives each slot its own Runner.
type Runner interface {
	// Run executes the graph. The returned slice is valid until the next
	// Run call on this Runner.
	Run(input []float32) ([]float32, error)
	Close() error
}

// Factory creates one Runner per worker slot.
type Factory func() (Runner, error)

// Init initializes the process-wide ONNX Runtime environment. Must be
// called exactly once before any session is created; failure is fatal to
// startup.
func Init(sharedLibPath string) error {
	if sharedLibPath != "" {
		ort.SetSharedLibraryPath(sharedLibPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// Destroy tears down the ONNX Runtime environment at process shutdown.
func Destroy() error {
	return ort.DestroyEnvironment()
}
