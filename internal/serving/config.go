package serving

import (
	"runtime"
	"time"

	"shelfwatchd/internal/vision"
)

// Defaults applied when corresponding ServiceConfig fields are unset.
const (
	defaultInputSize      = 640
	defaultAdmissionWait  = 250 * time.Millisecond
	defaultRequestTimeout = 10 * time.Second
)

// ServiceConfig encapsulates all tunables for Service construction. It is
// read once at startup; the service never reloads configuration.
type ServiceConfig struct {
	ModelName   string
	WeightsPath string
	Classes     []string

	InputSize     int
	ConfThreshold float32
	IoUThreshold  float32

	// PoolSize is the number of worker slots. Zero means one per CPU core.
	PoolSize int
	// AdmissionWait bounds how long a request waits for a free slot before
	// it is rejected with a capacity error. This window plus the fixed pool
	// size are the sole throttle; there is no queue behind it.
	AdmissionWait time.Duration
	// RequestTimeout bounds how long a request waits for its job to finish.
	RequestTimeout time.Duration

	// Warmup runs one dummy inference per slot during construction.
	Warmup bool
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if len(c.Classes) == 0 {
		c.Classes = []string{"objects"}
	}
	if c.InputSize <= 0 {
		c.InputSize = defaultInputSize
	}
	if c.ConfThreshold <= 0 {
		c.ConfThreshold = vision.DefaultConfThreshold
	}
	if c.IoUThreshold <= 0 {
		c.IoUThreshold = vision.DefaultIoUThreshold
	}
	if c.PoolSize <= 0 {
		c.PoolSize = runtime.NumCPU()
	}
	if c.AdmissionWait <= 0 {
		c.AdmissionWait = defaultAdmissionWait
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return c
}
