// Package serving runs the CPU-bound detection pipeline in a bounded worker
// pool, off the request-accepting path. It owns admission (backpressure),
// per-request timeouts, and outcome accounting.
package serving

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shelfwatchd/internal/engine"
	"shelfwatchd/internal/vision"
	"shelfwatchd/pkg/types"
)

// PredictOptions are per-request overrides.
type PredictOptions struct {
	// ConfThreshold overrides the configured confidence threshold when > 0.
	ConfThreshold float32
	// RequestID is attached to log lines.
	RequestID string
}

// Service ties the worker pool to the vision pipeline and the model engine.
type Service struct {
	cfg    ServiceConfig
	pool   *pool
	layout vision.OutputLayout
	log    zerolog.Logger
	start  time.Time

	mu       sync.Mutex
	ready    bool
	outcomes map[string]uint64
}

// New constructs the service: builds one model session per worker slot and,
// when configured, warms each slot with a dummy inference. Any failure here
// is an initialization error and should abort process startup.
func New(cfg ServiceConfig, factory engine.Factory, log zerolog.Logger) (*Service, error) {
	cfg = cfg.withDefaults()
	s := &Service{
		cfg: cfg,
		layout: vision.OutputLayout{
			NumClasses: len(cfg.Classes),
			Anchors:    vision.AnchorCount(cfg.InputSize),
		},
		log:      log,
		start:    time.Now(),
		outcomes: make(map[string]uint64),
	}
	p, err := newPool(cfg.PoolSize, cfg.AdmissionWait, cfg.InputSize, factory)
	if err != nil {
		return nil, err
	}
	s.pool = p
	if cfg.Warmup {
		if err := s.warmup(); err != nil {
			p.close()
			return nil, err
		}
	}
	SetModelInfo(cfg.ModelName, cfg.WeightsPath, engine.RuntimeName)
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	log.Info().
		Str("model", cfg.ModelName).
		Int("pool_size", cfg.PoolSize).
		Int("input_size", cfg.InputSize).
		Msg("inference service ready")
	return s, nil
}

// warmup runs every slot once on a gray canvas so first requests do not pay
// for lazy runtime allocation.
func (s *Service) warmup() error {
	dummy := make([]float32, vision.TensorLen(s.cfg.InputSize))
	for i := range dummy {
		dummy[i] = 114.0 / 255.0
	}
	slots := make([]*slot, 0, s.pool.size)
	for i := 0; i < s.pool.size; i++ {
		slots = append(slots, <-s.pool.slots)
	}
	var firstErr error
	for _, sl := range slots {
		if _, err := sl.runner.Run(dummy); err != nil && firstErr == nil {
			firstErr = err
		}
		s.pool.release(sl)
	}
	return firstErr
}

// Ready reports whether the pool finished initialization.
func (s *Service) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// ModelName returns the served model's name.
func (s *Service) ModelName() string { return s.cfg.ModelName }

// Runtime returns the inference backend identifier.
func (s *Service) Runtime() string { return engine.RuntimeName }

// Status returns a read-only snapshot for GET /status.
func (s *Service) Status() types.StatusResponse {
	s.mu.Lock()
	totals := make(map[string]uint64, len(s.outcomes))
	for k, v := range s.outcomes {
		totals[k] = v
	}
	ready := s.ready
	s.mu.Unlock()
	return types.StatusResponse{
		Model:          s.cfg.ModelName,
		WeightsPath:    s.cfg.WeightsPath,
		Runtime:        engine.RuntimeName,
		Ready:          ready,
		PoolSize:       s.pool.size,
		InFlight:       s.pool.inFlight(),
		RequestsTotal:  totals,
		UptimeSeconds:  int64(time.Since(s.start).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	}
}

// Close releases all worker slots. In-flight jobs finish first; their slots
// are torn down on release.
func (s *Service) Close() {
	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()
	s.pool.close()
}

type jobResult struct {
	resp *types.PredictResponse
	err  error
}

// Predict submits one inference job for an uploaded image and waits for the
// result, the configured timeout, or caller cancellation. A timed-out or
// canceled wait discards the job's eventual result; the job itself is not
// preempted and frees its slot when its own execution exits.
func (s *Service) Predict(ctx context.Context, image []byte, opts PredictOptions) (*types.PredictResponse, error) {
	conf := opts.ConfThreshold
	if conf <= 0 {
		conf = s.cfg.ConfThreshold
	}

	sl, err := s.pool.acquire(ctx)
	if err != nil {
		if IsCapacity(err) {
			s.count(OutcomeCapacity)
		}
		return nil, err
	}

	resCh := make(chan jobResult, 1) // buffered: a discarded result never blocks the slot
	go func() {
		defer s.pool.release(sl)
		inFlight.Inc()
		defer inFlight.Dec()
		resp, err := s.runJob(sl, image, conf)
		resCh <- jobResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(s.cfg.RequestTimeout)
	defer timer.Stop()
	select {
	case r := <-resCh:
		if r.err != nil {
			if IsDecode(r.err) {
				// Unreadable upload is the caller's fault, not a model failure.
				s.count(OutcomeValidationError)
			} else {
				s.count(OutcomeInferenceError)
				s.log.Error().Err(r.err).Str("request_id", opts.RequestID).Msg("inference failed")
			}
			return nil, r.err
		}
		s.count(OutcomeSuccess)
		inferenceLatency.Observe(r.resp.InferenceMS / 1000.0)
		detectionsPerImage.Observe(float64(r.resp.Count))
		s.log.Info().
			Str("request_id", opts.RequestID).
			Int("detections", r.resp.Count).
			Float64("latency_ms", r.resp.InferenceMS).
			Int("width", r.resp.ImageSize.Width).
			Int("height", r.resp.ImageSize.Height).
			Msg("predict")
		return r.resp, nil
	case <-timer.C:
		s.count(OutcomeTimeout)
		return nil, timeoutError{timeout: s.cfg.RequestTimeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// runJob executes the full pipeline inside a worker slot: decode, letterbox,
// model run, decode+NMS.
func (s *Service) runJob(sl *slot, image []byte, conf float32) (*types.PredictResponse, error) {
	start := time.Now()

	img, err := vision.Decode(image)
	if err != nil {
		return nil, decodeError{cause: err}
	}
	tf, err := vision.Prepare(img, s.cfg.InputSize, sl.input)
	if err != nil {
		return nil, inferenceError{cause: err}
	}
	raw, err := sl.runner.Run(sl.input)
	if err != nil {
		return nil, inferenceError{cause: err}
	}
	dets, err := vision.Postprocess(raw, s.layout, tf, conf, s.cfg.IoUThreshold, s.cfg.Classes)
	if err != nil {
		return nil, inferenceError{cause: err}
	}

	out := make([]types.Detection, len(dets))
	for i, d := range dets {
		out[i] = types.Detection{
			Class:      d.ClassName,
			Confidence: float64(d.Confidence),
			BBox: [4]float64{
				float64(d.Box.X1), float64(d.Box.Y1),
				float64(d.Box.X2), float64(d.Box.Y2),
			},
		}
	}
	return &types.PredictResponse{
		Detections:  out,
		Count:       len(out),
		InferenceMS: float64(time.Since(start).Microseconds()) / 1000.0,
		ImageSize:   types.ImageSize{Width: tf.OrigW, Height: tf.OrigH},
		Model:       s.cfg.ModelName,
		Runtime:     engine.RuntimeName,
	}, nil
}

func (s *Service) count(outcome string) {
	requestsTotal.WithLabelValues(outcome).Inc()
	s.mu.Lock()
	s.outcomes[outcome]++
	s.mu.Unlock()
}
