package serving

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes recorded in shelfwatch_requests_total.
const (
	OutcomeSuccess         = "success"
	OutcomeValidationError = "validation_error"
	OutcomeInferenceError  = "inference_error"
	OutcomeTimeout         = "timeout"
	OutcomeCapacity        = "capacity"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelfwatch",
			Name:      "requests_total",
			Help:      "Total inference requests by outcome",
		},
		[]string{"outcome"},
	)

	inferenceLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "shelfwatch",
			Name:      "inference_seconds",
			Help:      "Model inference latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.15, 0.2, 0.3, 0.5, 0.8, 1.0, 2.0, 5.0},
		},
	)

	detectionsPerImage = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "shelfwatch",
			Name:      "detections_per_image",
			Help:      "Number of detections per image",
			Buckets:   []float64{0, 10, 25, 50, 100, 150, 200, 300, 500},
		},
	)

	inFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "shelfwatch",
			Name:      "in_flight_requests",
			Help:      "Number of currently executing inference jobs",
		},
	)

	modelInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "shelfwatch",
			Name:      "model_info",
			Help:      "Model metadata",
		},
		[]string{"model_name", "weights_path", "runtime"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, inferenceLatency, detectionsPerImage, inFlight, modelInfo)
}

// RecordValidationRejection counts a request the gateway rejected before any
// job was submitted (bad content type, oversized payload).
func RecordValidationRejection() {
	requestsTotal.WithLabelValues(OutcomeValidationError).Inc()
}

// SetModelInfo publishes model metadata as a gauge set to 1.
func SetModelInfo(modelName, weightsPath, runtime string) {
	modelInfo.WithLabelValues(modelName, weightsPath, runtime).Set(1)
}
