package types

// Detection is a single detected product box in original-image pixel
// coordinates (x1, y1, x2, y2).
type Detection struct {
	// Class name of the detected object.
	// example: objects
	Class string `json:"class" example:"objects"`
	// Confidence score in [0,1].
	// example: 0.93
	Confidence float64 `json:"confidence" example:"0.93"`
	// Bounding box [x1, y1, x2, y2] in original image pixels.
	BBox [4]float64 `json:"bbox"`
}

// ImageSize describes the dimensions of the uploaded image.
type ImageSize struct {
	// example: 1024
	Width int `json:"width" example:"1024"`
	// example: 768
	Height int `json:"height" example:"768"`
}

// PredictResponse is returned by POST /predict.
type PredictResponse struct {
	// Detections sorted by confidence descending.
	Detections []Detection `json:"detections"`
	// Number of detections.
	// example: 42
	Count int `json:"count" example:"42"`
	// Model execution latency in milliseconds (preprocess + run + postprocess).
	// example: 87.4
	InferenceMS float64 `json:"inference_ms" example:"87.4"`
	// Original image dimensions.
	ImageSize ImageSize `json:"image_size"`
	// Model name served by this process.
	// example: yolo11l
	Model string `json:"model" example:"yolo11l"`
	// Inference runtime identifier.
	// example: onnx-cpu
	Runtime string `json:"runtime" example:"onnx-cpu"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: could not decode image
	Error string `json:"error" example:"could not decode image"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// example: true
	ModelLoaded bool `json:"model_loaded" example:"true"`
	// example: yolo11l
	Model string `json:"model" example:"yolo11l"`
	// example: onnx-cpu
	Runtime string `json:"runtime" example:"onnx-cpu"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Model name served by this process.
	// example: yolo11l
	Model string `json:"model" example:"yolo11l"`
	// Absolute path of the loaded weights artifact.
	WeightsPath string `json:"weights_path,omitempty"`
	// Inference runtime identifier.
	// example: onnx-cpu
	Runtime string `json:"runtime" example:"onnx-cpu"`
	// Whether the model session pool finished initialization.
	Ready bool `json:"ready"`
	// Number of worker slots.
	// example: 4
	PoolSize int `json:"pool_size" example:"4"`
	// Jobs currently executing in the pool.
	// example: 1
	InFlight int `json:"in_flight" example:"1"`
	// Total requests served, by outcome.
	RequestsTotal map[string]uint64 `json:"requests_total,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
