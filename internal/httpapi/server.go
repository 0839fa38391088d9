package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shelfwatchd/internal/serving"
	"shelfwatchd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Predict(ctx context.Context, image []byte, opts serving.PredictOptions) (*types.PredictResponse, error)
	Ready() bool
	Status() types.StatusResponse
	ModelName() string
	Runtime() string
}

// acceptedImageTypes is the upload whitelist. The type is sniffed from the
// payload, not trusted from headers.
var acceptedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON responses; detection arrays can be large
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsAllowedOrigins,
			AllowedMethods:   corsAllowedMethods,
			AllowedHeaders:   corsAllowedHeaders,
			AllowCredentials: true,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/predict", handlePredict(svc))
	r.Get("/health", handleHealth(svc))
	r.Get("/status", handleStatus(svc))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// handlePredict godoc
// @Summary  Detect products in a shelf photo
// @Accept   mpfd
// @Produce  json
// @Param    image      formData  file    true   "Shelf photo (JPEG, PNG or WebP)"
// @Param    confidence query     number  false  "Confidence threshold override (0.01-1.0)"
// @Success  200 {object} types.PredictResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  503 {object} types.ErrorResponse
// @Failure  500 {object} types.ErrorResponse
// @Router   /predict [post]
func handlePredict(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lvl := requestLogLevel(r)

		// Bound the body before touching it; oversized uploads fail the read
		// below and never reach the pool.
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		imgBytes, err := readUpload(r)
		if err != nil {
			serving.RecordValidationRejection()
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if ct := http.DetectContentType(imgBytes); !acceptedImageTypes[ct] {
			serving.RecordValidationRejection()
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unsupported image format %q; use JPEG, PNG or WebP", ct))
			return
		}

		opts := serving.PredictOptions{RequestID: middleware.GetReqID(r.Context())}
		if v := r.URL.Query().Get("confidence"); v != "" {
			f, err := strconv.ParseFloat(v, 32)
			if err != nil || f < 0.01 || f > 1.0 {
				serving.RecordValidationRejection()
				writeJSONError(w, http.StatusBadRequest, "confidence must be a number in [0.01, 1.0]")
				return
			}
			opts.ConfThreshold = float32(f)
		}

		// Join server base context with request context so shutdown cancels
		// the result wait too.
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		resp, err := svc.Predict(joinedCtx, imgBytes, opts)
		if err != nil {
			// Client disconnect or shutdown: nothing useful to write.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := statusForError(err)
			if status == http.StatusServiceUnavailable {
				IncrementBackpressure(backpressureReason(err))
			}
			writeJSONError(w, status, err.Error())
			logRequestEnd(r, lvl, status, time.Since(start), err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
		logRequestEnd(r, lvl, http.StatusOK, time.Since(start), nil)
	}
}

// readUpload extracts the image payload: multipart field "image", or a raw
// body when the request itself carries an image content type.
func readUpload(r *http.Request) ([]byte, error) {
	mediatype, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediatype == "multipart/form-data":
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, fmt.Errorf("invalid multipart upload: %w", err)
		}
		f, _, err := r.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("multipart field \"image\": %w", err)
		}
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		return b, nil
	case strings.HasPrefix(mediatype, "image/"):
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported Content-Type %q; use multipart/form-data with field \"image\"", mediatype)
	}
}

// statusForError maps well-known serving errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case serving.IsValidation(err), serving.IsDecode(err):
		return http.StatusBadRequest
	case serving.IsCapacity(err), serving.IsTimeout(err):
		return http.StatusServiceUnavailable
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

func backpressureReason(err error) string {
	switch {
	case serving.IsCapacity(err):
		return "capacity"
	case serving.IsTimeout(err):
		return "timeout"
	}
	return "unspecified"
}

// handleHealth godoc
// @Summary  Readiness probe: 200 once the model session pool is initialized
// @Produce  json
// @Success  200 {object} types.HealthResponse
// @Failure  503 {object} types.HealthResponse
// @Router   /health [get]
func handleHealth(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := types.HealthResponse{
			Status:      "healthy",
			ModelLoaded: true,
			Model:       svc.ModelName(),
			Runtime:     svc.Runtime(),
		}
		code := http.StatusOK
		if !svc.Ready() {
			resp.Status = "loading"
			resp.ModelLoaded = false
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// handleStatus godoc
// @Summary  Service snapshot: pool occupancy, totals, uptime
// @Produce  json
// @Success  200 {object} types.StatusResponse
// @Router   /status [get]
func handleStatus(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.Status()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		}
	}
}
