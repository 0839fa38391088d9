package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"shelfwatchd/internal/config"
	"shelfwatchd/internal/engine"
	"shelfwatchd/internal/httpapi"
	"shelfwatchd/internal/registry"
	"shelfwatchd/internal/serving"
)

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func main() {
	// Flags with environment variable defaults
	cfgPath := flag.String("config", envStr("SHELFWATCH_CONFIG", ""), "Optional config file (.yaml/.json/.toml); explicit flags override it")
	addr := flag.String("addr", envStr("SHELFWATCH_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	weights := flag.String("weights", envStr("SHELFWATCH_WEIGHTS", "models/best.onnx"), "Path to the ONNX detection weights")
	classNames := flag.String("class-names", envStr("SHELFWATCH_CLASS_NAMES", ""), "Optional newline-separated class name file")
	modelName := flag.String("model-name", envStr("SHELFWATCH_MODEL_NAME", ""), "Model name reported in responses (default: weights basename)")
	ortLib := flag.String("ort-lib", envStr("SHELFWATCH_ORT_LIB", ""), "Path to the onnxruntime shared library (empty uses the platform default)")
	inputSize := flag.Int("input-size", envInt("SHELFWATCH_INPUT_SIZE", 640), "Square model input size in pixels")
	confThreshold := flag.Float64("conf", envFloat("SHELFWATCH_CONF", 0.25), "Confidence threshold")
	iouThreshold := flag.Float64("iou", envFloat("SHELFWATCH_IOU", 0.45), "IoU threshold for NMS")
	poolSize := flag.Int("pool-size", envInt("SHELFWATCH_POOL_SIZE", 0), "Worker pool size (0 = one per CPU core)")
	admissionWaitMS := flag.Int("admission-wait-ms", envInt("SHELFWATCH_ADMISSION_WAIT_MS", 250), "How long a request waits for a free worker before 503")
	requestTimeoutMS := flag.Int("request-timeout-ms", envInt("SHELFWATCH_REQUEST_TIMEOUT_MS", 10000), "Per-request inference deadline")
	maxUploadMB := flag.Int("max-upload-mb", envInt("SHELFWATCH_MAX_UPLOAD_MB", 10), "Maximum upload size in MiB")
	logLevel := flag.String("log-level", envStr("SHELFWATCH_LOG_LEVEL", "info"), "Log level: debug, info, warn, error, off")
	corsEnabled := flag.Bool("cors", false, "Enable permissive CORS for browser clients")
	warmup := flag.Bool("warmup", true, "Run one dummy inference per worker before serving")
	flag.Parse()

	cfg := config.Config{}
	if *cfgPath != "" {
		c, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("failed to load config %s: %v", *cfgPath, err)
		}
		cfg = c
	}
	// Explicitly set flags (and flag/env defaults for fields the file leaves
	// empty) take precedence over file values.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["addr"] || cfg.Addr == "" {
		cfg.Addr = *addr
	}
	if set["weights"] || cfg.WeightsPath == "" {
		cfg.WeightsPath = *weights
	}
	if set["class-names"] || cfg.ClassNamesPath == "" {
		cfg.ClassNamesPath = *classNames
	}
	if set["model-name"] || cfg.ModelName == "" {
		cfg.ModelName = *modelName
	}
	if set["ort-lib"] || cfg.ORTLibPath == "" {
		cfg.ORTLibPath = *ortLib
	}
	if set["input-size"] || cfg.InputSize == 0 {
		cfg.InputSize = *inputSize
	}
	if set["conf"] || cfg.ConfThreshold == 0 {
		cfg.ConfThreshold = *confThreshold
	}
	if set["iou"] || cfg.IoUThreshold == 0 {
		cfg.IoUThreshold = *iouThreshold
	}
	if set["pool-size"] || cfg.PoolSize == 0 {
		cfg.PoolSize = *poolSize
	}
	if set["admission-wait-ms"] || cfg.AdmissionWaitMS == 0 {
		cfg.AdmissionWaitMS = *admissionWaitMS
	}
	if set["request-timeout-ms"] || cfg.RequestTimeoutMS == 0 {
		cfg.RequestTimeoutMS = *requestTimeoutMS
	}
	if set["max-upload-mb"] || cfg.MaxUploadMB == 0 {
		cfg.MaxUploadMB = *maxUploadMB
	}
	if set["log-level"] || cfg.LogLevel == "" {
		cfg.LogLevel = *logLevel
	}
	if set["cors"] {
		cfg.CORSEnabled = *corsEnabled
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "shelfwatchd").Logger().Level(level)
	httpapi.SetLogger(logger)

	art, err := registry.Resolve(cfg.WeightsPath, cfg.ClassNamesPath, cfg.ModelName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve model artifact")
	}

	if err := engine.Init(cfg.ORTLibPath); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize onnxruntime")
	}
	defer engine.Destroy()

	factory := engine.NewFactory(engine.SessionConfig{
		WeightsPath: art.WeightsPath,
		InputSize:   cfg.InputSize,
		NumClasses:  len(art.Classes),
	})

	svc, err := serving.New(serving.ServiceConfig{
		ModelName:      art.ModelName,
		WeightsPath:    art.WeightsPath,
		Classes:        art.Classes,
		InputSize:      cfg.InputSize,
		ConfThreshold:  float32(cfg.ConfThreshold),
		IoUThreshold:   float32(cfg.IoUThreshold),
		PoolSize:       cfg.PoolSize,
		AdmissionWait:  time.Duration(cfg.AdmissionWaitMS) * time.Millisecond,
		RequestTimeout: time.Duration(cfg.RequestTimeoutMS) * time.Millisecond,
		Warmup:         *warmup,
	}, factory, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build inference service")
	}
	defer svc.Close()

	httpapi.SetMaxUploadBytes(int64(cfg.MaxUploadMB) << 20)
	if cfg.CORSEnabled {
		httpapi.SetCORSOptions(true,
			[]string{"*"},
			[]string{http.MethodGet, http.MethodPost, http.MethodOptions},
			[]string{"*"})
	}
	baseCtx, baseCancel := context.WithCancel(context.Background())
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(svc)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", cfg.Addr).
			Str("model", art.ModelName).
			Str("weights", art.WeightsPath).
			Int("input_size", cfg.InputSize).
			Msg("shelfwatchd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	baseCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}
