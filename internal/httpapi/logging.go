package httpapi

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("SHELFWATCH_LOG_LEVEL"))

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logRequestEnd emits one line per finished /predict request, gated on the
// effective level: errors at LevelError and up, successes at LevelInfo and up.
func logRequestEnd(r *http.Request, lvl LogLevel, status int, elapsed time.Duration, err error) {
	if err != nil {
		if lvl < LevelError {
			return
		}
		if zlog != nil {
			zlog.Error().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Dur("elapsed", elapsed).
				Err(err).
				Msg("predict failed")
			return
		}
		log.Printf("predict failed: method=%s path=%s status=%d elapsed=%s err=%v", r.Method, r.URL.Path, status, elapsed, err)
		return
	}
	if lvl < LevelInfo {
		return
	}
	if zlog != nil {
		zlog.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("predict ok")
		return
	}
	log.Printf("predict ok: method=%s path=%s status=%d elapsed=%s", r.Method, r.URL.Path, status, elapsed)
}
