package e2e

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"shelfwatchd/internal/engine"
	"shelfwatchd/internal/httpapi"
	"shelfwatchd/internal/serving"
	"shelfwatchd/internal/vision"
)

const inputSize = 64

// stubRunner stands in for an ONNX session and returns a fixed raw output.
type stubRunner struct {
	out   []float32
	delay time.Duration
}

func (s *stubRunner) Run(input []float32) ([]float32, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.out, nil
}

func (s *stubRunner) Close() error { return nil }

func stubFactory(out []float32, delay time.Duration) engine.Factory {
	return func() (engine.Runner, error) {
		return &stubRunner{out: out, delay: delay}, nil
	}
}

// rawWithCandidate builds a single-class output holding one candidate box at
// anchor 0 in model-input coordinates.
func rawWithCandidate(cx, cy, w, h, conf float32) []float32 {
	n := vision.AnchorCount(inputSize)
	raw := make([]float32, 5*n)
	raw[0*n] = cx
	raw[1*n] = cy
	raw[2*n] = w
	raw[3*n] = h
	raw[4*n] = conf
	return raw
}

func newTestServer(t *testing.T, cfg serving.ServiceConfig, factory engine.Factory) *httptest.Server {
	t.Helper()
	if cfg.ModelName == "" {
		cfg.ModelName = "shelf-yolo"
	}
	if cfg.Classes == nil {
		cfg.Classes = []string{"product"}
	}
	cfg.InputSize = inputSize
	svc, err := serving.New(cfg, factory, zerolog.Nop())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	t.Cleanup(svc.Close)
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	return srv
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func postImage(t *testing.T, url string, img []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "shelf.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(img); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	resp, err := http.Post(url+"/predict", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post predict: %v", err)
	}
	return resp
}
