package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"shelfwatchd/internal/serving"
	"shelfwatchd/pkg/types"
)

// mockService records calls and returns canned responses.
type mockService struct {
	ready      bool
	resp       *types.PredictResponse
	predictErr error

	calls    int
	gotImage []byte
	gotOpts  serving.PredictOptions
}

func (m *mockService) Predict(ctx context.Context, img []byte, opts serving.PredictOptions) (*types.PredictResponse, error) {
	m.calls++
	m.gotImage = append([]byte(nil), img...)
	m.gotOpts = opts
	if m.predictErr != nil {
		return nil, m.predictErr
	}
	return m.resp, nil
}

func (m *mockService) Ready() bool       { return m.ready }
func (m *mockService) ModelName() string { return "shelf-yolo" }
func (m *mockService) Runtime() string   { return "onnx-cpu" }
func (m *mockService) Status() types.StatusResponse {
	return types.StatusResponse{Model: "shelf-yolo", Runtime: "onnx-cpu", Ready: m.ready, PoolSize: 2}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, field string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "shelf.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(payload); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestPredict_MultipartHappyPath(t *testing.T) {
	svc := &mockService{ready: true, resp: &types.PredictResponse{
		Detections:  []types.Detection{{Class: "objects", Confidence: 0.9, BBox: [4]float64{1, 2, 3, 4}}},
		Count:       1,
		InferenceMS: 12.5,
		ImageSize:   types.ImageSize{Width: 32, Height: 16},
		Model:       "shelf-yolo",
		Runtime:     "onnx-cpu",
	}}
	r := NewMux(svc)

	img := pngBytes(t, 32, 16)
	body, ct := multipartBody(t, "image", img)
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp types.PredictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Detections) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Detections[0].Class != "objects" {
		t.Fatalf("unexpected class %q", resp.Detections[0].Class)
	}
	if svc.calls != 1 {
		t.Fatalf("expected one predict call, got %d", svc.calls)
	}
	if !bytes.Equal(svc.gotImage, img) {
		t.Fatal("service did not receive the uploaded bytes")
	}
	if svc.gotOpts.RequestID == "" {
		t.Fatal("expected request id to be propagated")
	}
}

func TestPredict_RawImageBody(t *testing.T) {
	svc := &mockService{ready: true, resp: &types.PredictResponse{Detections: []types.Detection{}}}
	r := NewMux(svc)

	img := pngBytes(t, 8, 8)
	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(img))
	req.Header.Set("Content-Type", "image/png")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.calls != 1 {
		t.Fatalf("expected one predict call, got %d", svc.calls)
	}
}

func TestPredict_EmptyDetectionsEncodesArray(t *testing.T) {
	svc := &mockService{ready: true, resp: &types.PredictResponse{Detections: []types.Detection{}}}
	r := NewMux(svc)

	body, ct := multipartBody(t, "image", pngBytes(t, 8, 8))
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"detections":[]`)) {
		t.Fatalf("expected empty detections array, got %s", w.Body.String())
	}
}

func TestPredict_ConfidenceOverride(t *testing.T) {
	svc := &mockService{ready: true, resp: &types.PredictResponse{Detections: []types.Detection{}}}
	r := NewMux(svc)

	body, ct := multipartBody(t, "image", pngBytes(t, 8, 8))
	req := httptest.NewRequest(http.MethodPost, "/predict?confidence=0.6", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := svc.gotOpts.ConfThreshold; got < 0.59 || got > 0.61 {
		t.Fatalf("confidence override not propagated, got %v", got)
	}
}

func TestHealth_GatesOnReadiness(t *testing.T) {
	svc := &mockService{ready: false}
	r := NewMux(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while loading, got %d", w.Code)
	}
	var h types.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if h.Status != "loading" || h.ModelLoaded {
		t.Fatalf("unexpected health payload: %+v", h)
	}

	svc.ready = true
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 once ready, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if h.Status != "healthy" || !h.ModelLoaded || h.Model != "shelf-yolo" {
		t.Fatalf("unexpected health payload: %+v", h)
	}
}

func TestReadyzAndHealthz(t *testing.T) {
	svc := &mockService{ready: false}
	r := NewMux(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz should always be 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz should be 503 while loading, got %d", w.Code)
	}

	svc.ready = true
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz should be 200 once ready, got %d", w.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	svc := &mockService{ready: true}
	r := NewMux(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var s types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if s.Model != "shelf-yolo" || s.PoolSize != 2 || !s.Ready {
		t.Fatalf("unexpected status payload: %+v", s)
	}
}
