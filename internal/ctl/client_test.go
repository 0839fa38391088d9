package ctl

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPredictURL(t *testing.T) {
	cfg := &Config{Server: "http://localhost:8080"}
	if got := cfg.predictURL(0); got != "http://localhost:8080/predict" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := cfg.predictURL(0.4); got != "http://localhost:8080/predict?confidence=0.4" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestMultipartImage(t *testing.T) {
	body, contentType, err := multipartImage("shelf.jpg", []byte("payload"))
	if err != nil {
		t.Fatalf("multipartImage: %v", err)
	}
	if contentType == "" || !bytes.Contains(body, []byte("payload")) {
		t.Fatalf("malformed multipart body")
	}
	if !bytes.Contains(body, []byte(`name="image"`)) {
		t.Fatal("expected image form field")
	}
}

func TestPredict_PostsMultipart(t *testing.T) {
	var gotField []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		f, _, err := r.FormFile("image")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotField, _ = io.ReadAll(f)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"detections":[],"count":0}`))
	}))
	defer srv.Close()

	imgPath := filepath.Join(t.TempDir(), "shelf.jpg")
	if err := os.WriteFile(imgPath, []byte("fake image bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{Server: srv.URL, Timeout: 5 * time.Second}
	body, status, err := cfg.predict(imgPath, 0)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !bytes.Contains(body, []byte(`"count":0`)) {
		t.Fatalf("unexpected body %s", body)
	}
	if string(gotField) != "fake image bytes" {
		t.Fatalf("server received %q", gotField)
	}
}

func TestPercentile(t *testing.T) {
	lat := []time.Duration{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if got := percentile(lat, 50); got != 50 {
		t.Fatalf("p50 = %v", got)
	}
	if got := percentile(lat, 90); got != 90 {
		t.Fatalf("p90 = %v", got)
	}
	if got := percentile(lat, 99); got != 100 {
		t.Fatalf("p99 = %v", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("empty percentile = %v", got)
	}
}

func TestBuildRootCmd_HasSubcommands(t *testing.T) {
	root := BuildRootCmd()
	want := map[string]bool{"health": false, "status": false, "predict": false, "bench": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("missing subcommand %s", name)
		}
	}
}
