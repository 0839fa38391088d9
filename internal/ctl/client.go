package ctl

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config carries the persistent flags shared by all subcommands.
type Config struct {
	Server  string
	Timeout time.Duration
}

func (c *Config) httpClient() *http.Client {
	return &http.Client{Timeout: c.Timeout}
}

// get performs a GET and returns body and status.
func (c *Config) get(path string) ([]byte, int, error) {
	resp, err := c.httpClient().Get(c.Server + path)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return b, resp.StatusCode, nil
}

// multipartImage builds a multipart/form-data body with the image under the
// "image" field, ready to POST to /predict.
func multipartImage(filename string, payload []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(payload); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// predictURL appends the optional confidence override.
func (c *Config) predictURL(confidence float64) string {
	u := c.Server + "/predict"
	if confidence > 0 {
		u += "?confidence=" + strconv.FormatFloat(confidence, 'f', -1, 64)
	}
	return u
}

// predict uploads an image file and returns the raw response body and status.
func (c *Config) predict(imagePath string, confidence float64) ([]byte, int, error) {
	payload, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, 0, fmt.Errorf("read image: %w", err)
	}
	body, contentType, err := multipartImage(imagePath, payload)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.httpClient().Post(c.predictURL(confidence), contentType, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return b, resp.StatusCode, nil
}
