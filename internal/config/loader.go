package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds startup parameters for the service. Zero values mean
// "unspecified" and will be replaced by flag/env defaults in main. The file
// is read once at startup; there is no reload.
type Config struct {
	Addr             string  `json:"addr" yaml:"addr" toml:"addr"`
	WeightsPath      string  `json:"weights_path" yaml:"weights_path" toml:"weights_path"`
	ClassNamesPath   string  `json:"class_names_path" yaml:"class_names_path" toml:"class_names_path"`
	ModelName        string  `json:"model_name" yaml:"model_name" toml:"model_name"`
	ORTLibPath       string  `json:"ort_lib_path" yaml:"ort_lib_path" toml:"ort_lib_path"`
	InputSize        int     `json:"input_size" yaml:"input_size" toml:"input_size"`
	ConfThreshold    float64 `json:"conf_threshold" yaml:"conf_threshold" toml:"conf_threshold"`
	IoUThreshold     float64 `json:"iou_threshold" yaml:"iou_threshold" toml:"iou_threshold"`
	PoolSize         int     `json:"pool_size" yaml:"pool_size" toml:"pool_size"`
	AdmissionWaitMS  int     `json:"admission_wait_ms" yaml:"admission_wait_ms" toml:"admission_wait_ms"`
	RequestTimeoutMS int     `json:"request_timeout_ms" yaml:"request_timeout_ms" toml:"request_timeout_ms"`
	MaxUploadMB      int     `json:"max_upload_mb" yaml:"max_upload_mb" toml:"max_upload_mb"`
	LogLevel         string  `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORSEnabled      bool    `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
