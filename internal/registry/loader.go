// Package registry resolves the model artifact the process serves: the
// weights file on disk and the class-name list. Resolution happens once at
// startup; any failure is fatal (the service never starts without a model).
package registry

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultClass is the single class of the SKU-110K shelf dataset the model
// was trained on, used when no class file is supplied.
const DefaultClass = "objects"

// Artifact is the resolved, read-only model description.
type Artifact struct {
	ModelName   string
	WeightsPath string
	Classes     []string
}

// Resolve validates the weights path and loads class names. weightsPath may
// start with '~'. classFile is optional; when empty the artifact carries the
// single default class.
func Resolve(weightsPath, classFile, modelName string) (Artifact, error) {
	base, err := expandHome(weightsPath)
	if err != nil {
		return Artifact{}, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return Artifact{}, fmt.Errorf("abs path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Artifact{}, fmt.Errorf("model weights not found at %q: %w", abs, err)
	}
	if info.IsDir() {
		return Artifact{}, fmt.Errorf("weights path %q is a directory", abs)
	}
	if !strings.EqualFold(filepath.Ext(abs), ".onnx") {
		return Artifact{}, fmt.Errorf("weights file %q is not an .onnx artifact", abs)
	}

	classes := []string{DefaultClass}
	if classFile != "" {
		classes, err = loadClassFile(classFile)
		if err != nil {
			return Artifact{}, err
		}
	}
	if modelName == "" {
		modelName = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	return Artifact{ModelName: modelName, WeightsPath: abs, Classes: classes}, nil
}

// loadClassFile reads one class name per line; blank lines are skipped.
func loadClassFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open class file: %w", err)
	}
	defer f.Close()
	var classes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			classes = append(classes, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read class file: %w", err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("class file %q contains no class names", path)
	}
	return classes, nil
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty weights path")
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
