package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lwchen/ragbench/internal/core/domain"
)

// RunManifest is a declarative description of one evaluation run, checked
// into the repo next to the datasets it references.
type RunManifest struct {
	QueriesFile string `yaml:"queries_file"`
	Mode        string `yaml:"mode"`
	TopK        int    `yaml:"top_k"`
	Judge       bool   `yaml:"judge"`
	OutputDir   string `yaml:"output_dir"`
}

func LoadManifest(path string) (RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunManifest{}, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var m RunManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return RunManifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if m.QueriesFile == "" {
		return RunManifest{}, fmt.Errorf("manifest %s: queries_file is required", path)
	}
	if _, err := domain.ParseRetrievalMode(m.Mode); err != nil {
		return RunManifest{}, fmt.Errorf("manifest %s: %w", path, err)
	}
	if m.Mode == "" {
		m.Mode = string(domain.ModeHybrid)
	}
	if m.TopK <= 0 {
		m.TopK = 5
	}
	if m.OutputDir == "" {
		m.OutputDir = "./reports"
	}
	return m, nil
}
