package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lwchen/ragbench/internal/core/domain"
)

// Store reads and writes evaluation reports as JSON files. Writes go through
// a temp file and rename so a crashed run never leaves a half-written
// report behind.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

// ResultsPath and friends produce the mode-suffixed default filenames, one
// set of files per retrieval mode in the same output directory.
func ResultsPath(dir string, mode domain.RetrievalMode) string {
	return filepath.Join(dir, fmt.Sprintf("rag_results_%s.json", mode))
}

func MetricsPath(dir string, mode domain.RetrievalMode) string {
	return filepath.Join(dir, fmt.Sprintf("evaluation_metrics_%s.json", mode))
}

func JudgmentsPath(dir string, mode domain.RetrievalMode) string {
	return filepath.Join(dir, fmt.Sprintf("answer_evaluation_%s.json", mode))
}

// RunReportPath keys a report by run id, used for queue-submitted runs that
// are fetched back over the API.
func RunReportPath(dir, runID string) string {
	return filepath.Join(dir, fmt.Sprintf("run_%s.json", runID))
}

func (s *Store) SaveReport(path string, report *domain.EvaluationReport) error {
	return writeJSON(path, report)
}

// LoadReport accepts both the canonical {metadata, results} envelope and the
// older bare-array format. Bare arrays get a synthesized metadata block so
// downstream passes see one shape.
func (s *Store) LoadReport(path string) (*domain.EvaluationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrNotFound, "load report", err)
		}
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var results []domain.EvaluationRecord
		if err := json.Unmarshal(data, &results); err != nil {
			return nil, fmt.Errorf("parse legacy report %s: %w", path, err)
		}
		return &domain.EvaluationReport{
			Metadata: domain.ReportMetadata{TotalQuestions: len(results)},
			Results:  results,
		}, nil
	}

	var report domain.EvaluationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &report, nil
}

func (s *Store) SaveMetrics(path string, report *domain.MetricsReport) error {
	return writeJSON(path, report)
}

func (s *Store) LoadMetrics(path string) (*domain.MetricsReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrNotFound, "load metrics", err)
		}
		return nil, fmt.Errorf("read metrics %s: %w", path, err)
	}

	var report domain.MetricsReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse metrics %s: %w", path, err)
	}
	return &report, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize report: %w", err)
	}
	return nil
}
