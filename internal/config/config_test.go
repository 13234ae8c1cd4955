package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRetrievalDefaults(t *testing.T) {
	t.Setenv("TOP_K", "")
	t.Setenv("INITIAL_K", "")
	t.Setenv("RRF_K", "")
	t.Setenv("RETRIEVAL_MODE", "")

	cfg := Load()
	if cfg.TopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.TopK)
	}
	if cfg.InitialK != 20 {
		t.Fatalf("expected default initial k 20, got %d", cfg.InitialK)
	}
	if cfg.RRFK != 60 {
		t.Fatalf("expected default rrf k 60, got %d", cfg.RRFK)
	}
	if cfg.RetrievalMode != "hybrid" {
		t.Fatalf("expected default retrieval mode hybrid, got %q", cfg.RetrievalMode)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("TOP_K", "10")
	t.Setenv("INITIAL_K", "40")
	t.Setenv("RETRIEVAL_MODE", "dense")
	t.Setenv("OPENAI_RPS", "2.5")

	cfg := Load()
	if cfg.TopK != 10 {
		t.Fatalf("expected top k 10, got %d", cfg.TopK)
	}
	if cfg.InitialK != 40 {
		t.Fatalf("expected initial k 40, got %d", cfg.InitialK)
	}
	if cfg.RetrievalMode != "dense" {
		t.Fatalf("expected retrieval mode dense, got %q", cfg.RetrievalMode)
	}
	if cfg.OpenAIRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.OpenAIRPS)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("TOP_K", "not-a-number")
	t.Setenv("OPENAI_RPS", "fast")

	cfg := Load()
	if cfg.TopK != 5 {
		t.Fatalf("malformed int must fall back to default, got %d", cfg.TopK)
	}
	if cfg.OpenAIRPS != 0 {
		t.Fatalf("malformed float must fall back to default, got %v", cfg.OpenAIRPS)
	}
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
queries_file: queries.json
mode: dense
top_k: 10
judge: true
output_dir: /tmp/out
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.QueriesFile != "queries.json" || m.Mode != "dense" || m.TopK != 10 || !m.Judge || m.OutputDir != "/tmp/out" {
		t.Fatalf("unexpected manifest: %+v", m)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	path := writeManifest(t, "queries_file: queries.json\n")

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Mode != "hybrid" || m.TopK != 5 || m.OutputDir != "./reports" {
		t.Fatalf("unexpected defaults: %+v", m)
	}
}

func TestLoadManifestRejectsBadInput(t *testing.T) {
	if _, err := LoadManifest(writeManifest(t, "mode: dense\n")); err == nil {
		t.Fatalf("expected error for missing queries_file")
	}
	if _, err := LoadManifest(writeManifest(t, "queries_file: q.json\nmode: graph\n")); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
