package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/lwchen/ragbench/internal/core/domain"
)

func TestIngestCorpusEmbedsAndInserts(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{queryVector: []float32{0.1, 0.2}}
	svc := NewIngestService(store, embedder, IngestConfig{EmbedBatchSize: 2}, discardLogger())

	docs := []domain.Document{
		{DocID: "a", Content: "one"},
		{DocID: "b", Content: "two"},
		{DocID: "c", Content: "three"},
	}
	result, err := svc.IngestCorpus(context.Background(), docs, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Loaded != 3 || result.Inserted != 3 || result.EmbeddingFailures != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	for _, d := range docs {
		if d.Embedding == nil {
			t.Fatalf("document %s missing embedding", d.DocID)
		}
	}
}

func TestIngestCorpusEmbeddingFailureDegrades(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{batchErr: errors.New("provider down")}
	svc := NewIngestService(store, embedder, IngestConfig{}, discardLogger())

	docs := []domain.Document{{DocID: "a", Content: "one"}, {DocID: "b", Content: "two"}}
	result, err := svc.IngestCorpus(context.Background(), docs, true, false)
	if err != nil {
		t.Fatalf("embedding failure must not abort ingestion: %v", err)
	}
	if result.Inserted != 2 {
		t.Fatalf("documents must still be inserted without vectors, got %+v", result)
	}
	if result.EmbeddingFailures != 2 {
		t.Fatalf("expected 2 embedding failures, got %d", result.EmbeddingFailures)
	}
	for _, d := range docs {
		if d.Embedding != nil {
			t.Fatalf("failed embedding must stay absent, not zero-filled")
		}
	}
}

func TestIngestCorpusSkipsEmbeddingWhenDisabled(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{queryVector: []float32{1}}
	svc := NewIngestService(store, embedder, IngestConfig{}, discardLogger())

	docs := []domain.Document{{DocID: "a", Content: "one"}}
	if _, err := svc.IngestCorpus(context.Background(), docs, false, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs[0].Embedding != nil {
		t.Fatalf("embedding must not be generated when disabled")
	}
}

func TestAddDocumentRejectsEmptyContent(t *testing.T) {
	svc := NewIngestService(&fakeStore{}, &fakeEmbedder{}, IngestConfig{}, discardLogger())

	_, err := svc.AddDocument(context.Background(), "   \n", "pdf", "file.pdf")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestAddDocumentAssignsIDAndEmbeds(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{queryVector: []float32{0.5}}
	svc := NewIngestService(store, embedder, IngestConfig{}, discardLogger())

	doc, err := svc.AddDocument(context.Background(), "  extracted text  ", "pdf", "report.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.DocID == "" {
		t.Fatalf("expected a generated document id")
	}
	if doc.Content != "extracted text" {
		t.Fatalf("expected trimmed content, got %q", doc.Content)
	}
	if doc.Embedding == nil {
		t.Fatalf("expected inline embedding")
	}
	if store.inserted != 1 {
		t.Fatalf("expected one insert, got %d", store.inserted)
	}
}

func TestAddDocumentSurvivesEmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{queryErr: errors.New("provider down")}
	svc := NewIngestService(&fakeStore{}, embedder, IngestConfig{}, discardLogger())

	doc, err := svc.AddDocument(context.Background(), "text", "pdf", "f.pdf")
	if err != nil {
		t.Fatalf("embedding failure must degrade, not error: %v", err)
	}
	if doc.Embedding != nil {
		t.Fatalf("embedding must stay absent on failure")
	}
}

func TestBackfillEmbeddings(t *testing.T) {
	store := &fakeStore{missing: []domain.Document{
		{DocID: "a", Content: "one"},
		{DocID: "b", Content: "two"},
	}}
	embedder := &fakeEmbedder{queryVector: []float32{0.3}}
	svc := NewIngestService(store, embedder, IngestConfig{}, discardLogger())

	updated, err := svc.BackfillEmbeddings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 updates, got %d", updated)
	}
	if len(store.updated) != 2 {
		t.Fatalf("expected both documents updated, got %v", store.updated)
	}
}

func TestBackfillEmbeddingsNothingMissing(t *testing.T) {
	embedder := &fakeEmbedder{batchErr: errors.New("must not be called")}
	svc := NewIngestService(&fakeStore{}, embedder, IngestConfig{}, discardLogger())

	updated, err := svc.BackfillEmbeddings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected no updates, got %d", updated)
	}
}
