package ports

import (
	"context"

	"github.com/lwchen/ragbench/internal/core/domain"
)

// Embedder builds vectors for documents and query text. A failed embedding
// is an absence, never a zero vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentStore is the single long-lived handle to the document database,
// passed explicitly to constructors.
type DocumentStore interface {
	FindByIDs(ctx context.Context, ids []string) ([]domain.Document, error)
	// TextSearch ranks documents by term relevance (logical OR of query
	// terms). Returns domain.ErrSearchUnavailable when the text index is
	// missing.
	TextSearch(ctx context.Context, query string, limit int) ([]domain.RetrievalResult, error)
	GetAllWithEmbeddings(ctx context.Context) ([]domain.Document, error)
	ListMissingEmbeddings(ctx context.Context) ([]domain.Document, error)
	UpdateEmbedding(ctx context.Context, docID string, embedding []float32) error
	// BulkInsert tolerates duplicate keys: it reports how many rows were
	// inserted and how many were skipped instead of aborting the batch.
	BulkInsert(ctx context.Context, docs []domain.Document) (inserted, skipped int, err error)
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int, error)
}

// DenseIndex is an immutable snapshot of the in-memory vector index.
type DenseIndex interface {
	// Search scores every indexed document against the query vector and
	// returns the topK best, descending by score, ties broken by insertion
	// order.
	Search(queryVector []float32, topK int) []domain.RetrievalResult
	Len() int
}

// DenseIndexProvider loads the index once per process and hands out the
// ready snapshot. Returns domain.ErrEmptyIndex when no document carries an
// embedding.
type DenseIndexProvider interface {
	Get(ctx context.Context) (DenseIndex, error)
}

// AnswerGenerator creates the final user-facing answer from a prompt.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// JudgmentProvider returns the raw verdict for a correctness classification
// request. The judge use case maps provider errors to Fail.
type JudgmentProvider interface {
	Judge(ctx context.Context, question, goldAnswer, generatedAnswer string) (string, error)
}

// MessageQueue carries evaluation-run jobs between the API and the worker.
type MessageQueue interface {
	PublishEvaluationRun(ctx context.Context, run domain.EvaluationRun) error
	SubscribeEvaluationRuns(ctx context.Context, handler func(context.Context, domain.EvaluationRun) error) error
}

// ReportStore persists evaluation reports and reads them back, including
// reports written by older versions of the pipeline.
type ReportStore interface {
	SaveReport(path string, report *domain.EvaluationReport) error
	LoadReport(path string) (*domain.EvaluationReport, error)
}
