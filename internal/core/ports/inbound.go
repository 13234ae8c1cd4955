package ports

import (
	"context"

	"github.com/lwchen/ragbench/internal/core/domain"
)

// Retriever is the inbound contract for standalone retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, mode domain.RetrievalMode) ([]domain.RetrievalResult, error)
}

// Answerer runs the full retrieve-then-generate flow.
type Answerer interface {
	Answer(ctx context.Context, question string, topK int, mode domain.RetrievalMode) (*domain.Answer, error)
}

// BatchEvaluator evaluates a labeled query batch and produces a report.
type BatchEvaluator interface {
	EvaluateBatch(ctx context.Context, queries []domain.Query, mode domain.RetrievalMode, topK int) (*domain.EvaluationReport, error)
}
