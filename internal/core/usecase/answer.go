package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lwchen/ragbench/internal/core/domain"
	"github.com/lwchen/ragbench/internal/core/ports"
)

const (
	// NoContextAnswer is returned instead of calling the generator when
	// retrieval produced nothing.
	NoContextAnswer = "No relevant information was found for this question."
	// GenerationFailedAnswer stands in when the generation provider errors;
	// the failure degrades this one answer instead of aborting a batch.
	GenerationFailedAnswer = "Answer generation failed."
)

var errEmptyQuery = errors.New("query text is empty")

func errUnknownMode(mode domain.RetrievalMode) error {
	return fmt.Errorf("unknown retrieval mode %q", mode)
}

type AnswerConfig struct {
	// MaxContexts caps how many retrieved documents go into the prompt.
	MaxContexts int
}

func (c AnswerConfig) normalize() AnswerConfig {
	if c.MaxContexts <= 0 {
		c.MaxContexts = 5
	}
	return c
}

type AnswerService struct {
	retriever ports.Retriever
	generator ports.AnswerGenerator
	cfg       AnswerConfig
	logger    *slog.Logger
}

func NewAnswerService(
	retriever ports.Retriever,
	generator ports.AnswerGenerator,
	cfg AnswerConfig,
	logger *slog.Logger,
) *AnswerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerService{
		retriever: retriever,
		generator: generator,
		cfg:       cfg.normalize(),
		logger:    logger,
	}
}

func (s *AnswerService) Answer(
	ctx context.Context,
	question string,
	topK int,
	mode domain.RetrievalMode,
) (*domain.Answer, error) {
	contexts, err := s.retriever.Retrieve(ctx, question, topK, mode)
	if err != nil {
		return nil, err
	}
	if len(contexts) == 0 {
		return &domain.Answer{
			Text:     NoContextAnswer,
			Contexts: []domain.RetrievalResult{},
		}, nil
	}

	prompt := buildAnswerPrompt(question, contexts, s.cfg.MaxContexts)
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("answer_generation_failed", "error", err)
		return &domain.Answer{
			Text:     GenerationFailedAnswer,
			Contexts: contexts,
		}, nil
	}

	return &domain.Answer{
		Text:     strings.TrimSpace(text),
		Contexts: contexts,
	}, nil
}

func buildAnswerPrompt(question string, contexts []domain.RetrievalResult, maxContexts int) string {
	if maxContexts > 0 && len(contexts) > maxContexts {
		contexts = contexts[:maxContexts]
	}

	var b strings.Builder
	b.WriteString("You are a question answering assistant. Answer the user's question using only the reference passages below.\n")
	b.WriteString("If the passages do not contain enough information, reply that the question cannot be answered from the provided information. Do not invent facts.\n\n")
	b.WriteString("Reference passages:\n")
	for i, ctx := range contexts {
		source := ctx.OriginalSource
		if source == "" {
			source = "unknown"
		}
		fmt.Fprintf(&b, "[%d] (source: %s)\n%s\n\n", i+1, source, ctx.Content)
	}
	b.WriteString("Question:\n")
	b.WriteString(question)
	b.WriteString("\n\nProvide a complete and well-organized answer:")
	return b.String()
}
