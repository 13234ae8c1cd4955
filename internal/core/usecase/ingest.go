package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/lwchen/ragbench/internal/core/domain"
	"github.com/lwchen/ragbench/internal/core/ports"
)

var errEmptyContent = errors.New("document content is empty")

type IngestConfig struct {
	// EmbedBatchSize is how many documents go into one embedding call.
	EmbedBatchSize int
}

func (c IngestConfig) normalize() IngestConfig {
	if c.EmbedBatchSize <= 0 {
		c.EmbedBatchSize = 50
	}
	return c
}

// IngestResult summarizes one corpus load. Skipped counts duplicate keys
// tolerated during the bulk insert; EmbeddingFailures counts documents that
// went in without a vector.
type IngestResult struct {
	Loaded            int
	Inserted          int
	Skipped           int
	EmbeddingFailures int
}

// IngestService loads a corpus into the document store, embedding contents
// in batches. A failed embedding batch leaves those documents without a
// vector (absent, never zero-filled); they stay lexically searchable and
// can be backfilled later.
type IngestService struct {
	store    ports.DocumentStore
	embedder ports.Embedder
	cfg      IngestConfig
	logger   *slog.Logger
}

func NewIngestService(
	store ports.DocumentStore,
	embedder ports.Embedder,
	cfg IngestConfig,
	logger *slog.Logger,
) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		store:    store,
		embedder: embedder,
		cfg:      cfg.normalize(),
		logger:   logger,
	}
}

func (s *IngestService) IngestCorpus(
	ctx context.Context,
	docs []domain.Document,
	generateEmbeddings bool,
	clearExisting bool,
) (IngestResult, error) {
	result := IngestResult{Loaded: len(docs)}
	if len(docs) == 0 {
		return result, nil
	}

	if clearExisting {
		deleted, err := s.store.DeleteAll(ctx)
		if err != nil {
			return result, domain.WrapError(domain.ErrTemporary, "clear existing corpus", err)
		}
		s.logger.Info("corpus_cleared", "deleted", deleted)
	}

	if generateEmbeddings {
		result.EmbeddingFailures = s.embedAll(ctx, docs)
	}

	inserted, skipped, err := s.store.BulkInsert(ctx, docs)
	result.Inserted = inserted
	result.Skipped = skipped
	if err != nil {
		return result, err
	}

	s.logger.Info("corpus_ingested",
		"loaded", result.Loaded,
		"inserted", inserted,
		"skipped", skipped,
		"embedding_failures", result.EmbeddingFailures,
	)
	return result, nil
}

// AddDocument inserts a single ad-hoc document (for example text extracted
// from a PDF) and embeds it inline.
func (s *IngestService) AddDocument(ctx context.Context, content, source, originalID string) (domain.Document, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Document{}, domain.WrapError(domain.ErrInvalidInput, "add document", errEmptyContent)
	}

	doc := domain.Document{
		DocID:          uuid.NewString(),
		Content:        content,
		OriginalSource: source,
		OriginalID:     originalID,
	}
	if vec, err := s.embedder.EmbedQuery(ctx, content); err != nil {
		s.logger.Warn("document_embedding_failed", "doc_id", doc.DocID, "error", err)
	} else {
		doc.Embedding = vec
	}

	if _, _, err := s.store.BulkInsert(ctx, []domain.Document{doc}); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// BackfillEmbeddings embeds only documents whose embedding is still missing.
func (s *IngestService) BackfillEmbeddings(ctx context.Context) (int, error) {
	docs, err := s.store.ListMissingEmbeddings(ctx)
	if err != nil {
		return 0, domain.WrapError(domain.ErrTemporary, "list missing embeddings", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	updated := 0
	for start := 0; start < len(docs); start += s.cfg.EmbedBatchSize {
		end := min(start+s.cfg.EmbedBatchSize, len(docs))
		batch := docs[start:end]

		vectors, err := s.embedBatch(ctx, batch)
		if err != nil {
			s.logger.Warn("embedding_batch_failed", "offset", start, "size", len(batch), "error", err)
			continue
		}
		for i, vec := range vectors {
			if len(vec) == 0 {
				continue
			}
			if err := s.store.UpdateEmbedding(ctx, batch[i].DocID, vec); err != nil {
				s.logger.Warn("embedding_update_failed", "doc_id", batch[i].DocID, "error", err)
				continue
			}
			updated++
		}
	}
	return updated, nil
}

// embedAll fills embeddings in place and returns how many documents ended
// up without one.
func (s *IngestService) embedAll(ctx context.Context, docs []domain.Document) int {
	failures := 0
	for start := 0; start < len(docs); start += s.cfg.EmbedBatchSize {
		end := min(start+s.cfg.EmbedBatchSize, len(docs))
		batch := docs[start:end]

		vectors, err := s.embedBatch(ctx, batch)
		if err != nil {
			s.logger.Warn("embedding_batch_failed", "offset", start, "size", len(batch), "error", err)
			failures += len(batch)
			continue
		}
		for i := range batch {
			if i < len(vectors) && len(vectors[i]) > 0 {
				docs[start+i].Embedding = vectors[i]
			} else {
				failures++
			}
		}
	}
	return failures
}

func (s *IngestService) embedBatch(ctx context.Context, docs []domain.Document) ([][]float32, error) {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = strings.TrimSpace(strings.ReplaceAll(doc.Content, "\n", " "))
	}
	return s.embedder.EmbedBatch(ctx, texts)
}
