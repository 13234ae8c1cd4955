package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lwchen/ragbench/internal/core/domain"
	"github.com/lwchen/ragbench/internal/core/ports"
)

type RetrievalConfig struct {
	// DefaultTopK applies when a caller passes topK <= 0.
	DefaultTopK int
	// InitialK is the per-signal retrieval width in hybrid mode, independent
	// of and usually larger than the final topK.
	InitialK int
	RRFK     int
}

func (c RetrievalConfig) normalize() RetrievalConfig {
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = 5
	}
	if c.InitialK <= 0 {
		c.InitialK = 20
	}
	if c.RRFK <= 0 {
		c.RRFK = defaultRRFK
	}
	return c
}

// RetrievalService selects the retrieval path per mode and normalizes the
// result shape. Dense-side failures (empty index, failed query embedding)
// degrade to an empty result set so one bad query cannot abort an
// evaluation run. A missing lexical index is a configuration error and is
// surfaced instead.
type RetrievalService struct {
	embedder ports.Embedder
	store    ports.DocumentStore
	indexes  ports.DenseIndexProvider
	cfg      RetrievalConfig
	logger   *slog.Logger
}

func NewRetrievalService(
	embedder ports.Embedder,
	store ports.DocumentStore,
	indexes ports.DenseIndexProvider,
	cfg RetrievalConfig,
	logger *slog.Logger,
) *RetrievalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrievalService{
		embedder: embedder,
		store:    store,
		indexes:  indexes,
		cfg:      cfg.normalize(),
		logger:   logger,
	}
}

func (s *RetrievalService) Retrieve(
	ctx context.Context,
	query string,
	topK int,
	mode domain.RetrievalMode,
) ([]domain.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve", errEmptyQuery)
	}
	if topK <= 0 {
		topK = s.cfg.DefaultTopK
	}

	switch mode {
	case domain.ModeDense:
		return s.denseSearch(ctx, query, topK)
	case domain.ModeLexical:
		return s.store.TextSearch(ctx, query, topK)
	case domain.ModeHybrid, "":
		denseResults, err := s.denseSearch(ctx, query, s.cfg.InitialK)
		if err != nil {
			return nil, err
		}
		lexicalResults, err := s.store.TextSearch(ctx, query, s.cfg.InitialK)
		if err != nil {
			return nil, err
		}
		fused := fuseRRF(denseResults, lexicalResults, s.cfg.RRFK)
		return trimResults(fused, topK), nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve", errUnknownMode(mode))
	}
}

func (s *RetrievalService) denseSearch(ctx context.Context, query string, topK int) ([]domain.RetrievalResult, error) {
	idx, err := s.indexes.Get(ctx)
	if err != nil {
		if domain.IsKind(err, domain.ErrEmptyIndex) {
			return nil, nil
		}
		return nil, err
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		s.logger.Warn("query_embedding_failed", "error", err)
		return nil, nil
	}
	if len(queryVector) == 0 {
		return nil, nil
	}
	return idx.Search(queryVector, topK), nil
}
