package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lwchen/ragbench/internal/config"
	"github.com/lwchen/ragbench/internal/core/ports"
	"github.com/lwchen/ragbench/internal/core/usecase"
	"github.com/lwchen/ragbench/internal/infrastructure/llm/openai"
	"github.com/lwchen/ragbench/internal/infrastructure/queue/nats"
	"github.com/lwchen/ragbench/internal/infrastructure/report/jsonfile"
	"github.com/lwchen/ragbench/internal/infrastructure/repository/postgres"
	"github.com/lwchen/ragbench/internal/infrastructure/resilience"
	"github.com/lwchen/ragbench/internal/infrastructure/vector/memory"
)

// App wires the whole pipeline once and hands the pieces to the binaries.
type App struct {
	Config config.Config

	Store     ports.DocumentStore
	Queue     ports.MessageQueue
	Reports   *jsonfile.Store
	Retriever *usecase.RetrievalService
	Answerer  *usecase.AnswerService
	Evaluator *usecase.Evaluator
	Judge     *usecase.JudgeService
	Ingest    *usecase.IngestService

	closeFn func()
}

// Options toggles the optional pieces so the CLI can come up without a
// NATS server.
type Options struct {
	WithQueue bool
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := postgres.NewDocumentRepository(db)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)
	llm := openai.New(openai.Config{
		APIKey:            cfg.OpenAIAPIKey,
		BaseURL:           cfg.OpenAIBaseURL,
		EmbedModel:        cfg.OpenAIEmbedModel,
		GenModel:          cfg.OpenAIGenModel,
		JudgeModel:        cfg.OpenAIJudgeModel,
		RequestsPerSecond: cfg.OpenAIRPS,
	}, executor)

	var queue *nats.Queue
	if opts.WithQueue {
		queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
	}

	indexes := memory.NewLoader(store, logger)
	retriever := usecase.NewRetrievalService(llm, store, indexes, usecase.RetrievalConfig{
		DefaultTopK: cfg.TopK,
		InitialK:    cfg.InitialK,
		RRFK:        cfg.RRFK,
	}, logger)
	answerer := usecase.NewAnswerService(retriever, llm, usecase.AnswerConfig{
		MaxContexts: cfg.MaxContexts,
	}, logger)
	evaluator := usecase.NewEvaluator(answerer, logger)
	judge := usecase.NewJudgeService(llm, logger)
	ingest := usecase.NewIngestService(store, llm, usecase.IngestConfig{
		EmbedBatchSize: cfg.EmbedBatchSize,
	}, logger)

	app := &App{
		Config:    cfg,
		Store:     store,
		Reports:   jsonfile.NewStore(),
		Retriever: retriever,
		Answerer:  answerer,
		Evaluator: evaluator,
		Judge:     judge,
		Ingest:    ingest,

		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
			_ = db.Close()
		},
	}
	if queue != nil {
		app.Queue = queue
	}
	return app, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
