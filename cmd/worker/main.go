package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lwchen/ragbench/internal/bootstrap"
	"github.com/lwchen/ragbench/internal/config"
	"github.com/lwchen/ragbench/internal/core/domain"
	"github.com/lwchen/ragbench/internal/infrastructure/report/jsonfile"
	"github.com/lwchen/ragbench/internal/observability/logging"
	"github.com/lwchen/ragbench/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{WithQueue: true})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeEvaluationRuns(ctx, func(handlerCtx context.Context, run domain.EvaluationRun) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, 60*time.Minute)
		defer cancel()
		return executeRun(runCtx, app, workerMetrics, logger, run)
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}

func executeRun(
	ctx context.Context,
	app *bootstrap.App,
	workerMetrics *metrics.WorkerMetrics,
	logger *slog.Logger,
	run domain.EvaluationRun,
) error {
	workerMetrics.StartRun()
	start := time.Now()

	err := func() error {
		queries, err := jsonfile.LoadQueries(run.QueriesFile)
		if err != nil {
			return err
		}

		report, err := app.Evaluator.EvaluateBatch(ctx, queries, run.Mode, run.TopK)
		if report != nil {
			report.Metadata.RunID = run.RunID
			report.Metadata.QueriesFile = run.QueriesFile
		}
		if err != nil {
			return err
		}
		workerMetrics.AddQueriesEvaluated("worker", string(run.Mode), len(report.Results))

		if run.Judge {
			report.Results = app.Judge.JudgeRecords(ctx, report.Results)
		}

		return app.Reports.SaveReport(jsonfile.RunReportPath(app.Config.ReportDir, run.RunID), report)
	}()

	workerMetrics.FinishRun("worker", time.Since(start), err)
	if err != nil {
		logger.Error("evaluation_run_failed", "run_id", run.RunID, "error", err)
		return err
	}
	logger.Info("evaluation_run_completed", "run_id", run.RunID, "duration_s", time.Since(start).Seconds())
	return nil
}
