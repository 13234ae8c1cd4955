package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/lwchen/ragbench/internal/adapters/http"
	"github.com/lwchen/ragbench/internal/bootstrap"
	"github.com/lwchen/ragbench/internal/config"
	"github.com/lwchen/ragbench/internal/infrastructure/report/jsonfile"
	"github.com/lwchen/ragbench/internal/observability/logging"
	"github.com/lwchen/ragbench/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{WithQueue: true})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics("api")
	reportPathFor := func(runID string) string {
		return jsonfile.RunReportPath(cfg.ReportDir, runID)
	}
	router := httpadapter.NewRouter(
		app.Retriever,
		app.Answerer,
		app.Queue,
		app.Reports,
		reportPathFor,
		serverMetrics,
		logger,
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
}
