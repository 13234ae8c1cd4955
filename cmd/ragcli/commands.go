package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lwchen/ragbench/internal/bootstrap"
	"github.com/lwchen/ragbench/internal/config"
	"github.com/lwchen/ragbench/internal/core/domain"
	"github.com/lwchen/ragbench/internal/core/usecase"
	"github.com/lwchen/ragbench/internal/infrastructure/chunking"
	"github.com/lwchen/ragbench/internal/infrastructure/extractor/pdftext"
	"github.com/lwchen/ragbench/internal/infrastructure/extractor/plaintext"
	"github.com/lwchen/ragbench/internal/infrastructure/report/excel"
	"github.com/lwchen/ragbench/internal/infrastructure/report/jsonfile"
)

func runIngest(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := newFlagSet("ingest")
	corpusFile := fs.String("corpus", "corpus.json", "corpus JSON file")
	embed := fs.Bool("embed", true, "generate embeddings during ingestion")
	clear := fs.Bool("clear", false, "delete existing documents first")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer app.Close()

	docs, err := jsonfile.LoadCorpus(*corpusFile)
	if err != nil {
		return err
	}

	result, err := app.Ingest.IngestCorpus(ctx, docs, *embed, *clear)
	if err != nil {
		return err
	}
	fmt.Printf("loaded %d documents: %d inserted, %d skipped, %d embedding failures\n",
		result.Loaded, result.Inserted, result.Skipped, result.EmbeddingFailures)
	return nil
}

func runAddDoc(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := newFlagSet("add-doc")
	source := fs.String("source", "", "source dataset label (defaults to the file name)")
	chunkSize := fs.Int("chunk-size", 1000, "chunk size in runes")
	overlap := fs.Int("overlap", 200, "chunk overlap in runes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("add-doc expects exactly one file argument")
	}
	path := fs.Arg(0)

	var text string
	var err error
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err = pdftext.NewExtractor().Extract(path)
	} else {
		text, err = plaintext.NewExtractor().Extract(path)
	}
	if err != nil {
		return err
	}

	label := *source
	if label == "" {
		label = filepath.Base(path)
	}

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer app.Close()

	chunks := chunking.NewSplitter(*chunkSize, *overlap).Split(text)
	for i, chunk := range chunks {
		originalID := fmt.Sprintf("%s#%d", filepath.Base(path), i)
		if _, err := app.Ingest.AddDocument(ctx, chunk, label, originalID); err != nil {
			return fmt.Errorf("add chunk %d: %w", i, err)
		}
	}
	fmt.Printf("added %d chunks from %s\n", len(chunks), path)
	return nil
}

func runBackfill(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := newFlagSet("backfill-embeddings")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer app.Close()

	updated, err := app.Ingest.BackfillEmbeddings(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("backfilled %d embeddings\n", updated)
	return nil
}

func runEvaluation(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := newFlagSet("run")
	manifestFile := fs.String("manifest", "", "YAML run manifest (overrides the other flags)")
	queriesFile := fs.String("queries", "queries.json", "labeled query JSON file")
	modeFlag := fs.String("mode", cfg.RetrievalMode, "retrieval mode: dense, lexical or hybrid")
	topK := fs.Int("top-k", cfg.TopK, "contexts per query")
	judge := fs.Bool("judge", false, "run the LLM judgment pass after evaluation")
	outputDir := fs.String("out", cfg.ReportDir, "report output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *manifestFile != "" {
		m, err := config.LoadManifest(*manifestFile)
		if err != nil {
			return err
		}
		*queriesFile = m.QueriesFile
		*modeFlag = m.Mode
		*topK = m.TopK
		*judge = m.Judge
		*outputDir = m.OutputDir
	}

	mode, err := domain.ParseRetrievalMode(*modeFlag)
	if err != nil {
		return err
	}

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer app.Close()

	queries, err := jsonfile.LoadQueries(*queriesFile)
	if err != nil {
		return err
	}

	report, err := app.Evaluator.EvaluateBatch(ctx, queries, mode, *topK)
	if report != nil {
		report.Metadata.RunID = uuid.NewString()
		report.Metadata.QueriesFile = *queriesFile
	}
	if err != nil {
		return err
	}

	if *judge {
		report.Results = app.Judge.JudgeRecords(ctx, report.Results)
	}

	path := jsonfile.ResultsPath(*outputDir, mode)
	if err := app.Reports.SaveReport(path, report); err != nil {
		return err
	}
	fmt.Printf("evaluated %d queries in %.1fs, report written to %s\n",
		report.Metadata.TotalQuestions, report.Metadata.TotalTimeSeconds, path)
	return nil
}

func runMetrics(cfg config.Config, args []string) error {
	fs := newFlagSet("metrics")
	reportFile := fs.String("report", "", "evaluation report file")
	modeFlag := fs.String("mode", cfg.RetrievalMode, "mode used for default file names")
	outputDir := fs.String("out", cfg.ReportDir, "output directory")
	details := fs.Bool("details", true, "include per-question detail rows")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mode, err := domain.ParseRetrievalMode(*modeFlag)
	if err != nil {
		return err
	}
	if *reportFile == "" {
		*reportFile = jsonfile.ResultsPath(*outputDir, mode)
	}

	store := jsonfile.NewStore()
	report, err := store.LoadReport(*reportFile)
	if err != nil {
		return err
	}

	metricsReport := usecase.BuildMetricsReport(report.Results)
	if !*details {
		metricsReport.Details = nil
	}

	path := jsonfile.MetricsPath(*outputDir, mode)
	if err := store.SaveMetrics(path, metricsReport); err != nil {
		return err
	}

	s := metricsReport.Summary
	fmt.Printf("questions=%d hit_rate=%.4f partial_hit_rate=%.4f mrr=%.4f\n",
		s.TotalQuestions, s.HitRate, s.PartialHitRate, s.MRR)
	if s.LLMPassRate != nil {
		fmt.Printf("llm_pass_rate=%.4f\n", *s.LLMPassRate)
	}
	fmt.Printf("metrics written to %s\n", path)
	return nil
}

func runJudge(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := newFlagSet("judge")
	reportFile := fs.String("report", "", "evaluation report file")
	modeFlag := fs.String("mode", cfg.RetrievalMode, "mode used for default file names")
	outputDir := fs.String("out", cfg.ReportDir, "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mode, err := domain.ParseRetrievalMode(*modeFlag)
	if err != nil {
		return err
	}
	if *reportFile == "" {
		*reportFile = jsonfile.ResultsPath(*outputDir, mode)
	}

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.Reports.LoadReport(*reportFile)
	if err != nil {
		return err
	}

	judged := app.Judge.JudgeRecords(ctx, report.Results)
	report.Results = usecase.MergeJudgments(report.Results, judged)

	path := jsonfile.JudgmentsPath(*outputDir, mode)
	if err := app.Reports.SaveReport(path, report); err != nil {
		return err
	}

	summary := usecase.Aggregate(report.Results)
	if summary.LLMPassRate != nil {
		fmt.Printf("judged %d records, pass_rate=%.4f\n", len(judged), *summary.LLMPassRate)
	}
	fmt.Printf("judgments written to %s\n", path)
	return nil
}

func runExport(cfg config.Config, args []string) error {
	fs := newFlagSet("export")
	metricsFile := fs.String("metrics", "", "metrics JSON file")
	modeFlag := fs.String("mode", cfg.RetrievalMode, "mode used for default file names")
	outputFile := fs.String("xlsx", "", "output XLSX file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mode, err := domain.ParseRetrievalMode(*modeFlag)
	if err != nil {
		return err
	}
	if *metricsFile == "" {
		*metricsFile = jsonfile.MetricsPath(cfg.ReportDir, mode)
	}
	if *outputFile == "" {
		*outputFile = fmt.Sprintf("evaluation_metrics_%s.xlsx", mode)
	}

	store := jsonfile.NewStore()
	metricsReport, err := store.LoadMetrics(*metricsFile)
	if err != nil {
		return err
	}

	if err := excel.NewExporter().Export(*outputFile, metricsReport); err != nil {
		return err
	}
	fmt.Printf("workbook written to %s\n", *outputFile)
	return nil
}
