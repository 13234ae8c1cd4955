package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lwchen/ragbench/internal/config"
	"github.com/lwchen/ragbench/internal/observability/logging"
)

const usage = `usage: ragcli <command> [flags]

commands:
  ingest               load a corpus file into the document store
  add-doc              extract, chunk and store a single PDF or text file
  backfill-embeddings  embed documents whose embedding is missing
  run                  evaluate a labeled query file and write a report
  metrics              compute aggregate metrics from a report file
  judge                enrich a report with LLM answer judgments
  export               export a metrics file as an XLSX workbook
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	logger := logging.NewJSONLogger("ragcli", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "ingest":
		err = runIngest(ctx, cfg, logger, os.Args[2:])
	case "add-doc":
		err = runAddDoc(ctx, cfg, logger, os.Args[2:])
	case "backfill-embeddings":
		err = runBackfill(ctx, cfg, logger, os.Args[2:])
	case "run":
		err = runEvaluation(ctx, cfg, logger, os.Args[2:])
	case "metrics":
		err = runMetrics(cfg, os.Args[2:])
	case "judge":
		err = runJudge(ctx, cfg, logger, os.Args[2:])
	case "export":
		err = runExport(cfg, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ragcli %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ExitOnError)
}
