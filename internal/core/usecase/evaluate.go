package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/lwchen/ragbench/internal/core/domain"
	"github.com/lwchen/ragbench/internal/core/ports"
)

const contextPreviewLength = 200

// Evaluator runs a labeled query batch through the answer pipeline, one
// query at a time. A transient failure on one query degrades that record and
// the run continues; a missing text index or invalid input is a
// configuration error and aborts the run. Cancellation stops the loop
// before the next query.
type Evaluator struct {
	answerer ports.Answerer
	logger   *slog.Logger
}

func NewEvaluator(answerer ports.Answerer, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{answerer: answerer, logger: logger}
}

func (e *Evaluator) EvaluateBatch(
	ctx context.Context,
	queries []domain.Query,
	mode domain.RetrievalMode,
	topK int,
) (*domain.EvaluationReport, error) {
	runStart := time.Now()
	results := make([]domain.EvaluationRecord, 0, len(queries))

	for _, query := range queries {
		if err := ctx.Err(); err != nil {
			return e.buildReport(results, mode, topK, time.Since(runStart)), err
		}

		start := time.Now()
		answer, err := e.answerer.Answer(ctx, query.Question, topK, mode)
		elapsed := time.Since(start)
		if err != nil {
			if isFatalEvaluationError(err) {
				return e.buildReport(results, mode, topK, time.Since(runStart)), err
			}
			e.logger.Warn("query_evaluation_degraded",
				"question_id", query.QuestionID,
				"error", err,
			)
			answer = &domain.Answer{}
		}

		results = append(results, buildEvaluationRecord(query, answer, elapsed))
	}

	return e.buildReport(results, mode, topK, time.Since(runStart)), nil
}

// isFatalEvaluationError separates configuration errors from per-query
// failures. A store without a text index or an unknown mode would degrade
// every record the same way, so the run surfaces the error instead of
// producing an all-miss report.
func isFatalEvaluationError(err error) bool {
	return domain.IsKind(err, domain.ErrSearchUnavailable) ||
		domain.IsKind(err, domain.ErrInvalidInput)
}

func (e *Evaluator) buildReport(
	results []domain.EvaluationRecord,
	mode domain.RetrievalMode,
	topK int,
	total time.Duration,
) *domain.EvaluationReport {
	avgMS := 0.0
	if len(results) > 0 {
		avgMS = durationMS(total) / float64(len(results))
	}
	return &domain.EvaluationReport{
		Metadata: domain.ReportMetadata{
			TotalQuestions:    len(results),
			TopK:              topK,
			RetrievalMode:     mode,
			TotalTimeSeconds:  total.Seconds(),
			AvgResponseTimeMS: avgMS,
			Timestamp:         time.Now().UTC(),
		},
		Results: results,
	}
}

func buildEvaluationRecord(query domain.Query, answer *domain.Answer, elapsed time.Duration) domain.EvaluationRecord {
	retrievedIDs := answer.RetrievedDocIDs()
	hitCount, goldCount, isHit := HitStats(query.GoldDocIDs, retrievedIDs)

	previews := make([]domain.ContextPreview, 0, len(answer.Contexts))
	for _, ctx := range answer.Contexts {
		previews = append(previews, domain.ContextPreview{
			DocID:          ctx.DocID,
			Score:          ctx.Score,
			OriginalSource: ctx.OriginalSource,
			ContentPreview: truncateContent(ctx.Content, contextPreviewLength),
		})
	}

	return domain.EvaluationRecord{
		QuestionID:        query.QuestionID,
		Question:          query.Question,
		QuestionType:      query.QuestionType,
		SourceDataset:     query.SourceDataset,
		GoldAnswer:        query.GoldAnswer,
		GoldDocIDs:        query.GoldDocIDs,
		GeneratedAnswer:   answer.Text,
		RetrievedDocIDs:   retrievedIDs,
		RetrievedContexts: previews,
		HitCount:          hitCount,
		GoldCount:         goldCount,
		IsHit:             isHit,
		ResponseTimeMS:    durationMS(elapsed),
	}
}

// HitStats derives the hit fields of one record. Gold ids are deduplicated
// first, so hit_count can never exceed gold_count.
func HitStats(goldIDs, retrievedIDs []string) (hitCount, goldCount int, isHit bool) {
	gold := uniqueIDs(goldIDs)
	retrieved := make(map[string]struct{}, len(retrievedIDs))
	for _, id := range retrievedIDs {
		retrieved[id] = struct{}{}
	}

	for _, id := range gold {
		if _, ok := retrieved[id]; ok {
			hitCount++
		}
	}
	return hitCount, len(gold), hitCount > 0
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func truncateContent(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

func durationMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
