package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lwchen/ragbench/internal/core/domain"
	"github.com/lwchen/ragbench/internal/core/ports"
)

// JudgeService classifies generated answers against gold answers through an
// external judgment provider. Provider failures never abort a batch: the
// record degrades to Fail with an error marker, so the pass rate stays a
// conservative lower bound.
type JudgeService struct {
	provider ports.JudgmentProvider
	logger   *slog.Logger
}

func NewJudgeService(provider ports.JudgmentProvider, logger *slog.Logger) *JudgeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JudgeService{provider: provider, logger: logger}
}

// JudgeRecord returns the raw verdict and whether it counts as a pass. The
// pass check is a case-insensitive comparison against "Pass".
func (s *JudgeService) JudgeRecord(ctx context.Context, question, goldAnswer, generatedAnswer string) (string, bool) {
	verdict, err := s.provider.Judge(ctx, question, goldAnswer, generatedAnswer)
	if err != nil {
		s.logger.Warn("answer_judgment_failed", "error", err)
		return fmt.Sprintf("Error: %v", err), false
	}
	verdict = strings.TrimSpace(verdict)
	return verdict, strings.EqualFold(verdict, "pass")
}

// JudgeRecords enriches a record batch with judgments. Input records are
// not mutated; the returned copies carry is_pass and llm_judgment while all
// retrieval fields stay untouched.
func (s *JudgeService) JudgeRecords(ctx context.Context, records []domain.EvaluationRecord) []domain.EvaluationRecord {
	out := make([]domain.EvaluationRecord, len(records))
	copy(out, records)
	for i := range out {
		if err := ctx.Err(); err != nil {
			return out[:i]
		}
		verdict, pass := s.JudgeRecord(ctx, out[i].Question, out[i].GoldAnswer, out[i].GeneratedAnswer)
		p := pass
		out[i].LLMJudgment = verdict
		out[i].IsPass = &p
	}
	return out
}

// MergeJudgments joins judged records back onto a base batch by question id.
// Only the judgment fields transfer, which makes re-running the enrichment
// pass idempotent.
func MergeJudgments(base, judged []domain.EvaluationRecord) []domain.EvaluationRecord {
	byID := make(map[string]domain.EvaluationRecord, len(judged))
	for _, r := range judged {
		byID[r.QuestionID] = r
	}

	out := make([]domain.EvaluationRecord, len(base))
	copy(out, base)
	for i := range out {
		j, ok := byID[out[i].QuestionID]
		if !ok || j.IsPass == nil {
			continue
		}
		p := *j.IsPass
		out[i].IsPass = &p
		out[i].LLMJudgment = j.LLMJudgment
	}
	return out
}
