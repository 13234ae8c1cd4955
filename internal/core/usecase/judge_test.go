package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lwchen/ragbench/internal/core/domain"
)

type fakeJudge struct {
	verdicts map[string]string
	err      error
	calls    int
}

func (f *fakeJudge) Judge(ctx context.Context, question, goldAnswer, generatedAnswer string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.verdicts[question], nil
}

func TestJudgeRecordVerdicts(t *testing.T) {
	judge := &fakeJudge{verdicts: map[string]string{
		"exact":      "Pass",
		"lowercase":  "pass",
		"padded":     "  Pass\n",
		"fail":       "Fail",
		"freeform":   "Partially correct",
		"substrings": "Pass with caveats",
	}}
	svc := NewJudgeService(judge, discardLogger())

	cases := []struct {
		question string
		wantPass bool
	}{
		{"exact", true},
		{"lowercase", true},
		{"padded", true},
		{"fail", false},
		{"freeform", false},
		{"substrings", false},
	}
	for _, tc := range cases {
		_, pass := svc.JudgeRecord(context.Background(), tc.question, "gold", "generated")
		if pass != tc.wantPass {
			t.Fatalf("question %q: expected pass=%v", tc.question, tc.wantPass)
		}
	}
}

func TestJudgeRecordProviderFailure(t *testing.T) {
	judge := &fakeJudge{err: errors.New("rate limited")}
	svc := NewJudgeService(judge, discardLogger())

	verdict, pass := svc.JudgeRecord(context.Background(), "q", "gold", "generated")
	if pass {
		t.Fatalf("provider failure must count as fail")
	}
	if !strings.HasPrefix(verdict, "Error:") {
		t.Fatalf("expected error marker verdict, got %q", verdict)
	}
}

func TestJudgeRecordsDoesNotMutateInput(t *testing.T) {
	judge := &fakeJudge{verdicts: map[string]string{"q1": "Pass"}}
	svc := NewJudgeService(judge, discardLogger())

	in := []domain.EvaluationRecord{{QuestionID: "1", Question: "q1", GeneratedAnswer: "a"}}
	out := svc.JudgeRecords(context.Background(), in)

	if in[0].IsPass != nil || in[0].LLMJudgment != "" {
		t.Fatalf("input slice was mutated: %+v", in[0])
	}
	if out[0].IsPass == nil || !*out[0].IsPass || out[0].LLMJudgment != "Pass" {
		t.Fatalf("output record missing judgment: %+v", out[0])
	}
	if out[0].GeneratedAnswer != "a" {
		t.Fatalf("non-judgment fields must be preserved")
	}
}

func TestJudgeRecordsStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	judge := &fakeJudge{verdicts: map[string]string{}}
	svc := NewJudgeService(judge, discardLogger())

	out := svc.JudgeRecords(ctx, []domain.EvaluationRecord{{QuestionID: "1"}, {QuestionID: "2"}})
	if len(out) != 0 {
		t.Fatalf("expected no judged records after cancellation, got %d", len(out))
	}
	if judge.calls != 0 {
		t.Fatalf("no provider call should happen after cancellation")
	}
}

func TestMergeJudgments(t *testing.T) {
	pass := true
	base := []domain.EvaluationRecord{
		{QuestionID: "1", GeneratedAnswer: "a"},
		{QuestionID: "2", GeneratedAnswer: "b"},
	}
	judged := []domain.EvaluationRecord{
		{QuestionID: "2", GeneratedAnswer: "STALE", IsPass: &pass, LLMJudgment: "Pass"},
		{QuestionID: "99", IsPass: &pass, LLMJudgment: "Pass"},
	}

	out := MergeJudgments(base, judged)
	if out[0].IsPass != nil {
		t.Fatalf("unjudged record must stay unjudged")
	}
	if out[1].IsPass == nil || !*out[1].IsPass || out[1].LLMJudgment != "Pass" {
		t.Fatalf("judgment fields did not transfer: %+v", out[1])
	}
	if out[1].GeneratedAnswer != "b" {
		t.Fatalf("only judgment fields may transfer, answer was overwritten")
	}
	if len(out) != 2 {
		t.Fatalf("unmatched judged records must not be appended")
	}
}
