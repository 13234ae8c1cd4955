package excel

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/lwchen/ragbench/internal/core/domain"
)

func TestExportWritesAllSheets(t *testing.T) {
	rate := 0.5
	report := &domain.MetricsReport{
		Summary: domain.AggregateMetrics{TotalQuestions: 2, HitRate: 0.5, LLMPassRate: &rate},
		ByQuestionType: map[string]domain.AggregateMetrics{
			"single-hop": {TotalQuestions: 1, HitRate: 1},
			"multi-hop":  {TotalQuestions: 1},
			"total":      {TotalQuestions: 2, HitRate: 0.5},
		},
		BySourceDataset: map[string]domain.AggregateMetrics{
			"squad": {TotalQuestions: 2, HitRate: 0.5},
			"total": {TotalQuestions: 2, HitRate: 0.5},
		},
		Details: []domain.MetricsDetail{
			{QuestionID: "q1", QuestionType: domain.QuestionSingleHop, SourceDataset: "squad", IsHit: true, PartialHit: "1/1", HitDocIDs: []string{"a"}, ReciprocalRank: 1},
			{QuestionID: "q2", QuestionType: domain.QuestionMultiHop, SourceDataset: "squad", PartialHit: "0/2"},
		},
	}

	path := filepath.Join(t.TempDir(), "metrics.xlsx")
	if err := NewExporter().Export(path, report); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Summary", "By Question Type", "By Source Dataset", "Details"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Fatalf("missing sheet %q (idx=%d, err=%v)", sheet, idx, err)
		}
	}

	got, err := f.GetCellValue("Summary", "A2")
	if err != nil || got != "total" {
		t.Fatalf("expected total row in summary, got %q (err=%v)", got, err)
	}
	got, err = f.GetCellValue("Details", "E2")
	if err != nil || got != "1/1" {
		t.Fatalf("expected partial hit cell 1/1, got %q (err=%v)", got, err)
	}

	rows, err := f.GetRows("By Question Type")
	if err != nil {
		t.Fatalf("read group sheet: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 group rows, got %d", len(rows))
	}
	if rows[len(rows)-1][0] != "total" {
		t.Fatalf("total row must come last, got %q", rows[len(rows)-1][0])
	}
}

func TestExportEmptyGroupsSkipsSheets(t *testing.T) {
	report := &domain.MetricsReport{Summary: domain.AggregateMetrics{}}
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := NewExporter().Export(path, report); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex("Details"); idx >= 0 {
		t.Fatalf("empty details must not create a sheet")
	}
}
