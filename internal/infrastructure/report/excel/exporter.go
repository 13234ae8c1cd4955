package excel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lwchen/ragbench/internal/core/domain"
)

// Exporter writes a metrics report as an XLSX workbook: one summary sheet,
// one sheet per grouping dimension, and a per-question detail sheet.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(path string, report *domain.MetricsReport) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	writeMetricsTable(f, summarySheet, map[string]domain.AggregateMetrics{"total": report.Summary})

	if err := addGroupSheet(f, "By Question Type", report.ByQuestionType); err != nil {
		return err
	}
	if err := addGroupSheet(f, "By Source Dataset", report.BySourceDataset); err != nil {
		return err
	}
	if err := addDetailsSheet(f, report.Details); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func addGroupSheet(f *excelize.File, name string, groups map[string]domain.AggregateMetrics) error {
	if len(groups) == 0 {
		return nil
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	writeMetricsTable(f, name, groups)
	return nil
}

func writeMetricsTable(f *excelize.File, sheet string, groups map[string]domain.AggregateMetrics) {
	headers := []string{
		"group", "total_questions", "hit_rate", "single_gold_hit_rate",
		"partial_hit_rate", "mrr", "avg_response_time_ms", "llm_pass_rate",
	}
	for col, h := range headers {
		setCell(f, sheet, col+1, 1, h)
	}

	// Sorted group names, "total" last, so the sheet reads the same every run.
	names := make([]string, 0, len(groups))
	for name := range groups {
		if name != "total" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := groups["total"]; ok {
		names = append(names, "total")
	}

	for row, name := range names {
		m := groups[name]
		setCell(f, sheet, 1, row+2, name)
		setCell(f, sheet, 2, row+2, m.TotalQuestions)
		setCell(f, sheet, 3, row+2, m.HitRate)
		setCell(f, sheet, 4, row+2, m.SingleGoldHitRate)
		setCell(f, sheet, 5, row+2, m.PartialHitRate)
		setCell(f, sheet, 6, row+2, m.MRR)
		setCell(f, sheet, 7, row+2, m.AvgResponseTimeMS)
		if m.LLMPassRate != nil {
			setCell(f, sheet, 8, row+2, *m.LLMPassRate)
		} else {
			setCell(f, sheet, 8, row+2, "n/a")
		}
	}
}

func addDetailsSheet(f *excelize.File, details []domain.MetricsDetail) error {
	if len(details) == 0 {
		return nil
	}
	const sheet = "Details"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	headers := []string{
		"question_id", "question_type", "source_dataset",
		"is_hit", "partial_hit", "hit_doc_ids", "reciprocal_rank",
	}
	for col, h := range headers {
		setCell(f, sheet, col+1, 1, h)
	}
	for row, d := range details {
		setCell(f, sheet, 1, row+2, d.QuestionID)
		setCell(f, sheet, 2, row+2, string(d.QuestionType))
		setCell(f, sheet, 3, row+2, d.SourceDataset)
		setCell(f, sheet, 4, row+2, d.IsHit)
		setCell(f, sheet, 5, row+2, d.PartialHit)
		setCell(f, sheet, 6, row+2, strings.Join(d.HitDocIDs, ", "))
		setCell(f, sheet, 7, row+2, d.ReciprocalRank)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value any) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return
	}
	_ = f.SetCellValue(sheet, cell, value)
}
