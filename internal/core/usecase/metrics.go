package usecase

import (
	"fmt"
	"math"

	"github.com/lwchen/ragbench/internal/core/domain"
)

// GroupTotal is the synthetic partition holding the ungrouped aggregate.
const GroupTotal = "total"

const unknownGroup = "unknown"

// GroupKeyFunc maps a record to its partition within one grouping
// dimension. Empty keys are normalized to "unknown" rather than dropped.
type GroupKeyFunc func(domain.EvaluationRecord) string

func BySourceDataset(r domain.EvaluationRecord) string {
	return r.SourceDataset
}

func ByQuestionType(r domain.EvaluationRecord) string {
	return string(r.QuestionType)
}

// ReciprocalRank averages per-gold-document reciprocal ranks: every gold id
// contributes 1/rank of its first occurrence in the retrieved list, or 0
// when absent, and the mean runs over all gold ids, not only the hits. This
// differs from classical single-gold MRR and is intentional for multi-hop
// questions.
func ReciprocalRank(goldIDs, retrievedIDs []string) float64 {
	gold := uniqueIDs(goldIDs)
	if len(gold) == 0 {
		return 0
	}

	firstRank := make(map[string]int, len(retrievedIDs))
	for i, id := range retrievedIDs {
		if _, ok := firstRank[id]; !ok {
			firstRank[id] = i + 1
		}
	}

	var sum float64
	for _, id := range gold {
		if rank, ok := firstRank[id]; ok {
			sum += 1.0 / float64(rank)
		}
	}
	return sum / float64(len(gold))
}

// Aggregate computes batch metrics from scratch. Hit fields are re-derived
// from the id lists so records loaded from older report files aggregate the
// same as freshly produced ones.
func Aggregate(records []domain.EvaluationRecord) domain.AggregateMetrics {
	m := domain.AggregateMetrics{TotalQuestions: len(records)}
	if len(records) == 0 {
		return m
	}

	var (
		hits           int
		singleGoldHits int
		rrSum          float64
		responseSum    float64
		judged         int
		passed         int
	)

	for _, r := range records {
		hitCount, goldCount, isHit := HitStats(r.GoldDocIDs, r.RetrievedDocIDs)
		m.TotalGoldDocs += goldCount
		m.TotalHitDocs += hitCount
		if isHit {
			hits++
		}
		if goldCount == 1 {
			m.SingleGoldQuestions++
			if isHit {
				singleGoldHits++
			}
		}
		rrSum += ReciprocalRank(r.GoldDocIDs, r.RetrievedDocIDs)
		responseSum += r.ResponseTimeMS

		if r.IsPass != nil {
			judged++
			if *r.IsPass {
				passed++
			}
		}
	}

	m.HitRate = float64(hits) / float64(len(records))
	if m.SingleGoldQuestions > 0 {
		m.SingleGoldHitRate = float64(singleGoldHits) / float64(m.SingleGoldQuestions)
	}
	if m.TotalGoldDocs > 0 {
		m.PartialHitRate = float64(m.TotalHitDocs) / float64(m.TotalGoldDocs)
	}
	m.MRR = rrSum / float64(len(records))
	m.AvgResponseTimeMS = responseSum / float64(len(records))
	if judged > 0 {
		rate := float64(passed) / float64(judged)
		m.LLMPassRate = &rate
	}
	return m
}

// AggregateBy partitions records along one categorical dimension and
// aggregates every partition independently, plus a "total" partition over
// the full batch. Every record lands in exactly one group.
func AggregateBy(records []domain.EvaluationRecord, key GroupKeyFunc) map[string]domain.AggregateMetrics {
	groups := make(map[string][]domain.EvaluationRecord)
	for _, r := range records {
		k := key(r)
		if k == "" {
			k = unknownGroup
		}
		groups[k] = append(groups[k], r)
	}

	out := make(map[string]domain.AggregateMetrics, len(groups)+1)
	for k, group := range groups {
		out[k] = Aggregate(group)
	}
	out[GroupTotal] = Aggregate(records)
	return out
}

// BuildMetricsReport assembles the exportable metrics document: the overall
// summary, both group tables, and one detail row per question.
func BuildMetricsReport(records []domain.EvaluationRecord) *domain.MetricsReport {
	report := &domain.MetricsReport{
		Summary:         Aggregate(records),
		ByQuestionType:  AggregateBy(records, ByQuestionType),
		BySourceDataset: AggregateBy(records, BySourceDataset),
		Details:         make([]domain.MetricsDetail, 0, len(records)),
	}

	for _, r := range records {
		hitCount, goldCount, isHit := HitStats(r.GoldDocIDs, r.RetrievedDocIDs)

		retrieved := make(map[string]struct{}, len(r.RetrievedDocIDs))
		for _, id := range r.RetrievedDocIDs {
			retrieved[id] = struct{}{}
		}
		var hitIDs []string
		for _, id := range uniqueIDs(r.GoldDocIDs) {
			if _, ok := retrieved[id]; ok {
				hitIDs = append(hitIDs, id)
			}
		}

		report.Details = append(report.Details, domain.MetricsDetail{
			QuestionID:     r.QuestionID,
			QuestionType:   r.QuestionType,
			SourceDataset:  r.SourceDataset,
			IsHit:          isHit,
			PartialHit:     fmt.Sprintf("%d/%d", hitCount, goldCount),
			HitDocIDs:      hitIDs,
			ReciprocalRank: roundTo(ReciprocalRank(r.GoldDocIDs, r.RetrievedDocIDs), 4),
		})
	}
	return report
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
