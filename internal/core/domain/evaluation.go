package domain

import "time"

// ContextPreview is the trimmed view of one retrieved context stored in
// evaluation reports.
type ContextPreview struct {
	DocID          string  `json:"doc_id"`
	Score          float64 `json:"score"`
	OriginalSource string  `json:"original_source,omitempty"`
	ContentPreview string  `json:"content_preview"`
}

// EvaluationRecord is one evaluated query. Retrieval fields are written once
// per run; IsPass and LLMJudgment are added later by the judgment pass,
// joined by QuestionID, without touching retrieval fields.
type EvaluationRecord struct {
	QuestionID        string           `json:"question_id"`
	Question          string           `json:"question"`
	QuestionType      QuestionType     `json:"question_type"`
	SourceDataset     string           `json:"source_dataset"`
	GoldAnswer        string           `json:"gold_answer"`
	GoldDocIDs        []string         `json:"gold_doc_ids"`
	GeneratedAnswer   string           `json:"generated_answer,omitempty"`
	RetrievedDocIDs   []string         `json:"retrieved_doc_ids"`
	RetrievedContexts []ContextPreview `json:"retrieved_contexts,omitempty"`
	HitCount          int              `json:"hit_count"`
	GoldCount         int              `json:"gold_count"`
	IsHit             bool             `json:"is_hit"`
	ResponseTimeMS    float64          `json:"response_time_ms"`
	IsPass            *bool            `json:"is_pass,omitempty"`
	LLMJudgment       string           `json:"llm_judgment,omitempty"`
}

// AggregateMetrics is derived from a record batch on demand, never
// maintained incrementally.
//
// HitRate counts any partial hit as a hit (query-level). PartialHitRate is
// micro-averaged document recall: retrieved gold documents over all gold
// documents. They answer different questions and are kept separate on
// purpose.
type AggregateMetrics struct {
	TotalQuestions      int      `json:"total_questions"`
	HitRate             float64  `json:"hit_rate"`
	SingleGoldQuestions int      `json:"single_gold_questions"`
	SingleGoldHitRate   float64  `json:"single_gold_hit_rate"`
	TotalGoldDocs       int      `json:"total_gold_docs"`
	TotalHitDocs        int      `json:"total_hit_docs"`
	PartialHitRate      float64  `json:"partial_hit_rate"`
	MRR                 float64  `json:"mrr"`
	AvgResponseTimeMS   float64  `json:"avg_response_time_ms"`
	LLMPassRate         *float64 `json:"llm_pass_rate,omitempty"`
}

// ReportMetadata describes one evaluation run. The JSON shape is an
// interchange format consumed by the metrics and judgment passes and must
// stay stable for round-tripping.
type ReportMetadata struct {
	RunID             string        `json:"run_id,omitempty"`
	QueriesFile       string        `json:"queries_file,omitempty"`
	TotalQuestions    int           `json:"total_questions"`
	TopK              int           `json:"top_k"`
	RetrievalMode     RetrievalMode `json:"retrieval_mode"`
	TotalTimeSeconds  float64       `json:"total_time_seconds"`
	AvgResponseTimeMS float64       `json:"avg_response_time_ms"`
	Timestamp         time.Time     `json:"timestamp"`
}

type EvaluationReport struct {
	Metadata ReportMetadata     `json:"metadata"`
	Results  []EvaluationRecord `json:"results"`
}

// MetricsReport is the exported metrics document: the full-batch summary,
// one group table per dimension, and per-question detail rows.
type MetricsReport struct {
	Summary         AggregateMetrics            `json:"summary"`
	ByQuestionType  map[string]AggregateMetrics `json:"by_question_type"`
	BySourceDataset map[string]AggregateMetrics `json:"by_source_dataset"`
	Details         []MetricsDetail             `json:"details,omitempty"`
}

// MetricsDetail is one per-question row. PartialHit is the human-readable
// "hits/golds" fraction.
type MetricsDetail struct {
	QuestionID     string       `json:"question_id"`
	QuestionType   QuestionType `json:"question_type"`
	SourceDataset  string       `json:"source_dataset"`
	IsHit          bool         `json:"is_hit"`
	PartialHit     string       `json:"partial_hit"`
	HitDocIDs      []string     `json:"hit_doc_ids,omitempty"`
	ReciprocalRank float64      `json:"reciprocal_rank"`
}

// EvaluationRun is the job payload submitted to the worker queue.
type EvaluationRun struct {
	RunID       string        `json:"run_id"`
	QueriesFile string        `json:"queries_file"`
	Mode        RetrievalMode `json:"mode"`
	TopK        int           `json:"top_k"`
	Judge       bool          `json:"judge"`
}
