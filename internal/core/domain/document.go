package domain

// Document is the unit of retrieval. Documents live in the document store;
// Embedding is nil when embedding generation failed or has not run yet. Such
// documents are excluded from the dense index but stay searchable lexically.
type Document struct {
	DocID          string    `json:"doc_id"`
	Content        string    `json:"content"`
	OriginalSource string    `json:"original_source"`
	OriginalID     string    `json:"original_id"`
	IsGold         bool      `json:"is_gold"`
	Embedding      []float32 `json:"embedding,omitempty"`
}

type QuestionType string

const (
	QuestionSingleHop QuestionType = "single-hop"
	QuestionMultiHop  QuestionType = "multi-hop"
)

// Query is one labeled evaluation question. GoldDocIDs is non-empty by
// contract; multi-hop questions typically carry more than one gold document.
type Query struct {
	QuestionID    string       `json:"question_id"`
	Question      string       `json:"question"`
	GoldAnswer    string       `json:"gold_answer"`
	GoldDocIDs    []string     `json:"gold_doc_ids"`
	SourceDataset string       `json:"source_dataset"`
	QuestionType  QuestionType `json:"question_type"`
}
