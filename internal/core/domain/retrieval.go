package domain

import (
	"fmt"
	"strings"
)

type RetrievalMode string

const (
	ModeDense   RetrievalMode = "dense"
	ModeLexical RetrievalMode = "lexical"
	ModeHybrid  RetrievalMode = "hybrid"
)

func ParseRetrievalMode(raw string) (RetrievalMode, error) {
	switch RetrievalMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeDense:
		return ModeDense, nil
	case ModeLexical:
		return ModeLexical, nil
	case ModeHybrid, "":
		return ModeHybrid, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse retrieval mode", fmt.Errorf("unknown mode %q", raw))
	}
}

type RetrievalType string

const (
	RetrievalDense   RetrievalType = "dense"
	RetrievalLexical RetrievalType = "lexical"
	RetrievalHybrid  RetrievalType = "hybrid"
)

// RetrievalResult is produced fresh per query. Score semantics depend on
// RetrievalType: cosine similarity for dense, store relevance for lexical,
// accumulated RRF score for hybrid. Scores are not comparable across types.
type RetrievalResult struct {
	DocID          string        `json:"doc_id"`
	Content        string        `json:"content"`
	Score          float64       `json:"score"`
	RetrievalType  RetrievalType `json:"retrieval_type"`
	OriginalSource string        `json:"original_source,omitempty"`
}

type Answer struct {
	Text     string            `json:"answer"`
	Contexts []RetrievalResult `json:"contexts"`
}

func (a Answer) RetrievedDocIDs() []string {
	ids := make([]string, 0, len(a.Contexts))
	for _, ctx := range a.Contexts {
		ids = append(ids, ctx.DocID)
	}
	return ids
}
