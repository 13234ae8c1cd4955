package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lwchen/ragbench/internal/core/domain"
)

// LoadCorpus reads a corpus file: a JSON array of documents. Embeddings in
// the file are optional and usually absent; ingestion fills them.
func LoadCorpus(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}

	var docs []domain.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}
	return docs, nil
}

// LoadQueries reads a labeled query file: a JSON array of evaluation
// questions. Queries without an id or gold documents are rejected early so
// a bad file fails before any model call is made.
func LoadQueries(path string) ([]domain.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read queries %s: %w", path, err)
	}

	var queries []domain.Query
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("parse queries %s: %w", path, err)
	}

	for i, q := range queries {
		if q.QuestionID == "" {
			return nil, fmt.Errorf("queries %s: entry %d has no question_id", path, i)
		}
		if len(q.GoldDocIDs) == 0 {
			return nil, fmt.Errorf("queries %s: question %s has no gold_doc_ids", path, q.QuestionID)
		}
	}
	return queries, nil
}
