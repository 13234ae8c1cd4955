package memory

import (
	"math"
	"sort"

	"github.com/lwchen/ragbench/internal/core/domain"
)

// Index holds every embedded document in memory and scores the full corpus
// on each query. O(N*D) per search, which is fine for the corpus sizes this
// project targets (hundreds to low thousands of documents).
type Index struct {
	rows      []indexRow
	dimension int
}

type indexRow struct {
	docID   string
	content string
	source  string
	vector  []float32
	norm    float64
}

// Build constructs an immutable index snapshot from documents that carry an
// embedding. Documents without one are skipped. Returns
// domain.ErrEmptyIndex when nothing is left to index.
func Build(docs []domain.Document) (*Index, error) {
	idx := &Index{}
	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			continue
		}
		if idx.dimension == 0 {
			idx.dimension = len(doc.Embedding)
		}
		if len(doc.Embedding) != idx.dimension {
			continue
		}
		idx.rows = append(idx.rows, indexRow{
			docID:   doc.DocID,
			content: doc.Content,
			source:  doc.OriginalSource,
			vector:  doc.Embedding,
			norm:    vectorNorm(doc.Embedding),
		})
	}
	if len(idx.rows) == 0 {
		return nil, domain.ErrEmptyIndex
	}
	return idx, nil
}

func (ix *Index) Len() int {
	return len(ix.rows)
}

// Search returns the topK documents by cosine similarity, descending by
// score. Ties keep the original insertion order so repeated evaluation runs
// rank identically. Asking for more than the corpus holds returns the whole
// corpus.
func (ix *Index) Search(queryVector []float32, topK int) []domain.RetrievalResult {
	if len(queryVector) != ix.dimension || topK <= 0 {
		return nil
	}
	queryNorm := vectorNorm(queryVector)
	if queryNorm == 0 {
		return nil
	}

	type scored struct {
		row   int
		score float64
	}
	scores := make([]scored, len(ix.rows))
	for i, row := range ix.rows {
		scores[i] = scored{row: i, score: cosine(queryVector, queryNorm, row.vector, row.norm)}
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if topK > len(scores) {
		topK = len(scores)
	}
	out := make([]domain.RetrievalResult, 0, topK)
	for _, s := range scores[:topK] {
		row := ix.rows[s.row]
		out = append(out, domain.RetrievalResult{
			DocID:          row.docID,
			Content:        row.content,
			Score:          s.score,
			RetrievalType:  domain.RetrievalDense,
			OriginalSource: row.source,
		})
	}
	return out
}

func cosine(query []float32, queryNorm float64, vec []float32, norm float64) float64 {
	if norm == 0 {
		return 0
	}
	var dot float64
	for i := range query {
		dot += float64(query[i]) * float64(vec[i])
	}
	return dot / (queryNorm * norm)
}

func vectorNorm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
