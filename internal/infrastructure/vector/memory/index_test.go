package memory

import (
	"math"
	"testing"

	"github.com/lwchen/ragbench/internal/core/domain"
)

func embedded(id string, vec ...float32) domain.Document {
	return domain.Document{DocID: id, Content: "content-" + id, OriginalSource: "src", Embedding: vec}
}

func TestBuildSkipsDocumentsWithoutEmbeddings(t *testing.T) {
	idx, err := Build([]domain.Document{
		embedded("a", 1, 0),
		{DocID: "b", Content: "no vector"},
		embedded("c", 0, 1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("expected 2 indexed documents, got %d", idx.Len())
	}
}

func TestBuildSkipsDimensionMismatch(t *testing.T) {
	idx, err := Build([]domain.Document{
		embedded("a", 1, 0),
		embedded("bad", 1, 0, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("mismatched dimension must be skipped, got %d rows", idx.Len())
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	if _, err := Build(nil); !domain.IsKind(err, domain.ErrEmptyIndex) {
		t.Fatalf("expected empty index error, got %v", err)
	}
	if _, err := Build([]domain.Document{{DocID: "a", Content: "no vector"}}); !domain.IsKind(err, domain.ErrEmptyIndex) {
		t.Fatalf("expected empty index error for unembedded corpus, got %v", err)
	}
}

func TestSearchRanksByCosine(t *testing.T) {
	idx, err := Build([]domain.Document{
		embedded("orthogonal", 0, 1),
		embedded("aligned", 2, 0),
		embedded("diagonal", 1, 1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := idx.Search([]float32{1, 0}, 3)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	wantOrder := []string{"aligned", "diagonal", "orthogonal"}
	for i, want := range wantOrder {
		if results[i].DocID != want {
			t.Fatalf("rank %d: expected %s, got %s", i, want, results[i].DocID)
		}
	}
	if math.Abs(results[0].Score-1.0) > 1e-9 {
		t.Fatalf("aligned vector should score 1.0, got %v", results[0].Score)
	}
	// Cosine ignores magnitude: the aligned vector scored 1.0 despite length 2.
	if math.Abs(results[1].Score-1.0/math.Sqrt2) > 1e-9 {
		t.Fatalf("diagonal vector should score 1/sqrt(2), got %v", results[1].Score)
	}
	for _, r := range results {
		if r.RetrievalType != domain.RetrievalDense {
			t.Fatalf("expected dense retrieval type, got %s", r.RetrievalType)
		}
	}
}

func TestSearchTieKeepsInsertionOrder(t *testing.T) {
	idx, err := Build([]domain.Document{
		embedded("second", 3, 0),
		embedded("first", 1, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := idx.Search([]float32{1, 0}, 2)
	if results[0].DocID != "second" || results[1].DocID != "first" {
		t.Fatalf("tied scores must keep insertion order, got %s then %s", results[0].DocID, results[1].DocID)
	}
}

func TestSearchClampsTopK(t *testing.T) {
	idx, err := Build([]domain.Document{embedded("a", 1, 0), embedded("b", 0, 1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := idx.Search([]float32{1, 0}, 100); len(got) != 2 {
		t.Fatalf("topK above corpus size must return the whole corpus, got %d", len(got))
	}
	if got := idx.Search([]float32{1, 0}, 1); len(got) != 1 {
		t.Fatalf("expected exactly 1 result, got %d", len(got))
	}
	if got := idx.Search([]float32{1, 0}, 0); got != nil {
		t.Fatalf("non-positive topK must return nothing")
	}
}

func TestSearchRejectsBadQueryVectors(t *testing.T) {
	idx, err := Build([]domain.Document{embedded("a", 1, 0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := idx.Search([]float32{1, 0, 0}, 5); got != nil {
		t.Fatalf("dimension mismatch must return nothing, got %v", got)
	}
	if got := idx.Search([]float32{0, 0}, 5); got != nil {
		t.Fatalf("zero query vector must return nothing, got %v", got)
	}
}
