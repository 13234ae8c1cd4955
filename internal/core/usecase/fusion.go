package usecase

import (
	"sort"

	"github.com/lwchen/ragbench/internal/core/domain"
)

const defaultRRFK = 60

type fusedEntry struct {
	result    domain.RetrievalResult
	score     float64
	firstSeen int
}

// fuseRRF merges a dense and a lexical ranking with Reciprocal Rank Fusion.
// An item at 0-based rank r contributes 1/(k+r+1); contributions accumulate
// for documents present in both lists. Metadata comes from whichever list
// introduced the document first, so on a collision the dense entry wins
// because the dense list is folded in first. Ties on score fall back to
// first-seen order, which keeps the output deterministic across runs.
func fuseRRF(dense, lexical []domain.RetrievalResult, k int) []domain.RetrievalResult {
	if k <= 0 {
		k = defaultRRFK
	}

	acc := make(map[string]*fusedEntry, len(dense)+len(lexical))
	seen := 0
	addList := func(list []domain.RetrievalResult) {
		for rank, r := range list {
			entry, ok := acc[r.DocID]
			if !ok {
				entry = &fusedEntry{result: r, firstSeen: seen}
				seen++
				acc[r.DocID] = entry
			}
			entry.score += 1.0 / float64(k+rank+1)
		}
	}
	addList(dense)
	addList(lexical)

	entries := make([]*fusedEntry, 0, len(acc))
	for _, entry := range acc {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].firstSeen < entries[j].firstSeen
	})

	out := make([]domain.RetrievalResult, 0, len(entries))
	for _, entry := range entries {
		fused := entry.result
		fused.Score = entry.score
		fused.RetrievalType = domain.RetrievalHybrid
		out = append(out, fused)
	}
	return out
}

func trimResults(results []domain.RetrievalResult, limit int) []domain.RetrievalResult {
	if limit <= 0 || len(results) <= limit {
		return results
	}
	return results[:limit]
}
