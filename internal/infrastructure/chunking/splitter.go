package chunking

import "strings"

// Splitter cuts extracted document text into overlapping rune windows sized
// for the embedding model. Overlap keeps sentences that straddle a boundary
// retrievable from both chunks.
type Splitter struct {
	chunkSize int
	overlap   int
}

const (
	defaultChunkSize = 1000
	defaultOverlap   = 200
)

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = defaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split returns the non-empty chunks of text in document order. Text shorter
// than one chunk comes back as a single element.
func (s *Splitter) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	step := s.chunkSize - s.overlap
	chunks := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
