package chunking

import (
	"strings"
	"testing"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(100, 20)
	chunks := s.Split("  one short paragraph  ")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "one short paragraph" {
		t.Fatalf("unexpected chunk %q", chunks[0])
	}
}

func TestSplitEmptyText(t *testing.T) {
	if got := NewSplitter(100, 20).Split("   "); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestSplitOverlapRepeatsBoundaryText(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10)
	s := NewSplitter(60, 20)

	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	tail := chunks[0][len(chunks[0])-20:]
	if !strings.HasPrefix(chunks[1], tail) {
		t.Fatalf("chunk 2 does not start with the overlap of chunk 1")
	}
}

func TestSplitRuneSafe(t *testing.T) {
	text := strings.Repeat("вопрос ", 30)
	for _, chunk := range NewSplitter(50, 10).Split(text) {
		if strings.ContainsRune(chunk, '�') {
			t.Fatalf("chunk contains a broken rune: %q", chunk)
		}
	}
}

func TestNewSplitterClampsBadOverlap(t *testing.T) {
	s := NewSplitter(100, 100)
	if s.overlap != 25 {
		t.Fatalf("expected overlap clamped to 25, got %d", s.overlap)
	}
}
