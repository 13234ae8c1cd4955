package plaintext

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// Extractor reads UTF-8 text files so they can be ingested alongside the
// JSON datasets and PDFs.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file %s: %w", path, err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("file %s is not valid UTF-8 text", path)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", fmt.Errorf("file %s contains no text", path)
	}
	return text, nil
}
