package extract

import "strings"

// PlaintextExtractor handles any text/* upload
type PlaintextExtractor struct{}

func (e *PlaintextExtractor) Extract(content []byte) (string, error) {
	return normalizeNewlines(string(content)), nil
}

func (e *PlaintextExtractor) SupportedTypes() []string {
	return []string{"text/*"}
}

func (e *PlaintextExtractor) Priority() int {
	return 1 // Fallback for text types
}

// MarkdownExtractor keeps Markdown source but collapses runs of blank lines
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(content []byte) (string, error) {
	text := normalizeNewlines(string(content))
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return text, nil
}

func (e *MarkdownExtractor) SupportedTypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

func (e *MarkdownExtractor) Priority() int {
	return 50
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}
