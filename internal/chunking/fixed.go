package chunking

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// Fixed splits text into windows of MaxChars characters sharing Overlap
// characters with the previous window. Windows are cut on rune
// boundaries, so multibyte characters are never split.
type Fixed struct {
	MaxChars int
	Overlap  int
}

var _ Chunker = (*Fixed)(nil)

// NewFixed creates a fixed-window chunker from config
func NewFixed(cfg domain.ChunkingConfig) *Fixed {
	return &Fixed{MaxChars: cfg.MaxChars, Overlap: cfg.Overlap}
}

func (f *Fixed) Strategy() domain.ChunkStrategy {
	return domain.ChunkStrategyFixed
}

func (f *Fixed) Chunk(ctx context.Context, text string) ([]Span, error) {
	return f.split(text), nil
}

func (f *Fixed) split(text string) []Span {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	width := f.MaxChars
	if width <= 0 {
		width = domain.DefaultPipelineConfig().Chunking.MaxChars
	}
	overlap := f.Overlap
	if overlap < 0 || overlap >= width {
		overlap = 0
	}
	stride := width - overlap

	runes := []rune(text)
	var spans []Span
	for start := 0; ; start += stride {
		end := start + width
		if end > len(runes) {
			end = len(runes)
		}
		spans = append(spans, Span{
			Content:   string(runes[start:end]),
			Position:  len(spans),
			StartChar: start,
			EndChar:   end,
		})
		if end == len(runes) {
			break
		}
	}
	return spans
}
