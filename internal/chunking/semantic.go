package chunking

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// sentenceRe matches a run of text up to and including its terminators.
// Newlines also end a sentence so headings and list items stand alone.
var sentenceRe = regexp.MustCompile(`[^.!?\n]+[.!?]*`)

// Semantic groups adjacent sentences while each next sentence stays
// similar to the running chunk centroid.
type Semantic struct {
	embedder  driven.EmbeddingService
	threshold float64
	maxChars  int
}

var _ Chunker = (*Semantic)(nil)

// NewSemantic creates a semantic chunker backed by embedder
func NewSemantic(embedder driven.EmbeddingService, cfg domain.ChunkingConfig) *Semantic {
	return &Semantic{
		embedder:  embedder,
		threshold: cfg.SemanticThreshold,
		maxChars:  cfg.SemanticMaxChars,
	}
}

func (s *Semantic) Strategy() domain.ChunkStrategy {
	return domain.ChunkStrategySemantic
}

// Chunk embeds every sentence in one batch and merges greedily.
// A new chunk starts when similarity to the centroid drops below the
// threshold or when adding the sentence would pass the size cap.
func (s *Semantic) Chunk(ctx context.Context, text string) ([]Span, error) {
	sentences := splitSentences(text, s.maxChars)
	if len(sentences) == 0 {
		return nil, nil
	}

	texts := make([]string, len(sentences))
	for i, sent := range sentences {
		texts[i] = sent.Content
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed sentences: %w", domain.NewInferenceError("embed", "", err))
	}
	if len(vectors) != len(sentences) {
		return nil, fmt.Errorf("embed sentences: %w", domain.NewInferenceError("embed", "",
			fmt.Errorf("got %d vectors for %d sentences", len(vectors), len(sentences))))
	}

	runes := []rune(text)
	var spans []Span
	first := 0
	centroid := toFloat64(vectors[0])
	members := 1

	flush := func(last int) {
		start, end := sentences[first].StartChar, sentences[last].EndChar
		spans = append(spans, Span{
			Content:   string(runes[start:end]),
			Position:  len(spans),
			StartChar: start,
			EndChar:   end,
		})
	}

	for i := 1; i < len(sentences); i++ {
		size := sentences[i].EndChar - sentences[first].StartChar
		sim := cosine(centroid, vectors[i])
		if size > s.maxChars || sim < s.threshold {
			flush(i - 1)
			first = i
			centroid = toFloat64(vectors[i])
			members = 1
			continue
		}
		// Running mean of member embeddings
		members++
		for d := range centroid {
			if d < len(vectors[i]) {
				centroid[d] += (float64(vectors[i][d]) - centroid[d]) / float64(members)
			}
		}
	}
	flush(len(sentences) - 1)
	return spans, nil
}

// splitSentences returns trimmed, non-empty sentences with rune offsets.
// Sentences longer than maxChars are cut into maxChars pieces.
func splitSentences(text string, maxChars int) []Span {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []Span
	runePos, bytePos := 0, 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		runePos += utf8.RuneCountInString(text[bytePos:loc[0]])
		bytePos = loc[0]

		raw := text[loc[0]:loc[1]]
		lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
		trimmed := strings.TrimSpace(raw)

		if trimmed != "" && strings.ContainsFunc(trimmed, isWordRune) {
			start := runePos + utf8.RuneCountInString(raw[:lead])
			out = append(out, capSpan(trimmed, start, maxChars)...)
		}

		runePos += utf8.RuneCountInString(raw)
		bytePos = loc[1]
	}
	return out
}

func capSpan(content string, start, maxChars int) []Span {
	runes := []rune(content)
	if maxChars <= 0 || len(runes) <= maxChars {
		return []Span{{Content: content, StartChar: start, EndChar: start + len(runes)}}
	}
	var out []Span
	for i := 0; i < len(runes); i += maxChars {
		end := min(i+maxChars, len(runes))
		out = append(out, Span{Content: string(runes[i:end]), StartChar: start + i, EndChar: start + end})
	}
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func cosine(a []float64, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		bi := float64(b[i])
		dot += a[i] * bi
		na += a[i] * a[i]
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
