package mocks

import (
	"strings"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

var _ driven.TextExtractor = (*MockTextExtractor)(nil)

// MockTextExtractor accepts .txt and .md uploads and returns them verbatim
type MockTextExtractor struct{}

func (MockTextExtractor) Supports(filename, contentType string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".md")
}

func (e MockTextExtractor) Extract(filename, contentType string, content []byte) (string, string, error) {
	if !e.Supports(filename, contentType) {
		return "", "", domain.ErrUnsupportedFormat
	}
	return string(content), "text/plain", nil
}
