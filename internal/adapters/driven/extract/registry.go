// Package extract turns uploaded files into plain text for chunking.
package extract

import (
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TextExtractor = (*Registry)(nil)

// Extractor is one format handler
type Extractor interface {
	// SupportedTypes lists MIME types, wildcards allowed ("text/*")
	SupportedTypes() []string

	// Priority breaks ties when several extractors match; highest wins
	Priority() int

	// Extract returns plain text
	Extract(content []byte) (string, error)
}

// Registry implements TextExtractor with priority-based selection.
// The upload's MIME type is taken from its content type, falling back to
// the filename extension when the client sent none or a generic one.
type Registry struct {
	mu         sync.RWMutex
	extractors []Extractor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry registers the plain text, Markdown and PDF extractors.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&PlaintextExtractor{})
	r.Register(&MarkdownExtractor{})
	r.Register(&PDFExtractor{})
	return r
}

// Register adds an extractor
func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors = append(r.extractors, e)
}

// Get returns the best extractor for a MIME type, or nil
func (r *Registry) Get(mimeType string) Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []Extractor
	for _, e := range r.extractors {
		if matchesMIMEType(e.SupportedTypes(), mimeType) {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority() > matches[j].Priority()
	})
	return matches[0]
}

// Supports reports whether any extractor handles the upload
func (r *Registry) Supports(filename, contentType string) bool {
	return r.Get(DetectMIMEType(filename, contentType)) != nil
}

// Extract picks an extractor and returns the upload's text.
// Unknown formats return domain.ErrUnsupportedFormat; files with no
// extractable text return domain.ErrInvalidInput.
func (r *Registry) Extract(filename, contentType string, content []byte) (string, string, error) {
	mimeType := DetectMIMEType(filename, contentType)
	e := r.Get(mimeType)
	if e == nil {
		return "", "", fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedFormat, filename, mimeType)
	}

	text, err := e.Extract(content)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, filename, err)
	}
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	if strings.TrimSpace(text) == "" {
		return "", "", fmt.Errorf("%w: %s has no extractable text", domain.ErrInvalidInput, filename)
	}
	return text, mimeType, nil
}

// extensionTypes covers extensions the platform MIME table may lack
var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
	".pdf":      "application/pdf",
}

// DetectMIMEType normalizes the declared content type, falling back to
// the filename extension.
func DetectMIMEType(filename, contentType string) string {
	ct := normalizeMIME(contentType)
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := normalizeMIME(mime.TypeByExtension(ext)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func normalizeMIME(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	// Strip charset and other parameters
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}

// matchesMIMEType checks if any of the supported types match the given MIME type.
// Supports wildcard matching (e.g., "text/*" matches "text/plain").
func matchesMIMEType(supportedTypes []string, mimeType string) bool {
	mimeType = normalizeMIME(mimeType)

	for _, supported := range supportedTypes {
		supported = normalizeMIME(supported)

		if supported == mimeType {
			return true
		}
		if strings.HasSuffix(supported, "/*") {
			prefix := supported[:len(supported)-1] // "text/"
			if strings.HasPrefix(mimeType, prefix) {
				return true
			}
		}
	}
	return false
}
