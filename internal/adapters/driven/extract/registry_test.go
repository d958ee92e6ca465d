package extract

import (
	"errors"
	"testing"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

type stubExtractor struct {
	name     string
	types    []string
	priority int
}

func (s *stubExtractor) Extract(content []byte) (string, error) {
	return s.name + ":" + string(content), nil
}

func (s *stubExtractor) SupportedTypes() []string { return s.types }
func (s *stubExtractor) Priority() int            { return s.priority }

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		want        string
	}{
		{"notes.md", "", "text/markdown"},
		{"notes.MD", "application/octet-stream", "text/markdown"},
		{"a.txt", "", "text/plain"},
		{"report.pdf", "", "application/pdf"},
		{"x.bin", "text/plain; charset=utf-8", "text/plain"},
		{"noext", "", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := DetectMIMEType(tt.filename, tt.contentType); got != tt.want {
				t.Errorf("DetectMIMEType(%q, %q) = %q, want %q", tt.filename, tt.contentType, got, tt.want)
			}
		})
	}
}

func TestRegistry_PriorityWins(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{name: "low", types: []string{"text/*"}, priority: 1})
	r.Register(&stubExtractor{name: "high", types: []string{"text/markdown"}, priority: 50})

	text, mimeType, err := r.Extract("a.md", "", []byte("body"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "high:body" {
		t.Errorf("expected high priority extractor, got %q", text)
	}
	if mimeType != "text/markdown" {
		t.Errorf("expected text/markdown, got %s", mimeType)
	}

	text, _, err = r.Extract("a.csv", "text/csv", []byte("body"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "low:body" {
		t.Errorf("expected wildcard extractor, got %q", text)
	}
}

func TestRegistry_Unsupported(t *testing.T) {
	r := DefaultRegistry()

	if r.Supports("photo.png", "image/png") {
		t.Error("expected png to be unsupported")
	}
	_, _, err := r.Extract("photo.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRegistry_EmptyText(t *testing.T) {
	r := DefaultRegistry()

	_, _, err := r.Extract("blank.txt", "", []byte("  \r\n\t "))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDefaultRegistry_TextAndMarkdown(t *testing.T) {
	r := DefaultRegistry()

	text, _, err := r.Extract("a.txt", "", []byte("line one\r\nline two\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "line one\nline two" {
		t.Errorf("unexpected text %q", text)
	}

	text, _, err = r.Extract("a.md", "", []byte("# Title\n\n\n\nBody"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "# Title\n\nBody" {
		t.Errorf("unexpected markdown %q", text)
	}
}

func TestPDFExtractor_Malformed(t *testing.T) {
	r := DefaultRegistry()

	_, _, err := r.Extract("broken.pdf", "application/pdf", []byte("%PDF-1.4 not really"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
