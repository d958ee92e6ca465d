package driven

// TextExtractor turns an uploaded file into plain text
type TextExtractor interface {
	// Supports reports whether the extractor handles the given upload
	Supports(filename, contentType string) bool

	// Extract returns the document text and its normalized MIME type
	Extract(filename, contentType string, content []byte) (text string, mimeType string, err error)
}
