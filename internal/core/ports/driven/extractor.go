package driven

import "context"

// TextExtractor turns a document file into plain text. Unknown or
// unreadable formats fail with domain.ErrUnsupportedFormat so the
// indexing pipeline can skip the document and continue.
type TextExtractor interface {
	// ExtractText reads the file at path and returns its text content.
	ExtractText(ctx context.Context, path string) (string, error)

	// Supports reports whether the extractor can handle the file.
	Supports(path string) bool
}
