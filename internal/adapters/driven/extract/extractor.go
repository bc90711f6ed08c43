// Package extract turns document files into plain text for chunking.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledger-labs/salescope/internal/core/domain"
	"github.com/ledger-labs/salescope/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor dispatches to format-specific extractors by file extension.
type Extractor struct {
	byExt map[string]driven.TextExtractor
}

// NewExtractor creates an extractor supporting .txt, .md and .pdf files.
func NewExtractor() *Extractor {
	plain := &PlainExtractor{}
	return &Extractor{
		byExt: map[string]driven.TextExtractor{
			".txt": plain,
			".md":  plain,
			".pdf": &PDFExtractor{},
		},
	}
}

// ExtractText extracts the plain text content of the file at path.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extractor, ok := e.byExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}
	return extractor.ExtractText(ctx, path)
}

// Supports reports whether the file extension is handled.
func (e *Extractor) Supports(path string) bool {
	_, ok := e.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}
