package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

// PDFExtractor extracts plain text from PDF files page by page.
type PDFExtractor struct{}

// ExtractText concatenates the text of all pages, newline-separated.
func (e *PDFExtractor) ExtractText(_ context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: open PDF: %v", domain.ErrUnsupportedFormat, err)
	}

	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}

// Supports reports whether the file is a PDF.
func (e *PDFExtractor) Supports(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}
