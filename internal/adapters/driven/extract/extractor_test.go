package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

func TestSupports(t *testing.T) {
	extractor := NewExtractor()

	tests := []struct {
		path string
		want bool
	}{
		{"report.txt", true},
		{"notes.md", true},
		{"forecast.pdf", true},
		{"REPORT.TXT", true},
		{"data.csv", false},
		{"image.png", false},
		{"noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, extractor.Supports(tt.path))
		})
	}
}

func TestExtractText_Plain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Q3 Summary\n\nSales grew."), 0o644))

	text, err := NewExtractor().ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "# Q3 Summary\n\nSales grew.", text)
}

func TestExtractText_UnsupportedFormat(t *testing.T) {
	_, err := NewExtractor().ExtractText(context.Background(), "data.csv")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestExtractText_MissingFile(t *testing.T) {
	_, err := NewExtractor().ExtractText(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestExtractText_InvalidPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	_, err := NewExtractor().ExtractText(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}
