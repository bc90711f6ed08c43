package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PlainExtractor reads UTF-8 text files (.txt, .md) as-is.
type PlainExtractor struct{}

// ExtractText reads the whole file.
func (e *PlainExtractor) ExtractText(_ context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(content), nil
}

// Supports reports whether the file is plain text.
func (e *PlainExtractor) Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}
