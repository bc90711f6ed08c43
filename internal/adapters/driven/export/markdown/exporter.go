// Package markdown writes analysis reports as timestamped markdown files.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledger-labs/salescope/internal/core/domain"
	"github.com/ledger-labs/salescope/internal/core/ports/driven"
	"github.com/ledger-labs/salescope/internal/logger"
)

// Ensure Exporter implements the interface.
var _ driven.ReportExporter = (*Exporter)(nil)

// Exporter writes reports under a fixed exports directory.
type Exporter struct {
	dir string
	now func() time.Time
}

// NewExporter creates an exporter writing into dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir, now: time.Now}
}

// Export writes the report and returns the path of the created file.
func (e *Exporter) Export(ctx context.Context, title, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: report content must not be empty", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create exports directory: %w", err)
	}

	timestamp := e.now().Format("20060102_150405")
	path := filepath.Join(e.dir, fmt.Sprintf("report_%s.md", timestamp))

	var doc strings.Builder
	if title != "" {
		doc.WriteString("# ")
		doc.WriteString(title)
		doc.WriteString("\n\n")
	}
	doc.WriteString(fmt.Sprintf("_Generated %s_\n\n", e.now().Format(time.DateTime)))
	doc.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		doc.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(doc.String()), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	logger.Info("exported report to %s", path)
	return path, nil
}
