package markdown

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

func TestExport(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir)
	exporter.now = func() time.Time {
		return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	}

	path, err := exporter.Export(context.Background(), "Q2 Revenue Review", "Revenue grew 12% over Q1.")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report_20250615_103000.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Q2 Revenue Review")
	assert.Contains(t, string(content), "Revenue grew 12% over Q1.")
}

func TestExport_EmptyContent(t *testing.T) {
	exporter := NewExporter(t.TempDir())
	_, err := exporter.Export(context.Background(), "Empty", "   \n")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExport_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "exports")
	exporter := NewExporter(dir)

	path, err := exporter.Export(context.Background(), "", "body only")
	require.NoError(t, err)
	assert.FileExists(t, path)
}
