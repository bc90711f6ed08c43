package driven

import "context"

// ReportExporter writes structured report content to a file artifact.
// The dispatcher forwards export intents here; rendering details are
// the adapter's concern.
type ReportExporter interface {
	// Export writes the report and returns the artifact path.
	Export(ctx context.Context, title, content string) (string, error)
}
