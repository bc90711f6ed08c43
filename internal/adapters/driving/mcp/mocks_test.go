package mcp

import (
	"context"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	hits   []domain.RetrievalHit
	answer *domain.Answer
	err    error
}

func (m *mockRetriever) Retrieve(
	_ context.Context,
	_ string,
	_ int,
) ([]domain.RetrievalHit, error) {
	return m.hits, m.err
}

func (m *mockRetriever) Answer(
	_ context.Context,
	_ string,
	_ int,
) (*domain.Answer, error) {
	return m.answer, m.err
}

// mockAnalyst is a mock implementation of driving.SalesAnalyst. It
// records the last request so tests can assert on argument mapping.
type mockAnalyst struct {
	rows    *domain.RowSet
	metrics *domain.MetricResult
	err     error

	lastQuery   string
	lastRequest domain.MetricRequest
}

func (m *mockAnalyst) QuerySales(_ context.Context, query string) (*domain.RowSet, error) {
	m.lastQuery = query
	return m.rows, m.err
}

func (m *mockAnalyst) CalculateMetrics(
	_ context.Context,
	req domain.MetricRequest,
) (*domain.MetricResult, error) {
	m.lastRequest = req
	return m.metrics, m.err
}

// mockExporter is a mock implementation of driven.ReportExporter.
type mockExporter struct {
	path string
	err  error

	lastTitle   string
	lastContent string
}

func (m *mockExporter) Export(_ context.Context, title, content string) (string, error) {
	m.lastTitle = title
	m.lastContent = content
	return m.path, m.err
}
