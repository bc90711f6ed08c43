package mcp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

// parsePeriodKey converts a JSON object key to a period number.
func parsePeriodKey(key string) (int, error) {
	p, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("%w: forecast period %q is not a number", domain.ErrInvalidInput, key)
	}
	return p, nil
}

// SearchInput is the input schema for the document search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the indexed documents"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to retrieve (default 5)"`
}

// SearchOutput is the output schema for the document search tool.
type SearchOutput struct {
	Found     bool             `json:"found"`
	Answer    string           `json:"answer"`
	Citations []CitationOutput `json:"citations,omitempty"`
}

// CitationOutput is one supporting passage reference.
type CitationOutput struct {
	Source  string  `json:"source"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// QueryInput is the input schema for the SQL tool.
type QueryInput struct {
	Query string `json:"query" jsonschema:"a single read-only SQL SELECT over the sales table (columns: id, date, year, month, category, amount)"`
}

// QueryOutput is the output schema for the SQL tool.
type QueryOutput struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	Truncated bool     `json:"truncated"`
}

// MetricsInput is the input schema for the metrics tool.
type MetricsInput struct {
	MetricType   string             `json:"metric_type" jsonschema:"one of forecast_comparison, yoy_comparison, growth, aggregate"`
	Year         int                `json:"year" jsonschema:"the year to analyse"`
	Period       string             `json:"period,omitempty" jsonschema:"monthly (default) or quarterly"`
	PeriodNumber int                `json:"period_number,omitempty" jsonschema:"restrict to one month (1-12) or quarter (1-4)"`
	Category     string             `json:"category,omitempty" jsonschema:"restrict to one sales category"`
	Forecast     map[string]float64 `json:"forecast_values,omitempty" jsonschema:"period number to forecast amount, required for forecast_comparison"`
	CompareYear  int                `json:"compare_year,omitempty" jsonschema:"baseline year, required for yoy_comparison"`
}

// ExportInput is the input schema for the report export tool.
type ExportInput struct {
	Title   string `json:"title" jsonschema:"the report title"`
	Content string `json:"content" jsonschema:"the markdown report body"`
}

// ExportOutput is the output schema for the report export tool.
type ExportOutput struct {
	Path string `json:"path"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Answer a question from the indexed sales documents with citations",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_sales",
		Description: "Run a read-only SQL SELECT against the sales ledger",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "calculate_metrics",
		Description: "Calculate derived sales metrics: forecast variance, year-over-year, growth, category rollups",
	}, s.handleMetrics)

	if s.ports.Exporter != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "export_report",
			Description: "Save an analysis report as a markdown file",
		}, s.handleExport)
	}
}

// handleSearch handles the document search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	answer, err := s.ports.Retriever.Answer(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Found:  answer.Found,
		Answer: answer.Text,
	}
	for _, citation := range answer.Citations {
		output.Citations = append(output.Citations, CitationOutput{
			Source:  citation.Source,
			Snippet: citation.Snippet,
			Score:   citation.Score,
		})
	}
	return nil, output, nil
}

// handleQuery handles the SQL tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	result, err := s.ports.Analyst.QuerySales(ctx, input.Query)
	if err != nil {
		return nil, QueryOutput{}, err
	}
	return nil, QueryOutput{
		Columns:   result.Columns,
		Rows:      result.Rows,
		Truncated: result.Truncated,
	}, nil
}

// handleMetrics handles the metrics tool invocation.
func (s *Server) handleMetrics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MetricsInput,
) (*mcp.CallToolResult, *domain.MetricResult, error) {
	req := domain.MetricRequest{
		Kind:         domain.MetricKind(input.MetricType),
		Year:         input.Year,
		Granularity:  domain.Granularity(input.Period),
		PeriodNumber: input.PeriodNumber,
		Category:     input.Category,
		CompareYear:  input.CompareYear,
	}
	if len(input.Forecast) > 0 {
		req.Forecast = make(map[int]decimal.Decimal, len(input.Forecast))
		for period, amount := range input.Forecast {
			p, err := parsePeriodKey(period)
			if err != nil {
				return nil, nil, err
			}
			req.Forecast[p] = decimal.NewFromFloat(amount)
		}
	}

	result, err := s.ports.Analyst.CalculateMetrics(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return nil, result, nil
}

// handleExport handles the report export tool invocation.
func (s *Server) handleExport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExportInput,
) (*mcp.CallToolResult, ExportOutput, error) {
	path, err := s.ports.Exporter.Export(ctx, input.Title, input.Content)
	if err != nil {
		return nil, ExportOutput{}, err
	}
	return nil, ExportOutput{Path: path}, nil
}
