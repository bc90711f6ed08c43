package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

func newAssistantFixture(hits []domain.RetrievalHit, sales *fakeSalesStore, llm *scriptedLLM) (*AssistantService, *fakeExporter) {
	store := newMemChunkStore()
	store.hits = hits
	retriever := NewRetrievalService(&fakeEmbedder{}, store, nil, RetrievalConfig{})
	analyst := NewSalesQueryService(sales, SQLConfig{})
	exporter := &fakeExporter{}

	var svc *AssistantService
	if llm == nil {
		svc = NewAssistantService(retriever, analyst, exporter, nil)
	} else {
		svc = NewAssistantService(retriever, analyst, exporter, llm)
	}
	return svc, exporter
}

func TestAsk_EmptyQuestion(t *testing.T) {
	svc, _ := newAssistantFixture(nil, &fakeSalesStore{}, nil)
	_, err := svc.Ask(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAsk_ToolLoopEndToEnd(t *testing.T) {
	hits := []domain.RetrievalHit{
		hit("c1", "q3-report.md", "Q3 revenue was 1.2M, ahead of plan.", 0.9),
	}
	sales := &fakeSalesStore{
		rows: &domain.RowSet{
			Columns: []string{"total"},
			Rows:    [][]any{{"1200000.00"}},
		},
	}
	llm := &scriptedLLM{replies: []string{
		`{"tool": "search_documents", "arguments": {"query": "Q3 revenue", "top_k": 3}}`,
		`{"tool": "query_sales", "arguments": {"query": "SELECT SUM(amount) total FROM sales WHERE year = 2025"}}`,
		`{"final": "Q3 revenue was 1.2M, confirmed by the ledger."}`,
	}}
	svc, _ := newAssistantFixture(hits, sales, llm)

	result, err := svc.Ask(context.Background(), "How did Q3 2025 go?")
	require.NoError(t, err)
	assert.Equal(t, "Q3 revenue was 1.2M, confirmed by the ledger.", result.Answer)
	require.Len(t, result.Invocations, 2)
	assert.Equal(t, domain.ToolSearchDocuments, result.Invocations[0].Tool)
	assert.Equal(t, domain.ToolQuerySales, result.Invocations[1].Tool)
	assert.Empty(t, result.Notices)
	require.NotEmpty(t, result.Citations)
	assert.Equal(t, "q3-report.md", result.Citations[0].Source)
}

func TestAsk_ToolFailureBecomesNotice(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"tool": "query_sales", "arguments": {"query": "DROP TABLE sales"}}`,
		`{"final": "I could not query the ledger safely."}`,
	}}
	svc, _ := newAssistantFixture(nil, &fakeSalesStore{}, llm)

	result, err := svc.Ask(context.Background(), "wipe the sales data")
	require.NoError(t, err)
	assert.Equal(t, "I could not query the ledger safely.", result.Answer)
	require.Len(t, result.Invocations, 1)
	assert.True(t, result.Invocations[0].Failed())
	require.NotEmpty(t, result.Notices)
	assert.Contains(t, result.Notices[0], "query_sales failed")
}

func TestAsk_UnknownToolRejected(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"tool": "delete_everything", "arguments": {}}`,
		`{"final": "done"}`,
	}}
	svc, _ := newAssistantFixture(nil, &fakeSalesStore{}, llm)

	result, err := svc.Ask(context.Background(), "question")
	require.NoError(t, err)
	require.Len(t, result.Invocations, 1)
	assert.ErrorIs(t, result.Invocations[0].Err, domain.ErrInvalidInput)
	assert.NotEmpty(t, result.Notices)
}

func TestAsk_MetricsTool(t *testing.T) {
	sales := &fakeSalesStore{
		periodTotals: map[int]map[int]decimal.Decimal{
			2025: {1: dec("120")},
		},
	}
	llm := &scriptedLLM{replies: []string{
		`{"tool": "calculate_metrics", "arguments": {"metric_type": "forecast_comparison", "year": 2025, "forecast_values": {"1": "100"}}}`,
		`{"final": "January beat forecast by 20."}`,
	}}
	svc, _ := newAssistantFixture(nil, sales, llm)

	result, err := svc.Ask(context.Background(), "January vs forecast?")
	require.NoError(t, err)
	require.Len(t, result.Invocations, 1)
	require.False(t, result.Invocations[0].Failed())

	metrics, ok := result.Invocations[0].Payload.(*domain.MetricResult)
	require.True(t, ok)
	require.Len(t, metrics.Rows, 1)
	assert.True(t, metrics.Rows[0].Value.Equal(dec("20")))
}

func TestAsk_ExportTool(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"tool": "export_report", "arguments": {"title": "Q3 Review", "content": "All good."}}`,
		`{"final": "Report saved."}`,
	}}
	svc, exporter := newAssistantFixture(nil, &fakeSalesStore{}, llm)

	result, err := svc.Ask(context.Background(), "export the Q3 review")
	require.NoError(t, err)
	assert.Equal(t, "Report saved.", result.Answer)
	assert.Equal(t, "Q3 Review", exporter.lastTitle)
	assert.Equal(t, "All good.", exporter.lastContent)
}

func TestAsk_FencedJSONTolerated(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"```json\n{\"final\": \"the answer\"}\n```",
	}}
	svc, _ := newAssistantFixture(nil, &fakeSalesStore{}, llm)

	result, err := svc.Ask(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "the answer", result.Answer)
}

func TestAsk_BudgetExhaustion(t *testing.T) {
	// The model keeps calling tools and never finishes; the forced
	// synthesis call at the end produces the answer.
	replies := make([]string, 0, maxToolIterations+1)
	for range maxToolIterations {
		replies = append(replies, `{"tool": "search_documents", "arguments": {"query": "more"}}`)
	}
	replies = append(replies, "best effort answer")
	llm := &scriptedLLM{replies: replies}
	svc, _ := newAssistantFixture(nil, &fakeSalesStore{}, llm)

	result, err := svc.Ask(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "best effort answer", result.Answer)
	assert.Len(t, result.Invocations, maxToolIterations)
	assert.NotEmpty(t, result.Notices)
}

func TestAsk_HeuristicFallbackWithoutLLM(t *testing.T) {
	hits := []domain.RetrievalHit{
		hit("c1", "summary.md", "2025 was a record year.", 0.9),
	}
	sales := &fakeSalesStore{
		categoryTotals: map[string]decimal.Decimal{
			"Electronics": dec("300"),
		},
	}
	svc, _ := newAssistantFixture(hits, sales, nil)

	result, err := svc.Ask(context.Background(), "How were 2025 sales?")
	require.NoError(t, err)
	assert.Contains(t, result.Answer, "2025 was a record year.")
	assert.Contains(t, result.Answer, "Electronics")
	require.Len(t, result.Invocations, 2)
}

func TestAsk_HeuristicForecastNotice(t *testing.T) {
	svc, _ := newAssistantFixture(nil, &fakeSalesStore{}, nil)

	result, err := svc.Ask(context.Background(), "What is the forecast variance?")
	require.NoError(t, err)
	require.NotEmpty(t, result.Notices)
	assert.Contains(t, result.Notices[len(result.Notices)-1], "forecast")
}

func TestAsk_LLMFailureFallsBackToHeuristics(t *testing.T) {
	hits := []domain.RetrievalHit{
		hit("c1", "summary.md", "Numbers held steady.", 0.9),
	}
	llm := &scriptedLLM{err: domain.ErrGenerationService}
	svc, _ := newAssistantFixture(hits, &fakeSalesStore{}, llm)

	result, err := svc.Ask(context.Background(), "how are things")
	require.NoError(t, err)
	assert.Contains(t, result.Answer, "Numbers held steady.")
	assert.NotEmpty(t, result.Notices)
}

func TestParseReply(t *testing.T) {
	inv, final, err := parseReply(`{"tool": "query_sales", "arguments": {"query": "SELECT 1"}}`)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, domain.ToolQuerySales, inv.Tool)
	assert.Empty(t, final)

	inv, final, err = parseReply(`Sure, here you go: {"final": "42"}`)
	require.NoError(t, err)
	assert.Nil(t, inv)
	assert.Equal(t, "42", final)

	_, _, err = parseReply("no json here")
	assert.Error(t, err)
}
