package domain

import "encoding/json"

// ToolName identifies one of the closed set of assistant tools.
type ToolName string

const (
	ToolSearchDocuments  ToolName = "search_documents"
	ToolQuerySales       ToolName = "query_sales"
	ToolCalculateMetrics ToolName = "calculate_metrics"
	ToolExportReport     ToolName = "export_report"
)

// KnownTool reports whether name is part of the tool set.
func KnownTool(name ToolName) bool {
	switch name {
	case ToolSearchDocuments, ToolQuerySales, ToolCalculateMetrics, ToolExportReport:
		return true
	}
	return false
}

// ToolInvocation is one requested tool call within an agent turn.
// Arguments are validated against the per-tool schema before execution.
type ToolInvocation struct {
	Tool      ToolName        `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolRecord is the outcome of one tool invocation. Invocations live
// only for the duration of the turn; they are never persisted.
type ToolRecord struct {
	Tool    ToolName
	Payload any
	Err     error
}

// Failed reports whether the invocation produced an error.
func (r ToolRecord) Failed() bool { return r.Err != nil }

// TurnResult is the final outcome of one assistant turn.
type TurnResult struct {
	// Answer is the synthesised response text. Always present: when a
	// sub-result was unavailable the answer says so explicitly.
	Answer string

	// Citations reference retrieval passages backing the answer.
	Citations []Citation

	// Invocations records every tool call made during the turn, in
	// order, including failures.
	Invocations []ToolRecord

	// Notices lists tool failures and degraded results surfaced to the
	// user alongside the answer.
	Notices []string
}
