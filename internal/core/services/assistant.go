package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledger-labs/salescope/internal/core/domain"
	"github.com/ledger-labs/salescope/internal/core/ports/driven"
	"github.com/ledger-labs/salescope/internal/core/ports/driving"
	"github.com/ledger-labs/salescope/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.Assistant = (*AssistantService)(nil)

// maxToolIterations bounds the tool loop so a misbehaving model can
// never spin a turn forever.
const maxToolIterations = 6

// turnState tracks where a turn is in its lifecycle. Transitions only
// move forward; every turn ends in stateDone exactly once.
type turnState int

const (
	stateIdle turnState = iota
	statePlanning
	stateToolInvocation
	stateSynthesis
	stateDone
)

// searchArgs is the argument schema for the document search tool.
type searchArgs struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// queryArgs is the argument schema for the SQL tool.
type queryArgs struct {
	Query string `json:"query"`
}

// exportArgs is the argument schema for the report export tool.
type exportArgs struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// AssistantService routes natural-language requests through the tool
// set. With an LLM it runs a bounded plan-act loop; without one it
// falls back to deterministic heuristics. Tool failures surface as
// notices on the result, never as a failed turn.
type AssistantService struct {
	retriever driving.Retriever
	analyst   driving.SalesAnalyst
	exporter  driven.ReportExporter
	llm       driven.LLMService
}

// NewAssistantService creates a new assistant. llm may be nil.
func NewAssistantService(
	retriever driving.Retriever,
	analyst driving.SalesAnalyst,
	exporter driven.ReportExporter,
	llm driven.LLMService,
) *AssistantService {
	return &AssistantService{
		retriever: retriever,
		analyst:   analyst,
		exporter:  exporter,
		llm:       llm,
	}
}

// Ask runs one assistant turn.
func (s *AssistantService) Ask(ctx context.Context, question string) (*domain.TurnResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", domain.ErrInvalidInput)
	}

	logger.Section("Assistant Turn")
	logger.Debug("question: %q", question)

	if s.llm == nil {
		logger.Info("no LLM configured, using heuristic dispatch")
		return s.heuristicTurn(ctx, question)
	}
	return s.agentTurn(ctx, question)
}

// agentTurn runs the LLM plan-act loop. Each iteration the model either
// requests one tool call or produces the final answer.
func (s *AssistantService) agentTurn(ctx context.Context, question string) (*domain.TurnResult, error) {
	result := &domain.TurnResult{}
	state := statePlanning

	messages := []driven.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: question},
	}

	for i := 0; i < maxToolIterations; i++ {
		reply, err := s.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: 0.1})
		if err != nil {
			// The model going away mid-turn degrades to heuristics so
			// the turn still terminates with an answer.
			logger.Warn("LLM unavailable mid-turn: %v", err)
			result.Notices = append(result.Notices, "language model unavailable, falling back to direct retrieval")
			fallback, ferr := s.heuristicTurn(ctx, question)
			if ferr != nil {
				return nil, ferr
			}
			fallback.Notices = append(result.Notices, fallback.Notices...)
			fallback.Invocations = append(result.Invocations, fallback.Invocations...)
			return fallback, nil
		}

		invocation, final, err := parseReply(reply)
		if err != nil {
			logger.Warn("unparseable model reply, treating as final answer")
			state = stateSynthesis
			result.Answer = strings.TrimSpace(reply)
			break
		}

		if invocation == nil {
			state = stateSynthesis
			result.Answer = final
			break
		}

		state = stateToolInvocation
		record := s.invoke(ctx, *invocation, result)
		result.Invocations = append(result.Invocations, record)

		messages = append(messages,
			driven.ChatMessage{Role: "assistant", Content: reply},
			driven.ChatMessage{Role: "user", Content: toolResultMessage(record)},
		)
	}

	if state != stateSynthesis || result.Answer == "" {
		// Iteration budget exhausted: synthesise from whatever the
		// tools produced rather than returning nothing.
		result.Answer = s.forcedSynthesis(ctx, question, messages)
		result.Notices = append(result.Notices, "tool budget exhausted before the model finished")
	}

	for _, record := range result.Invocations {
		if answer, ok := record.Payload.(*domain.Answer); ok && answer != nil {
			result.Citations = append(result.Citations, answer.Citations...)
		}
	}

	logger.Info("turn complete: %d tool calls, %d notices", len(result.Invocations), len(result.Notices))
	return result, nil
}

// invoke validates and executes one tool call. Failures are recorded on
// the turn as notices and returned in the record, never propagated.
func (s *AssistantService) invoke(ctx context.Context, inv domain.ToolInvocation, result *domain.TurnResult) domain.ToolRecord {
	record := domain.ToolRecord{Tool: inv.Tool}

	if !domain.KnownTool(inv.Tool) {
		record.Err = fmt.Errorf("%w: unknown tool %q", domain.ErrInvalidInput, inv.Tool)
		result.Notices = append(result.Notices, record.Err.Error())
		return record
	}

	logger.Debug("invoking tool %s", inv.Tool)

	switch inv.Tool {
	case domain.ToolSearchDocuments:
		var args searchArgs
		if err := decodeArgs(inv.Arguments, &args); err != nil {
			record.Err = err
			break
		}
		answer, err := s.retriever.Answer(ctx, args.Query, args.TopK)
		record.Payload, record.Err = answer, err

	case domain.ToolQuerySales:
		var args queryArgs
		if err := decodeArgs(inv.Arguments, &args); err != nil {
			record.Err = err
			break
		}
		rows, err := s.analyst.QuerySales(ctx, args.Query)
		record.Payload, record.Err = rows, err

	case domain.ToolCalculateMetrics:
		var req domain.MetricRequest
		if err := decodeArgs(inv.Arguments, &req); err != nil {
			record.Err = err
			break
		}
		metrics, err := s.analyst.CalculateMetrics(ctx, req)
		record.Payload, record.Err = metrics, err

	case domain.ToolExportReport:
		var args exportArgs
		if err := decodeArgs(inv.Arguments, &args); err != nil {
			record.Err = err
			break
		}
		path, err := s.exporter.Export(ctx, args.Title, args.Content)
		record.Payload, record.Err = path, err
	}

	if record.Err != nil {
		logger.Warn("tool %s failed: %v", inv.Tool, record.Err)
		result.Notices = append(result.Notices, fmt.Sprintf("%s failed: %v", inv.Tool, record.Err))
	}
	return record
}

// decodeArgs strictly decodes tool arguments against their schema.
func decodeArgs(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing tool arguments", domain.ErrInvalidInput)
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: invalid tool arguments: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// parseReply extracts either a tool invocation or a final answer from a
// model reply. The model is instructed to emit bare JSON, but fenced
// and prefixed replies occur in practice and are tolerated.
func parseReply(reply string) (*domain.ToolInvocation, string, error) {
	body := extractJSON(reply)
	if body == "" {
		return nil, "", fmt.Errorf("no JSON object in reply")
	}

	var envelope struct {
		Tool      domain.ToolName `json:"tool"`
		Arguments json.RawMessage `json:"arguments"`
		Final     string          `json:"final"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, "", fmt.Errorf("parse reply: %w", err)
	}

	if envelope.Tool != "" {
		return &domain.ToolInvocation{Tool: envelope.Tool, Arguments: envelope.Arguments}, "", nil
	}
	if envelope.Final != "" {
		return nil, envelope.Final, nil
	}
	return nil, "", fmt.Errorf("reply is neither a tool call nor a final answer")
}

// extractJSON finds the first top-level JSON object in text.
func extractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '{':
			depth++
		case !inString && c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// toolResultMessage renders a tool outcome for the model.
func toolResultMessage(record domain.ToolRecord) string {
	if record.Err != nil {
		return fmt.Sprintf("Tool %s failed: %v. Work with what you have or try a different tool.", record.Tool, record.Err)
	}
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return fmt.Sprintf("Tool %s succeeded but the result could not be serialised.", record.Tool)
	}
	const maxPayload = 8000
	body := string(payload)
	if len(body) > maxPayload {
		body = body[:maxPayload] + "...(truncated)"
	}
	return fmt.Sprintf("Tool %s result: %s", record.Tool, body)
}

// forcedSynthesis asks the model for a final answer with tools disabled,
// degrading to a plain notice if that fails too.
func (s *AssistantService) forcedSynthesis(ctx context.Context, question string, messages []driven.ChatMessage) string {
	messages = append(messages, driven.ChatMessage{
		Role:    "user",
		Content: "Answer the original question now using the tool results above. Reply with plain text only.",
	})
	reply, err := s.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: 0.1})
	if err != nil || strings.TrimSpace(reply) == "" {
		return "I could not complete the analysis for: " + question
	}
	return strings.TrimSpace(reply)
}

// heuristicTurn answers without a model: document retrieval always runs,
// and questions that mention a year also get a category rollup for it.
func (s *AssistantService) heuristicTurn(ctx context.Context, question string) (*domain.TurnResult, error) {
	result := &domain.TurnResult{}
	var sections []string

	answer, err := s.retriever.Answer(ctx, question, 0)
	record := domain.ToolRecord{Tool: domain.ToolSearchDocuments, Payload: answer, Err: err}
	result.Invocations = append(result.Invocations, record)
	if err != nil {
		result.Notices = append(result.Notices, fmt.Sprintf("document search failed: %v", err))
	} else {
		sections = append(sections, answer.Text)
		result.Citations = append(result.Citations, answer.Citations...)
	}

	if year, ok := questionYear(question); ok {
		req := domain.MetricRequest{
			Kind:        domain.MetricAggregate,
			Year:        year,
			Granularity: domain.GranularityMonthly,
		}
		metrics, err := s.analyst.CalculateMetrics(ctx, req)
		record := domain.ToolRecord{Tool: domain.ToolCalculateMetrics, Payload: metrics, Err: err}
		result.Invocations = append(result.Invocations, record)
		if err != nil {
			result.Notices = append(result.Notices, fmt.Sprintf("metrics failed: %v", err))
		} else {
			sections = append(sections, formatAggregate(metrics))
		}
	}

	if mentionsForecast(question) {
		result.Notices = append(result.Notices,
			"forecast variance needs forecast values; provide them via the calculate_metrics tool")
	}

	if len(sections) == 0 {
		result.Answer = "I could not gather any information for: " + question
	} else {
		result.Answer = strings.Join(sections, "\n\n")
	}
	return result, nil
}

// questionYear finds a plausible ledger year mentioned in the question.
var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

func questionYear(question string) (int, bool) {
	match := yearPattern.FindString(question)
	if match == "" {
		return 0, false
	}
	year, err := strconv.Atoi(match)
	if err != nil || year < 1990 || year > time.Now().Year()+1 {
		return 0, false
	}
	return year, true
}

func mentionsForecast(question string) bool {
	lower := strings.ToLower(question)
	return strings.Contains(lower, "forecast") || strings.Contains(lower, "variance")
}

// formatAggregate renders a category rollup as readable text.
func formatAggregate(result *domain.MetricResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sales by category for %d:\n", result.Year)
	for _, row := range result.Rows {
		if row.Actual == nil {
			continue
		}
		fmt.Fprintf(&b, "  %s: %s", row.PeriodLabel, row.Actual.StringFixed(2))
		if row.Pct != nil {
			fmt.Fprintf(&b, " (%s%%)", row.Pct.Mul(decimalHundred).StringFixed(1))
		}
		b.WriteString("\n")
	}
	if len(result.MissingYears) > 0 {
		fmt.Fprintf(&b, "  no ledger data for %v\n", result.MissingYears)
	}
	return strings.TrimRight(b.String(), "\n")
}

var decimalHundred = decimal.NewFromInt(100)

// systemPrompt instructs the model on the tool protocol.
const systemPrompt = `You are a sales analysis assistant with access to indexed documents and a sales ledger.

Reply with exactly one JSON object per turn, nothing else. Either call a tool:
  {"tool": "<name>", "arguments": {...}}
or finish:
  {"final": "<your answer>"}

Tools:
- search_documents: {"query": string, "top_k": int} - semantic search over indexed documents.
- query_sales: {"query": string} - one read-only SQL SELECT over the sales table (columns: id, date, year, month, category, amount).
- calculate_metrics: {"metric_type": "forecast_comparison"|"yoy_comparison"|"growth"|"aggregate", "year": int, "period": "monthly"|"quarterly", "period_number": int, "category": string, "forecast_values": {period: amount}, "compare_year": int} - derived sales metrics.
- export_report: {"title": string, "content": string} - save a markdown report.

Use tools to ground every number you state. If a tool fails, adapt; never invent data.`
