package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ledger-labs/salescope/internal/core/domain"
	"github.com/ledger-labs/salescope/internal/core/ports/driven"
	"github.com/ledger-labs/salescope/internal/core/ports/driving"
	"github.com/ledger-labs/salescope/internal/logger"
)

// Ensure SalesQueryService implements the interface.
var _ driving.SalesAnalyst = (*SalesQueryService)(nil)

// SQLConfig tunes the guarded query tool. Zero values get defaults.
type SQLConfig struct {
	// MaxRows caps result rows (default: 500).
	MaxRows int

	// Timeout bounds query execution (default: 5s).
	Timeout time.Duration
}

// SalesQueryService validates and executes read-only SQL against the
// sales table, and computes derived metrics. The two capabilities share
// a service because they share the ledger and its access rules.
type SalesQueryService struct {
	store   driven.SalesStore
	metrics *MetricsEngine
	cfg     SQLConfig
}

// NewSalesQueryService creates a new sales analysis service.
func NewSalesQueryService(store driven.SalesStore, cfg SQLConfig) *SalesQueryService {
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &SalesQueryService{
		store:   store,
		metrics: NewMetricsEngine(store),
		cfg:     cfg,
	}
}

// forbiddenKeywords are statement forms the guard rejects outright.
var forbiddenKeywords = []string{
	"insert", "update", "delete", "drop", "alter", "create",
	"replace", "truncate", "attach", "detach", "pragma",
	"vacuum", "reindex", "grant", "revoke",
}

// tablePattern extracts table names referenced by FROM and JOIN clauses.
var tablePattern = regexp.MustCompile(`(?i)\b(?:from|join)\s+([a-zA-Z_][a-zA-Z0-9_]*)`)

// QuerySales validates the statement and executes it with the row cap
// and timeout applied. Guard rejections carry domain.ErrUnsafeQuery and
// never reach the database.
func (s *SalesQueryService) QuerySales(ctx context.Context, query string) (*domain.RowSet, error) {
	logger.Section("Sales Query")
	logger.Debug("statement: %s", query)

	if err := guardQuery(query); err != nil {
		logger.Warn("query rejected: %v", err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	result, err := s.store.ExecuteSelect(ctx, query, s.cfg.MaxRows)
	if err != nil {
		return nil, err
	}

	logger.Info("query returned %d rows (truncated=%t)", len(result.Rows), result.Truncated)
	return result, nil
}

// CalculateMetrics delegates to the metrics engine.
func (s *SalesQueryService) CalculateMetrics(ctx context.Context, req domain.MetricRequest) (*domain.MetricResult, error) {
	return s.metrics.Calculate(ctx, req)
}

// guardQuery enforces the read-only, single-statement, sales-table-only
// contract. It is deliberately conservative: anything it cannot prove
// safe is rejected.
func guardQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return fmt.Errorf("%w: empty statement", domain.ErrUnsafeQuery)
	}

	// One statement only. A trailing semicolon is tolerated.
	body := strings.TrimRight(trimmed, "; \t\n")
	if strings.ContainsRune(body, ';') {
		return fmt.Errorf("%w: multiple statements are not allowed", domain.ErrUnsafeQuery)
	}

	lower := strings.ToLower(body)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return fmt.Errorf("%w: only SELECT statements are allowed", domain.ErrUnsafeQuery)
	}

	for _, keyword := range forbiddenKeywords {
		if containsWord(lower, keyword) {
			return fmt.Errorf("%w: keyword %q is not allowed", domain.ErrUnsafeQuery, strings.ToUpper(keyword))
		}
	}

	// The table allowlist below inspects the identifier after FROM and
	// JOIN. A comma-separated FROM list would slip a second table past
	// it, so implicit cross joins are rejected outright.
	if fromListHasComma(lower) {
		return fmt.Errorf("%w: comma-separated table lists are not allowed", domain.ErrUnsafeQuery)
	}

	// Every referenced table must be the sales table. CTE names defined
	// in the statement itself are allowed too.
	cteNames := ctePattern.FindAllStringSubmatch(body, -1)
	allowed := map[string]bool{"sales": true}
	for _, m := range cteNames {
		allowed[strings.ToLower(m[1])] = true
	}

	for _, m := range tablePattern.FindAllStringSubmatch(body, -1) {
		table := strings.ToLower(m[1])
		if !allowed[table] {
			return fmt.Errorf("%w: table %q is not accessible", domain.ErrUnsafeQuery, table)
		}
	}
	return nil
}

// ctePattern extracts names introduced by WITH ... AS clauses.
var ctePattern = regexp.MustCompile(`(?i)\b([a-zA-Z_][a-zA-Z0-9_]*)\s+as\s*\(`)

// fromListTerminators are keywords that end a FROM clause's table list.
var fromListTerminators = map[string]bool{
	"where": true, "group": true, "having": true, "order": true,
	"limit": true, "union": true, "intersect": true, "except": true,
	"window": true,
}

// fromListHasComma reports whether any FROM clause in the lowercased
// statement lists tables with a top-level comma.
func fromListHasComma(lower string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], "from")
		if i < 0 {
			return false
		}
		i += idx
		idx = i + len("from")
		before := i == 0 || !isWordChar(lower[i-1])
		after := idx >= len(lower) || !isWordChar(lower[idx])
		if !before || !after {
			continue
		}
		if scanFromList(lower[idx:]) {
			return true
		}
	}
}

// scanFromList scans the text following a FROM keyword and reports
// whether a comma appears at the top level of its table list. Commas
// inside parentheses (subqueries, function arguments) do not count,
// and a clause keyword or an unbalanced closing paren ends the list.
func scanFromList(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '(':
			depth++
		case c == ')':
			if depth == 0 {
				return false
			}
			depth--
		case c == ',' && depth == 0:
			return true
		case depth == 0 && isWordChar(c):
			start := i
			for i < len(s) && isWordChar(s[i]) {
				i++
			}
			if fromListTerminators[s[start:i]] {
				return false
			}
			i--
		}
	}
	return false
}

// containsWord reports whether s contains keyword as a whole word.
func containsWord(s, keyword string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], keyword)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordChar(s[i-1])
		afterIdx := i + len(keyword)
		after := afterIdx >= len(s) || !isWordChar(s[afterIdx])
		if before && after {
			return true
		}
		idx = i + len(keyword)
	}
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
