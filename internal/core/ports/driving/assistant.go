package driving

import (
	"context"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

// Assistant is the agent-facing contract: it takes a natural-language
// request, routes it through the tool set, and produces a final answer.
// Every turn terminates exactly once, even when tools fail.
type Assistant interface {
	Ask(ctx context.Context, question string) (*domain.TurnResult, error)
}
