package mcp

import (
	"github.com/ledger-labs/salescope/internal/core/ports/driven"
	"github.com/ledger-labs/salescope/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP
// server. This provides a single injection point.
type Ports struct {
	// Retriever serves document search.
	Retriever driving.Retriever

	// Analyst serves SQL and metric calculations.
	Analyst driving.SalesAnalyst

	// Exporter writes reports. Optional; without it the export tool is
	// not registered.
	Exporter driven.ReportExporter
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	if p.Analyst == nil {
		return ErrMissingAnalyst
	}
	return nil
}
