package mcp

import "errors"

var (
	// ErrMissingRetriever is returned when the retriever port is not set.
	ErrMissingRetriever = errors.New("mcp: retriever is required")

	// ErrMissingAnalyst is returned when the analyst port is not set.
	ErrMissingAnalyst = errors.New("mcp: sales analyst is required")
)
