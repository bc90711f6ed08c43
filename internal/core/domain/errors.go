package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates bad configuration parameters.
	// Configuration errors are fatal at startup, never recovered mid-run.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedFormat indicates a document format that cannot be
	// extracted. The document is skipped; indexing of other documents
	// continues.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmbeddingService indicates the embedding service failed.
	// This is retryable with bounded retries before being reported.
	ErrEmbeddingService = errors.New("embedding service failure")

	// ErrGenerationService indicates the LLM service failed.
	// Callers degrade to a no-answer response rather than hanging.
	ErrGenerationService = errors.New("generation service failure")

	// ErrUnsafeQuery indicates a SQL statement that was rejected before
	// execution: data or schema modification, multiple statements, or
	// tables outside the sales schema.
	ErrUnsafeQuery = errors.New("unsafe query rejected")

	// ErrQueryFailed indicates malformed or failed SQL. The wrapped
	// message is sanitised for display to an end user.
	ErrQueryFailed = errors.New("query failed")
)
