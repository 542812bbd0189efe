package errs

import "errors"

// Pipeline error taxonomy. Callers classify with errors.Is and map to
// transport codes at the edge; an empty result set is never one of these.
var (
	// ErrInvalidInput rejects bad requests before any I/O happens.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable marks a failed or timed-out remote embedding/LLM call.
	// It is retryable by the caller; the pipeline never degrades to
	// zero-vector ranking instead of returning it.
	ErrUnavailable = errors.New("retrieval unavailable")

	// ErrStorage marks a persistence failure during upsert or fetch.
	ErrStorage = errors.New("storage failure")
)
