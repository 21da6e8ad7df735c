package rag

import "errors"

// Sentinel errors shared across the retrieval core. Callers classify with
// errors.Is; producers wrap them with fmt.Errorf("...: %w", Err...) so the
// failing operation stays in the message.
var (
	// ErrServiceUnavailable indicates the embedding or generation backend
	// could not be reached. Transient — the caller may retry with backoff.
	// No retry is performed inside the clients themselves.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrDuplicateChunkKey indicates an insert collided with an existing
	// (document, page, index) triple. This is an invariant violation and
	// should not occur under correct sequential ingestion.
	ErrDuplicateChunkKey = errors.New("duplicate chunk key")

	// ErrNotFound indicates a delete or lookup referenced a missing
	// document or chunk.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFileType indicates an upload's MIME type has no
	// registered extraction strategy. Rejected before any side effect.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrEmptyInput indicates empty text was passed where content is
	// required (e.g. embedding an empty string). Not retryable.
	ErrEmptyInput = errors.New("empty input")
)
