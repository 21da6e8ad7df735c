// Package rag defines the shared types and interfaces for the
// retrieval-augmented generation core: documents, chunks, vector storage,
// embedding, and streamed generation. Concrete implementations (in-memory,
// Qdrant, Ollama, OpenAI, etc.) satisfy these interfaces so the engine and
// ingestion layers never depend on a specific backend.
package rag

import (
	"context"
	"fmt"
	"time"
)

// Document is a source file accepted for indexing. It owns all of its chunks:
// deleting a document cascades to every chunk that references it.
type Document struct {
	// ID is the unique identifier for this document.
	ID string

	// Source is the display name / original file name of the document.
	Source string

	// CreatedAt is when the document was accepted for indexing.
	CreatedAt time.Time
}

// Chunk is one segment of a document's text, the unit of retrieval.
// Chunks are created only by the ingestion pipeline and are immutable once
// stored, except for deletion cascading from their document.
type Chunk struct {
	// ID is the unique identifier for this chunk.
	ID string

	// DocumentID references the owning document.
	DocumentID string

	// Source is the owning document's display name, denormalised onto the
	// chunk so retrieval results can cite it without a registry lookup.
	Source string

	// Page is the zero-based page number the chunk was extracted from.
	Page int

	// Index is the zero-based position of the chunk within its page.
	// It restarts at 0 whenever the page changes.
	Index int

	// Content is the raw text of the chunk.
	Content string

	// Embedding is the chunk's dense vector of dimension D (fixed by the
	// embedding model in use). Owned exclusively by this chunk — stores must
	// never alias it across chunks.
	Embedding []float32
}

// Key returns the globally-stable external key for the chunk, of the form
// source:page:index. It is reconstructible purely from position — no random
// or time-based component — so re-ingesting identical input yields identical
// keys.
func (c Chunk) Key() string {
	return fmt.Sprintf("%s:%d:%d", c.Source, c.Page, c.Index)
}

// SearchResult pairs a retrieved chunk with its cosine distance from the
// query vector. Results are ephemeral — the distance is never persisted.
type SearchResult struct {
	// Chunk is the retrieved chunk.
	Chunk Chunk

	// Distance is the cosine distance to the query vector, in [0, 2].
	// Smaller is more similar.
	Distance float32
}

// VectorStore persists chunks with their embeddings and answers top-k
// nearest-by-cosine-distance queries. Implementations must be safe to call
// from multiple goroutines.
type VectorStore interface {
	// Insert stores a chunk and its embedding. It fails with
	// ErrDuplicateChunkKey if a chunk with the same (document, page, index)
	// already exists.
	Insert(ctx context.Context, chunk Chunk) error

	// TopK returns the k chunks with smallest cosine distance to queryVector,
	// sorted ascending by distance with ties broken by chunk ID. If fewer
	// than k chunks exist, all of them are returned. k = 0 returns an empty
	// result without error.
	TopK(ctx context.Context, queryVector []float32, k int) ([]SearchResult, error)

	// DeleteByDocument removes all chunks belonging to the document. The
	// removal is atomic with respect to concurrent TopK calls: a reader
	// observes either all of the document's chunks or none of them.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder converts text into dense vector embeddings. Implementations must
// be safe to call from multiple goroutines, perform no internal retry, and
// report an unreachable backend as ErrServiceUnavailable so callers can
// distinguish transient failures from input errors.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// TokenStream is a cancellable, lazily-produced sequence of answer text
// fragments. Recv blocks until the next fragment is available and returns
// io.EOF when the stream is complete.
type TokenStream interface {
	// Recv returns the next text fragment, or io.EOF at end of stream.
	Recv() (string, error)

	// Close releases the stream. Safe to call more than once.
	Close()
}

// Generator produces a streamed completion for a fully-assembled prompt.
// Implementations must be safe to call from multiple goroutines.
type Generator interface {
	// Stream starts a streaming generation for the prompt. A backend that
	// cannot be reached is reported as ErrServiceUnavailable.
	Stream(ctx context.Context, prompt string) (TokenStream, error)
}
