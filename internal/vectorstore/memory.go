// Package vectorstore provides rag.VectorStore implementations: an in-memory
// store for tests and single-process deployments, and a Qdrant-backed store
// for production use.
package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/docuchat/docuchat-go/internal/rag"
)

// sortResults orders search results by ascending distance, breaking equal
// distances by chunk ID. Both store implementations apply it so retrieval
// order is deterministic regardless of backend.
func sortResults(results []rag.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
}

// MemoryStore is an in-process rag.VectorStore. Writers serialize on a mutex
// and publish an immutable snapshot that readers load without locking, so
// searches observe a consistent view even while inserts and deletes are in
// flight.
type MemoryStore struct {
	mu sync.Mutex

	// snapshot is the chunk list readers search against. Never mutated in
	// place: writers build a new slice and swap the pointer.
	snapshot atomic.Pointer[[]rag.Chunk]

	// keys indexes chunk keys currently present, for duplicate detection.
	// Guarded by mu.
	keys map[string]struct{}

	closed atomic.Bool
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{keys: make(map[string]struct{})}
	empty := make([]rag.Chunk, 0)
	s.snapshot.Store(&empty)
	return s
}

// Insert adds a chunk. Inserting a chunk whose key (source, page, index)
// already exists returns rag.ErrDuplicateChunkKey and leaves the store
// unchanged.
func (s *MemoryStore) Insert(ctx context.Context, chunk rag.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return fmt.Errorf("vectorstore: store is closed")
	}

	key := chunk.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.keys[key]; dup {
		return fmt.Errorf("vectorstore: chunk %q: %w", key, rag.ErrDuplicateChunkKey)
	}

	cur := *s.snapshot.Load()
	next := make([]rag.Chunk, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, chunk)

	s.keys[key] = struct{}{}
	s.snapshot.Store(&next)
	return nil
}

// TopK returns up to k chunks ordered by ascending cosine distance from the
// query vector. Equal distances are broken by chunk ID so results are
// deterministic. k <= 0 yields an empty result.
func (s *MemoryStore) TopK(ctx context.Context, queryVector []float32, k int) ([]rag.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []rag.SearchResult{}, nil
	}

	chunks := *s.snapshot.Load()

	results := make([]rag.SearchResult, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, rag.SearchResult{
			Chunk:    c,
			Distance: rag.CosineDistance(queryVector, c.Embedding),
		})
	}

	sortResults(results)

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// DeleteByDocument removes every chunk belonging to the given document in a
// single snapshot swap: a concurrent search sees either all of the document's
// chunks or none of them. Deleting a document with no chunks is a no-op.
func (s *MemoryStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := *s.snapshot.Load()
	next := make([]rag.Chunk, 0, len(cur))
	for _, c := range cur {
		if c.DocumentID == documentID {
			delete(s.keys, c.Key())
			continue
		}
		next = append(next, c)
	}

	s.snapshot.Store(&next)
	return nil
}

// Len returns the number of chunks currently stored.
func (s *MemoryStore) Len() int {
	return len(*s.snapshot.Load())
}

// Close marks the store closed. Reads against the last snapshot still work.
func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	return nil
}
