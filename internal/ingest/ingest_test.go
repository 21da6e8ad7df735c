package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/docuchat/docuchat-go/internal/extract"
	"github.com/docuchat/docuchat-go/internal/rag"
	"github.com/docuchat/docuchat-go/internal/splitter"
	"github.com/docuchat/docuchat-go/internal/store"
	"github.com/docuchat/docuchat-go/internal/vectorstore"
)

// fakeEmbedder returns fixed-size vectors and can be told to fail after a
// number of successful calls.
type fakeEmbedder struct {
	calls     int
	failAfter int // 0 means never fail
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failAfter > 0 && f.calls > f.failAfter {
		return nil, fmt.Errorf("fake embedder: backend down: %w", rag.ErrServiceUnavailable)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func newTestPipeline(t *testing.T, embedder rag.Embedder) (*Pipeline, *store.SQLiteStore, *vectorstore.MemoryStore) {
	t.Helper()
	docs, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = docs.Close() })

	vectors := vectorstore.NewMemoryStore()
	p := New(docs, extract.NewRegistry(), splitter.New(100, 20), embedder, vectors)
	return p, docs, vectors
}

func TestAssignIDs(t *testing.T) {
	t.Parallel()

	chunks := []rag.Chunk{
		{Source: "doc.pdf", Page: 0, Content: "a"},
		{Source: "doc.pdf", Page: 0, Content: "b"},
		{Source: "doc.pdf", Page: 1, Content: "c"},
		{Source: "doc.pdf", Page: 1, Content: "d"},
		{Source: "doc.pdf", Page: 2, Content: "e"},
	}
	chunks = AssignIDs(chunks)

	wantIDs := []string{"doc.pdf:0:0", "doc.pdf:0:1", "doc.pdf:1:0", "doc.pdf:1:1", "doc.pdf:2:0"}
	for i, want := range wantIDs {
		if chunks[i].ID != want {
			t.Errorf("chunk[%d].ID = %q, want %q", i, chunks[i].ID, want)
		}
	}
}

func TestAssignIDs_Deterministic(t *testing.T) {
	t.Parallel()

	mk := func() []rag.Chunk {
		return AssignIDs([]rag.Chunk{
			{Source: "a.txt", Page: 0, Content: "x"},
			{Source: "a.txt", Page: 0, Content: "y"},
		})
	}
	first, second := mk(), mk()
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("IDs differ across runs: %q vs %q", first[i].ID, second[i].ID)
		}
	}
}

func TestPipeline_IngestText(t *testing.T) {
	t.Parallel()

	p, docs, vectors := newTestPipeline(t, &fakeEmbedder{})
	ctx := context.Background()

	body := strings.Repeat("Network configuration requires care. ", 10)
	doc, n, err := p.Ingest(ctx, "guide.txt", "text/plain", []byte(body))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n == 0 {
		t.Fatal("no chunks indexed")
	}
	if vectors.Len() != n {
		t.Errorf("vector store holds %d chunks, reported %d", vectors.Len(), n)
	}

	listed, err := docs.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != doc.ID {
		t.Errorf("document registry = %+v, want single entry %s", listed, doc.ID)
	}

	// Chunk IDs follow source:page:index for a single-page format.
	results, err := vectors.TopK(ctx, []float32{1, 1}, 1)
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}
	if !strings.HasPrefix(results[0].Chunk.ID, "guide.txt:0:") {
		t.Errorf("chunk ID = %q, want guide.txt:0:N", results[0].Chunk.ID)
	}
}

func TestPipeline_UnsupportedType(t *testing.T) {
	t.Parallel()

	p, docs, vectors := newTestPipeline(t, &fakeEmbedder{})
	ctx := context.Background()

	_, _, err := p.Ingest(ctx, "photo.png", "image/png", []byte{1, 2, 3})
	if !errors.Is(err, rag.ErrUnsupportedFileType) {
		t.Fatalf("err = %v, want ErrUnsupportedFileType", err)
	}

	// Rejected before any side effect.
	listed, err := docs.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("document registry not empty after rejected upload: %+v", listed)
	}
	if vectors.Len() != 0 {
		t.Errorf("vector store not empty after rejected upload: %d chunks", vectors.Len())
	}
}

func TestPipeline_RollbackOnEmbedFailure(t *testing.T) {
	t.Parallel()

	// Fail on the third chunk so a prefix has already been inserted.
	p, docs, vectors := newTestPipeline(t, &fakeEmbedder{failAfter: 2})
	ctx := context.Background()

	body := strings.Repeat("Sentence about storage systems. ", 20)
	_, _, err := p.Ingest(ctx, "storage.txt", "text/plain", []byte(body))
	if !errors.Is(err, rag.ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}

	listed, err := docs.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("document record survived failed ingest: %+v", listed)
	}
	if vectors.Len() != 0 {
		t.Errorf("partial chunks survived failed ingest: %d", vectors.Len())
	}
}

func TestPipeline_EmptyFile(t *testing.T) {
	t.Parallel()

	p, docs, _ := newTestPipeline(t, &fakeEmbedder{})
	ctx := context.Background()

	_, _, err := p.Ingest(ctx, "empty.txt", "text/plain", nil)
	if !errors.Is(err, rag.ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
	listed, _ := docs.List(ctx)
	if len(listed) != 0 {
		t.Errorf("registry not empty after empty upload: %+v", listed)
	}
}

func TestPipeline_Remove(t *testing.T) {
	t.Parallel()

	p, docs, vectors := newTestPipeline(t, &fakeEmbedder{})
	ctx := context.Background()

	keep, _, err := p.Ingest(ctx, "keep.txt", "text/plain", []byte(strings.Repeat("keep this text around. ", 10)))
	if err != nil {
		t.Fatalf("ingest keep: %v", err)
	}
	drop, _, err := p.Ingest(ctx, "drop.txt", "text/plain", []byte(strings.Repeat("drop this text later. ", 10)))
	if err != nil {
		t.Fatalf("ingest drop: %v", err)
	}

	if err := p.Remove(ctx, drop.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, err := docs.Get(ctx, drop.ID); !errors.Is(err, rag.ErrNotFound) {
		t.Errorf("removed document still registered: %v", err)
	}
	if _, err := docs.Get(ctx, keep.ID); err != nil {
		t.Errorf("unrelated document disturbed: %v", err)
	}

	results, err := vectors.TopK(ctx, []float32{1, 1}, 100)
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}
	for _, r := range results {
		if r.Chunk.DocumentID == drop.ID {
			t.Errorf("chunk of removed document survived: %q", r.Chunk.ID)
		}
	}

	if err := p.Remove(ctx, "no-such-document"); !errors.Is(err, rag.ErrNotFound) {
		t.Errorf("Remove(unknown): err = %v, want ErrNotFound", err)
	}
}
