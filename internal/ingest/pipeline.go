package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docuchat/docuchat-go/internal/extract"
	"github.com/docuchat/docuchat-go/internal/logging"
	"github.com/docuchat/docuchat-go/internal/rag"
	"github.com/docuchat/docuchat-go/internal/splitter"
	"github.com/docuchat/docuchat-go/internal/store"
)

// Pipeline ingests a document end to end: register, extract, split, embed,
// insert. Ingestion is all-or-nothing — a failure at any step removes the
// document record and any chunks already written to the vector store.
type Pipeline struct {
	docs     store.DocumentStore
	registry *extract.Registry
	split    *splitter.Splitter
	embedder rag.Embedder
	vectors  rag.VectorStore
}

// New constructs a Pipeline from its dependencies.
func New(docs store.DocumentStore, registry *extract.Registry, split *splitter.Splitter, embedder rag.Embedder, vectors rag.VectorStore) *Pipeline {
	return &Pipeline{
		docs:     docs,
		registry: registry,
		split:    split,
		embedder: embedder,
		vectors:  vectors,
	}
}

// Ingest processes one uploaded document. The MIME type is checked before
// any state is created, so an unsupported upload has no side effects at all.
// On success the registered document is returned along with the number of
// chunks indexed.
func (p *Pipeline) Ingest(ctx context.Context, filename, mimeType string, data []byte) (rag.Document, int, error) {
	log := logging.FromContext(ctx)

	extractor, err := p.registry.ForMIME(mimeType)
	if err != nil {
		return rag.Document{}, 0, err
	}
	if len(data) == 0 {
		return rag.Document{}, 0, fmt.Errorf("ingest: %s: empty file: %w", filename, rag.ErrEmptyInput)
	}

	doc, err := p.docs.Create(ctx, filename)
	if err != nil {
		return rag.Document{}, 0, fmt.Errorf("ingest: register %s: %w", filename, err)
	}

	n, err := p.index(ctx, doc, data, extractor)
	if err != nil {
		p.rollback(ctx, doc, log)
		return rag.Document{}, 0, err
	}

	log.Info("ingest: document indexed",
		slog.String("document_id", doc.ID),
		slog.String("source", doc.Source),
		slog.Int("chunks", n),
	)
	return doc, n, nil
}

// index runs the fallible middle of the pipeline: extract, split, identify,
// embed, insert. Chunks are embedded and inserted one at a time in order, so
// a mid-stream failure leaves a prefix for rollback to clear.
func (p *Pipeline) index(ctx context.Context, doc rag.Document, data []byte, extractor extract.Extractor) (int, error) {
	pages, err := extractor.Extract(ctx, data, doc.Source)
	if err != nil {
		return 0, fmt.Errorf("ingest: extract %s: %w", doc.Source, err)
	}

	var chunks []rag.Chunk
	for _, page := range pages {
		for _, text := range p.split.Split(page.Text) {
			chunks = append(chunks, rag.Chunk{
				DocumentID: doc.ID,
				Source:     doc.Source,
				Page:       page.Number,
				Content:    text,
			})
		}
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("ingest: %s: no extractable text: %w", doc.Source, rag.ErrEmptyInput)
	}
	chunks = AssignIDs(chunks)

	for i := range chunks {
		embeddings, err := p.embedder.Embed(ctx, []string{chunks[i].Content})
		if err != nil {
			return 0, fmt.Errorf("ingest: embed chunk %s: %w", chunks[i].ID, err)
		}
		chunks[i].Embedding = embeddings[0]

		if err := p.vectors.Insert(ctx, chunks[i]); err != nil {
			return 0, fmt.Errorf("ingest: insert chunk %s: %w", chunks[i].ID, err)
		}
	}

	return len(chunks), nil
}

// rollback undoes a partially ingested document. Cleanup runs on a fresh
// context so cancellation of the request does not strand partial state.
func (p *Pipeline) rollback(ctx context.Context, doc rag.Document, log *slog.Logger) {
	cleanup := context.WithoutCancel(ctx)

	if err := p.vectors.DeleteByDocument(cleanup, doc.ID); err != nil {
		log.Error("ingest: rollback of vector store failed",
			slog.String("document_id", doc.ID),
			slog.String("error", err.Error()),
		)
	}
	if err := p.docs.Delete(cleanup, doc.ID); err != nil {
		log.Error("ingest: rollback of document record failed",
			slog.String("document_id", doc.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Remove deletes a document and all of its chunks. The vector store is
// cleared first; if that fails the registry row survives so the document
// stays visible and the delete can be retried.
func (p *Pipeline) Remove(ctx context.Context, documentID string) error {
	if _, err := p.docs.Get(ctx, documentID); err != nil {
		return err
	}
	if err := p.vectors.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("ingest: delete chunks of %s: %w", documentID, err)
	}
	if err := p.docs.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("ingest: delete record of %s: %w", documentID, err)
	}
	return nil
}
