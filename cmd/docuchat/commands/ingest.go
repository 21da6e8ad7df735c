package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docuchat/docuchat-go/internal/embedder"
	"github.com/docuchat/docuchat-go/internal/extract"
	"github.com/docuchat/docuchat-go/internal/ingest"
	"github.com/docuchat/docuchat-go/internal/logging"
)

// mimeByExtension maps file extensions to the MIME types the extraction
// registry understands. Extensions not listed here are rejected before any
// file content is read.
var mimeByExtension = map[string]string{
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".wiki":     "text/x-wiki",
}

// mimeFromPath resolves the MIME type for a local file from its extension.
func mimeFromPath(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mimeType, ok := mimeByExtension[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file extension %q (supported: .pdf, .docx, .txt, .md, .markdown, .wiki)", ext)
	}
	return mimeType, nil
}

// NewIngestCmd constructs the `docuchat ingest` command, which indexes local
// files into the vector store without going through the HTTP API.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Index local documents into the vector store",
		Long: `Extract, chunk, embed, and index local documents.

Each file is registered in the document store and becomes immediately
available to 'docuchat ask' and the HTTP chat API. Indexing is all-or-nothing
per file: a file that fails partway leaves no trace behind.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (omit to use the in-memory store)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: docuchat-chunks)
  QDRANT_API_KEY       Optional API key for authenticated clusters
  MODEL_PROVIDER       Embedding backend: ollama, openai, azure (default: ollama)
  EMBEDDING_*          Provider-specific overrides (see README)

Examples:
  docuchat ingest handbook.pdf
  docuchat ingest docs/*.md notes.txt
  CHUNK_SIZE=500 docuchat ingest policy.docx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ingest: failed to initialise embedder: %w", err)
			}

			vectors, _, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = vectors.Close() }()

			docs, err := buildDocumentStore(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = docs.Close() }()

			pipeline := ingest.New(docs, extract.NewRegistry(), buildSplitter(), emb, vectors)

			var failed int
			for _, path := range args {
				mimeType, err := mimeFromPath(path)
				if err != nil {
					log.Error("ingest: skipping file", slog.String("path", path), slog.String("error", err.Error()))
					failed++
					continue
				}

				data, err := os.ReadFile(path)
				if err != nil {
					log.Error("ingest: read failed", slog.String("path", path), slog.String("error", err.Error()))
					failed++
					continue
				}

				doc, chunks, err := pipeline.Ingest(ctx, filepath.Base(path), mimeType, data)
				if err != nil {
					log.Error("ingest: indexing failed", slog.String("path", path), slog.String("error", err.Error()))
					failed++
					continue
				}

				fmt.Printf("indexed %s (%d chunks, id %s)\n", doc.Source, chunks, doc.ID)
			}

			if failed > 0 {
				return fmt.Errorf("ingest: %d of %d file(s) failed", failed, len(args))
			}
			return nil
		},
	}

	return cmd
}
