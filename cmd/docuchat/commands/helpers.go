package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/docuchat/docuchat-go/internal/embedder"
	"github.com/docuchat/docuchat-go/internal/engine"
	"github.com/docuchat/docuchat-go/internal/rag"
	"github.com/docuchat/docuchat-go/internal/server"
	"github.com/docuchat/docuchat-go/internal/splitter"
	"github.com/docuchat/docuchat-go/internal/store"
	"github.com/docuchat/docuchat-go/internal/vectorstore"
)

// getEnvOrDefault returns the value of the environment variable or the
// fallback when unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the environment variable or the
// fallback when unset or unparsable.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// buildVectorStore connects to Qdrant when QDRANT_HOST is set, and falls back
// to the in-process memory store otherwise. The memory store loses its index
// on restart, so it is only suitable for development and tests.
// The second return value is a readiness probe for the store, nil when the
// store has no external dependency to probe.
func buildVectorStore(ctx context.Context, log *slog.Logger) (rag.VectorStore, server.Pinger, error) {
	host := os.Getenv("QDRANT_HOST")
	if host == "" {
		log.Info("vector store: using in-memory store", slog.String("reason", "QDRANT_HOST not set"))
		return vectorstore.NewMemoryStore(), nil, nil
	}

	embBackend := getEnvOrDefault("EMBEDDING_PROVIDER", getEnvOrDefault("MODEL_PROVIDER", "ollama"))
	port := getEnvInt("QDRANT_PORT", 6334)

	qs, err := vectorstore.NewQdrantStore(ctx, &vectorstore.QdrantConfig{
		Host:       host,
		Port:       port,
		Collection: getEnvOrDefault("QDRANT_COLLECTION", "docuchat-chunks"),
		VectorSize: uint64(embedder.DefaultDimensions(embBackend)), //nolint:gosec // dimensions are bounded
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}

	log.Info("vector store: qdrant ready",
		slog.String("host", host),
		slog.Int("port", port),
	)
	return qs, qs, nil
}

// buildDocumentStore opens the SQLite document registry. DOCUCHAT_DOCUMENTS_DB
// overrides the default path (~/.docuchat/documents.db).
func buildDocumentStore(log *slog.Logger) (*store.SQLiteStore, error) {
	path := os.Getenv("DOCUCHAT_DOCUMENTS_DB")
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("could not resolve documents DB path: %w", err)
		}
	}

	docs, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}
	log.Info("document store opened", slog.String("path", path))
	return docs, nil
}

// buildSplitter constructs the text splitter from CHUNK_SIZE and
// CHUNK_OVERLAP, with the standard segmentation defaults.
func buildSplitter() *splitter.Splitter {
	return splitter.New(
		getEnvInt("CHUNK_SIZE", splitter.DefaultChunkSize),
		getEnvInt("CHUNK_OVERLAP", splitter.DefaultChunkOverlap),
	)
}

// engineConfigFromEnv builds the retrieval configuration from RETRIEVAL_TOP_K
// and MAX_CONTEXT_TOKENS. Zero values select the engine defaults.
func engineConfigFromEnv() engine.Config {
	return engine.Config{
		TopK:             getEnvInt("RETRIEVAL_TOP_K", 0),
		MaxContextTokens: getEnvInt("MAX_CONTEXT_TOKENS", 0),
	}
}
