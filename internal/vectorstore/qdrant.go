package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/docuchat/docuchat-go/internal/rag"
)

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this collection.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements rag.VectorStore backed by a Qdrant instance. Chunks
// are stored as points whose IDs are derived deterministically from the chunk
// key, so re-inserting the same chunk is detected as a duplicate rather than
// silently overwriting.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig
}

// NewQdrantStore creates a new QdrantStore, ensuring the target collection
// exists (creating it if necessary), and returns a ready-to-use store.
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	clientCfg := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	}

	client, err := qdrant.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	store := &QdrantStore{client: client, cfg: cfg}
	if err := store.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the Qdrant collection if it does not already exist.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w: %w", err, rag.ErrServiceUnavailable)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
	}

	return nil
}

// pointID derives a stable UUID for a chunk key. Qdrant point IDs must be
// UUIDs or integers, so the human-readable "source:page:index" key lives in
// the payload and a SHA1-based UUID of it becomes the point ID.
func pointID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("docuchat:chunk:"+key)).String()
}

// Insert stores a single chunk with its pre-computed embedding. A chunk whose
// key already exists in the collection yields rag.ErrDuplicateChunkKey.
func (s *QdrantStore) Insert(ctx context.Context, chunk rag.Chunk) error {
	key := chunk.Key()
	id := pointID(key)

	existing, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.cfg.Collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(id)},
	})
	if err != nil {
		return fmt.Errorf("qdrant: duplicate check failed: %w: %w", err, rag.ErrServiceUnavailable)
	}
	if len(existing) > 0 {
		return fmt.Errorf("qdrant: chunk %q: %w", key, rag.ErrDuplicateChunkKey)
	}

	payload := map[string]interface{}{
		"chunk_key":   key,
		"document_id": chunk.DocumentID,
		"source":      chunk.Source,
		"page":        int64(chunk.Page),
		"chunk_index": int64(chunk.Index),
		"content":     chunk.Content,
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(id),
			Vectors: qdrant.NewVectors(chunk.Embedding...),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert failed: %w: %w", err, rag.ErrServiceUnavailable)
	}

	return nil
}

// TopK performs a cosine similarity search and returns up to k chunks ordered
// by ascending distance. Qdrant reports cosine similarity as a score in
// [-1, 1]; distance is 1 - score so lower means closer, matching the
// in-memory store.
func (s *QdrantStore) TopK(ctx context.Context, queryVector []float32, k int) ([]rag.SearchResult, error) {
	if k <= 0 {
		return []rag.SearchResult{}, nil
	}

	limit := uint64(k)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w: %w", err, rag.ErrServiceUnavailable)
	}

	results := make([]rag.SearchResult, 0, len(points))
	for _, p := range points {
		chunk := rag.Chunk{ID: p.Id.GetUuid()}
		if pl := p.Payload; pl != nil {
			if v, ok := pl["chunk_key"]; ok {
				chunk.ID = v.GetStringValue()
			}
			if v, ok := pl["document_id"]; ok {
				chunk.DocumentID = v.GetStringValue()
			}
			if v, ok := pl["source"]; ok {
				chunk.Source = v.GetStringValue()
			}
			if v, ok := pl["page"]; ok {
				chunk.Page = int(v.GetIntegerValue())
			}
			if v, ok := pl["chunk_index"]; ok {
				chunk.Index = int(v.GetIntegerValue())
			}
			if v, ok := pl["content"]; ok {
				chunk.Content = v.GetStringValue()
			}
		}
		results = append(results, rag.SearchResult{
			Chunk:    chunk,
			Distance: 1 - p.Score,
		})
	}

	// Qdrant orders by score server-side but leaves equal scores unordered;
	// re-sort so ties break by chunk ID like the in-memory store.
	sortResults(results)

	return results, nil
}

// DeleteByDocument removes every point whose payload document_id matches.
// Qdrant applies the filter delete atomically server-side.
func (s *QdrantStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentID),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete by document failed: %w: %w", err, rag.ErrServiceUnavailable)
	}

	return nil
}

// Ping reports whether the Qdrant instance is reachable. Used by the server's
// readiness probe.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check failed: %w", err)
	}
	return nil
}

// Name identifies this dependency in readiness reports.
func (s *QdrantStore) Name() string { return "qdrant" }

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}
