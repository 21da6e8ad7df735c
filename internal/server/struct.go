package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/docuchat/docuchat-go/internal/bus"
	"github.com/docuchat/docuchat-go/internal/engine"
	"github.com/docuchat/docuchat-go/internal/rag"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// MaxUploadBytes caps the size of a document upload. Defaults to 32 MiB.
	MaxUploadBytes int64
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [slog.Default] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry receives the server's Prometheus metrics. If nil a private
	// registry is created, keeping tests hermetic.
	Registry *prometheus.Registry
}

// answerer is the interface handleChat calls to answer a question.
// *engine.Engine satisfies it; tests inject a fake.
type answerer interface {
	Answer(ctx context.Context, question string) (*engine.Result, error)
}

// ingester is the interface the document handlers call to add and remove
// documents. *ingest.Pipeline satisfies it; tests inject a fake.
type ingester interface {
	Ingest(ctx context.Context, filename, mimeType string, data []byte) (rag.Document, int, error)
	Remove(ctx context.Context, documentID string) error
}

// documentLister is the read side of the document registry used by
// GET /api/documents.
type documentLister interface {
	List(ctx context.Context) ([]rag.Document, error)
}

// Server is the HTTP server exposing the document Q&A API.
type Server struct {
	// engine answers questions over the indexed corpus.
	engine answerer
	// pipeline ingests and removes documents.
	pipeline ingester
	// docs lists registered documents.
	docs documentLister
	// events fans chat events out to SSE subscribers.
	events *bus.Bus
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /api/chat.
type chatRequest struct {
	// Message is the user's question.
	Message string `json:"message"`
}

// chatSources is the terminal JSON frame of a chat stream, carrying the
// citations for the answer.
type chatSources struct {
	Sources []string `json:"sources"`
}

// messageEvent is the payload of each "message" event on the chat stream.
type messageEvent struct {
	Text string `json:"text"`
}

// errorEvent is the payload of the terminal "error" event emitted when
// generation fails after the stream has started.
type errorEvent struct {
	Error string `json:"error"`
}

// documentResponse is the JSON representation of a registered document.
type documentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// uploadResponse is the JSON body returned by POST /api/documents.
type uploadResponse struct {
	Document documentResponse `json:"document"`
	Chunks   int              `json:"chunks"`
}
