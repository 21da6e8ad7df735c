package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/docuchat/docuchat-go/internal/embedder"
	"github.com/docuchat/docuchat-go/internal/engine"
	"github.com/docuchat/docuchat-go/internal/extract"
	"github.com/docuchat/docuchat-go/internal/ingest"
	"github.com/docuchat/docuchat-go/internal/logging"
	"github.com/docuchat/docuchat-go/internal/provider"
	"github.com/docuchat/docuchat-go/internal/server"
	"github.com/docuchat/docuchat-go/internal/tracing"
)

// NewServeCmd constructs the `docuchat serve` command, which starts the HTTP
// server exposing the document upload and chat API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the DocuChat HTTP server",
		Long: `Start the DocuChat HTTP server on localhost.

The server exposes a REST/SSE API: upload documents with POST /api/documents,
ask questions with POST /api/chat (streamed over server-sent events), and
follow live chat activity with GET /api/events.

Examples:
  docuchat serve
  docuchat serve --port 9090
  MODEL_PROVIDER=azure docuchat serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			log.Info("provider initialised", slog.String("provider", getEnvOrDefault("MODEL_PROVIDER", "ollama")))

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedder: %w", err)
			}

			vectors, vectorPinger, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = vectors.Close() }()

			docs, err := buildDocumentStore(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = docs.Close() }()

			eng := engine.New(emb, vectors, provider.NewGenerator(chatModel), engineConfigFromEnv())
			pipeline := ingest.New(docs, extract.NewRegistry(), buildSplitter(), emb, vectors)

			pingers := []server.Pinger{docs}
			if vectorPinger != nil {
				pingers = append(pingers, vectorPinger)
			}
			pingers = append(pingers, server.NewModelPinger(chatModel, getEnvOrDefault("MODEL_PROVIDER", "ollama")))

			srv, err := server.New(eng, pipeline, docs, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("DOCUCHAT_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
