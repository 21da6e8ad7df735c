package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/docuchat/docuchat-go/internal/embedder"
	"github.com/docuchat/docuchat-go/internal/engine"
	"github.com/docuchat/docuchat-go/internal/logging"
	"github.com/docuchat/docuchat-go/internal/provider"
)

// NewAskCmd constructs the `docuchat ask` command, which answers a single
// question from the indexed documents and streams the answer to stdout.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about your indexed documents",
		Long: `Answer a natural language question from the indexed documents.

The answer is generated only from the most relevant document chunks and is
streamed to stdout token by token, followed by the source citations.

Examples:
  docuchat ask "what is the refund policy?"
  QDRANT_HOST=localhost docuchat ask "who approves travel expenses?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("ask: failed to initialise model provider: %w", err)
			}

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ask: failed to initialise embedder: %w", err)
			}

			vectors, _, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer func() { _ = vectors.Close() }()

			eng := engine.New(emb, vectors, provider.NewGenerator(chatModel), engineConfigFromEnv())

			result, err := eng.Answer(ctx, args[0])
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer result.Tokens.Close()

			for {
				token, err := result.Tokens.Recv()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return fmt.Errorf("ask: stream failed: %w", err)
				}
				fmt.Print(token)
			}
			fmt.Println()

			if len(result.Sources) > 0 {
				fmt.Fprintln(os.Stdout, "\nSources:")
				for _, src := range result.Sources {
					fmt.Fprintf(os.Stdout, "  - %s\n", src)
				}
			}

			return nil
		},
	}

	return cmd
}
