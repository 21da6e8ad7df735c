// Package engine orchestrates question answering: embed the question,
// retrieve the closest chunks, build a grounded prompt, and stream the
// model's answer alongside source citations.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docuchat/docuchat-go/internal/budget"
	"github.com/docuchat/docuchat-go/internal/logging"
	"github.com/docuchat/docuchat-go/internal/rag"
)

const (
	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 5

	// contextDelimiter separates retrieved fragments inside the prompt so
	// the model can tell where one document excerpt ends and the next begins.
	contextDelimiter = "\n\n---\n\n"

	// noContextAnswer is streamed verbatim when the corpus has nothing
	// relevant. The model is never called in that case.
	noContextAnswer = "Sorry, no relevant document was found."
)

// promptTemplate grounds the model in the retrieved context. The two
// placeholders are replaced literally; no templating engine is involved.
const promptTemplate = `Answer the question based only on the following context:

{context}

Question: {question}`

// Config holds the engine's tunables.
type Config struct {
	// TopK is the number of chunks to retrieve (default: DefaultTopK).
	TopK int
	// MaxContextTokens bounds the retrieved content included in the prompt
	// (default: budget.DefaultMaxContextTokens).
	MaxContextTokens int
}

// Engine answers questions over the indexed corpus.
type Engine struct {
	embedder  rag.Embedder
	vectors   rag.VectorStore
	generator rag.Generator
	cfg       Config
}

// Result is one answered question: a token stream plus the citations for the
// chunks that grounded it. Sources is complete before the first token
// arrives, so callers can render citations whenever they choose.
type Result struct {
	// Tokens streams the answer text incrementally.
	Tokens rag.TokenStream
	// Sources cites the retrieved chunks, best match first, one entry per
	// source document. Empty when no relevant context was found.
	Sources []string
}

// New constructs an Engine.
func New(embedder rag.Embedder, vectors rag.VectorStore, generator rag.Generator, cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = budget.DefaultMaxContextTokens
	}
	return &Engine{
		embedder:  embedder,
		vectors:   vectors,
		generator: generator,
		cfg:       cfg,
	}
}

// Answer runs retrieval and starts generation for the given question. An
// unreachable embedding or generation backend surfaces as
// rag.ErrServiceUnavailable; an empty or irrelevant corpus is not an error
// and yields a fixed apology with no citations.
func (e *Engine) Answer(ctx context.Context, question string) (*Result, error) {
	log := logging.FromContext(ctx)

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("engine: question is empty: %w", rag.ErrEmptyInput)
	}

	embeddings, err := e.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("engine: embed question: %w", err)
	}

	results, err := e.vectors.TopK(ctx, embeddings[0], e.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("engine: retrieve context: %w", err)
	}

	if len(results) == 0 {
		log.Info("engine: no relevant context found")
		return &Result{
			Tokens:  NewStaticStream(noContextAnswer),
			Sources: []string{},
		}, nil
	}

	results = budget.TrimResults(results, e.cfg.MaxContextTokens)
	prompt := buildPrompt(question, results)

	log.Debug("engine: answering",
		slog.Int("chunks", len(results)),
		slog.Float64("best_distance", float64(results[0].Distance)),
	)

	tokens, err := e.generator.Stream(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("engine: start generation: %w", err)
	}

	return &Result{
		Tokens:  tokens,
		Sources: citations(results),
	}, nil
}

// buildPrompt joins the retrieved chunk contents and substitutes them into
// the template together with the question.
func buildPrompt(question string, results []rag.SearchResult) string {
	fragments := make([]string, len(results))
	for i, r := range results {
		fragments[i] = r.Chunk.Content
	}
	prompt := strings.Replace(promptTemplate, "{context}", strings.Join(fragments, contextDelimiter), 1)
	return strings.Replace(prompt, "{question}", question, 1)
}

// citations formats one citation per source document, keeping retrieval
// order. The best-ranked chunk of each document supplies its page and chunk
// numbers.
func citations(results []rag.SearchResult) []string {
	seen := make(map[string]struct{}, len(results))
	out := make([]string, 0, len(results))
	for _, r := range results {
		if _, dup := seen[r.Chunk.Source]; dup {
			continue
		}
		seen[r.Chunk.Source] = struct{}{}
		out = append(out, fmt.Sprintf("%s: Page %d, Chunk %d", r.Chunk.Source, r.Chunk.Page, r.Chunk.Index))
	}
	return out
}
