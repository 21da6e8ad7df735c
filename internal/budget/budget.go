// Package budget provides token budget estimation and retrieved-context
// trimming. Because the service supports multiple LLM backends with different
// tokenizers, this package uses a conservative character-based heuristic:
// 1 token ≈ 4 characters (English prose). This deliberately under-estimates
// token counts to leave headroom for model-specific overhead.
package budget

import "github.com/docuchat/docuchat-go/internal/rag"

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English; using 3 would be
	// more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default budget for retrieved chunk
	// content in tokens. Conservative enough to fit within 8k-context models
	// together with the prompt template, question, and output.
	DefaultMaxContextTokens = 4000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// TrimResults drops retrieved chunks until their combined content fits within
// maxTokens. Results arrive best-first, so trimming removes from the tail —
// the least relevant chunks go first and the surviving prefix keeps its
// ranking order. The best chunk is always kept, even when it alone exceeds
// the budget, so an answer is never generated from zero context.
func TrimResults(results []rag.SearchResult, maxTokens int) []rag.SearchResult {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxContextTokens
	}

	total := 0
	for i, r := range results {
		total += Estimate(r.Chunk.Content)
		if total > maxTokens && i > 0 {
			return results[:i]
		}
	}
	return results
}
