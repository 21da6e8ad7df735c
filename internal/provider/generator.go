package provider

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/docuchat/docuchat-go/internal/rag"
)

// Generator adapts an eino ChatModel to the rag.Generator interface. A failed
// stream start maps to rag.ErrServiceUnavailable so callers can distinguish
// an unreachable backend from a bad request.
type Generator struct {
	model model.ToolCallingChatModel
}

// NewGenerator wraps the given ChatModel.
func NewGenerator(m model.ToolCallingChatModel) *Generator {
	return &Generator{model: m}
}

// Stream sends the prompt as a single user message and returns the token
// stream of the model's reply.
func (g *Generator) Stream(ctx context.Context, prompt string) (rag.TokenStream, error) {
	reader, err := g.model.Stream(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return nil, fmt.Errorf("provider: start stream: %v: %w", err, rag.ErrServiceUnavailable)
	}
	return &modelStream{reader: reader}, nil
}

// modelStream adapts eino's StreamReader to rag.TokenStream.
type modelStream struct {
	reader *schema.StreamReader[*schema.Message]
}

// Recv returns the next token of the reply, or io.EOF when the reply is
// complete.
func (s *modelStream) Recv() (string, error) {
	msg, err := s.reader.Recv()
	if err == io.EOF {
		return "", io.EOF
	}
	if err != nil {
		return "", fmt.Errorf("provider: stream recv: %w", err)
	}
	return msg.Content, nil
}

// Close releases the underlying stream.
func (s *modelStream) Close() {
	s.reader.Close()
}
