package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/docuchat/docuchat-go/internal/rag"
)

// PlainText extracts text/plain documents as a single page.
type PlainText struct{}

// Extract returns the document body as page 0. Invalid UTF-8 is rejected so
// binary files mislabelled as text/plain fail fast instead of polluting the
// index.
func (p *PlainText) Extract(_ context.Context, data []byte, filename string) ([]Page, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("extract: %s is not valid UTF-8 text: %w", filename, rag.ErrUnsupportedFileType)
	}
	text := strings.TrimSpace(string(data))
	return []Page{{Number: 0, Text: text}}, nil
}
