// Package extract converts uploaded document bytes into plain text pages.
// Each supported MIME type has a dedicated extractor; the registry rejects
// unknown types before any side effect happens.
package extract

import (
	"context"
	"fmt"

	"github.com/docuchat/docuchat-go/internal/rag"
)

// Page is one page of extracted text. Single-page formats (plain text,
// markdown, docx) produce exactly one page numbered 0.
type Page struct {
	// Number is the zero-based page number within the document.
	Number int
	// Text is the extracted plain text of the page.
	Text string
}

// Extractor converts raw document bytes into ordered text pages.
type Extractor interface {
	// Extract returns the text pages of the document. The filename is
	// available for diagnostics only; format detection happens via the
	// registry's MIME lookup, not the extension.
	Extract(ctx context.Context, data []byte, filename string) ([]Page, error)
}

// Registry maps MIME types to extractors. Construct it once at startup with
// NewRegistry; lookups afterwards are read-only and safe for concurrent use.
type Registry struct {
	byMIME map[string]Extractor
}

// NewRegistry builds the default registry covering all supported formats.
func NewRegistry() *Registry {
	plain := &PlainText{}
	md := &Markdown{}
	return &Registry{byMIME: map[string]Extractor{
		"application/pdf": NewPDF(nil),
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": &DOCX{},
		"text/plain":      plain,
		"text/markdown":   md,
		"text/x-markdown": md,
		"text/x-wiki":     &Wiki{},
	}}
}

// ForMIME returns the extractor for the given MIME type, or
// rag.ErrUnsupportedFileType when the type is not supported.
func (r *Registry) ForMIME(mimeType string) (Extractor, error) {
	e, ok := r.byMIME[mimeType]
	if !ok {
		return nil, fmt.Errorf("extract: MIME type %q: %w", mimeType, rag.ErrUnsupportedFileType)
	}
	return e, nil
}

// Supported returns the MIME types the registry accepts.
func (r *Registry) Supported() []string {
	out := make([]string, 0, len(r.byMIME))
	for m := range r.byMIME {
		out = append(out, m)
	}
	return out
}
