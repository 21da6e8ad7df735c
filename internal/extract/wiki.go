package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/docuchat/docuchat-go/internal/rag"
)

// Wiki extracts MediaWiki-style markup (text/x-wiki) as a single page of
// plain text.
type Wiki struct{}

var (
	wikiHeading  = regexp.MustCompile(`(?m)^(={1,6})\s*(.*?)\s*={1,6}\s*$`)
	wikiTemplate = regexp.MustCompile(`(?s)\{\{[^{}]*\}\}`)
	wikiPipeLink = regexp.MustCompile(`\[\[[^\]|]*\|([^\]]+)\]\]`)
	wikiLink     = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	wikiExtLink  = regexp.MustCompile(`\[https?://\S+\s+([^\]]+)\]`)
	wikiBareExt  = regexp.MustCompile(`\[https?://\S+\]`)
)

// Extract strips wiki markup and returns the text as page 0.
func (w *Wiki) Extract(_ context.Context, data []byte, filename string) ([]Page, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("extract: %s is not valid UTF-8 text: %w", filename, rag.ErrUnsupportedFileType)
	}
	return []Page{{Number: 0, Text: stripWiki(string(data))}}, nil
}

// stripWiki removes common MediaWiki markup: headings, templates, internal
// and external links, and emphasis quotes.
func stripWiki(content string) string {
	content = wikiHeading.ReplaceAllString(content, "$2")
	// Templates may nest; a few passes unwraps the common depths.
	for i := 0; i < 3 && wikiTemplate.MatchString(content); i++ {
		content = wikiTemplate.ReplaceAllString(content, "")
	}
	content = wikiPipeLink.ReplaceAllString(content, "$1")
	content = wikiLink.ReplaceAllString(content, "$1")
	content = wikiExtLink.ReplaceAllString(content, "$1")
	content = wikiBareExt.ReplaceAllString(content, "")

	content = strings.ReplaceAll(content, "'''", "")
	content = strings.ReplaceAll(content, "''", "")

	content = mdMultiNewline.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
