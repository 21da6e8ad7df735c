package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/docuchat/docuchat-go/internal/rag"
)

// DOCX extracts Office Open XML word-processing documents as a single page.
// The text lives in word/document.xml inside the ZIP container; styling,
// headers, and embedded media are ignored.
type DOCX struct{}

// documentXML mirrors the subset of word/document.xml we read: paragraphs
// containing runs containing text elements.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

// Extract opens the ZIP container and returns the concatenated paragraph
// text as page 0. A file that is not a valid ZIP or has no document part is
// reported as unsupported.
func (d *DOCX) Extract(_ context.Context, data []byte, filename string) ([]Page, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("extract: %s is not a valid docx container: %w", filename, rag.ErrUnsupportedFileType)
	}

	var raw []byte
	for _, f := range reader.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extract: open document part of %s: %w", filename, err)
		}
		raw, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("extract: read document part of %s: %w", filename, err)
		}
		break
	}
	if raw == nil {
		return nil, fmt.Errorf("extract: %s has no word/document.xml: %w", filename, rag.ErrUnsupportedFileType)
	}

	var doc documentXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("extract: parse document part of %s: %w", filename, err)
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, t := range run.Text {
				b.WriteString(t.Content)
			}
		}
	}

	return []Page{{Number: 0, Text: strings.TrimSpace(b.String())}}, nil
}
