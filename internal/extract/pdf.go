package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrPDFToolNotFound is returned when the pdftotext binary is not installed.
var ErrPDFToolNotFound = errors.New("extract: pdftotext not found in PATH")

// CommandRunner executes an external command and returns its stdout. The
// indirection exists so tests can substitute a fake pdftotext.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner is the production CommandRunner backed by os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDF extracts application/pdf documents by shelling out to pdftotext
// (poppler-utils). Pages are preserved: pdftotext separates them with form
// feeds, which map to zero-based page numbers.
type PDF struct {
	runner CommandRunner
}

// NewPDF constructs a PDF extractor. A nil runner selects the real pdftotext
// binary.
func NewPDF(runner CommandRunner) *PDF {
	if runner == nil {
		runner = execRunner{}
	}
	return &PDF{runner: runner}
}

// InstallInstructions describes how to install the pdftotext dependency.
func InstallInstructions() string {
	return strings.Join([]string{
		"pdftotext is required for PDF ingestion:",
		"  macOS:  brew install poppler",
		"  Debian: apt install poppler-utils",
		"  Fedora: dnf install poppler-utils",
	}, "\n")
}

// Extract writes the PDF bytes to a temp file, runs pdftotext on it, and
// splits the output into pages on form-feed boundaries.
func (p *PDF) Extract(ctx context.Context, data []byte, filename string) ([]Page, error) {
	if _, ok := p.runner.(execRunner); ok {
		if _, err := exec.LookPath("pdftotext"); err != nil {
			return nil, fmt.Errorf("%w\n%s", ErrPDFToolNotFound, InstallInstructions())
		}
	}

	tmp, err := os.CreateTemp("", "docuchat-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("extract: create temp file for %s: %w", filename, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("extract: write temp file for %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("extract: close temp file for %s: %w", filename, err)
	}

	// "-" sends the text to stdout; pdftotext emits \f between pages.
	out, err := p.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("extract: pdftotext failed on %s (%s): %w", filename, filepath.Base(tmp.Name()), err)
	}

	return splitPages(string(out)), nil
}

// splitPages converts pdftotext output into pages. Page numbers track the
// position in the original document, so a blank page mid-document keeps later
// pages aligned; trailing empty pages are dropped.
func splitPages(text string) []Page {
	parts := strings.Split(text, "\f")

	pages := make([]Page, 0, len(parts))
	for i, part := range parts {
		pages = append(pages, Page{Number: i, Text: strings.TrimSpace(part)})
	}
	for len(pages) > 0 && pages[len(pages)-1].Text == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
