package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeRunner is a test double for CommandRunner.
type fakeRunner struct {
	output []byte
	err    error

	gotName string
	gotArgs []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.gotName = name
	f.gotArgs = args
	return f.output, f.err
}

func TestPDF_Extract(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{output: []byte("first page\ftable of contents\f")}
	p := NewPDF(runner)

	pages, err := p.Extract(context.Background(), []byte("%PDF-1.7 fake"), "manual.pdf")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if runner.gotName != "pdftotext" {
		t.Errorf("command = %q, want pdftotext", runner.gotName)
	}
	if len(runner.gotArgs) == 0 || runner.gotArgs[len(runner.gotArgs)-1] != "-" {
		t.Errorf("args = %v, want trailing \"-\" for stdout output", runner.gotArgs)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if pages[0].Text != "first page" || pages[1].Text != "table of contents" {
		t.Errorf("pages = %+v", pages)
	}
}

func TestPDF_RunnerError(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("exit status 1")}
	p := NewPDF(runner)

	_, err := p.Extract(context.Background(), []byte("%PDF"), "broken.pdf")
	if err == nil {
		t.Fatal("expected error when pdftotext fails")
	}
	if !strings.Contains(err.Error(), "broken.pdf") {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestInstallInstructions(t *testing.T) {
	t.Parallel()

	got := InstallInstructions()
	if !strings.Contains(got, "pdftotext") || !strings.Contains(got, "poppler") {
		t.Errorf("instructions incomplete: %q", got)
	}
}
