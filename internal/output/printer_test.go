package output_test

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/temirov/dirtree/internal/output"
	"github.com/temirov/dirtree/internal/tokenizer"
	"github.com/temirov/dirtree/internal/tree"
)

func sampleResult() tree.Result {
	return tree.Result{
		RootPath:  "/work/project",
		RootLabel: "project",
		Lines: []tree.RenderLine{
			{Text: "├── docs", Entry: tree.Entry{Name: "docs", IsDirectory: true}},
			{Text: "│   └── guide.md", Depth: 1, Entry: tree.Entry{Name: "guide.md", Depth: 1}},
			{Text: "└── locked", Entry: tree.Entry{Name: "locked", IsDirectory: true}},
		},
		Errors: []*tree.EntryListingError{
			{Path: "/work/project/locked", Err: os.ErrPermission},
		},
	}
}

func TestPrinterWritesTreeAndWarnings(t *testing.T) {
	var stdout, stderr bytes.Buffer
	printer := output.NewPrinter(&stdout, &stderr, false)
	if err := printer.Print(output.Report{Result: sampleResult()}); err != nil {
		t.Fatalf("Print error: %v", err)
	}
	expectedTree := "project\n├── docs\n│   └── guide.md\n└── locked\n"
	if stdout.String() != expectedTree {
		t.Fatalf("unexpected stdout:\n%s", stdout.String())
	}
	expectedWarning := "Warning: skipping subdirectory /work/project/locked: permission denied\n"
	if stderr.String() != expectedWarning {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

func TestPrinterWritesSummary(t *testing.T) {
	var stdout bytes.Buffer
	printer := output.NewPrinter(&stdout, nil, true)
	report := output.Report{
		Result: sampleResult(),
		Tokens: &tokenizer.Estimate{Tokens: 12, Model: "gpt-4o"},
	}
	if err := printer.Print(report); err != nil {
		t.Fatalf("Print error: %v", err)
	}
	for _, expected := range []string{"Summary:", "  Directories: 2", "  Files: 1", "  Errors: 1", "  Tokens: 12 (gpt-4o)"} {
		if !strings.Contains(stdout.String(), expected) {
			t.Fatalf("summary missing %q:\n%s", expected, stdout.String())
		}
	}
}

func TestPrinterOmitsZeroErrorsAndSeparatesReports(t *testing.T) {
	var stdout bytes.Buffer
	printer := output.NewPrinter(&stdout, nil, true)
	result := tree.Result{RootLabel: "empty"}
	for iteration := 0; iteration < 2; iteration++ {
		if err := printer.Print(output.Report{Result: result}); err != nil {
			t.Fatalf("Print error: %v", err)
		}
	}
	if strings.Contains(stdout.String(), "Errors:") {
		t.Fatalf("errors line must be omitted when there are none:\n%s", stdout.String())
	}
	if strings.Count(stdout.String(), "empty\n") != 2 || !strings.Contains(stdout.String(), "  Files: 0\n\nempty\n") {
		t.Fatalf("reports must be separated by a blank line:\n%s", stdout.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestPrinterPropagatesWriteErrors(t *testing.T) {
	printer := output.NewPrinter(failingWriter{}, nil, false)
	if err := printer.Print(output.Report{Result: sampleResult()}); err == nil {
		t.Fatalf("expected write error")
	}
}

func TestPrinterWritesTokensWithoutSummary(t *testing.T) {
	var stdout bytes.Buffer
	printer := output.NewPrinter(&stdout, nil, false)
	report := output.Report{
		Result: tree.Result{RootLabel: "project", Lines: []tree.RenderLine{{Text: "└── main.go"}}},
		Tokens: &tokenizer.Estimate{Tokens: 4, Model: "cl100k_base"},
	}
	if err := printer.Print(report); err != nil {
		t.Fatalf("Print error: %v", err)
	}
	expected := "project\n└── main.go\n\nTokens: 4 (cl100k_base)\n"
	if stdout.String() != expected {
		t.Fatalf("unexpected stdout %q, want %q", stdout.String(), expected)
	}
}

func TestPrinterPropagatesWarningWriteErrors(t *testing.T) {
	var stdout bytes.Buffer
	printer := output.NewPrinter(&stdout, failingWriter{}, false)
	if err := printer.Print(output.Report{Result: sampleResult()}); err == nil {
		t.Fatalf("expected warning write error")
	}
}
