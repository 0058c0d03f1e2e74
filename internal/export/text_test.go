package export_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/dirtree/internal/export"
)

func TestWriteTextWritesLines(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "tree.txt")
	if err := os.WriteFile(outputPath, []byte("stale content that is longer"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	lines := []string{"project", "├── docs", "└── readme.md"}
	if err := export.WriteText(outputPath, lines); err != nil {
		t.Fatalf("WriteText error: %v", err)
	}
	written, readError := os.ReadFile(outputPath)
	if readError != nil {
		t.Fatalf("read output: %v", readError)
	}
	expected := "project\n├── docs\n└── readme.md\n"
	if string(written) != expected {
		t.Fatalf("unexpected content %q", string(written))
	}
}

func TestWriteTextReportsIOError(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "missing", "tree.txt")
	err := export.WriteText(outputPath, []string{"root"})
	var ioError *export.IOError
	if !errors.As(err, &ioError) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if ioError.Path != outputPath {
		t.Fatalf("unexpected path %s", ioError.Path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist cause, got %v", ioError.Err)
	}
}

func TestResolveTextPath(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    string
		expectError bool
	}{
		{name: "keeps_txt", input: "tree.txt", expected: "tree.txt"},
		{name: "keeps_upper_txt", input: "TREE.TXT", expected: "TREE.TXT"},
		{name: "appends_missing", input: "tree", expected: "tree.txt"},
		{name: "appends_other", input: "tree.md", expected: "tree.md.txt"},
		{name: "rejects_empty", input: "  ", expectError: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			resolved, err := export.ResolveTextPath(testCase.input)
			if testCase.expectError {
				var ioError *export.IOError
				if !errors.As(err, &ioError) {
					t.Fatalf("expected IOError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveTextPath error: %v", err)
			}
			if resolved != testCase.expected {
				t.Fatalf("expected %s, got %s", testCase.expected, resolved)
			}
		})
	}
}
