package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/dirtree/internal/tokenizer"
	"github.com/temirov/dirtree/internal/tree"
	"github.com/temirov/dirtree/internal/utils"
)

type recordingCopier struct {
	copied []string
	err    error
}

func (copier *recordingCopier) Copy(text string) error {
	copier.copied = append(copier.copied, text)
	return copier.err
}

type wordCounter struct{}

func (wordCounter) Name() string { return "words" }

func (wordCounter) CountString(input string) (int, error) {
	return len(strings.Fields(input)), nil
}

type testHarness struct {
	app    *application
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	copier *recordingCopier
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", os.Getenv("HOME"))

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	copier := &recordingCopier{}
	app := newApplication(stdout, stderr)
	app.workingDirectory = t.TempDir()
	app.copier = copier
	app.loggerFactory = func(utils.LoggerOptions) (*zap.Logger, error) {
		return zap.NewNop(), nil
	}
	app.counterFactory = func(string) (tokenizer.Counter, string, error) {
		return wordCounter{}, "words", nil
	}
	return &testHarness{app: app, stdout: stdout, stderr: stderr, copier: copier}
}

func (harness *testHarness) run(arguments ...string) error {
	rootCommand := harness.app.createRootCommand()
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, arguments))
	return rootCommand.ExecuteContext(context.Background())
}

// createProject builds root/A/a.txt, root/b.txt and root/.cache/.
func createProject(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "project")
	for _, directory := range []string{filepath.Join(root, "A"), filepath.Join(root, ".cache")} {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", directory, err)
		}
	}
	for _, file := range []string{filepath.Join(root, "A", "a.txt"), filepath.Join(root, "b.txt")} {
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", file, err)
		}
	}
	return root
}

func TestTreeCommandRendersDirectoriesFirst(t *testing.T) {
	harness := newTestHarness(t)
	root := createProject(t)

	if err := harness.run("tree", root); err != nil {
		t.Fatalf("tree command failed: %v", err)
	}
	expected := "project\n├── A\n│   └── a.txt\n└── b.txt\n"
	if harness.stdout.String() != expected {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", harness.stdout.String(), expected)
	}
	if harness.stderr.Len() != 0 {
		t.Fatalf("expected no warnings, got %q", harness.stderr.String())
	}
}

func TestTreeCommandFlags(t *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
		expected  string
	}{
		{
			name:      "hidden_entries",
			arguments: []string{"t", "--all"},
			expected:  "project\n├── .cache\n├── A\n│   └── a.txt\n└── b.txt\n",
		},
		{
			name:      "folders_only_short",
			arguments: []string{"tree", "-n"},
			expected:  "project\n└── A\n",
		},
		{
			name:      "files_literal_false",
			arguments: []string{"tree", "--files", "no"},
			expected:  "project\n└── A\n",
		},
		{
			name:      "depth_one",
			arguments: []string{"tree", "--depth", "1"},
			expected:  "project\n├── A\n└── b.txt\n",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			harness := newTestHarness(t)
			root := createProject(t)
			if err := harness.run(append(testCase.arguments, root)...); err != nil {
				t.Fatalf("tree command failed: %v", err)
			}
			if harness.stdout.String() != testCase.expected {
				t.Fatalf("unexpected output:\n%s\nwant:\n%s", harness.stdout.String(), testCase.expected)
			}
		})
	}
}

func TestTreeCommandShowsFullPaths(t *testing.T) {
	harness := newTestHarness(t)
	root := createProject(t)

	if err := harness.run("tree", "-p", "-n", root); err != nil {
		t.Fatalf("tree command failed: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(harness.stdout.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", lines)
	}
	if lines[0] != "project ("+root+")" {
		t.Fatalf("unexpected root label %q", lines[0])
	}
	if lines[1] != "└── A ("+filepath.Join(root, "A")+")" {
		t.Fatalf("unexpected line %q", lines[1])
	}
}

func TestTreeCommandRejectsInvalidRoot(t *testing.T) {
	harness := newTestHarness(t)
	missing := filepath.Join(t.TempDir(), "missing")

	err := harness.run("tree", missing)
	if err == nil {
		t.Fatalf("expected error for missing root")
	}
	if !strings.Contains(err.Error(), invalidFolderMessage) {
		t.Fatalf("expected %q in %q", invalidFolderMessage, err.Error())
	}
	var invalidPathError *tree.InvalidPathError
	if !errors.As(err, &invalidPathError) || invalidPathError.Reason != tree.ReasonNotExist {
		t.Fatalf("expected not-exist InvalidPathError, got %v", err)
	}
	if harness.stdout.Len() != 0 {
		t.Fatalf("expected no output, got %q", harness.stdout.String())
	}
}

func TestTreeCommandRejectsNegativeDepth(t *testing.T) {
	harness := newTestHarness(t)
	root := createProject(t)
	if err := harness.run("tree", "--depth", "-1", root); err == nil {
		t.Fatalf("expected error for negative depth")
	}
}

func TestTreeCommandPrintsRootsInArgumentOrder(t *testing.T) {
	harness := newTestHarness(t)
	first := createProject(t)
	second := filepath.Join(t.TempDir(), "second")
	if err := os.MkdirAll(filepath.Join(second, "only"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := harness.run("tree", "--summary", second, first); err != nil {
		t.Fatalf("tree command failed: %v", err)
	}
	expected := "second\n└── only\n\nSummary:\n  Directories: 1\n  Files: 0\n" +
		"\nproject\n├── A\n│   └── a.txt\n└── b.txt\n\nSummary:\n  Directories: 1\n  Files: 2\n"
	if harness.stdout.String() != expected {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", harness.stdout.String(), expected)
	}
}

func TestTreeCommandExportsAndCopies(t *testing.T) {
	harness := newTestHarness(t)
	root := createProject(t)
	outputBase := filepath.Join(t.TempDir(), "structure")

	if err := harness.run("tree", "--output", outputBase, "--copy", "--tokens", "--summary", root); err != nil {
		t.Fatalf("tree command failed: %v", err)
	}

	expectedTree := "project\n├── A\n│   └── a.txt\n└── b.txt\n"
	content, readError := os.ReadFile(outputBase + ".txt")
	if readError != nil {
		t.Fatalf("read export: %v", readError)
	}
	if string(content) != expectedTree {
		t.Fatalf("unexpected export:\n%s", content)
	}
	if len(harness.copier.copied) != 1 || harness.copier.copied[0] != expectedTree {
		t.Fatalf("unexpected clipboard content %q", harness.copier.copied)
	}
	if !strings.Contains(harness.stdout.String(), "  Tokens: 8 (words)\n") {
		t.Fatalf("expected token summary in %q", harness.stdout.String())
	}
}

func TestTreeCommandIgnoresClipboardFailure(t *testing.T) {
	harness := newTestHarness(t)
	harness.copier.err = errors.New("no clipboard")
	root := createProject(t)

	if err := harness.run("tree", "--copy", root); err != nil {
		t.Fatalf("clipboard failure must not fail the command: %v", err)
	}
}

func TestTreeCommandReportsExportFailure(t *testing.T) {
	harness := newTestHarness(t)
	root := createProject(t)
	outputPath := filepath.Join(t.TempDir(), "missing", "structure.txt")

	err := harness.run("tree", "-o", outputPath, root)
	if err == nil {
		t.Fatalf("expected export error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist cause, got %v", err)
	}
}

func TestTreeCommandConfigurationPrecedence(t *testing.T) {
	harness := newTestHarness(t)
	root := createProject(t)
	configuration := "tree:\n  show_hidden: true\n  include_files: false\n"
	configPath := filepath.Join(harness.app.workingDirectory, utils.ConfigFileName)
	if err := os.WriteFile(configPath, []byte(configuration), 0o600); err != nil {
		t.Fatalf("write configuration: %v", err)
	}

	if err := harness.run("tree", root); err != nil {
		t.Fatalf("tree command failed: %v", err)
	}
	if harness.stdout.String() != "project\n├── .cache\n└── A\n" {
		t.Fatalf("configuration not applied:\n%s", harness.stdout.String())
	}

	harness.stdout.Reset()
	if err := harness.run("tree", "--all", "off", "--files", root); err != nil {
		t.Fatalf("tree command failed: %v", err)
	}
	if harness.stdout.String() != "project\n├── A\n│   └── a.txt\n└── b.txt\n" {
		t.Fatalf("flags did not override configuration:\n%s", harness.stdout.String())
	}
}

func TestTreeCommandRequiresExplicitConfigFile(t *testing.T) {
	harness := newTestHarness(t)
	root := createProject(t)
	if err := harness.run("--config", "absent.yaml", "tree", root); err == nil {
		t.Fatalf("expected error for missing explicit configuration")
	}
}

func TestInitCommandWritesConfiguration(t *testing.T) {
	harness := newTestHarness(t)

	if err := harness.run("init"); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	configPath := filepath.Join(harness.app.workingDirectory, utils.ConfigFileName)
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("expected configuration at %s: %v", configPath, err)
	}
	if !strings.Contains(harness.stdout.String(), configPath) {
		t.Fatalf("expected path in output %q", harness.stdout.String())
	}
	if err := harness.run("init"); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := harness.run("init", "--force"); err != nil {
		t.Fatalf("forced init failed: %v", err)
	}
}

func TestTreeCommandPrintsTokensWithoutSummary(t *testing.T) {
	harness := newTestHarness(t)
	root := createProject(t)

	if err := harness.run("tree", "--tokens", root); err != nil {
		t.Fatalf("tree command failed: %v", err)
	}
	expected := "project\n├── A\n│   └── a.txt\n└── b.txt\n\nTokens: 8 (words)\n"
	if harness.stdout.String() != expected {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", harness.stdout.String(), expected)
	}
}

func TestInitCommandRepairsMalformedConfiguration(t *testing.T) {
	harness := newTestHarness(t)
	root := createProject(t)
	configPath := filepath.Join(harness.app.workingDirectory, utils.ConfigFileName)
	if err := os.WriteFile(configPath, []byte("tree: [broken"), 0o600); err != nil {
		t.Fatalf("write configuration: %v", err)
	}
	if err := harness.run("tree", root); err == nil {
		t.Fatalf("expected malformed configuration to fail the tree command")
	}

	if err := harness.run("init", "--force"); err != nil {
		t.Fatalf("init --force must not read the existing configuration: %v", err)
	}
	harness.stdout.Reset()
	if err := harness.run("tree", root); err != nil {
		t.Fatalf("tree command failed after repair: %v", err)
	}
	if harness.stdout.String() != "project\n├── A\n│   └── a.txt\n└── b.txt\n" {
		t.Fatalf("unexpected output after repair:\n%s", harness.stdout.String())
	}
}

// lockedDirectoryFs denies listing of a single directory.
type lockedDirectoryFs struct {
	afero.Fs
	locked string
}

func (fileSystem lockedDirectoryFs) Open(name string) (afero.File, error) {
	if filepath.Clean(name) == fileSystem.locked {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return fileSystem.Fs.Open(name)
}

func TestTreeCommandWarnsAboutUnreadableSubdirectories(t *testing.T) {
	harness := newTestHarness(t)
	core, recorded := observer.New(zap.WarnLevel)
	harness.app.loggerFactory = func(utils.LoggerOptions) (*zap.Logger, error) {
		return zap.New(core), nil
	}
	memoryFs := afero.NewMemMapFs()
	lockedPath := filepath.Join(string(filepath.Separator), "work", "project", "locked")
	if err := memoryFs.MkdirAll(lockedPath, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	readmePath := filepath.Join(filepath.Dir(lockedPath), "readme.md")
	if err := afero.WriteFile(memoryFs, readmePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	harness.app.renderer = tree.NewRenderer(lockedDirectoryFs{Fs: memoryFs, locked: lockedPath})

	if err := harness.run("tree", filepath.Dir(lockedPath)); err != nil {
		t.Fatalf("listing errors must not fail the command: %v", err)
	}
	if harness.stdout.String() != "project\n├── locked\n└── readme.md\n" {
		t.Fatalf("unexpected output:\n%s", harness.stdout.String())
	}
	if !strings.Contains(harness.stderr.String(), "Warning: skipping subdirectory "+lockedPath) {
		t.Fatalf("expected stderr warning, got %q", harness.stderr.String())
	}
	entries := recorded.FilterMessage(logMessageListingSkipped).All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning log entry, got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel || entries[0].ContextMap()[logFieldPath] != lockedPath {
		t.Fatalf("unexpected log entry %+v", entries[0])
	}
}

func TestTreeCommandPassesLogRotationSettings(t *testing.T) {
	harness := newTestHarness(t)
	var captured utils.LoggerOptions
	harness.app.loggerFactory = func(options utils.LoggerOptions) (*zap.Logger, error) {
		captured = options
		return zap.NewNop(), nil
	}
	configuration := "log:\n  file: dirtree.log\n  max_size_mb: 42\n"
	configPath := filepath.Join(harness.app.workingDirectory, utils.ConfigFileName)
	if err := os.WriteFile(configPath, []byte(configuration), 0o600); err != nil {
		t.Fatalf("write configuration: %v", err)
	}

	if err := harness.run("--log-level", "debug", "tree", createProject(t)); err != nil {
		t.Fatalf("tree command failed: %v", err)
	}
	if captured.Level != "debug" || captured.FilePath != "dirtree.log" {
		t.Fatalf("unexpected logger options %+v", captured)
	}
	if captured.MaxSizeMB != 42 || captured.MaxBackups != utils.DefaultLogMaxBackups || captured.MaxAgeDays != utils.DefaultLogMaxAgeDays {
		t.Fatalf("unexpected rotation settings %+v", captured)
	}
}
