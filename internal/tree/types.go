// Package tree walks a directory hierarchy and renders it as indented text lines.
package tree

import "strings"

const (
	// branchConnector precedes an entry that has siblings after it.
	branchConnector = "├── "
	// lastBranchConnector precedes the last entry among its siblings.
	lastBranchConnector = "└── "
	// continuationIndent is emitted for an ancestor level that has further siblings.
	continuationIndent = "│   "
	// emptyIndent is emitted for an ancestor level that was the last sibling.
	emptyIndent = "    "
	// fullPathFormat appends the absolute path after an entry name.
	fullPathFormat = "%s (%s)"
	lineTerminator = "\n"
)

// Configuration selects which entries are rendered and how their lines look.
// The zero MaxDepth renders the whole hierarchy.
type Configuration struct {
	ShowHidden   bool
	IncludeFiles bool
	ShowFullPath bool
	MaxDepth     int
}

// DefaultConfiguration mirrors the defaults of the command line: hidden entries
// are skipped, files are listed, and names are shown without paths.
func DefaultConfiguration() Configuration {
	return Configuration{
		ShowHidden:   false,
		IncludeFiles: true,
		ShowFullPath: false,
	}
}

// Entry is a file system object encountered during traversal.
type Entry struct {
	Name        string
	FullPath    string
	IsDirectory bool
	Depth       int
}

// RenderLine is one formatted line of output.
type RenderLine struct {
	Text  string
	Depth int
	Entry Entry
}

// Summary aggregates the entries of a rendered tree.
type Summary struct {
	Directories int
	Files       int
	Errors      int
}

// Result holds the rendered lines for one root in traversal order together with
// the subdirectories that could not be listed. The root itself is described by
// RootLabel and is not part of Lines; its immediate children have depth zero.
type Result struct {
	RootPath  string
	RootLabel string
	Lines     []RenderLine
	Errors    []*EntryListingError
}

// Texts returns the root label followed by the text of every line.
func (result Result) Texts() []string {
	texts := make([]string, 0, len(result.Lines)+1)
	texts = append(texts, result.RootLabel)
	for _, line := range result.Lines {
		texts = append(texts, line.Text)
	}
	return texts
}

// Text joins Texts, terminating every line with a newline.
func (result Result) Text() string {
	var builder strings.Builder
	for _, text := range result.Texts() {
		builder.WriteString(text)
		builder.WriteString(lineTerminator)
	}
	return builder.String()
}

// Summary counts the rendered directories and files and the listing errors.
func (result Result) Summary() Summary {
	summary := Summary{Errors: len(result.Errors)}
	for _, line := range result.Lines {
		if line.Entry.IsDirectory {
			summary.Directories++
		} else {
			summary.Files++
		}
	}
	return summary
}
