package tree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Renderer renders directory hierarchies read from a file system.
// A Renderer holds no per-render state and may be shared between goroutines.
type Renderer struct {
	fileSystem afero.Fs
}

// NewRenderer returns a Renderer reading from fileSystem.
// A nil fileSystem selects the operating system file system.
func NewRenderer(fileSystem afero.Fs) *Renderer {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Renderer{fileSystem: fileSystem}
}

// Render renders rootPath from the operating system file system.
func Render(rootPath string, configuration Configuration) (Result, error) {
	return NewRenderer(nil).Render(rootPath, configuration)
}

// RenderContext is Render with cancellation checked between directory listings.
func RenderContext(ctx context.Context, rootPath string, configuration Configuration) (Result, error) {
	return NewRenderer(nil).RenderContext(ctx, rootPath, configuration)
}

// Render walks rootPath depth first and returns its lines in pre-order.
func (renderer *Renderer) Render(rootPath string, configuration Configuration) (Result, error) {
	return renderer.RenderContext(context.Background(), rootPath, configuration)
}

// pendingEntry is an entry waiting on the traversal stack.
type pendingEntry struct {
	entry  Entry
	prefix string
	isLast bool
}

// RenderContext walks rootPath depth first and returns its lines in pre-order.
// Only an unusable root fails the call; subdirectories that cannot be listed are
// recorded in Result.Errors. The walk uses an explicit stack so arbitrarily deep
// hierarchies do not grow the goroutine stack.
func (renderer *Renderer) RenderContext(ctx context.Context, rootPath string, configuration Configuration) (Result, error) {
	absoluteRootPath, validationError := renderer.validateRoot(rootPath)
	if validationError != nil {
		return Result{}, validationError
	}
	if contextError := ctx.Err(); contextError != nil {
		return Result{}, contextError
	}

	rootEntries, readRootError := renderer.listDirectory(absoluteRootPath, 0, configuration)
	if readRootError != nil {
		return Result{}, &InvalidPathError{Path: rootPath, Reason: ReasonInaccessible, Err: readRootError}
	}

	result := Result{
		RootPath:  absoluteRootPath,
		RootLabel: formatName(filepath.Base(absoluteRootPath), absoluteRootPath, configuration),
	}

	var stack []pendingEntry
	stack = pushChildren(stack, rootEntries, "")

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		result.Lines = append(result.Lines, RenderLine{
			Text:  formatLine(current, configuration),
			Depth: current.entry.Depth,
			Entry: current.entry,
		})

		if !current.entry.IsDirectory || !withinDepth(current.entry.Depth+1, configuration) {
			continue
		}
		if contextError := ctx.Err(); contextError != nil {
			return Result{}, contextError
		}

		childEntries, readDirectoryError := renderer.listDirectory(current.entry.FullPath, current.entry.Depth+1, configuration)
		if readDirectoryError != nil {
			result.Errors = append(result.Errors, &EntryListingError{Path: current.entry.FullPath, Err: readDirectoryError})
			continue
		}
		childPrefix := current.prefix + continuationIndent
		if current.isLast {
			childPrefix = current.prefix + emptyIndent
		}
		stack = pushChildren(stack, childEntries, childPrefix)
	}

	return result, nil
}

// validateRoot resolves rootPath to an absolute path naming an existing directory.
func (renderer *Renderer) validateRoot(rootPath string) (string, error) {
	if strings.TrimSpace(rootPath) == "" {
		return "", &InvalidPathError{Path: rootPath, Reason: ReasonNotExist}
	}
	absoluteRootPath, absolutePathError := filepath.Abs(rootPath)
	if absolutePathError != nil {
		return "", &InvalidPathError{Path: rootPath, Reason: ReasonInaccessible, Err: absolutePathError}
	}
	rootInformation, statError := renderer.fileSystem.Stat(absoluteRootPath)
	if statError != nil {
		if errors.Is(statError, os.ErrNotExist) {
			return "", &InvalidPathError{Path: rootPath, Reason: ReasonNotExist, Err: statError}
		}
		return "", &InvalidPathError{Path: rootPath, Reason: ReasonInaccessible, Err: statError}
	}
	if !rootInformation.IsDir() {
		return "", &InvalidPathError{Path: rootPath, Reason: ReasonNotDirectory}
	}
	return absoluteRootPath, nil
}

// listDirectory returns the filtered and sorted children of directoryPath.
func (renderer *Renderer) listDirectory(directoryPath string, depth int, configuration Configuration) ([]Entry, error) {
	directoryEntries, readDirectoryError := afero.ReadDir(renderer.fileSystem, directoryPath)
	if readDirectoryError != nil {
		return nil, readDirectoryError
	}

	entries := make([]Entry, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		if !configuration.ShowHidden && isHidden(directoryEntry) {
			continue
		}
		if !configuration.IncludeFiles && !directoryEntry.IsDir() {
			continue
		}
		entries = append(entries, Entry{
			Name:        directoryEntry.Name(),
			FullPath:    filepath.Join(directoryPath, directoryEntry.Name()),
			IsDirectory: directoryEntry.IsDir(),
			Depth:       depth,
		})
	}
	sortEntries(entries)
	return entries, nil
}

// sortEntries orders directories before files, then names case-insensitively
// with the exact name breaking ties.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(leftIndex, rightIndex int) bool {
		left := entries[leftIndex]
		right := entries[rightIndex]
		if left.IsDirectory != right.IsDirectory {
			return left.IsDirectory
		}
		leftFolded := strings.ToLower(left.Name)
		rightFolded := strings.ToLower(right.Name)
		if leftFolded != rightFolded {
			return leftFolded < rightFolded
		}
		return left.Name < right.Name
	})
}

// pushChildren pushes entries in reverse so the first entry is popped first.
func pushChildren(stack []pendingEntry, entries []Entry, prefix string) []pendingEntry {
	for entryIndex := len(entries) - 1; entryIndex >= 0; entryIndex-- {
		stack = append(stack, pendingEntry{
			entry:  entries[entryIndex],
			prefix: prefix,
			isLast: entryIndex == len(entries)-1,
		})
	}
	return stack
}

func withinDepth(depth int, configuration Configuration) bool {
	return configuration.MaxDepth <= 0 || depth < configuration.MaxDepth
}

func formatLine(pending pendingEntry, configuration Configuration) string {
	connector := branchConnector
	if pending.isLast {
		connector = lastBranchConnector
	}
	return pending.prefix + connector + formatName(pending.entry.Name, pending.entry.FullPath, configuration)
}

func formatName(name string, fullPath string, configuration Configuration) string {
	if !configuration.ShowFullPath {
		return name
	}
	return fmt.Sprintf(fullPathFormat, name, fullPath)
}
