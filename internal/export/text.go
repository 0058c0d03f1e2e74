// Package export writes rendered trees to files.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// TextFileExtension is the extension given to exported trees.
	TextFileExtension = ".txt"

	textFilePermissions = 0o644
	lineTerminator      = "\n"

	operationResolve = "resolve"
	operationCreate  = "create"
	operationWrite   = "write"
	operationClose   = "close"

	ioErrorFormat = "%s %s: %v"
)

// ErrEmptyPath is the cause reported for a blank output path.
var ErrEmptyPath = errors.New("output path is empty")

// IOError reports a failure to save an exported tree.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (ioError *IOError) Error() string {
	return fmt.Sprintf(ioErrorFormat, ioError.Op, ioError.Path, ioError.Err)
}

func (ioError *IOError) Unwrap() error {
	return ioError.Err
}

// ResolveTextPath appends TextFileExtension unless outputPath already ends with it.
func ResolveTextPath(outputPath string) (string, error) {
	trimmedPath := strings.TrimSpace(outputPath)
	if trimmedPath == "" {
		return "", &IOError{Path: outputPath, Op: operationResolve, Err: ErrEmptyPath}
	}
	if strings.EqualFold(filepath.Ext(trimmedPath), TextFileExtension) {
		return trimmedPath, nil
	}
	return trimmedPath + TextFileExtension, nil
}

// WriteText writes lines to outputPath as UTF-8 text, one newline-terminated
// line per element. An existing file is truncated.
func WriteText(outputPath string, lines []string) (err error) {
	if strings.TrimSpace(outputPath) == "" {
		return &IOError{Path: outputPath, Op: operationResolve, Err: ErrEmptyPath}
	}
	// #nosec G304
	fileHandle, createError := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, textFilePermissions)
	if createError != nil {
		return &IOError{Path: outputPath, Op: operationCreate, Err: createError}
	}
	defer func() {
		if closeError := fileHandle.Close(); closeError != nil && err == nil {
			err = &IOError{Path: outputPath, Op: operationClose, Err: closeError}
		}
	}()

	writer := bufio.NewWriter(fileHandle)
	for _, line := range lines {
		if _, writeError := writer.WriteString(line + lineTerminator); writeError != nil {
			return &IOError{Path: outputPath, Op: operationWrite, Err: writeError}
		}
	}
	if flushError := writer.Flush(); flushError != nil {
		return &IOError{Path: outputPath, Op: operationWrite, Err: flushError}
	}
	return nil
}
