// Package output prints rendered trees and their diagnostics.
package output

import (
	"fmt"
	"io"

	"github.com/temirov/dirtree/internal/tokenizer"
	"github.com/temirov/dirtree/internal/tree"
)

const (
	warningSkipSubdirFormat = "Warning: skipping subdirectory %s: %v\n"
	summaryHeader           = "Summary:"
	summaryDirectoriesLine  = "  Directories: %d\n"
	summaryFilesLine        = "  Files: %d\n"
	summaryErrorsLine       = "  Errors: %d\n"
	summaryTokensLine       = "  Tokens: %d (%s)\n"
	tokensLine              = "Tokens: %d (%s)\n"
)

// Report is one rendered root together with its optional token estimate.
type Report struct {
	Result tree.Result
	Tokens *tokenizer.Estimate
}

// Printer writes reports to stdout and listing warnings to stderr.
type Printer struct {
	stdout         io.Writer
	stderr         io.Writer
	includeSummary bool
	printedReports int
}

// NewPrinter constructs a Printer. Reports printed after the first are separated by a blank line.
func NewPrinter(stdout, stderr io.Writer, includeSummary bool) *Printer {
	return &Printer{
		stdout:         stdout,
		stderr:         stderr,
		includeSummary: includeSummary,
	}
}

// Print writes the tree text of report and its warnings. The summary follows
// when enabled; otherwise a token estimate, if any, is printed on its own line.
func (printer *Printer) Print(report Report) error {
	if printer.printedReports > 0 {
		if _, err := fmt.Fprintln(printer.stdout); err != nil {
			return err
		}
	}
	printer.printedReports++

	if _, err := io.WriteString(printer.stdout, report.Result.Text()); err != nil {
		return err
	}
	if printer.stderr != nil {
		for _, listingError := range report.Result.Errors {
			if _, err := fmt.Fprintf(printer.stderr, warningSkipSubdirFormat, listingError.Path, listingError.Err); err != nil {
				return err
			}
		}
	}
	if printer.includeSummary {
		return printer.printSummary(report)
	}
	if report.Tokens != nil {
		if _, err := fmt.Fprintf(printer.stdout, "\n"+tokensLine, report.Tokens.Tokens, report.Tokens.Model); err != nil {
			return err
		}
	}
	return nil
}

func (printer *Printer) printSummary(report Report) error {
	summary := report.Result.Summary()
	if _, err := fmt.Fprintf(printer.stdout, "\n%s\n", summaryHeader); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(printer.stdout, summaryDirectoriesLine, summary.Directories); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(printer.stdout, summaryFilesLine, summary.Files); err != nil {
		return err
	}
	if summary.Errors > 0 {
		if _, err := fmt.Fprintf(printer.stdout, summaryErrorsLine, summary.Errors); err != nil {
			return err
		}
	}
	if report.Tokens != nil {
		if _, err := fmt.Fprintf(printer.stdout, summaryTokensLine, report.Tokens.Tokens, report.Tokens.Model); err != nil {
			return err
		}
	}
	return nil
}
