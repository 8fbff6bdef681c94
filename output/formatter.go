// Package output provides formatters for rendering query results.
//
// Currently supported formats:
//   - jsonl: One JSON object per line
//   - json: A JSON array of objects
//   - csv: Comma-separated values with header row
//   - table: An ASCII table for terminals
//
// Example usage:
//
//	formatter, err := output.New("csv", os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := formatter.Format(result); err != nil {
//	    log.Fatal(err)
//	}
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// Formatter defines the interface for output formatters.
//
// Implementers must provide Format to render a frame in the target format
// and SetOutput to change the output destination. Columns are written in
// frame order.
type Formatter interface {
	// Format writes the frame in the formatter's specific format
	Format(f *frame.Frame) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// Formats lists the names accepted by New.
func Formats() []string {
	return []string{"jsonl", "json", "csv", "table"}
}

// New returns the formatter registered under name, case-insensitively.
func New(name string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(name) {
	case "jsonl":
		return NewJSONFormatter(w), nil
	case "json":
		return NewJSONArrayFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "table":
		return NewTableFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: %s)", name, strings.Join(Formats(), ", "))
	}
}
