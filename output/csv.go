package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// CSVFormatter outputs rows as CSV format
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes rows as CSV. Nulls are empty cells.
func (c *CSVFormatter) Format(f *frame.Frame) error {
	csvWriter := csv.NewWriter(c.writer)

	if f.Width() > 0 {
		if err := csvWriter.Write(f.Names()); err != nil {
			return err
		}
	}

	for i := 0; i < f.Len(); i++ {
		row := f.Row(i)
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = formatCSVValue(v)
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// formatCSVValue converts a value to string for CSV output
func formatCSVValue(v any) string {
	if s, ok := v.(string); ok && len(s) > 0 {
		// Sanitize against CSV injection by prefixing characters that
		// trigger formula execution in spreadsheet applications
		switch s[0] {
		case '=', '+', '-', '@', '\t', '\r', '\n', '|':
			return "'" + strings.ReplaceAll(s, "'", "''")
		}
	}
	return frame.FormatValue(v)
}
