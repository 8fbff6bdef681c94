package output

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// nullText marks nulls in tables, where an empty cell would be ambiguous.
const nullText = "NULL"

// TableFormatter outputs rows as an ASCII table
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (t *TableFormatter) SetOutput(w io.Writer) {
	t.writer = w
}

// Format writes the frame as a left-aligned table with a header row.
// Column names are printed as they are.
func (t *TableFormatter) Format(f *frame.Frame) error {
	if f.Width() == 0 {
		return nil
	}

	table := tablewriter.NewWriter(t.writer)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(f.Names())

	for i := 0; i < f.Len(); i++ {
		row := f.Row(i)
		cells := make([]string, len(row))
		for j, v := range row {
			if v == nil {
				cells[j] = nullText
				continue
			}
			cells[j] = frame.FormatValue(v)
		}
		table.Append(cells)
	}
	table.Render()
	return nil
}
