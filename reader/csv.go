package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// ReadCSV reads a CSV file with a header row into a frame. Empty cells are
// null. Column types are inferred from the cell text; geometry columns
// written as WKT get the given CRS (0 for none).
func ReadCSV(name, path string, crs int) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return readCSV(name, file, crs)
}

func readCSV(name string, r io.Reader, crs int) (*frame.Frame, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return frame.Empty(name), nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	cells := make([][]string, len(header))
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		for i := range header {
			cells[i] = append(cells[i], record[i])
		}
	}

	columns := make([]*frame.Column, len(header))
	for i, h := range header {
		col, err := inferColumn(strings.TrimSpace(h), cells[i], crs)
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}
	return frame.New(name, columns...)
}

// inferColumn picks the narrowest type every non-empty cell parses as:
// integer, float, boolean, datetime, WKT geometry, then text.
func inferColumn(name string, cells []string, crs int) (*frame.Column, error) {
	parsers := []struct {
		typ   frame.OdhType
		parse func(string) (any, bool)
	}{
		{frame.BigInt, parseInt},
		{frame.Float, parseFloat},
		{frame.Boolean, parseBool},
		{frame.DateTime, parseDateTime},
		{frame.Geometry, parseGeometry},
	}

	for _, p := range parsers {
		values, ok := parseAll(cells, p.parse)
		if !ok {
			continue
		}
		col, err := frame.NewTypedColumn(name, p.typ, values)
		if err != nil {
			return nil, err
		}
		if p.typ == frame.Geometry && crs != 0 {
			col = col.WithCRS(crs)
		}
		return col, nil
	}

	values, _ := parseAll(cells, func(s string) (any, bool) { return s, true })
	return frame.NewTypedColumn(name, frame.Text, values)
}

// parseAll converts every cell, mapping empty cells to null. It fails if
// any cell does not parse or if all cells are empty.
func parseAll(cells []string, parse func(string) (any, bool)) ([]any, bool) {
	values := make([]any, len(cells))
	seen := false
	for i, cell := range cells {
		if cell == "" {
			continue
		}
		v, ok := parse(cell)
		if !ok {
			return nil, false
		}
		values[i] = v
		seen = true
	}
	return values, seen
}

func parseInt(s string) (any, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return v, err == nil
}

func parseFloat(s string) (any, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

func parseBool(s string) (any, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return nil, false
}

// parseDateTime only considers text that looks like a date, so plain words
// are never read as one.
func parseDateTime(s string) (any, bool) {
	if !strings.ContainsAny(s, "-/:") {
		return nil, false
	}
	t, err := frame.ParseDateTime(s)
	return t, err == nil
}

func parseGeometry(s string) (any, bool) {
	g, err := frame.ParseWKT(s)
	return g, err == nil
}
