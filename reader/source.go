package reader

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// maxFiles bounds how many files a glob pattern may expand to.
const maxFiles = 1000

// FileColumn holds the source path of each row when a pattern matched
// several files.
const FileColumn = "_file"

// Spec describes one named data source.
type Spec struct {
	// Name is the table name queries refer to.
	Name string `yaml:"name"`
	// Path is a file path or glob pattern.
	Path string `yaml:"path"`
	// Table selects the table of a SQLite database.
	Table string `yaml:"table,omitempty"`
	// CRS is attached to geometry columns read from text.
	CRS int `yaml:"crs,omitempty"`
}

// ParseSpec parses "name=path" or "name=path#table". Without a name the
// file name without extension is used.
func ParseSpec(s string) (Spec, error) {
	var spec Spec
	name, path, ok := strings.Cut(s, "=")
	if ok {
		spec.Name = strings.TrimSpace(name)
	} else {
		path = name
	}
	if p, table, ok := strings.Cut(path, "#"); ok {
		path, spec.Table = p, table
	}
	spec.Path = strings.TrimSpace(path)
	if spec.Path == "" {
		return Spec{}, fmt.Errorf("invalid source %q: missing path", s)
	}
	if spec.Name == "" {
		base := filepath.Base(spec.Path)
		spec.Name = strings.TrimSuffix(base, filepath.Ext(base))
		if spec.Table != "" {
			spec.Name = spec.Table
		}
	}
	return spec, nil
}

// Format identifies the reader for a path by its extension.
func Format(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return "parquet", nil
	case ".csv":
		return "csv", nil
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported file type %q: %s", ext, path)
	}
}

// Load reads the source described by spec into a frame named spec.Name.
//
// Patterns containing wildcards are expanded; the matching files are
// concatenated and tagged with a "_file" column. A plain path never gets
// that column.
func Load(spec Spec) (*frame.Frame, error) {
	if !strings.ContainsAny(spec.Path, "*?[]") {
		return loadFile(spec, spec.Path)
	}

	matches, err := filepath.Glob(spec.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", spec.Path)
	}
	if len(matches) > maxFiles {
		return nil, fmt.Errorf("glob pattern matched too many files (%d), maximum is %d", len(matches), maxFiles)
	}

	var result *frame.Frame
	for _, path := range matches {
		f, err := loadFile(spec, path)
		if err != nil {
			return nil, err
		}
		if f, err = f.WithColumn(frame.Broadcast(FileColumn, path, f.Len())); err != nil {
			return nil, err
		}
		if result == nil {
			result = f
			continue
		}
		if result, err = concat(result, f); err != nil {
			return nil, fmt.Errorf("failed to combine %s: %w", path, err)
		}
	}
	return result, nil
}

func loadFile(spec Spec, path string) (*frame.Frame, error) {
	format, err := Format(path)
	if err != nil {
		return nil, err
	}

	var f *frame.Frame
	switch format {
	case "parquet":
		f, err = ReadParquet(spec.Name, path)
	case "csv":
		f, err = ReadCSV(spec.Name, path, spec.CRS)
	case "sqlite":
		table := spec.Table
		if table == "" {
			table = spec.Name
		}
		f, err = ReadSQLite(spec.Name, path, table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	slog.Debug("loaded source", "name", spec.Name, "path", path, "rows", f.Len(), "columns", f.Width())
	return f, nil
}

// concat appends the rows of b to a. Both must have the same columns in
// the same order.
func concat(a, b *frame.Frame) (*frame.Frame, error) {
	if strings.Join(a.Names(), ",") != strings.Join(b.Names(), ",") {
		return nil, fmt.Errorf("columns %v do not match %v", b.Names(), a.Names())
	}
	columns := make([]*frame.Column, a.Width())
	for i := range columns {
		columns[i] = a.ColumnAt(i).Append(b.ColumnAt(i))
	}
	return frame.New(a.Name(), columns...)
}

// LoadAll loads every spec, keyed by lowercased name as queries look
// them up.
func LoadAll(specs []Spec) (map[string]*frame.Frame, error) {
	sources := make(map[string]*frame.Frame, len(specs))
	for _, spec := range specs {
		key := strings.ToLower(spec.Name)
		if _, exists := sources[key]; exists {
			return nil, fmt.Errorf("duplicate source name %q", spec.Name)
		}
		f, err := Load(spec)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", spec.Name, err)
		}
		sources[key] = f
	}
	return sources, nil
}
