// Package reader loads data sources into frames for OdhQL queries.
//
// Parquet, CSV and SQLite files are supported; the reader is chosen by
// file extension. Every loaded frame is named after its source so that
// queries can refer to it.
//
// # Basic Usage
//
// Loading a single source:
//
//	spec, err := reader.ParseSpec("employee=data/employee.parquet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	f, err := reader.Load(spec)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// SQLite tables are selected with a fragment, "staff=company.db#employee".
//
// # Multi-file Sources
//
// A path containing wildcards is expanded and the matching files are
// concatenated. Their columns must match; each row carries the path it
// came from in a "_file" column:
//
//	f, err := reader.Load(reader.Spec{Name: "logs", Path: "logs/*.parquet"})
//
// # Type Inference
//
// Parquet and SQLite columns take their type from the file schema. CSV
// cells are text, so each column gets the narrowest type all its cells
// parse as: BIGINT, FLOAT, BOOLEAN, DATETIME, GEOMETRY (WKT) or TEXT.
// Empty cells are null.
package reader
