// Package output renders result frames.
//
// This package defines the Formatter interface and implementations for
// JSON Lines, JSON arrays, CSV and ASCII tables. Formatters write columns
// in frame order and render values the way TEXT conversion does, e.g.
// DATETIME as "2006-01-02 15:04:05" and geometries as WKT.
//
// # Basic Usage
//
//	formatter, err := output.New("table", os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := formatter.Format(result); err != nil {
//	    log.Fatal(err)
//	}
//
// # Writing to Different Destinations
//
//	var buf bytes.Buffer
//	formatter.SetOutput(&buf)
//	if err := formatter.Format(result); err != nil {
//	    log.Fatal(err)
//	}
//
// # Type Handling
//
//   - JSON keeps integers, floats and booleans native; other values are
//     strings and nulls are null
//   - CSV writes nulls as empty cells and prefixes text that starts with
//     a formula character with a single quote
//   - Tables print nulls as NULL
package output
