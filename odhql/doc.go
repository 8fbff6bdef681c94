// Package odhql parses and executes OdhQL, a small SQL dialect over
// in-memory frames.
//
// The language supports:
//   - SELECT with fields, function calls, CASE expressions and aliases
//   - FROM with INNER, LEFT, RIGHT and FULL OUTER joins on equalities
//   - WHERE with comparisons, IN, IS NULL, LIKE (regular expression search)
//     and boolean function predicates
//   - UNION of queries selecting the same number of fields
//   - ORDER BY field, alias or 1-based position
//
// Fields are always written as source.column, where source is the name or
// alias of a data source in FROM.
//
// # Basic Usage
//
// Parse and execute in one step:
//
//	employees := frame.MustNew("employee",
//	    frame.NewColumn("id", []any{0, 1}),
//	    frame.NewColumn("prename", []any{"Dieter", "Lukas"}),
//	)
//
//	result, err := odhql.Run(
//	    "SELECT UPPER(e.prename) AS name FROM employee AS e WHERE e.id > 0",
//	    map[string]*frame.Frame{"employee": employees},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Errors
//
// Malformed query text yields a *ParseError carrying the line and column.
// Semantic failures while executing (unknown sources or columns, type
// mismatches, failed function arguments) yield an *ExecutionError.
// Neither is retried or partially applied.
//
// # Functions
//
// Function calls resolve case-insensitively in a functions.Registry.
// Execute and Run use functions.Default(); use NewInterpreter to run
// queries with additional functions:
//
//	reg := functions.NewDefault()
//	reg.RegisterFunc("double", 1, func(c *functions.Call) (*frame.Column, error) {
//	    return c.Map(0, func(v any) (any, error) { return v.(int64) * 2, nil })
//	})
//	result, err := odhql.NewInterpreter(reg).Execute(stmt, sources)
package odhql
