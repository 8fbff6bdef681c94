package odhql

import (
	"fmt"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// ParseError reports query text that does not match the grammar.
type ParseError struct {
	Message string
	Line    int
	Column  int
	// Token is the offending token as written, empty at end of input
	Token string
	// Err is the sentinel behind input-limit violations
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error at line %d, column %d near %s: %s", e.Line, e.Column, e.Token, e.Message)
}

// Unwrap returns the underlying sentinel error, if any.
func (e *ParseError) Unwrap() error { return e.Err }

// ExecutionError is a semantic failure while running a query.
type ExecutionError = frame.ExecutionError

func newParseError(tok Token, format string, args ...any) *ParseError {
	text := tok.Text()
	if tok.Type == TokenEOF {
		text = ""
	}
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
		Token:   text,
	}
}

func errorf(format string, args ...any) *ExecutionError {
	return frame.NewExecutionError(format, args...)
}

// unreachable marks AST shapes the parser never produces.
func unreachable(node any) {
	panic(fmt.Sprintf("odhql: unreachable: unexpected node %T", node))
}
