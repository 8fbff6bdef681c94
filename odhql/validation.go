package odhql

import (
	"errors"
	"fmt"
)

// Limits on OdhQL statements. Parse rejects anything larger with a
// *ParseError that wraps one of the sentinels below.
const (
	// MaxQueryLength bounds the statement text in bytes.
	MaxQueryLength = 1024 * 1024

	// MaxTokens bounds the number of tokens of a statement, EOF excluded.
	MaxTokens = 10000

	// MaxNestingDepth bounds how deep parenthesized filters, CASE
	// expressions and function arguments may nest.
	MaxNestingDepth = 100
)

var (
	// ErrQueryTooLong: the statement text exceeds MaxQueryLength.
	ErrQueryTooLong = errors.New("statement too long")

	// ErrTooManyTokens: the statement exceeds MaxTokens.
	ErrTooManyTokens = errors.New("statement has too many tokens")

	// ErrNestingTooDeep: filters or expressions nest deeper than
	// MaxNestingDepth.
	ErrNestingTooDeep = errors.New("filters or expressions nested too deep")
)

// ValidateQuery checks the size of statement text before it is tokenized.
func ValidateQuery(query string) error {
	if len(query) > MaxQueryLength {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrQueryTooLong, len(query), MaxQueryLength)
	}
	return nil
}

// ValidateTokens checks the token count of a tokenized statement.
func ValidateTokens(tokens []Token) error {
	n := len(tokens)
	if n > 0 && tokens[n-1].Type == TokenEOF {
		n--
	}
	if n > MaxTokens {
		return fmt.Errorf("%w: %d tokens, limit is %d", ErrTooManyTokens, n, MaxTokens)
	}
	return nil
}

// depthCounter follows the recursion of the filter and expression rules.
type depthCounter struct {
	depth int
	limit int
}

func newDepthCounter() *depthCounter {
	return &depthCounter{limit: MaxNestingDepth}
}

func (c *depthCounter) enter() error {
	c.depth++
	if c.depth > c.limit {
		return fmt.Errorf("%w: depth %d, limit is %d", ErrNestingTooDeep, c.depth, c.limit)
	}
	return nil
}

func (c *depthCounter) exit() {
	c.depth--
}
