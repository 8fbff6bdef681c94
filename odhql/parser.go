package odhql

import (
	"errors"
	"strconv"
	"strings"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// Parser parses OdhQL token streams into an AST
type Parser struct {
	tokens []Token
	pos    int
	depth  *depthCounter
}

// NewParser creates a new parser
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens, depth: newDepthCounter()}
}

// Parse parses an OdhQL statement. The result is always a Union; errors are
// *ParseError.
func Parse(query string) (*Union, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, &ParseError{Message: err.Error(), Line: 1, Column: 1, Err: unwrapSentinel(err)}
	}

	tokens := Tokenize(query)
	if err := ValidateTokens(tokens); err != nil {
		return nil, &ParseError{Message: err.Error(), Line: 1, Column: 1, Err: unwrapSentinel(err)}
	}

	p := NewParser(tokens)
	u, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return u, nil
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(query string) *Union {
	u, err := Parse(query)
	if err != nil {
		panic(err)
	}
	return u
}

func unwrapSentinel(err error) error {
	for _, sentinel := range []error{ErrQueryTooLong, ErrTooManyTokens, ErrNestingTooDeep} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

// current returns the current token
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

// peek returns the next token without advancing
func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+1]
}

// advance moves to the next token
func (p *Parser) advance() {
	p.pos++
}

func (p *Parser) is(types ...TokenType) bool {
	cur := p.current().Type
	for _, t := range types {
		if cur == t {
			return true
		}
	}
	return false
}

// accept advances past the current token when it has type t.
func (p *Parser) accept(t TokenType) bool {
	if p.is(t) {
		p.advance()
		return true
	}
	return false
}

// expect checks if current token matches expected type and advances
func (p *Parser) expect(t TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != t {
		return tok, p.unexpected(t.String())
	}
	p.advance()
	return tok, nil
}

// unexpected reports the current token where something else was wanted.
func (p *Parser) unexpected(want string) *ParseError {
	tok := p.current()
	switch tok.Type {
	case TokenError:
		return newParseError(tok, "invalid token, expected %s", want)
	case TokenEOF:
		return newParseError(tok, "unexpected end of input, expected %s", want)
	default:
		return newParseError(tok, "expected %s", want)
	}
}

func (p *Parser) enter() error {
	if err := p.depth.enter(); err != nil {
		pe := newParseError(p.current(), "%v", err)
		pe.Err = ErrNestingTooDeep
		return pe
	}
	return nil
}

// parseStatement parses: query (UNION query)* [ORDER BY ...] EOF
func (p *Parser) parseStatement() (*Union, error) {
	u := &Union{}
	for {
		q, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		u.Queries = append(u.Queries, q)
		if !p.accept(TokenUnion) {
			break
		}
	}

	if p.accept(TokenOrder) {
		if _, err := p.expect(TokenBy); err != nil {
			return nil, err
		}
		order, err := p.parseOrderList()
		if err != nil {
			return nil, err
		}
		u.Order = order
	}

	if !p.is(TokenEOF) {
		if p.is(TokenError) {
			return nil, newParseError(p.current(), "invalid token")
		}
		return nil, newParseError(p.current(), "unexpected trailing input")
	}

	if len(u.Queries) == 1 {
		u.Queries[0].Order, u.Order = u.Order, nil
	}
	return u, nil
}

// parseQuery parses: SELECT fields FROM source join* [WHERE filter]
func (p *Parser) parseQuery() (*Query, error) {
	if _, err := p.expect(TokenSelect); err != nil {
		return nil, err
	}

	q := &Query{}
	for {
		field, err := p.parseAliasedExpression()
		if err != nil {
			return nil, err
		}
		q.Fields = append(q.Fields, field)
		if !p.accept(TokenComma) {
			break
		}
	}

	if _, err := p.expect(TokenFrom); err != nil {
		return nil, err
	}
	ds, err := p.parseDataSource()
	if err != nil {
		return nil, err
	}
	q.Sources = append(q.Sources, ds)

	for p.is(TokenJoin, TokenInner, TokenLeft, TokenRight, TokenFull, TokenOuter) {
		join, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		q.Sources = append(q.Sources, join)
	}

	if p.accept(TokenWhere) {
		filter, err := p.parseFilterAlternative()
		if err != nil {
			return nil, err
		}
		q.Filter = filter
	}
	return q, nil
}

// parseAliasedExpression parses a select list entry. Literals and CASE
// expressions must be aliased.
func (p *Parser) parseAliasedExpression() (Expression, error) {
	start := p.current()
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if p.accept(TokenAs) {
		alias, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return &AliasedExpression{Inner: expr, Alias: alias}, nil
	}

	switch expr.(type) {
	case *LiteralExpression:
		return nil, newParseError(start, "literal values must be aliased with AS")
	case *CaseExpression:
		return nil, newParseError(start, "CASE expressions must be aliased with AS")
	}
	return expr, nil
}

// parseExpression parses a field, function call, literal or CASE.
func (p *Parser) parseExpression() (Expression, error) {
	switch p.current().Type {
	case TokenString, TokenNumber, TokenTrue, TokenFalse, TokenNull:
		return p.parseLiteral()
	case TokenCase:
		return p.parseCase()
	case TokenIdent:
		if p.peek().Type == TokenLeftParen {
			return p.parseFunction()
		}
		return p.parseField()
	case TokenQuotedIdent:
		return p.parseField()
	default:
		return nil, p.unexpected("a field, function or value")
	}
}

// parseLiteral parses: 'string' | number | TRUE | FALSE | NULL
func (p *Parser) parseLiteral() (*LiteralExpression, error) {
	tok := p.current()
	switch tok.Type {
	case TokenString:
		p.advance()
		return &LiteralExpression{Value: tok.Value}, nil
	case TokenTrue, TokenFalse:
		p.advance()
		return &LiteralExpression{Value: tok.Type == TokenTrue}, nil
	case TokenNull:
		p.advance()
		return &LiteralExpression{}, nil
	case TokenNumber:
		p.advance()
		if strings.Contains(tok.Value, ".") {
			f, err := strconv.ParseFloat(tok.Value, 64)
			if err != nil {
				return nil, newParseError(tok, "invalid number")
			}
			return &LiteralExpression{Value: f}, nil
		}
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, newParseError(tok, "invalid integer")
		}
		return &LiteralExpression{Value: n}, nil
	default:
		return nil, p.unexpected("a value")
	}
}

// parseIdentifier parses a plain or quoted identifier.
func (p *Parser) parseIdentifier() (string, error) {
	tok := p.current()
	if tok.Type != TokenIdent && tok.Type != TokenQuotedIdent {
		return "", p.unexpected("an identifier")
	}
	p.advance()
	return tok.Value, nil
}

// parseField parses: prefix.name
func (p *Parser) parseField() (*Field, error) {
	prefix, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if !p.is(TokenDot) {
		return nil, p.unexpected("'.' (fields are written as prefix.name)")
	}
	p.advance()
	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	return &Field{Prefix: prefix, Name: name}, nil
}

// parseFunction parses: name(arg, ...)
func (p *Parser) parseFunction() (*Function, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.depth.exit()

	name := p.current().Value
	p.advance()
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}

	fn := &Function{Name: name}
	if p.accept(TokenRightParen) {
		return fn, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		fn.Args = append(fn.Args, arg)
		if !p.accept(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return fn, nil
}

// parseCase parses: CASE (WHEN filter THEN expr)+ [ELSE expr] END
func (p *Parser) parseCase() (*CaseExpression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.depth.exit()

	p.advance() // CASE
	c := &CaseExpression{}
	for p.accept(TokenWhen) {
		cond, err := p.parseFilterAlternative()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenThen); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Rules = append(c.Rules, &CaseRule{Condition: cond, Expression: expr})
	}
	if len(c.Rules) == 0 {
		return nil, p.unexpected("WHEN")
	}
	if p.accept(TokenElse) {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Rules = append(c.Rules, &CaseRule{Expression: expr})
	}
	if _, err := p.expect(TokenEnd); err != nil {
		return nil, err
	}
	return c, nil
}

// parseDataSource parses: name [AS alias]
func (p *Parser) parseDataSource() (*DataSource, error) {
	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	ds := &DataSource{Name: name, Alias: name}
	if p.accept(TokenAs) {
		if ds.Alias, err = p.parseIdentifier(); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// parseJoin parses: [INNER | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER] | OUTER] JOIN source ON condition
func (p *Parser) parseJoin() (*JoinedDataSource, error) {
	how := frame.InnerJoin
	switch {
	case p.accept(TokenInner):
	case p.accept(TokenLeft):
		how = frame.LeftJoin
		p.accept(TokenOuter)
	case p.accept(TokenRight):
		how = frame.RightJoin
		p.accept(TokenOuter)
	case p.accept(TokenFull):
		how = frame.OuterJoin
		p.accept(TokenOuter)
	case p.accept(TokenOuter):
		how = frame.OuterJoin
	}
	if _, err := p.expect(TokenJoin); err != nil {
		return nil, err
	}

	ds, err := p.parseDataSource()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenOn); err != nil {
		return nil, err
	}

	cond := &JoinConditionList{}
	if p.accept(TokenLeftParen) {
		for {
			eq, err := p.parseJoinEquality()
			if err != nil {
				return nil, err
			}
			cond.Conditions = append(cond.Conditions, eq)
			if !p.accept(TokenAnd) {
				break
			}
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
	} else {
		eq, err := p.parseJoinEquality()
		if err != nil {
			return nil, err
		}
		cond.Conditions = append(cond.Conditions, eq)
	}
	return &JoinedDataSource{DataSource: *ds, JoinType: how, Condition: cond}, nil
}

// parseJoinEquality parses: expr = expr, with a field on at least one side.
func (p *Parser) parseJoinEquality() (*BinaryCondition, error) {
	start := p.current()
	left, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenEqual); err != nil {
		return nil, err
	}
	right, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	_, leftField := left.(*Field)
	_, rightField := right.(*Field)
	if !leftField && !rightField {
		return nil, newParseError(start, "join condition needs a field on at least one side")
	}
	return &BinaryCondition{Left: left, Operator: OpEqual, Right: right}, nil
}

// parseOrderList parses: target [ASC|DESC] (, target [ASC|DESC])*
func (p *Parser) parseOrderList() ([]*OrderBy, error) {
	var order []*OrderBy
	for {
		o, err := p.parseOrderBy()
		if err != nil {
			return nil, err
		}
		order = append(order, o)
		if !p.accept(TokenComma) {
			return order, nil
		}
	}
}

func (p *Parser) parseOrderBy() (*OrderBy, error) {
	tok := p.current()
	o := &OrderBy{}
	switch {
	case tok.Type == TokenNumber:
		n, err := strconv.Atoi(tok.Value)
		if err != nil || n < 1 {
			return nil, newParseError(tok, "ORDER BY position must be a positive integer")
		}
		p.advance()
		o.Target = &OrderByPosition{Position: n}
	case (tok.Type == TokenIdent || tok.Type == TokenQuotedIdent) && p.peek().Type == TokenDot:
		field, err := p.parseField()
		if err != nil {
			return nil, err
		}
		o.Target = field
	case tok.Type == TokenIdent || tok.Type == TokenQuotedIdent:
		p.advance()
		o.Target = &OrderByAlias{Alias: tok.Value}
	default:
		return nil, p.unexpected("a field, alias or position")
	}

	if p.accept(TokenDesc) {
		o.Direction = Descending
	} else {
		p.accept(TokenAsc)
	}
	return o, nil
}

// parseFilterAlternative parses: combination (OR combination)*
func (p *Parser) parseFilterAlternative() (Condition, error) {
	first, err := p.parseFilterCombination()
	if err != nil {
		return nil, err
	}
	if !p.is(TokenOr) {
		return first, nil
	}
	alt := &FilterAlternative{Conditions: []Condition{first}}
	for p.accept(TokenOr) {
		next, err := p.parseFilterCombination()
		if err != nil {
			return nil, err
		}
		alt.Conditions = append(alt.Conditions, next)
	}
	return alt, nil
}

// parseFilterCombination parses: term (AND term)*
func (p *Parser) parseFilterCombination() (Condition, error) {
	first, err := p.parseFilterTerm()
	if err != nil {
		return nil, err
	}
	if !p.is(TokenAnd) {
		return first, nil
	}
	comb := &FilterCombination{Conditions: []Condition{first}}
	for p.accept(TokenAnd) {
		next, err := p.parseFilterTerm()
		if err != nil {
			return nil, err
		}
		comb.Conditions = append(comb.Conditions, next)
	}
	return comb, nil
}

// parseFilterTerm parses a single condition, a parenthesized group or
// their negation.
func (p *Parser) parseFilterTerm() (Condition, error) {
	if p.is(TokenNot) {
		switch p.peek().Type {
		case TokenLeftParen:
			p.advance()
			cond, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			return negate(cond), nil
		case TokenIdent:
			p.advance()
			if p.peek().Type != TokenLeftParen {
				return nil, p.unexpected("a function call or '(' after NOT")
			}
			fn, err := p.parseFunction()
			if err != nil {
				return nil, err
			}
			return &PredicateCondition{Function: fn, Invert: true}, nil
		default:
			p.advance()
			return nil, p.unexpected("a function call or '(' after NOT")
		}
	}

	if p.is(TokenLeftParen) {
		return p.parseGroup()
	}

	start := p.current()
	left, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	switch p.current().Type {
	case TokenIs:
		p.advance()
		inverted := p.accept(TokenNot)
		if _, err := p.expect(TokenNull); err != nil {
			return nil, err
		}
		field, ok := left.(*Field)
		if !ok {
			return nil, newParseError(start, "IS NULL can only be applied to a field")
		}
		return &IsNullCondition{Field: field, Invert: inverted}, nil

	case TokenNot:
		p.advance()
		switch {
		case p.is(TokenIn):
			return p.parseIn(left, true)
		case p.is(TokenLike):
			return p.parseLike(start, left, OpNotLike)
		default:
			return nil, p.unexpected("IN or LIKE after NOT")
		}

	case TokenIn:
		return p.parseIn(left, false)

	case TokenLike:
		return p.parseLike(start, left, OpLike)

	case TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual:
		op := comparisonOperators[p.current().Type]
		p.advance()
		right, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := checkOperands(start, left, right); err != nil {
			return nil, err
		}
		return &BinaryCondition{Left: left, Operator: op, Right: right}, nil
	}

	if fn, ok := left.(*Function); ok {
		return &PredicateCondition{Function: fn}, nil
	}
	return nil, p.unexpected("a comparison")
}

var comparisonOperators = map[TokenType]Operator{
	TokenEqual:        OpEqual,
	TokenNotEqual:     OpNotEqual,
	TokenLess:         OpLess,
	TokenLessEqual:    OpLessEqual,
	TokenGreater:      OpGreater,
	TokenGreaterEqual: OpGreaterEqual,
}

// parseGroup parses: ( alternative )
func (p *Parser) parseGroup() (Condition, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.depth.exit()

	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	cond, err := p.parseFilterAlternative()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return cond, nil
}

// parseIn parses: IN (literal, ...) with the IN keyword current.
func (p *Parser) parseIn(left Expression, inverted bool) (Condition, error) {
	p.advance() // IN
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	in := &InCondition{Left: left, Invert: inverted}
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		in.Values = append(in.Values, lit)
		if !p.accept(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return in, nil
}

// parseLike parses: LIKE 'pattern' with the LIKE keyword current.
func (p *Parser) parseLike(start Token, left Expression, op Operator) (Condition, error) {
	p.advance() // LIKE
	patternTok := p.current()
	right, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if lit, ok := right.(*LiteralExpression); !ok || !isString(lit.Value) {
		return nil, newParseError(patternTok, "LIKE pattern must be a string literal")
	}
	if err := checkOperands(start, left, right); err != nil {
		return nil, err
	}
	return &BinaryCondition{Left: left, Operator: op, Right: right}, nil
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

// checkOperands rejects conditions between two constants.
func checkOperands(start Token, left, right Expression) error {
	_, leftLit := left.(*LiteralExpression)
	_, rightLit := right.(*LiteralExpression)
	if leftLit && rightLit {
		return newParseError(start, "condition compares two literal values")
	}
	return nil
}

// negate flips the inversion flag of a condition.
func negate(cond Condition) Condition {
	switch c := cond.(type) {
	case *BinaryCondition:
		c.Invert = !c.Invert
	case *InCondition:
		c.Invert = !c.Invert
	case *IsNullCondition:
		c.Invert = !c.Invert
	case *PredicateCondition:
		c.Invert = !c.Invert
	case *FilterCombination:
		c.Invert = !c.Invert
	case *FilterAlternative:
		c.Invert = !c.Invert
	default:
		unreachable(cond)
	}
	return cond
}
