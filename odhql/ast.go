package odhql

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// Node is any AST node. String renders it back to OdhQL text.
type Node interface {
	String() string
}

// Expression is a value-producing node: *Field, *LiteralExpression,
// *Function, *CaseExpression or *AliasedExpression.
type Expression interface {
	Node
	expressionNode()
}

// Condition is a boolean node: *BinaryCondition, *InCondition,
// *IsNullCondition, *PredicateCondition, *FilterCombination or
// *FilterAlternative.
type Condition interface {
	Node
	conditionNode()
}

// Source is a FROM clause entry: *DataSource or *JoinedDataSource.
type Source interface {
	Node
	sourceNode()
}

// OrderTarget is what ORDER BY sorts on: *Field, *OrderByAlias or
// *OrderByPosition.
type OrderTarget interface {
	Node
	orderTargetNode()
}

// Union is the root of every parsed statement. A lone SELECT is a union of
// one query; its ORDER BY then lives on the query.
type Union struct {
	Queries []*Query
	Order   []*OrderBy
}

// Query is one SELECT statement.
type Query struct {
	Fields  []Expression
	Sources []Source
	Filter  Condition
	Order   []*OrderBy
}

// Field references a column as prefix.name.
type Field struct {
	Prefix string
	Name   string
}

// LiteralExpression is a constant: nil, int64, float64, string or bool.
type LiteralExpression struct {
	Value any
}

// Function calls a registered function.
type Function struct {
	Name string
	Args []Expression
}

// CaseRule is one WHEN ... THEN ... branch. ELSE has a nil Condition.
type CaseRule struct {
	Condition  Condition
	Expression Expression
}

// CaseExpression picks the first matching rule per row.
type CaseExpression struct {
	Rules []*CaseRule
}

// AliasedExpression names the result of an expression.
type AliasedExpression struct {
	Inner Expression
	Alias string
}

// DataSource names a source frame and the alias it is referenced by.
type DataSource struct {
	Name  string
	Alias string
}

// JoinedDataSource joins a data source on one or more equalities.
type JoinedDataSource struct {
	DataSource
	JoinType  frame.JoinType
	Condition *JoinConditionList
}

// JoinConditionList is the conjunction of join equalities.
type JoinConditionList struct {
	Conditions []*BinaryCondition
}

// Operator is a binary comparison operator.
type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLike         Operator = "like"
	OpNotLike      Operator = "not like"
)

// BinaryCondition compares two expressions.
type BinaryCondition struct {
	Left     Expression
	Operator Operator
	Right    Expression
	Invert   bool
}

// InCondition tests membership in a list of literals.
type InCondition struct {
	Left   Expression
	Values []*LiteralExpression
	Invert bool
}

// IsNullCondition tests a field for null.
type IsNullCondition struct {
	Field  *Field
	Invert bool
}

// PredicateCondition uses a function result as a boolean.
type PredicateCondition struct {
	Function *Function
	Invert   bool
}

// FilterCombination is the AND of its conditions.
type FilterCombination struct {
	Conditions []Condition
	Invert     bool
}

// FilterAlternative is the OR of its conditions.
type FilterAlternative struct {
	Conditions []Condition
	Invert     bool
}

// Direction is the sort direction of an ORDER BY entry.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// OrderBy is one ORDER BY entry.
type OrderBy struct {
	Target    OrderTarget
	Direction Direction
}

// OrderByAlias sorts by a selected alias.
type OrderByAlias struct {
	Alias string
}

// OrderByPosition sorts by the 1-based position of a selected column.
type OrderByPosition struct {
	Position int
}

func (*Field) expressionNode()             {}
func (*LiteralExpression) expressionNode() {}
func (*Function) expressionNode()          {}
func (*CaseExpression) expressionNode()    {}
func (*AliasedExpression) expressionNode() {}

func (*BinaryCondition) conditionNode()    {}
func (*InCondition) conditionNode()        {}
func (*IsNullCondition) conditionNode()    {}
func (*PredicateCondition) conditionNode() {}
func (*FilterCombination) conditionNode()  {}
func (*FilterAlternative) conditionNode()  {}

func (*DataSource) sourceNode()       {}
func (*JoinedDataSource) sourceNode() {}

func (*Field) orderTargetNode()           {}
func (*OrderByAlias) orderTargetNode()    {}
func (*OrderByPosition) orderTargetNode() {}

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// QuoteIdentifier returns name as written in a query, quoting it when it is
// not a plain identifier or collides with a keyword.
func QuoteIdentifier(name string) string {
	if plainIdentifier.MatchString(name) && !IsKeyword(name) {
		return name
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(name) + `"`
}

func quoteString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\t", `\t`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}

func (u *Union) String() string {
	parts := make([]string, len(u.Queries))
	for i, q := range u.Queries {
		parts[i] = q.String()
	}
	return strings.Join(parts, " UNION ") + orderClause(u.Order)
}

func (q *Query) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(joinNodes(q.Fields, ", "))
	b.WriteString(" FROM ")
	b.WriteString(joinNodes(q.Sources, " "))
	if q.Filter != nil {
		b.WriteString(" WHERE ")
		b.WriteString(q.Filter.String())
	}
	b.WriteString(orderClause(q.Order))
	return b.String()
}

func orderClause(order []*OrderBy) string {
	if len(order) == 0 {
		return ""
	}
	return " ORDER BY " + joinNodes(order, ", ")
}

func joinNodes[T Node](nodes []T, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, sep)
}

func (f *Field) String() string {
	return QuoteIdentifier(f.Prefix) + "." + QuoteIdentifier(f.Name)
}

func (l *LiteralExpression) String() string {
	switch v := l.Value.(type) {
	case nil:
		return "null"
	case string:
		return quoteString(v)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	default:
		return frame.FormatValue(v)
	}
}

func (f *Function) String() string {
	return f.Name + "(" + joinNodes(f.Args, ", ") + ")"
}

func (c *CaseExpression) String() string {
	var b strings.Builder
	b.WriteString("CASE")
	for _, r := range c.Rules {
		if r.Condition == nil {
			b.WriteString(" ELSE ")
		} else {
			b.WriteString(" WHEN ")
			b.WriteString(r.Condition.String())
			b.WriteString(" THEN ")
		}
		b.WriteString(r.Expression.String())
	}
	b.WriteString(" END")
	return b.String()
}

func (a *AliasedExpression) String() string {
	return a.Inner.String() + " AS " + QuoteIdentifier(a.Alias)
}

func (d *DataSource) String() string {
	if d.Alias == "" || d.Alias == d.Name {
		return QuoteIdentifier(d.Name)
	}
	return QuoteIdentifier(d.Name) + " AS " + QuoteIdentifier(d.Alias)
}

func (j *JoinedDataSource) String() string {
	prefix := ""
	switch j.JoinType {
	case frame.LeftJoin:
		prefix = "LEFT "
	case frame.RightJoin:
		prefix = "RIGHT "
	case frame.OuterJoin:
		prefix = "FULL OUTER "
	}
	return prefix + "JOIN " + j.DataSource.String() + " ON " + j.Condition.String()
}

func (l *JoinConditionList) String() string {
	if len(l.Conditions) == 1 {
		return l.Conditions[0].String()
	}
	return "(" + joinNodes(l.Conditions, " AND ") + ")"
}

func (c *BinaryCondition) String() string {
	s := c.Left.String() + " " + strings.ToUpper(string(c.Operator)) + " " + c.Right.String()
	return invert(s, c.Invert)
}

func (c *InCondition) String() string {
	op := " IN ("
	if c.Invert {
		op = " NOT IN ("
	}
	return c.Left.String() + op + joinNodes(c.Values, ", ") + ")"
}

func (c *IsNullCondition) String() string {
	if c.Invert {
		return c.Field.String() + " IS NOT NULL"
	}
	return c.Field.String() + " IS NULL"
}

func (c *PredicateCondition) String() string {
	if c.Invert {
		return "NOT " + c.Function.String()
	}
	return c.Function.String()
}

func (c *FilterCombination) String() string {
	return invert(joinConditions(c.Conditions, " AND "), c.Invert)
}

func (c *FilterAlternative) String() string {
	return invert(joinConditions(c.Conditions, " OR "), c.Invert)
}

// joinConditions parenthesizes nested groups so they parse back to the
// same tree.
func joinConditions(conds []Condition, sep string) string {
	parts := make([]string, len(conds))
	for i, cond := range conds {
		parts[i] = cond.String()
		switch group := cond.(type) {
		case *FilterAlternative:
			if !group.Invert {
				parts[i] = "(" + parts[i] + ")"
			}
		case *FilterCombination:
			if !group.Invert {
				parts[i] = "(" + parts[i] + ")"
			}
		}
	}
	return strings.Join(parts, sep)
}

// invert wraps s as NOT (s) when set.
func invert(s string, inverted bool) string {
	if !inverted {
		return s
	}
	return "NOT (" + s + ")"
}

func (o *OrderBy) String() string {
	if o.Direction == Descending {
		return o.Target.String() + " DESC"
	}
	return o.Target.String()
}

func (a *OrderByAlias) String() string {
	return QuoteIdentifier(a.Alias)
}

func (p *OrderByPosition) String() string {
	return strconv.Itoa(p.Position)
}
