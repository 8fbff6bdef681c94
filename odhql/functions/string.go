package functions

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/antchfx/xmlquery"
	"github.com/lestrrat-go/strftime"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

func text(name string) Param { return Param{Name: name, Kind: TextKind} }

func pattern(name string) Param { return Param{Name: name, Kind: RegexKind, Literal: true} }

func stringFunctions() []*Function {
	return []*Function{
		concatFunction(),
		trimFunction("TRIM", strings.Trim, strings.TrimSpace),
		trimFunction("LTRIM", strings.TrimLeft, func(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) }),
		trimFunction("RTRIM", strings.TrimRight, func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }),
		caseFunction("UPPER", func() cases.Caser { return cases.Upper(language.Und) }),
		caseFunction("LOWER", func() cases.Caser { return cases.Lower(language.Und) }),
		ElementWise("LEN", []Param{text("value")}, frame.Integer, func(args []any) (any, error) {
			return int64(utf8.RuneCountInString(args[0].(string))), nil
		}),
		extractFunction(),
		ElementWise("STARTSWITH", []Param{text("value"), text("start")}, frame.Boolean, func(args []any) (any, error) {
			return strings.HasPrefix(args[0].(string), args[1].(string)), nil
		}),
		ElementWise("ENDSWITH", []Param{text("value"), text("end")}, frame.Boolean, func(args []any) (any, error) {
			return strings.HasSuffix(args[0].(string), args[1].(string)), nil
		}),
		getFunction(),
		containsFunction(),
		replaceFunction(),
		ElementWise("REPEAT", []Param{text("value"), {Name: "times", Kind: IntKind}}, frame.Text, func(args []any) (any, error) {
			n := args[1].(int64)
			if n < 0 {
				n = 0
			}
			return strings.Repeat(args[0].(string), int(n)), nil
		}),
		padFunction(),
		countFunction(),
		substringFunction(),
		toCharFunction(),
		xpathFunction(),
	}
}

// concatFunction joins the text form of its arguments. Null in any
// argument yields null.
func concatFunction() *Function {
	params := []Param{{Name: "value1"}, {Name: "value2"}, {Name: "values", Variadic: true}}
	return ElementWise("CONCAT", params, frame.Text, func(args []any) (any, error) {
		var b strings.Builder
		for _, a := range args {
			b.WriteString(frame.FormatValue(a))
		}
		return b.String(), nil
	})
}

func trimFunction(name string, trimChars func(string, string) string, trimSpace func(string) string) *Function {
	params := []Param{text("value"), {Name: "chars", Kind: TextKind, Optional: true}}
	return ElementWise(name, params, frame.Text, func(args []any) (any, error) {
		s := args[0].(string)
		if chars, ok := args[1].(string); ok {
			return trimChars(s, chars), nil
		}
		return trimSpace(s), nil
	})
}

// caseFunction maps Unicode case. A Caser is stateful, so every call gets
// its own.
func caseFunction(name string, newCaser func() cases.Caser) *Function {
	f := &Function{Name: name, Params: []Param{text("value")}, Returns: frame.Text}
	f.Apply = func(c *Call) (*frame.Column, error) {
		caser := newCaser()
		return c.Map(0, func(v any) (any, error) {
			return caser.String(v.(string)), nil
		})
	}
	return f
}

// extractFunction returns the given capture group of the first match, or
// null when the pattern does not match.
func extractFunction() *Function {
	params := []Param{
		text("value"),
		pattern("pattern"),
		{Name: "group", Kind: IntKind, Optional: true, Default: int64(1), Literal: true},
	}
	f := &Function{Name: "EXTRACT", Params: params, Returns: frame.Text}
	f.Apply = func(c *Call) (*frame.Column, error) {
		re, _ := c.AssertRegex(1)
		if re == nil {
			return c.Result(make([]any, c.Rows))
		}
		group := c.Int(2, 1)
		if group < 0 || int(group) > re.NumSubexp() {
			return nil, c.fail(2, fmt.Sprintf("a group of the pattern (0 to %d)", re.NumSubexp()))
		}
		return c.Map(0, func(v any) (any, error) {
			m := re.FindStringSubmatchIndex(v.(string))
			if m == nil || m[2*group] < 0 {
				return nil, nil
			}
			return v.(string)[m[2*group]:m[2*group+1]], nil
		})
	}
	return f
}

// getFunction returns the character at a 0-based index; negative indexes
// count from the end. Out of range yields null.
func getFunction() *Function {
	params := []Param{text("value"), {Name: "index", Kind: IntKind}}
	return ElementWise("GET", params, frame.Text, func(args []any) (any, error) {
		runes := []rune(args[0].(string))
		i := int(args[1].(int64))
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return nil, nil
		}
		return string(runes[i]), nil
	})
}

func containsFunction() *Function {
	params := []Param{
		text("value"),
		{Name: "pattern", Kind: TextKind, Literal: true},
		{Name: "case", Kind: BoolKind, Optional: true, Default: true, Literal: true},
	}
	f := &Function{Name: "CONTAINS", Params: params, Returns: frame.Boolean}
	f.Apply = func(c *Call) (*frame.Column, error) {
		expr := c.Text(1, "")
		if sensitive, ok := c.Value(2).(bool); ok && !sensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, c.fail(1, "a valid regular expression ("+err.Error()+")")
		}
		return c.Map(0, func(v any) (any, error) {
			return re.MatchString(v.(string)), nil
		})
	}
	return f
}

// replaceFunction substitutes up to count matches (0 = all). The
// replacement may reference groups as $1 or ${name}.
func replaceFunction() *Function {
	params := []Param{
		text("value"),
		pattern("pattern"),
		{Name: "replacement", Kind: TextKind, Literal: true},
		{Name: "count", Kind: IntKind, Optional: true, Default: int64(0), Literal: true},
	}
	f := &Function{Name: "REPLACE", Params: params, Returns: frame.Text}
	f.Apply = func(c *Call) (*frame.Column, error) {
		re, _ := c.AssertRegex(1)
		if re == nil {
			return c.Result(make([]any, c.Rows))
		}
		repl := c.Text(2, "")
		count := int(c.Int(3, 0))
		return c.Map(0, func(v any) (any, error) {
			return replaceN(re, v.(string), repl, count), nil
		})
	}
	return f
}

func replaceN(re *regexp.Regexp, s, repl string, n int) string {
	if n <= 0 {
		return re.ReplaceAllString(s, repl)
	}
	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(s, n) {
		b.WriteString(s[last:m[0]])
		b.Write(re.ExpandString(nil, repl, s, m))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// padFunction pads to width runes with a single fill character. side names
// where the fill goes; "both" puts the odd character on the right.
func padFunction() *Function {
	params := []Param{
		text("value"),
		{Name: "width", Kind: IntKind, Literal: true},
		{Name: "side", Kind: TextKind, Optional: true, Default: "left", Literal: true, OneOf: []string{"left", "right", "both"}},
		{Name: "fillchar", Kind: TextKind, Optional: true, Default: " ", Literal: true},
	}
	f := &Function{Name: "PAD", Params: params, Returns: frame.Text}
	f.Apply = func(c *Call) (*frame.Column, error) {
		width := int(c.Int(1, 0))
		side, err := c.AssertIn(2, "left", "right", "both")
		if err != nil {
			return nil, err
		}
		fill := c.Text(3, " ")
		if utf8.RuneCountInString(fill) != 1 {
			return nil, c.fail(3, "exactly one character")
		}
		return c.Map(0, func(v any) (any, error) {
			s := v.(string)
			missing := width - utf8.RuneCountInString(s)
			if missing <= 0 {
				return s, nil
			}
			switch side {
			case "left":
				return strings.Repeat(fill, missing) + s, nil
			case "right":
				return s + strings.Repeat(fill, missing), nil
			default:
				left := missing / 2
				return strings.Repeat(fill, left) + s + strings.Repeat(fill, missing-left), nil
			}
		})
	}
	return f
}

func countFunction() *Function {
	f := &Function{Name: "COUNT", Params: []Param{text("value"), pattern("pattern")}, Returns: frame.Integer}
	f.Apply = func(c *Call) (*frame.Column, error) {
		re, _ := c.AssertRegex(1)
		if re == nil {
			return c.Result(make([]any, c.Rows))
		}
		return c.Map(0, func(v any) (any, error) {
			return int64(len(re.FindAllStringIndex(v.(string), -1))), nil
		})
	}
	return f
}

// substringFunction slices runes from a 0-based start, optionally limited
// to length runes.
func substringFunction() *Function {
	params := []Param{
		text("value"),
		{Name: "start", Kind: IntKind},
		{Name: "length", Kind: IntKind, Optional: true},
	}
	return ElementWise("SUBSTRING", params, frame.Text, func(args []any) (any, error) {
		runes := []rune(args[0].(string))
		start := clamp(int(args[1].(int64)), len(runes))
		end := len(runes)
		if length, ok := args[2].(int64); ok {
			if length < 0 {
				return nil, frame.NewExecutionError("SUBSTRING: argument \"length\" must be non-negative, got %d", length)
			}
			end = min(start+int(length), len(runes))
		}
		return string(runes[start:end]), nil
	})
}

func clamp(i, n int) int {
	if i < 0 {
		i += n
	}
	return max(0, min(i, n))
}

// toCharFunction formats values as text; datetimes accept a strftime
// format such as '%Y-%m-%d'.
func toCharFunction() *Function {
	params := []Param{{Name: "value"}, {Name: "format", Kind: TextKind, Optional: true, Literal: true}}
	f := &Function{Name: "TO_CHAR", Params: params, Returns: frame.Text}
	f.Apply = func(c *Call) (*frame.Column, error) {
		format, ok := c.Value(1).(string)
		if !ok {
			return c.Map(0, func(v any) (any, error) {
				return frame.FormatValue(v), nil
			})
		}
		if err := c.assertType(0, DateTimeKind, frame.DateTime); err != nil {
			return nil, err
		}
		formatter, err := strftime.New(format)
		if err != nil {
			return nil, c.fail(1, "a valid strftime format ("+err.Error()+")")
		}
		return c.Map(0, func(v any) (any, error) {
			return formatter.FormatString(v.(time.Time)), nil
		})
	}
	return f
}

// xpathFunction evaluates an XPath expression on XML text and returns the
// text of the first matching node, or null.
func xpathFunction() *Function {
	params := []Param{text("xml"), {Name: "path", Kind: TextKind, Literal: true}}
	f := &Function{Name: "XPATH", Params: params, Returns: frame.Text}
	f.Apply = func(c *Call) (*frame.Column, error) {
		path := c.Text(1, "")
		return c.Map(0, func(v any) (any, error) {
			doc, err := xmlquery.Parse(strings.NewReader(v.(string)))
			if err != nil {
				return nil, frame.NewExecutionError("XPATH: invalid XML: %v", err)
			}
			node, err := xmlquery.Query(doc, path)
			if err != nil {
				return nil, c.fail(1, "a valid XPath expression ("+err.Error()+")")
			}
			if node == nil {
				return nil, nil
			}
			return node.InnerText(), nil
		})
	}
	return f
}
