package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/coolbeans/kmdp/pkg/store"
)

var (
	xsdBoolean = store.NamespaceXSD + "boolean"
	xsdInteger = store.NamespaceXSD + "integer"
	xsdDecimal = store.NamespaceXSD + "decimal"
	xsdDouble  = store.NamespaceXSD + "double"

	trueTerm  = store.NewTypedLiteral("true", xsdBoolean)
	falseTerm = store.NewTypedLiteral("false", xsdBoolean)
)

// expr is a FILTER expression. eval returns the resulting term, or false
// when the expression raises an error (for example an unbound variable).
type expr interface {
	eval(b Binding) (string, bool)
}

type varExpr string

func (v varExpr) eval(b Binding) (string, bool) {
	term, ok := b[string(v)]
	return term, ok
}

type constExpr string

func (c constExpr) eval(Binding) (string, bool) {
	return string(c), true
}

type notExpr struct{ operand expr }

func (n notExpr) eval(b Binding) (string, bool) {
	v, ok := truth(n.operand, b)
	if !ok {
		return "", false
	}
	return boolTerm(!v), true
}

type logicalExpr struct {
	and         bool
	left, right expr
}

func (l logicalExpr) eval(b Binding) (string, bool) {
	left, lok := truth(l.left, b)
	right, rok := truth(l.right, b)
	if l.and {
		// false && error is false
		if (lok && !left) || (rok && !right) {
			return falseTerm, true
		}
		return boolTerm(true), lok && rok
	}
	if (lok && left) || (rok && right) {
		return trueTerm, true
	}
	return falseTerm, lok && rok
}

type compareExpr struct {
	op          string
	left, right expr
}

func (c compareExpr) eval(b Binding) (string, bool) {
	left, lok := c.left.eval(b)
	right, rok := c.right.eval(b)
	if !lok || !rok {
		return "", false
	}

	switch c.op {
	case "=":
		return boolTerm(equalTerms(left, right)), true
	case "!=":
		return boolTerm(!equalTerms(left, right)), true
	}

	cmp := compareTerms(left, right)
	switch c.op {
	case "<":
		return boolTerm(cmp < 0), true
	case "<=":
		return boolTerm(cmp <= 0), true
	case ">":
		return boolTerm(cmp > 0), true
	default:
		return boolTerm(cmp >= 0), true
	}
}

type callExpr struct {
	name string
	args []expr
	re   *regexp.Regexp // REGEX with a constant pattern
}

func (c callExpr) eval(b Binding) (string, bool) {
	if c.name == "BOUND" {
		_, ok := c.args[0].eval(b)
		return boolTerm(ok), true
	}

	args := make([]string, len(c.args))
	for i, arg := range c.args {
		v, ok := arg.eval(b)
		if !ok {
			return "", false
		}
		args[i] = v
	}

	switch c.name {
	case "STR":
		return store.NewLiteral(Display(args[0])), true
	case "LANG":
		lit, ok := literal(args[0])
		if !ok {
			return "", false
		}
		return store.NewLiteral(lit.Language), true
	case "DATATYPE":
		lit, ok := literal(args[0])
		if !ok || lit.Language != "" {
			return "", false
		}
		if lit.Datatype == "" {
			return store.XSDString, true
		}
		return lit.Datatype, true
	case "LCASE":
		return store.NewLiteral(strings.ToLower(Display(args[0]))), true
	case "UCASE":
		return store.NewLiteral(strings.ToUpper(Display(args[0]))), true
	case "STRLEN":
		return store.NewTypedLiteral(strconv.Itoa(len([]rune(Display(args[0])))), xsdInteger), true
	case "CONTAINS":
		return boolTerm(strings.Contains(Display(args[0]), Display(args[1]))), true
	case "STRSTARTS":
		return boolTerm(strings.HasPrefix(Display(args[0]), Display(args[1]))), true
	case "STRENDS":
		return boolTerm(strings.HasSuffix(Display(args[0]), Display(args[1]))), true
	case "LANGMATCHES":
		return boolTerm(langMatches(Display(args[0]), Display(args[1]))), true
	case "SAMETERM":
		return boolTerm(args[0] == args[1]), true
	case "ISIRI", "ISURI":
		return boolTerm(store.IsIRI(args[0])), true
	case "ISLITERAL":
		return boolTerm(strings.HasPrefix(args[0], `"`)), true
	case "ISBLANK":
		return boolTerm(store.IsBlankNode(args[0])), true
	case "REGEX":
		re := c.re
		if re == nil {
			var flags string
			if len(args) > 2 {
				flags = Display(args[2])
			}
			var err error
			if re, err = compileRegex(Display(args[1]), flags); err != nil {
				return "", false
			}
		}
		return boolTerm(re.MatchString(Display(args[0]))), true
	}
	return "", false
}

// functions maps supported built-ins to their arity range.
var functions = map[string][2]int{
	"BOUND":       {1, 1},
	"STR":         {1, 1},
	"LANG":        {1, 1},
	"DATATYPE":    {1, 1},
	"LCASE":       {1, 1},
	"UCASE":       {1, 1},
	"STRLEN":      {1, 1},
	"CONTAINS":    {2, 2},
	"STRSTARTS":   {2, 2},
	"STRENDS":     {2, 2},
	"LANGMATCHES": {2, 2},
	"SAMETERM":    {2, 2},
	"ISIRI":       {1, 1},
	"ISURI":       {1, 1},
	"ISLITERAL":   {1, 1},
	"ISBLANK":     {1, 1},
	"REGEX":       {2, 3},
}

func (p *parser) parseOr() (expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = logicalExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.accept("&&") {
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = logicalExpr{and: true, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseComparison() (expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for _, op := range []string{"=", "!=", "<=", ">=", "<", ">"} {
		if p.accept(op) {
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return compareExpr{op: op, left: left, right: right}, nil
		}
	}
	return left, nil
}

func (p *parser) parseUnary() (expr, error) {
	if p.accept("!") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notExpr{operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (expr, error) {
	tok := p.peek()
	switch tok.kind {
	case tokVar:
		p.advance()
		return varExpr(tok.text), nil
	case tokIRI:
		p.advance()
		return constExpr(tok.text), nil
	case tokString:
		p.advance()
		term, err := p.literal(tok)
		return constExpr(term), err
	case tokNumber:
		p.advance()
		return constExpr(numberLiteral(tok.text)), nil
	case tokPunct:
		if tok.is("(") {
			p.advance()
			e, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			return e, p.expect(")")
		}
	case tokName:
		p.advance()
		switch name := strings.ToUpper(tok.text); {
		case name == "TRUE" || name == "FALSE":
			return constExpr(boolTerm(name == "TRUE")), nil
		case p.peek().is("("):
			return p.parseCall(name, tok)
		default:
			term, err := p.expand(tok)
			return constExpr(term), err
		}
	}
	return nil, fmt.Errorf("unexpected %s at offset %d", tok, tok.pos)
}

func (p *parser) parseCall(name string, tok token) (expr, error) {
	arity, ok := functions[name]
	if !ok {
		return nil, fmt.Errorf("%w: function %s", ErrUnsupported, tok.text)
	}
	if err := p.expect("("); err != nil {
		return nil, err
	}

	var args []expr
	if !p.accept(")") {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.accept(")") {
				break
			}
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
	}

	if len(args) < arity[0] || len(args) > arity[1] {
		return nil, fmt.Errorf("%s takes %d to %d arguments, got %d", name, arity[0], arity[1], len(args))
	}
	if name == "BOUND" {
		if _, isVar := args[0].(varExpr); !isVar {
			return nil, fmt.Errorf("BOUND needs a variable at offset %d", tok.pos)
		}
	}

	call := callExpr{name: name, args: args}
	if name == "REGEX" {
		if err := call.precompile(); err != nil {
			return nil, err
		}
	}
	return call, nil
}

// precompile compiles a REGEX whose pattern and flags are constants.
func (c *callExpr) precompile() error {
	pattern, ok := c.args[1].(constExpr)
	if !ok {
		return nil
	}
	var flags string
	if len(c.args) > 2 {
		f, ok := c.args[2].(constExpr)
		if !ok {
			return nil
		}
		flags = Display(string(f))
	}
	re, err := compileRegex(Display(string(pattern)), flags)
	if err != nil {
		return err
	}
	c.re = re
	return nil
}

func compileRegex(pattern, flags string) (*regexp.Regexp, error) {
	var prefix string
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			prefix += string(f)
		default:
			return nil, fmt.Errorf("unsupported regex flag %q", f)
		}
	}
	if prefix != "" {
		pattern = "(?" + prefix + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return re, nil
}

// truth returns the effective boolean value of an expression.
func truth(e expr, b Binding) (bool, bool) {
	term, ok := e.eval(b)
	if !ok {
		return false, false
	}
	lit, isLit := literal(term)
	if !isLit {
		return false, false
	}
	switch {
	case lit.Datatype == xsdBoolean:
		return lit.Value == "true" || lit.Value == "1", true
	case isNumeric(lit):
		f, err := strconv.ParseFloat(lit.Value, 64)
		return err == nil && f != 0, err == nil
	}
	return lit.Value != "", true
}

func boolTerm(v bool) string {
	if v {
		return trueTerm
	}
	return falseTerm
}

// literal parses a term that is a literal in store form. Bare IRIs and
// blank nodes report false.
func literal(term string) (store.Literal, bool) {
	if !strings.HasPrefix(term, `"`) {
		return store.Literal{}, false
	}
	return store.ParseLiteral(term)
}

func isNumeric(lit store.Literal) bool {
	switch lit.Datatype {
	case xsdInteger, xsdDecimal, xsdDouble,
		store.NamespaceXSD + "int", store.NamespaceXSD + "long", store.NamespaceXSD + "float",
		store.NamespaceXSD + "nonNegativeInteger", store.NamespaceXSD + "positiveInteger":
		return true
	}
	return false
}

func numericValue(term string) (float64, bool) {
	lit, ok := literal(term)
	if !ok || !isNumeric(lit) {
		return 0, false
	}
	f, err := strconv.ParseFloat(lit.Value, 64)
	return f, err == nil
}

func equalTerms(a, b string) bool {
	if x, ok := numericValue(a); ok {
		if y, ok := numericValue(b); ok {
			return x == y
		}
	}
	return a == b
}

// compareTerms orders two terms: numbers numerically, everything else by
// lexical value.
func compareTerms(a, b string) int {
	if x, ok := numericValue(a); ok {
		if y, ok := numericValue(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(Display(a), Display(b))
}

func langMatches(tag, pattern string) bool {
	tag, pattern = strings.ToLower(tag), strings.ToLower(pattern)
	if pattern == "*" {
		return tag != ""
	}
	return tag == pattern || strings.HasPrefix(tag, pattern+"-")
}
