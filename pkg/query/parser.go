package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/coolbeans/kmdp/pkg/store"
)

// ErrUnsupported is returned for SPARQL constructs outside the supported subset.
var ErrUnsupported = errors.New("unsupported query construct")

// DefaultPrefixes are declared implicitly in every query.
func DefaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":    store.NamespaceRDF,
		"rdfs":   store.NamespaceRDFS,
		"owl":    store.NamespaceOWL,
		"xsd":    store.NamespaceXSD,
		"skos":   store.NamespaceSKOS,
		"dct":    store.NamespaceDCTerms,
		"api4kp": store.NamespaceAPI4KP,
	}
}

// Parse parses a SELECT query. The given prefixes are added to
// DefaultPrefixes; PREFIX declarations in the query override both.
func Parse(text string, prefixes map[string]string) (*Query, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens, prefixes: DefaultPrefixes()}
	for k, v := range prefixes {
		p.prefixes[k] = v
	}

	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	return q, nil
}

type parser struct {
	tokens   []token
	pos      int
	prefixes map[string]string
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) accept(text string) bool {
	if p.peek().is(text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if tok := p.advance(); !tok.is(text) {
		return fmt.Errorf("expected %q at offset %d, found %s", text, tok.pos, tok)
	}
	return nil
}

func (p *parser) expectVar() (string, error) {
	tok := p.advance()
	if tok.kind != tokVar {
		return "", fmt.Errorf("expected variable at offset %d, found %s", tok.pos, tok)
	}
	return tok.text, nil
}

func (p *parser) parseQuery() (*Query, error) {
	q := &Query{}

	for p.accept("PREFIX") {
		name := p.advance()
		if name.kind != tokName || !strings.HasSuffix(name.text, ":") {
			return nil, fmt.Errorf("invalid prefix name %s at offset %d", name, name.pos)
		}
		iri := p.advance()
		if iri.kind != tokIRI {
			return nil, fmt.Errorf("expected namespace IRI for %s at offset %d", name, iri.pos)
		}
		p.prefixes[strings.TrimSuffix(name.text, ":")] = iri.text
	}

	if tok := p.peek(); !tok.is("SELECT") {
		if tok.is("CONSTRUCT") || tok.is("ASK") || tok.is("DESCRIBE") {
			return nil, fmt.Errorf("%w: %s queries", ErrUnsupported, strings.ToUpper(tok.text))
		}
		return nil, fmt.Errorf("expected SELECT at offset %d, found %s", tok.pos, tok)
	}
	p.advance()

	if err := p.parseProjection(q); err != nil {
		return nil, err
	}

	p.accept("WHERE")
	if err := p.parseGroup(q); err != nil {
		return nil, err
	}
	if err := p.parseModifiers(q); err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s at offset %d", tok, tok.pos)
	}

	q.Prefixes = p.prefixes
	return q, nil
}

func (p *parser) parseProjection(q *Query) error {
	q.Distinct = p.accept("DISTINCT") || p.accept("REDUCED")

	if p.accept("*") {
		return nil
	}
	for {
		tok := p.peek()
		switch {
		case tok.kind == tokVar:
			p.advance()
			q.Variables = append(q.Variables, tok.text)
		case tok.is("("):
			p.advance()
			agg, err := p.parseAggregate()
			if err != nil {
				return err
			}
			q.Aggregates = append(q.Aggregates, agg)
		default:
			if len(q.Variables) == 0 && len(q.Aggregates) == 0 {
				return fmt.Errorf("expected projection at offset %d, found %s", tok.pos, tok)
			}
			return nil
		}
	}
}

// parseAggregate parses COUNT([DISTINCT] ?x|*) AS ?alias) after the
// opening parenthesis.
func (p *parser) parseAggregate() (Aggregate, error) {
	var agg Aggregate
	fn := p.advance()
	if !fn.is("COUNT") {
		return agg, fmt.Errorf("%w: aggregate %s", ErrUnsupported, fn)
	}
	if err := p.expect("("); err != nil {
		return agg, err
	}
	agg.Distinct = p.accept("DISTINCT")
	if !p.accept("*") {
		name, err := p.expectVar()
		if err != nil {
			return agg, err
		}
		agg.Variable = name
	}
	if err := p.expect(")"); err != nil {
		return agg, err
	}
	if err := p.expect("AS"); err != nil {
		return agg, err
	}
	alias, err := p.expectVar()
	if err != nil {
		return agg, err
	}
	agg.Alias = alias
	return agg, p.expect(")")
}

func (p *parser) parseGroup(q *Query) error {
	if err := p.expect("{"); err != nil {
		return err
	}
	for {
		tok := p.peek()
		switch {
		case tok.is("}"):
			p.advance()
			return nil
		case tok.kind == tokEOF:
			return errors.New("unterminated group pattern")
		case tok.is("."):
			p.advance()
		case tok.is("OPTIONAL"):
			p.advance()
			block, err := p.parseOptional()
			if err != nil {
				return err
			}
			q.Optional = append(q.Optional, block)
		case tok.is("FILTER"):
			p.advance()
			filter, err := p.parseFilter()
			if err != nil {
				return err
			}
			q.Filters = append(q.Filters, filter)
		case tok.is("{") || tok.is("UNION") || tok.is("MINUS") || tok.is("BIND") || tok.is("VALUES") || tok.is("GRAPH"):
			return fmt.Errorf("%w: %s at offset %d", ErrUnsupported, tok, tok.pos)
		default:
			patterns, err := p.parseTriples()
			if err != nil {
				return err
			}
			q.Where = append(q.Where, patterns...)
		}
	}
}

func (p *parser) parseOptional() ([]Pattern, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var block []Pattern
	for {
		tok := p.peek()
		switch {
		case tok.is("}"):
			p.advance()
			if len(block) == 0 {
				return nil, fmt.Errorf("empty OPTIONAL at offset %d", tok.pos)
			}
			return block, nil
		case tok.kind == tokEOF:
			return nil, errors.New("unterminated OPTIONAL")
		case tok.is("."):
			p.advance()
		case tok.is("OPTIONAL") || tok.is("FILTER") || tok.is("{"):
			return nil, fmt.Errorf("%w: %s inside OPTIONAL", ErrUnsupported, tok)
		default:
			patterns, err := p.parseTriples()
			if err != nil {
				return nil, err
			}
			block = append(block, patterns...)
		}
	}
}

// parseTriples parses one subject with its predicate-object list,
// expanding the ';' and ',' abbreviations.
func (p *parser) parseTriples() ([]Pattern, error) {
	subject, err := p.parseTerm(false)
	if err != nil {
		return nil, err
	}

	var patterns []Pattern
	for {
		predicate, err := p.parseTerm(true)
		if err != nil {
			return nil, err
		}
		for {
			object, err := p.parseTerm(false)
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, Pattern{Subject: subject, Predicate: predicate, Object: object})
			if !p.accept(",") {
				break
			}
		}
		if !p.accept(";") {
			return patterns, nil
		}
		// Trailing ';' before '.' or '}'.
		if tok := p.peek(); tok.is(".") || tok.is("}") {
			return patterns, nil
		}
	}
}

// parseTerm reads a pattern term and resolves it to store form.
func (p *parser) parseTerm(predicate bool) (string, error) {
	tok := p.advance()
	switch tok.kind {
	case tokVar:
		return "?" + tok.text, nil
	case tokIRI:
		return tok.text, nil
	case tokString:
		if predicate {
			break
		}
		return p.literal(tok)
	case tokNumber:
		if predicate {
			break
		}
		return numberLiteral(tok.text), nil
	case tokName:
		switch {
		case predicate && tok.text == "a":
			return store.RDFType, nil
		case !predicate && (tok.text == "true" || tok.text == "false"):
			return store.NewTypedLiteral(tok.text, xsdBoolean), nil
		case strings.HasPrefix(tok.text, "_:"):
			return "", fmt.Errorf("%w: blank node %s", ErrUnsupported, tok.text)
		}
		return p.expand(tok)
	}
	return "", fmt.Errorf("unexpected %s at offset %d", tok, tok.pos)
}

func (p *parser) expand(tok token) (string, error) {
	prefix, local, ok := strings.Cut(tok.text, ":")
	if !ok {
		return "", fmt.Errorf("unexpected %s at offset %d", tok, tok.pos)
	}
	ns, known := p.prefixes[prefix]
	if !known {
		return "", fmt.Errorf("undeclared prefix %q at offset %d", prefix, tok.pos)
	}
	return ns + local, nil
}

func (p *parser) literal(tok token) (string, error) {
	switch {
	case tok.lang != "":
		return store.NewLangLiteral(tok.text, tok.lang), nil
	case strings.HasPrefix(tok.datatype, "<"):
		return store.NewTypedLiteral(tok.text, strings.Trim(tok.datatype, "<>")), nil
	case tok.datatype != "":
		dt, err := p.expand(token{kind: tokName, text: tok.datatype, pos: tok.pos})
		if err != nil {
			return "", err
		}
		return store.NewTypedLiteral(tok.text, dt), nil
	}
	return store.NewLiteral(tok.text), nil
}

func numberLiteral(text string) string {
	if strings.Contains(text, ".") {
		return store.NewTypedLiteral(text, xsdDecimal)
	}
	return store.NewTypedLiteral(strings.TrimPrefix(text, "+"), xsdInteger)
}

func (p *parser) parseFilter() (Filter, error) {
	start := p.pos
	var (
		e   expr
		err error
	)
	if p.peek().is("(") {
		p.advance()
		e, err = p.parseOr()
		if err == nil {
			err = p.expect(")")
		}
	} else {
		e, err = p.parsePrimary()
	}
	if err != nil {
		return Filter{}, fmt.Errorf("invalid FILTER: %w", err)
	}

	parts := make([]string, 0, p.pos-start)
	for _, tok := range p.tokens[start:p.pos] {
		parts = append(parts, tok.String())
	}
	return Filter{Expression: strings.Join(parts, " "), expr: e}, nil
}

func (p *parser) parseModifiers(q *Query) error {
	if p.accept("GROUP") {
		if err := p.expect("BY"); err != nil {
			return err
		}
		for p.peek().kind == tokVar {
			q.GroupBy = append(q.GroupBy, p.advance().text)
		}
		if len(q.GroupBy) == 0 {
			return errors.New("GROUP BY needs at least one variable")
		}
	}

	if p.accept("ORDER") {
		if err := p.expect("BY"); err != nil {
			return err
		}
	keys:
		for {
			tok := p.peek()
			switch {
			case tok.kind == tokVar:
				p.advance()
				q.OrderBy = append(q.OrderBy, OrderBy{Variable: tok.text})
			case tok.is("ASC") || tok.is("DESC"):
				p.advance()
				if err := p.expect("("); err != nil {
					return err
				}
				name, err := p.expectVar()
				if err != nil {
					return err
				}
				if err := p.expect(")"); err != nil {
					return err
				}
				q.OrderBy = append(q.OrderBy, OrderBy{Variable: name, Descending: tok.is("DESC")})
			default:
				break keys
			}
		}
		if len(q.OrderBy) == 0 {
			return errors.New("ORDER BY needs at least one key")
		}
	}

	for {
		switch {
		case p.accept("LIMIT"):
			n, err := p.parseCount("LIMIT")
			if err != nil {
				return err
			}
			q.Limit = n
		case p.accept("OFFSET"):
			n, err := p.parseCount("OFFSET")
			if err != nil {
				return err
			}
			q.Offset = n
		default:
			return nil
		}
	}
}

func (p *parser) parseCount(clause string) (int, error) {
	tok := p.advance()
	n, err := strconv.Atoi(tok.text)
	if tok.kind != tokNumber || err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s value %s", clause, tok)
	}
	return n, nil
}

func (q *Query) validate() error {
	if len(q.Where) == 0 {
		return errors.New("query has no triple patterns")
	}
	if len(q.GroupBy) > 0 && len(q.Variables) == 0 && len(q.Aggregates) == 0 {
		return errors.New("SELECT * cannot be combined with GROUP BY")
	}

	grouped := make(map[string]bool, len(q.GroupBy))
	for _, name := range q.GroupBy {
		grouped[name] = true
	}
	if len(q.Aggregates) > 0 || len(q.GroupBy) > 0 {
		for _, name := range q.Variables {
			if !grouped[name] {
				return fmt.Errorf("variable ?%s must appear in GROUP BY", name)
			}
		}
	}

	seen := make(map[string]bool)
	for _, name := range q.Outputs() {
		if seen[name] {
			return fmt.Errorf("duplicate result variable ?%s", name)
		}
		seen[name] = true
	}
	return nil
}
