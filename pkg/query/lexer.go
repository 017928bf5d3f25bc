package query

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	// keywords, prefixed names, function names
	tokName
	tokVar
	tokIRI
	tokString
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int

	// string literal suffixes
	lang     string
	datatype string // IRI or prefixed name, unresolved
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of query"
	case tokIRI:
		return "<" + t.text + ">"
	case tokString:
		return fmt.Sprintf("%q", t.text)
	case tokVar:
		return "?" + t.text
	}
	return t.text
}

// is reports whether the token is the given punctuation or keyword,
// ignoring keyword case.
func (t token) is(text string) bool {
	return (t.kind == tokPunct || t.kind == tokName) && strings.EqualFold(t.text, text)
}

type lexer struct {
	src    string
	pos    int
	tokens []token
}

func tokenize(src string) ([]token, error) {
	l := &lexer{src: src}
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
		if tok.kind == tokEOF {
			return l.tokens, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == '?' || c == '$':
		l.pos++
		name := l.scanWhile(isNameChar)
		if name == "" {
			return token{}, fmt.Errorf("empty variable name at offset %d", start)
		}
		return token{kind: tokVar, text: name, pos: start}, nil

	case c == '<':
		if end := l.iriEnd(); end > 0 {
			iri := l.src[l.pos+1 : end]
			l.pos = end + 1
			return token{kind: tokIRI, text: iri, pos: start}, nil
		}
		return l.operator(start), nil

	case c == '"' || c == '\'':
		return l.stringLiteral(start)

	case c >= '0' && c <= '9' || (c == '-' || c == '+') && l.peekDigit():
		l.pos++
		text := string(c) + l.scanWhile(func(r rune) bool { return unicode.IsDigit(r) || r == '.' })
		text = strings.TrimSuffix(text, ".")
		l.pos = start + len(text)
		return token{kind: tokNumber, text: text, pos: start}, nil

	case isNameStart(rune(c)) || c == ':':
		name := l.scanWhile(func(r rune) bool { return isNameChar(r) || r == ':' || r == '.' || r == '-' })
		// A trailing dot ends the triple, not the name.
		for strings.HasSuffix(name, ".") {
			name = name[:len(name)-1]
		}
		l.pos = start + len(name)
		return token{kind: tokName, text: name, pos: start}, nil
	}

	return l.operator(start), nil
}

func (l *lexer) operator(start int) token {
	for _, op := range []string{"&&", "||", "!=", "<=", ">=", "^^"} {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.pos += len(op)
			return token{kind: tokPunct, text: op, pos: start}
		}
	}
	l.pos++
	return token{kind: tokPunct, text: l.src[start:l.pos], pos: start}
}

// iriEnd returns the index of the '>' closing an IRI reference at the
// current position, or -1 when the '<' is a comparison operator.
func (l *lexer) iriEnd() int {
	for i := l.pos + 1; i < len(l.src); i++ {
		switch c := l.src[i]; {
		case c == '>':
			if i == l.pos+1 {
				return -1
			}
			return i
		case c == '<' || c == '"' || c == '{' || c == '}' || unicode.IsSpace(rune(c)):
			return -1
		}
	}
	return -1
}

func (l *lexer) stringLiteral(start int) (token, error) {
	quote := l.src[l.pos]
	l.pos++

	var value strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token{}, fmt.Errorf("unterminated string at offset %d", start)
		}
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			break
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			switch esc := l.src[l.pos]; esc {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			case 'r':
				value.WriteByte('\r')
			default:
				value.WriteByte(esc)
			}
			l.pos++
			continue
		}
		value.WriteByte(c)
		l.pos++
	}

	tok := token{kind: tokString, text: value.String(), pos: start}
	switch {
	case strings.HasPrefix(l.src[l.pos:], "@"):
		l.pos++
		tok.lang = l.scanWhile(func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' })
	case strings.HasPrefix(l.src[l.pos:], "^^"):
		l.pos += 2
		dt, err := l.next()
		if err != nil {
			return token{}, err
		}
		switch dt.kind {
		case tokIRI:
			tok.datatype = "<" + dt.text + ">"
		case tokName:
			tok.datatype = dt.text
		default:
			return token{}, fmt.Errorf("invalid datatype %s at offset %d", dt, dt.pos)
		}
	}
	return tok, nil
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case unicode.IsSpace(rune(c)):
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) scanWhile(accept func(rune) bool) string {
	start := l.pos
	for l.pos < len(l.src) && accept(rune(l.src[l.pos])) {
		l.pos++
	}
	return l.src[start:l.pos]
}

func (l *lexer) peekDigit() bool {
	return l.pos+1 < len(l.src) && l.src[l.pos+1] >= '0' && l.src[l.pos+1] <= '9'
}

func isNameStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isNameChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
