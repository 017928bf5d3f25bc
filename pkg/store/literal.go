package store

import (
	"strings"
)

// Literal is an RDF literal. Objects holding literals are stored in their
// N-Triples lexical form, so a literal object always starts with a double quote.
// Plain strings that are neither IRIs nor blank nodes are read as simple literals.
type Literal struct {
	Value    string
	Datatype string
	Language string
}

// NewLiteral encodes a simple literal for storage as a triple object.
func NewLiteral(value string) string {
	return Literal{Value: value}.String()
}

// NewTypedLiteral encodes a literal with a datatype IRI.
func NewTypedLiteral(value, datatype string) string {
	return Literal{Value: value, Datatype: datatype}.String()
}

// NewLangLiteral encodes a language-tagged literal.
func NewLangLiteral(value, language string) string {
	return Literal{Value: value, Language: language}.String()
}

// String returns the N-Triples form of the literal.
func (l Literal) String() string {
	encoded := `"` + escapeLiteralString(l.Value) + `"`
	switch {
	case l.Language != "":
		return encoded + "@" + l.Language
	case l.Datatype != "" && l.Datatype != XSDString:
		return encoded + "^^<" + l.Datatype + ">"
	default:
		return encoded
	}
}

// ParseLiteral decodes a stored object into a Literal. It reports false for
// IRIs, prefixed names and blank nodes.
func ParseLiteral(object string) (Literal, bool) {
	if !strings.HasPrefix(object, `"`) {
		if IsIRI(object) || IsBlankNode(object) || isPrefixedName(object) {
			return Literal{}, false
		}
		return Literal{Value: object}, true
	}

	closing := closingQuote(object)
	if closing < 0 {
		return Literal{Value: object}, true
	}

	literal := Literal{Value: unescapeLiteralString(object[1:closing])}
	suffix := object[closing+1:]

	switch {
	case strings.HasPrefix(suffix, "@"):
		literal.Language = suffix[1:]
	case strings.HasPrefix(suffix, "^^<") && strings.HasSuffix(suffix, ">"):
		literal.Datatype = suffix[3 : len(suffix)-1]
	}

	return literal, true
}

// LiteralValue returns the lexical value of a literal object, or the object
// itself when it is not a literal.
func LiteralValue(object string) string {
	if literal, ok := ParseLiteral(object); ok {
		return literal.Value
	}
	return object
}

// IsLiteral reports whether an object holds a literal.
func IsLiteral(object string) bool {
	_, ok := ParseLiteral(object)
	return ok
}

// IsBlankNode reports whether a term is a blank node label.
func IsBlankNode(term string) bool {
	return strings.HasPrefix(term, "_:")
}

// IsIRI reports whether a term is an absolute IRI.
func IsIRI(term string) bool {
	return isFullURI(term)
}

// closingQuote finds the index of the unescaped quote that ends the lexical form.
func closingQuote(encoded string) int {
	escaped := false
	for i := 1; i < len(encoded); i++ {
		switch {
		case escaped:
			escaped = false
		case encoded[i] == '\\':
			escaped = true
		case encoded[i] == '"':
			return i
		}
	}
	return -1
}

// unescapeLiteralString reverses escapeLiteralString.
func unescapeLiteralString(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}

	var builder strings.Builder
	builder.Grow(len(value))

	escaped := false
	for _, char := range value {
		if !escaped {
			if char == '\\' {
				escaped = true
				continue
			}
			builder.WriteRune(char)
			continue
		}

		escaped = false
		switch char {
		case 'n':
			builder.WriteRune('\n')
		case 'r':
			builder.WriteRune('\r')
		case 't':
			builder.WriteRune('\t')
		default:
			builder.WriteRune(char)
		}
	}

	return builder.String()
}
