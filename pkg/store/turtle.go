package store

import (
	"fmt"
	"io"
	"strings"
)

// TurtleSerializer writes a store as Turtle. Only the prefixes the output
// uses are declared.
type TurtleSerializer struct {
	namespaces *Namespaces
}

// NewTurtleSerializer creates a serializer with the default prefixes plus
// any given options.
func NewTurtleSerializer(options ...Option) *TurtleSerializer {
	return &TurtleSerializer{namespaces: newSettings(options).namespaces}
}

// Serialize returns the store as a Turtle document.
func (s *TurtleSerializer) Serialize(ts *TripleStore) string {
	var sb strings.Builder
	_ = s.Encode(&sb, ts)
	return sb.String()
}

// Encode writes the store to w, one block per subject in insertion order.
func (s *TurtleSerializer) Encode(w io.Writer, ts *TripleStore) error {
	tw := &turtleWriter{namespaces: s.namespaces, used: make(map[string]bool)}

	var body strings.Builder
	for i, r := range resources(ts) {
		if i > 0 {
			body.WriteString("\n")
		}
		tw.writeResource(&body, r)
	}

	var head strings.Builder
	for _, prefix := range s.namespaces.Prefixes() {
		if tw.used[prefix] {
			ns, _ := s.namespaces.Namespace(prefix)
			fmt.Fprintf(&head, "@prefix %s: <%s> .\n", prefix, escapeIRI(ns))
		}
	}
	if head.Len() > 0 && body.Len() > 0 {
		head.WriteString("\n")
	}

	if _, err := io.WriteString(w, head.String()); err != nil {
		return err
	}
	_, err := io.WriteString(w, body.String())
	return err
}

type turtleWriter struct {
	namespaces *Namespaces
	used       map[string]bool
}

func (tw *turtleWriter) writeResource(sb *strings.Builder, r resource) {
	sb.WriteString(tw.term(r.subject))
	for i, predicate := range r.predicates {
		if i == 0 {
			sb.WriteString(" ")
		} else {
			sb.WriteString(" ;\n    ")
		}
		if predicate == RDFType {
			sb.WriteString("a")
		} else {
			sb.WriteString(tw.term(predicate))
		}
		for j, object := range r.objects[predicate] {
			if j > 0 {
				sb.WriteString(" ,")
			}
			sb.WriteString(" ")
			sb.WriteString(tw.object(object))
		}
	}
	sb.WriteString(" .\n")
}

// term renders an IRI or blank node, abbreviating with a bound prefix.
func (tw *turtleWriter) term(value string) string {
	if IsBlankNode(value) {
		return value
	}
	if !isFullURI(value) && isPrefixedName(value) {
		return value
	}
	if prefix, local, ok := tw.namespaces.split(value); ok {
		tw.used[prefix] = true
		return prefix + ":" + local
	}
	return "<" + escapeIRI(value) + ">"
}

func (tw *turtleWriter) object(value string) string {
	if IsBlankNode(value) || isFullURI(value) {
		return tw.term(value)
	}
	literal, ok := ParseLiteral(value)
	if !ok {
		return tw.term(value)
	}
	quoted := `"` + escapeLiteralString(literal.Value) + `"`
	switch {
	case literal.Language != "":
		return quoted + "@" + literal.Language
	case literal.Datatype != "" && literal.Datatype != XSDString:
		return quoted + "^^" + tw.term(literal.Datatype)
	}
	return quoted
}
