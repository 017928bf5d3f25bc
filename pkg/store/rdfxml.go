package store

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// RDFXMLSerializer writes a store as RDF/XML. A subject whose first type
// has an XML name is written as a typed node element, others as
// rdf:Description. Predicate namespaces without a bound prefix get
// generated ns0, ns1, ... prefixes.
type RDFXMLSerializer struct {
	namespaces *Namespaces
}

// NewRDFXMLSerializer creates a serializer with the default prefixes plus
// any given options.
func NewRDFXMLSerializer(options ...Option) *RDFXMLSerializer {
	return &RDFXMLSerializer{namespaces: newSettings(options).namespaces}
}

// Serialize returns the store as an RDF/XML document. Predicates that
// cannot be written as XML element names are dropped; use Encode to see
// the error instead.
func (s *RDFXMLSerializer) Serialize(ts *TripleStore) string {
	var sb strings.Builder
	_ = s.Encode(&sb, ts)
	return sb.String()
}

// Encode writes the store to w.
func (s *RDFXMLSerializer) Encode(w io.Writer, ts *TripleStore) error {
	xw := &rdfxmlWriter{namespaces: s.namespaces.Clone(), used: map[string]bool{"rdf": true}}
	xw.namespaces.Bind("rdf", NamespaceRDF)

	var body strings.Builder
	var firstErr error
	for _, r := range resources(ts) {
		if err := xw.writeResource(&body, r); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	var doc strings.Builder
	doc.WriteString(xml.Header)
	doc.WriteString("<rdf:RDF")
	for _, prefix := range xw.namespaces.Prefixes() {
		if xw.used[prefix] {
			ns, _ := xw.namespaces.Namespace(prefix)
			fmt.Fprintf(&doc, "\n    xmlns:%s=\"%s\"", prefix, xmlEscape(ns))
		}
	}
	doc.WriteString(">\n")
	doc.WriteString(body.String())
	doc.WriteString("</rdf:RDF>\n")

	if _, err := io.WriteString(w, doc.String()); err != nil {
		return err
	}
	return firstErr
}

type rdfxmlWriter struct {
	namespaces *Namespaces
	used       map[string]bool
	generated  int
}

func (xw *rdfxmlWriter) writeResource(sb *strings.Builder, r resource) error {
	element := "rdf:Description"
	types := r.types()
	if len(types) > 0 {
		if name, ok := xw.qname(types[0], false); ok {
			element = name
			types = types[1:]
		}
	}

	var props strings.Builder
	var firstErr error
	for _, t := range types {
		fmt.Fprintf(&props, "    <rdf:type rdf:resource=\"%s\"/>\n", xmlEscape(t))
	}
	for _, predicate := range r.predicates {
		if predicate == RDFType {
			continue
		}
		name, ok := xw.qname(predicate, true)
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("predicate %s has no XML element name", predicate)
			}
			continue
		}
		for _, object := range r.objects[predicate] {
			writeProperty(&props, name, object)
		}
	}

	sb.WriteString("\n  <")
	sb.WriteString(element)
	sb.WriteString(" ")
	sb.WriteString(nodeAttribute(r.subject, "rdf:about"))
	if props.Len() == 0 {
		sb.WriteString("/>\n")
		return firstErr
	}
	sb.WriteString(">\n")
	sb.WriteString(props.String())
	fmt.Fprintf(sb, "  </%s>\n", element)
	return firstErr
}

func writeProperty(sb *strings.Builder, name, object string) {
	if IsBlankNode(object) || isFullURI(object) {
		fmt.Fprintf(sb, "    <%s %s/>\n", name, nodeAttribute(object, "rdf:resource"))
		return
	}
	literal, _ := ParseLiteral(object)
	attribute := ""
	switch {
	case literal.Language != "":
		attribute = fmt.Sprintf(" xml:lang=\"%s\"", xmlEscape(literal.Language))
	case literal.Datatype != "" && literal.Datatype != XSDString:
		attribute = fmt.Sprintf(" rdf:datatype=\"%s\"", xmlEscape(literal.Datatype))
	}
	fmt.Fprintf(sb, "    <%s%s>%s</%s>\n", name, attribute, xmlEscape(literal.Value), name)
}

// nodeAttribute references an IRI with attr or a blank node with rdf:nodeID.
func nodeAttribute(term, attr string) string {
	if IsBlankNode(term) {
		return fmt.Sprintf("rdf:nodeID=\"%s\"", xmlEscape(strings.TrimPrefix(term, "_:")))
	}
	return fmt.Sprintf("%s=\"%s\"", attr, xmlEscape(term))
}

// qname returns the XML element name of iri. With generate set, a prefix
// is invented for an unbound namespace.
func (xw *rdfxmlWriter) qname(iri string, generate bool) (string, bool) {
	if prefix, local, ok := xw.namespaces.split(iri); ok && isNCName(local) {
		xw.used[prefix] = true
		return prefix + ":" + local, true
	}
	if !generate {
		return "", false
	}

	cut := strings.LastIndexAny(iri, "#/")
	if cut < 0 || !isNCName(iri[cut+1:]) {
		return "", false
	}
	prefix := fmt.Sprintf("ns%d", xw.generated)
	for _, taken := xw.namespaces.Namespace(prefix); taken; _, taken = xw.namespaces.Namespace(prefix) {
		xw.generated++
		prefix = fmt.Sprintf("ns%d", xw.generated)
	}
	xw.generated++
	xw.namespaces.Bind(prefix, iri[:cut+1])
	xw.used[prefix] = true
	return prefix + ":" + iri[cut+1:], true
}

// isNCName reports whether s is a valid XML local name.
func isNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		letter := unicode.IsLetter(r) || r == '_'
		if i == 0 && !letter {
			return false
		}
		if !letter && !unicode.IsDigit(r) && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

func xmlEscape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
