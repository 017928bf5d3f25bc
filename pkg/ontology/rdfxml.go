package ontology

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/coolbeans/kmdp/pkg/store"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// ParseRDFXML reads the RDF/XML subset emitted by ontology editors: node
// elements, typed nodes, property attributes, rdf:resource / rdf:nodeID
// references, rdf:datatype and xml:lang literals, nested node elements and
// rdf:parseType "Resource" and "Literal". Entities declared in the internal
// DOCTYPE subset are expanded and xml:lang is inherited by nested elements.
func ParseRDFXML(r io.Reader, base string) (*store.TripleStore, error) {
	reader := &rdfxmlReader{
		decoder: xml.NewDecoder(r),
		triples: store.NewTripleStore(),
		base:    base,
	}

	if err := reader.read(); err != nil {
		return nil, err
	}
	return reader.triples, nil
}

type rdfxmlReader struct {
	decoder *xml.Decoder
	triples *store.TripleStore
	base    string
	lang    string
	blanks  int
}

var entityDecl = regexp.MustCompile(`<!ENTITY\s+([^\s%]+)\s+(?:"([^"]*)"|'([^']*)')\s*>`)

// declareEntities registers the general entities of a DOCTYPE directive.
// An entity value may refer to entities declared before it.
func (r *rdfxmlReader) declareEntities(directive xml.Directive) {
	if !strings.HasPrefix(strings.TrimSpace(string(directive)), "DOCTYPE") {
		return
	}
	if r.decoder.Entity == nil {
		r.decoder.Entity = make(map[string]string)
	}
	for _, m := range entityDecl.FindAllStringSubmatch(string(directive), -1) {
		value := m[2] + m[3]
		for name, replacement := range r.decoder.Entity {
			value = strings.ReplaceAll(value, "&"+name+";", replacement)
		}
		r.decoder.Entity[m[1]] = value
	}
}

// scopeLang applies the xml:lang of an element and returns a func that
// restores the enclosing language.
func (r *rdfxmlReader) scopeLang(start xml.StartElement) func() {
	enclosing := r.lang
	for _, attr := range start.Attr {
		if isXMLAttribute(attr.Name, "lang") {
			r.lang = attr.Value
		}
	}
	return func() { r.lang = enclosing }
}

// literal builds a literal in the current language. Typed literals carry
// no language.
func (r *rdfxmlReader) literal(value, datatype string) string {
	literal := store.Literal{Value: value, Datatype: datatype}
	if datatype == "" {
		literal.Language = r.lang
	}
	return literal.String()
}

func (r *rdfxmlReader) read() error {
	for {
		token, err := r.decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read rdf/xml: %w", err)
		}

		if directive, ok := token.(xml.Directive); ok {
			r.declareEntities(directive)
			continue
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		r.applyBase(start)
		if elementIRI(start.Name) == store.NamespaceRDF+"RDF" {
			defer r.scopeLang(start)()
			return r.readNodeList()
		}
		_, err = r.readNode(start)
		return err
	}
}

// readNodeList reads the children of rdf:RDF.
func (r *rdfxmlReader) readNodeList() error {
	for {
		token, err := r.decoder.Token()
		if err != nil {
			return fmt.Errorf("unexpected end of rdf:RDF: %w", err)
		}

		switch element := token.(type) {
		case xml.StartElement:
			if _, err := r.readNode(element); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// readNode reads a node element and returns its subject term.
func (r *rdfxmlReader) readNode(start xml.StartElement) (string, error) {
	defer r.scopeLang(start)()
	subject := r.subjectOf(start)

	if typeIRI := elementIRI(start.Name); typeIRI != store.NamespaceRDF+"Description" {
		r.add(subject, store.RDFType, typeIRI)
	}

	for _, attr := range start.Attr {
		predicate := elementIRI(attr.Name)
		switch {
		case isSyntaxAttribute(attr.Name):
			continue
		case predicate == store.RDFType:
			r.add(subject, store.RDFType, r.resolve(attr.Value))
		default:
			r.add(subject, predicate, r.literal(attr.Value, ""))
		}
	}

	if err := r.readProperties(subject); err != nil {
		return "", err
	}
	return subject, nil
}

// readProperties reads property elements until the enclosing end tag.
func (r *rdfxmlReader) readProperties(subject string) error {
	for {
		token, err := r.decoder.Token()
		if err != nil {
			return fmt.Errorf("unexpected end of node %s: %w", subject, err)
		}

		switch element := token.(type) {
		case xml.StartElement:
			if err := r.readProperty(subject, element); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (r *rdfxmlReader) readProperty(subject string, start xml.StartElement) error {
	defer r.scopeLang(start)()
	predicate := elementIRI(start.Name)

	var datatype, parseType string
	for _, attr := range start.Attr {
		switch {
		case attr.Name.Space == store.NamespaceRDF && attr.Name.Local == "resource":
			r.add(subject, predicate, r.resolve(attr.Value))
			return r.decoder.Skip()
		case attr.Name.Space == store.NamespaceRDF && attr.Name.Local == "nodeID":
			r.add(subject, predicate, "_:"+attr.Value)
			return r.decoder.Skip()
		case attr.Name.Space == store.NamespaceRDF && attr.Name.Local == "datatype":
			datatype = r.resolve(attr.Value)
		case attr.Name.Space == store.NamespaceRDF && attr.Name.Local == "parseType":
			parseType = attr.Value
		}
	}

	switch parseType {
	case "Resource":
		object := r.newBlank()
		r.add(subject, predicate, object)
		return r.readProperties(object)
	case "Literal":
		text, err := r.readText()
		if err != nil {
			return err
		}
		r.add(subject, predicate, store.NewTypedLiteral(text, store.NamespaceRDF+"XMLLiteral"))
		return nil
	}

	var text strings.Builder
	for {
		token, err := r.decoder.Token()
		if err != nil {
			return fmt.Errorf("unexpected end of property %s: %w", predicate, err)
		}

		switch element := token.(type) {
		case xml.CharData:
			text.Write(element)
		case xml.StartElement:
			object, err := r.readNode(element)
			if err != nil {
				return err
			}
			r.add(subject, predicate, object)
			return r.decoder.Skip()
		case xml.EndElement:
			r.add(subject, predicate, r.literal(text.String(), datatype))
			return nil
		}
	}
}

// readText collects the character data of the current element, including
// the text of nested markup.
func (r *rdfxmlReader) readText() (string, error) {
	var text strings.Builder
	depth := 0
	for {
		token, err := r.decoder.Token()
		if err != nil {
			return "", fmt.Errorf("unexpected end of literal: %w", err)
		}

		switch element := token.(type) {
		case xml.CharData:
			text.Write(element)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return text.String(), nil
			}
			depth--
		}
	}
}

func (r *rdfxmlReader) subjectOf(start xml.StartElement) string {
	for _, attr := range start.Attr {
		if attr.Name.Space != store.NamespaceRDF {
			continue
		}
		switch attr.Name.Local {
		case "about":
			return r.resolve(attr.Value)
		case "ID":
			return strings.TrimSuffix(r.base, "#") + "#" + attr.Value
		case "nodeID":
			return "_:" + attr.Value
		}
	}
	return r.newBlank()
}

func (r *rdfxmlReader) applyBase(start xml.StartElement) {
	for _, attr := range start.Attr {
		if isXMLAttribute(attr.Name, "base") {
			r.base = attr.Value
		}
	}
}

func (r *rdfxmlReader) newBlank() string {
	r.blanks++
	return fmt.Sprintf("_:n%d", r.blanks)
}

// resolve makes a possibly relative reference absolute against the base.
func (r *rdfxmlReader) resolve(reference string) string {
	if reference == "" {
		return r.base
	}
	if store.IsIRI(reference) || r.base == "" {
		return reference
	}

	base, err := url.Parse(r.base)
	if err != nil {
		return reference
	}
	ref, err := url.Parse(reference)
	if err != nil {
		return reference
	}
	return base.ResolveReference(ref).String()
}

func (r *rdfxmlReader) add(subject, predicate, object string) {
	_ = r.triples.Add(subject, predicate, object)
}

func elementIRI(name xml.Name) string {
	return name.Space + name.Local
}

func isXMLAttribute(name xml.Name, local string) bool {
	return (name.Space == "xml" || name.Space == xmlNamespace) && name.Local == local
}

// isSyntaxAttribute reports attributes that do not produce triples.
func isSyntaxAttribute(name xml.Name) bool {
	if name.Space == "" || name.Space == "xmlns" {
		return true
	}
	if name.Space == "xml" || name.Space == xmlNamespace {
		return true
	}
	if name.Space == store.NamespaceRDF {
		switch name.Local {
		case "about", "ID", "nodeID", "resource", "datatype", "parseType":
			return true
		}
	}
	return false
}
