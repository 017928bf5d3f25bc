package store

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Syntax names an RDF serialization.
type Syntax string

const (
	Turtle   Syntax = "turtle"
	NTriples Syntax = "ntriples"
	RDFXML   Syntax = "rdfxml"
	JSONLD   Syntax = "jsonld"
)

var syntaxMediaTypes = map[Syntax]string{
	Turtle:   "text/turtle",
	NTriples: "application/n-triples",
	RDFXML:   "application/rdf+xml",
	JSONLD:   "application/ld+json",
}

var syntaxAliases = map[string]Syntax{
	"turtle": Turtle, "ttl": Turtle,
	"ntriples": NTriples, "nt": NTriples, "n-triples": NTriples,
	"rdfxml": RDFXML, "rdf": RDFXML, "xml": RDFXML, "rdf/xml": RDFXML,
	"jsonld": JSONLD, "json-ld": JSONLD,
}

// ParseSyntax resolves a syntax name or file extension, case-insensitively.
func ParseSyntax(name string) (Syntax, error) {
	if s, ok := syntaxAliases[strings.ToLower(strings.TrimPrefix(name, "."))]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown RDF syntax %q", name)
}

// SyntaxForMediaType returns the syntax served under a media type.
func SyntaxForMediaType(mediaType string) (Syntax, bool) {
	for s, mt := range syntaxMediaTypes {
		if mt == mediaType {
			return s, true
		}
	}
	return "", false
}

// MediaType returns the registered media type of the syntax.
func (s Syntax) MediaType() string {
	return syntaxMediaTypes[s]
}

// Encoder writes a store in one syntax.
type Encoder interface {
	Encode(w io.Writer, ts *TripleStore) error
}

// NewEncoder returns the encoder for a syntax.
func NewEncoder(syntax Syntax, options ...Option) (Encoder, error) {
	switch syntax {
	case Turtle:
		return NewTurtleSerializer(options...), nil
	case NTriples:
		return NewNTriplesSerializer(), nil
	case RDFXML:
		return NewRDFXMLSerializer(options...), nil
	case JSONLD:
		return NewJSONLDSerializer(options...), nil
	}
	return nil, fmt.Errorf("unknown RDF syntax %q", syntax)
}

// Marshal encodes the store in the given syntax.
func Marshal(ts *TripleStore, syntax Syntax, options ...Option) ([]byte, error) {
	encoder, err := NewEncoder(syntax, options...)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encoder.Encode(&buf, ts); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", syntax, err)
	}
	return buf.Bytes(), nil
}
