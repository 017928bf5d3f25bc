package store

import (
	"fmt"
	"io"
	"strings"

	"github.com/piprate/json-gold/ld"
)

// NTriplesSerializer writes a TripleStore as one N-Triples statement per line.
type NTriplesSerializer struct{}

// NewNTriplesSerializer creates an NTriplesSerializer.
func NewNTriplesSerializer() *NTriplesSerializer {
	return &NTriplesSerializer{}
}

// Serialize returns all triples in subject insertion order.
func (s *NTriplesSerializer) Serialize(ts *TripleStore) string {
	var sb strings.Builder
	_ = s.Encode(&sb, ts)
	return sb.String()
}

// Encode writes all triples to w.
func (s *NTriplesSerializer) Encode(w io.Writer, ts *TripleStore) error {
	for _, t := range ts.All() {
		if _, err := io.WriteString(w, t.NTriples()+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// ParseNTriples reads N-Triples (or N-Quads, ignoring graph names) into a new store.
func ParseNTriples(r io.Reader) (*TripleStore, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read n-triples: %w", err)
	}

	dataset, err := ld.ParseNQuads(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse n-triples: %w", err)
	}

	ts := NewTripleStore()
	if err := ts.AddDataset(dataset); err != nil {
		return nil, fmt.Errorf("failed to parse n-triples: %w", err)
	}
	return ts, nil
}

// ParseJSONLD expands a JSON-LD document to RDF and loads it into a new store.
func ParseJSONLD(r io.Reader) (*TripleStore, error) {
	document, err := ld.DocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read json-ld: %w", err)
	}

	processor := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")

	result, err := processor.ToRDF(document, options)
	if err != nil {
		return nil, fmt.Errorf("failed to convert json-ld to rdf: %w", err)
	}

	dataset, ok := result.(*ld.RDFDataset)
	if !ok {
		return nil, fmt.Errorf("unexpected json-ld conversion result %T", result)
	}

	ts := NewTripleStore()
	if err := ts.AddDataset(dataset); err != nil {
		return nil, fmt.Errorf("failed to load json-ld: %w", err)
	}
	return ts, nil
}

// AddDataset adds every quad of a json-gold dataset, merging all named graphs
// into the default graph. The default graph is read first. A quad with a term
// that cannot be converted fails the whole dataset and nothing is added.
func (ts *TripleStore) AddDataset(dataset *ld.RDFDataset) error {
	graphNames := sortedKeys(dataset.Graphs)

	ordered := make([]string, 0, len(graphNames))
	if _, ok := dataset.Graphs["@default"]; ok {
		ordered = append(ordered, "@default")
	}
	for _, name := range graphNames {
		if name != "@default" {
			ordered = append(ordered, name)
		}
	}

	triples := make([]Triple, 0)
	for _, name := range ordered {
		for _, quad := range dataset.Graphs[name] {
			if quad == nil {
				continue
			}
			t := Triple{
				Subject:   nodeTerm(quad.Subject),
				Predicate: nodeTerm(quad.Predicate),
				Object:    nodeTerm(quad.Object),
			}
			if !t.Valid() {
				return fmt.Errorf("quad %d of graph %s (%T %T %T): %w",
					len(triples), name, quad.Subject, quad.Predicate, quad.Object, ErrEmptyTerm)
			}
			triples = append(triples, t)
		}
	}

	return ts.BulkAdd(triples)
}

// nodeTerm converts a json-gold node into the store's term encoding.
// Quads carry value nodes; pointers are accepted as well.
func nodeTerm(node ld.Node) string {
	switch n := node.(type) {
	case ld.IRI:
		return n.Value
	case *ld.IRI:
		return n.Value
	case ld.BlankNode:
		return blankTerm(n.Attribute)
	case *ld.BlankNode:
		return blankTerm(n.Attribute)
	case ld.Literal:
		return literalTerm(n)
	case *ld.Literal:
		return literalTerm(*n)
	default:
		return ""
	}
}

func blankTerm(attribute string) string {
	if attribute == "" || strings.HasPrefix(attribute, "_:") {
		return attribute
	}
	return "_:" + attribute
}

func literalTerm(l ld.Literal) string {
	literal := Literal{Value: l.Value, Language: l.Language}
	if l.Language == "" {
		literal.Datatype = l.Datatype
	}
	return literal.String()
}
