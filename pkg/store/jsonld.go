package store

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/piprate/json-gold/ld"
)

// skosTerms are the short context terms for SKOS properties. Object
// properties are coerced to @id so their values are plain strings.
var skosTerms = map[string]struct {
	term string
	ref  bool
}{
	SKOSPrefLabel:     {"prefLabel", false},
	SKOSAltLabel:      {"altLabel", false},
	SKOSNotation:      {"notation", false},
	SKOSDefinition:    {"definition", false},
	SKOSInScheme:      {"inScheme", true},
	SKOSBroader:       {"broader", true},
	SKOSNarrower:      {"narrower", true},
	SKOSTopConceptOf:  {"topConceptOf", true},
	SKOSHasTopConcept: {"hasTopConcept", true},
}

// JSONLDSerializer writes a store as a compact JSON-LD document with an
// @graph, or as expanded JSON-LD with the Expanded option.
type JSONLDSerializer struct {
	namespaces *Namespaces
	expanded   bool
}

// NewJSONLDSerializer creates a serializer with the default prefixes plus
// any given options.
func NewJSONLDSerializer(options ...Option) *JSONLDSerializer {
	s := newSettings(options)
	return &JSONLDSerializer{namespaces: s.namespaces, expanded: s.expanded}
}

// Serialize returns the indented JSON-LD document.
func (s *JSONLDSerializer) Serialize(ts *TripleStore) ([]byte, error) {
	doc := s.Document(ts)
	if !s.expanded {
		return json.MarshalIndent(doc, "", "  ")
	}

	expanded, err := ld.NewJsonLdProcessor().Expand(doc, ld.NewJsonLdOptions(""))
	if err != nil {
		return nil, fmt.Errorf("expanding json-ld: %w", err)
	}
	return json.MarshalIndent(expanded, "", "  ")
}

// Encode writes the document to w.
func (s *JSONLDSerializer) Encode(w io.Writer, ts *TripleStore) error {
	data, err := s.Serialize(ts)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// Document builds the compact document. Its @context declares only the
// prefixes and SKOS terms the graph uses.
func (s *JSONLDSerializer) Document(ts *TripleStore) map[string]any {
	c := &jsonldCompactor{namespaces: s.namespaces, context: make(map[string]any)}

	graph := make([]any, 0)
	for _, r := range resources(ts) {
		graph = append(graph, c.node(r))
	}
	return map[string]any{
		"@context": c.context,
		"@graph":   graph,
	}
}

type jsonldCompactor struct {
	namespaces *Namespaces
	context    map[string]any
}

func (c *jsonldCompactor) node(r resource) map[string]any {
	node := map[string]any{"@id": c.iri(r.subject)}
	for _, predicate := range r.predicates {
		objects := r.objects[predicate]
		if predicate == RDFType {
			types := make([]any, len(objects))
			for i, t := range objects {
				types[i] = c.iri(t)
			}
			node["@type"] = single(types)
			continue
		}

		key, ref := c.key(predicate)
		values := make([]any, len(objects))
		for i, o := range objects {
			values[i] = c.value(o, ref)
		}
		node[key] = single(values)
	}
	return node
}

// key returns the property key and whether its values are coerced to @id.
func (c *jsonldCompactor) key(predicate string) (string, bool) {
	if alias, ok := skosTerms[predicate]; ok {
		definition := map[string]any{"@id": predicate}
		if alias.ref {
			definition["@type"] = "@id"
		}
		c.context[alias.term] = definition
		return alias.term, alias.ref
	}
	return c.iri(predicate), false
}

func (c *jsonldCompactor) value(object string, ref bool) any {
	if IsBlankNode(object) || isFullURI(object) {
		if ref {
			return c.iri(object)
		}
		return map[string]any{"@id": c.iri(object)}
	}

	literal, _ := ParseLiteral(object)
	switch {
	case literal.Language != "":
		return map[string]any{"@value": literal.Value, "@language": literal.Language}
	case literal.Datatype != "" && literal.Datatype != XSDString:
		return map[string]any{"@value": literal.Value, "@type": c.iri(literal.Datatype)}
	case ref:
		return map[string]any{"@value": literal.Value}
	}
	return literal.Value
}

// iri compacts with a bound prefix, adding the prefix to the context.
func (c *jsonldCompactor) iri(value string) string {
	if IsBlankNode(value) {
		return value
	}
	prefix, local, ok := c.namespaces.split(value)
	if !ok {
		return value
	}
	ns, _ := c.namespaces.Namespace(prefix)
	c.context[prefix] = ns
	return prefix + ":" + local
}

func single(values []any) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}
