// Package ontology loads OWL ontologies into triple stores and exposes the
// individual, assertion and annotation views the terminology abstractor reads.
package ontology

import (
	"strings"
	"time"

	"github.com/coolbeans/kmdp/pkg/store"
)

// Ontology is a read view over the triples of one loaded ontology document,
// possibly merged with the documents it imports.
type Ontology struct {
	IRI        string
	VersionIRI string
	Imports    []string
	Source     string

	triples *store.TripleStore
}

// New wraps a triple store. The first owl:Ontology subject supplies the
// ontology and version IRIs.
func New(triples *store.TripleStore, source string) *Ontology {
	ont := &Ontology{Source: source, triples: triples}

	headers := triples.SubjectsWith(store.RDFType, store.OWLOntology)
	if len(headers) == 0 {
		return ont
	}

	ont.IRI = headers[0]
	ont.VersionIRI = triples.GetOne(ont.IRI, store.OWLVersionIRI)
	ont.Imports = triples.Values(ont.IRI, store.OWLImports)

	return ont
}

// Store returns the underlying triples.
func (o *Ontology) Store() *store.TripleStore {
	return o.triples
}

// ID returns the version IRI when present, else the ontology IRI, else the source.
func (o *Ontology) ID() string {
	switch {
	case o.VersionIRI != "":
		return o.VersionIRI
	case o.IRI != "":
		return o.IRI
	default:
		return o.Source
	}
}

// Individuals returns the subjects typed with class, in document order.
func (o *Ontology) Individuals(class string) []string {
	return o.triples.SubjectsWith(store.RDFType, class)
}

// HasType reports whether the individual is typed with class.
func (o *Ontology) HasType(individual, class string) bool {
	return o.triples.Exists(individual, store.RDFType, class)
}

// ObjectValues returns the IRI objects of subject-predicate assertions.
func (o *Ontology) ObjectValues(subject, predicate string) []string {
	var objects []string
	for _, value := range o.triples.Values(subject, predicate) {
		if !store.IsLiteral(value) {
			objects = append(objects, value)
		}
	}
	return objects
}

// Literals returns the literal objects of subject-predicate assertions.
func (o *Ontology) Literals(subject, predicate string) []store.Literal {
	var literals []store.Literal
	for _, value := range o.triples.Values(subject, predicate) {
		if literal, ok := store.ParseLiteral(value); ok {
			literals = append(literals, literal)
		}
	}
	return literals
}

// Annotation returns the first literal annotation value of subject.
func (o *Ontology) Annotation(subject, predicate string) (string, bool) {
	literals := o.Literals(subject, predicate)
	if len(literals) == 0 {
		return "", false
	}
	return literals[0].Value, true
}

// Assertions returns all object-property assertions with the given predicate,
// ordered by subject document order.
func (o *Ontology) Assertions(predicate string) []store.Triple {
	var assertions []store.Triple
	for _, subject := range o.triples.Subjects() {
		for _, object := range o.ObjectValues(subject, predicate) {
			assertions = append(assertions, store.NewTriple(subject, predicate, object))
		}
	}
	return assertions
}

// IssuedOn returns the dcterms:issued or dcterms:created date of subject.
func (o *Ontology) IssuedOn(subject string) (time.Time, bool) {
	for _, predicate := range []string{store.DCTermsIssued, store.DCTermsCreated} {
		for _, literal := range o.Literals(subject, predicate) {
			if date, ok := ParseDate(literal.Value); ok {
				return date, true
			}
		}
	}
	return time.Time{}, false
}

// Date returns the issue date of the ontology header.
func (o *Ontology) Date() (time.Time, bool) {
	if o.IRI == "" {
		return time.Time{}, false
	}
	return o.IssuedOn(o.IRI)
}

// dateLayouts are the lexical date forms accepted in annotations.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"20060102",
}

// ParseDate parses an xsd:date or xsd:dateTime lexical value.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if date, err := time.Parse(layout, value); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}

// Fragment returns the local part of an IRI: the text after '#', else after
// the last '/', else after the last ':'.
func Fragment(iri string) string {
	if idx := strings.LastIndex(iri, "#"); idx != -1 && idx < len(iri)-1 {
		return iri[idx+1:]
	}
	trimmed := strings.TrimRight(iri, "/#")
	if idx := strings.LastIndex(trimmed, "/"); idx != -1 {
		return trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, ":"); idx != -1 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// Merge combines an ontology with the ontologies it imports into one view.
// The header of primary is kept.
func Merge(primary *Ontology, imported ...*Ontology) *Ontology {
	merged := store.NewTripleStore()
	merged.MergeFrom(primary.triples)
	for _, ont := range imported {
		merged.MergeFrom(ont.triples)
	}

	return &Ontology{
		IRI:        primary.IRI,
		VersionIRI: primary.VersionIRI,
		Imports:    primary.Imports,
		Source:     primary.Source,
		triples:    merged,
	}
}
