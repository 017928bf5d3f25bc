package store

// Triple is an RDF statement. IRIs are held bare, blank nodes as "_:label"
// and literals in their N-Triples form (see Literal).
type Triple struct {
	Subject   string
	Predicate string
	Object    string
}

// NewTriple creates a triple.
func NewTriple(subject, predicate, object string) Triple {
	return Triple{Subject: subject, Predicate: predicate, Object: object}
}

// Valid reports whether all three terms are set.
func (t Triple) Valid() bool {
	return t.Subject != "" && t.Predicate != "" && t.Object != ""
}

// NTriples returns the triple as one N-Triples statement, without the newline.
func (t Triple) NTriples() string {
	return ntTerm(t.Subject) + " " + ntTerm(t.Predicate) + " " + ntTerm(t.Object) + " ."
}

func (t Triple) String() string {
	return t.NTriples()
}

func ntTerm(term string) string {
	switch {
	case IsBlankNode(term):
		return term
	case IsIRI(term):
		return "<" + escapeIRI(term) + ">"
	}
	if literal, ok := ParseLiteral(term); ok {
		return literal.String()
	}
	return "<" + escapeIRI(term) + ">"
}
