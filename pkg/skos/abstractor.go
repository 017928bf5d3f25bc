package skos

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/coolbeans/kmdp/pkg/id"
	"github.com/coolbeans/kmdp/pkg/ontology"
	"github.com/coolbeans/kmdp/pkg/store"
)

// ClosureMode selects how ApplyClosure treats cross-scheme references.
type ClosureMode string

const (
	// ClosureImports keeps cross-scheme references; the graph is returned as is.
	ClosureImports ClosureMode = "IMPORTS"

	// ClosureIncludes copies referenced concepts into each dependent scheme.
	ClosureIncludes ClosureMode = "INCLUDES"
)

// AbstractionConfig controls how ontologies are abstracted into graphs.
type AbstractionConfig struct {
	ClosureMode    ClosureMode
	EnforceClosure bool

	// TagType is the datatype IRI of the skos:notation literals preferred as tags.
	TagType string

	// OIDAnnotation is the annotation property consulted when no notation exists.
	OIDAnnotation string
}

// DefaultAbstractionConfig returns the settings used when none are given.
func DefaultAbstractionConfig() AbstractionConfig {
	return AbstractionConfig{
		ClosureMode:   ClosureImports,
		OIDAnnotation: store.DCTermsIdentifier,
	}
}

// Abstractor builds concept graphs from ontologies.
type Abstractor struct {
	config AbstractionConfig
	logger *slog.Logger
}

// NewAbstractor creates an Abstractor. A nil logger uses slog.Default().
func NewAbstractor(config AbstractionConfig, logger *slog.Logger) *Abstractor {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ClosureMode == "" {
		config.ClosureMode = ClosureImports
	}
	if config.OIDAnnotation == "" {
		config.OIDAnnotation = store.DCTermsIdentifier
	}
	return &Abstractor{config: config, logger: logger}
}

// Abstract traverses the ontology and applies the configured closure.
func (a *Abstractor) Abstract(ont *ontology.Ontology) (*ConceptGraph, error) {
	graph, err := a.Traverse(ont)
	if err != nil {
		return nil, err
	}
	return a.ApplyClosure(graph)
}

// traversal carries the state of one Traverse call.
type traversal struct {
	*Abstractor
	ont     *ontology.Ontology
	builder *graphBuilder

	// tops maps top concept URIs to the schemes they head; topOrder keeps
	// the order in which they were declared.
	tops     map[string][]string
	topOrder []string

	// inferred holds scheme memberships found along broader chains.
	inferred map[string][]string
}

// Traverse builds the concept graph of an ontology: schemes first, then
// member concepts, broader relationships and finally top concepts.
func (a *Abstractor) Traverse(ont *ontology.Ontology) (*ConceptGraph, error) {
	t := &traversal{
		Abstractor: a,
		ont:        ont,
		builder:    newGraphBuilder(),
		inferred:   make(map[string][]string),
	}

	t.schemePass()
	t.collectTops()

	if err := t.conceptPass(); err != nil {
		return nil, err
	}
	if err := t.relationshipPass(); err != nil {
		return nil, err
	}
	t.topConceptPass()

	graph := t.builder.build()
	a.logger.Debug("Traversed ontology",
		"ontology", ont.ID(),
		"schemes", len(graph.schemes),
		"concepts", graph.Len())

	return graph, nil
}

func (t *traversal) schemePass() {
	versionTag := versionTagOf(t.ont.VersionIRI)

	for _, uri := range t.ont.Individuals(store.SKOSConceptScheme) {
		fragment := ontology.Fragment(uri)

		versionURI := uri
		if t.ont.VersionIRI != "" {
			versionURI = t.ont.VersionIRI + "#" + fragment
		}

		label := t.firstLiteral(uri, store.SKOSPrefLabel, store.RDFSLabel, store.DCTermsTitle)
		if label == "" {
			label = fragment
		}

		t.builder.addScheme(ConceptScheme{
			URI:        uri,
			VersionURI: versionURI,
			VersionTag: versionTag,
			Name:       fragment,
			Label:      label,
		})
	}
}

// collectTops finds individuals declared as top concepts of known schemes.
func (t *traversal) collectTops() {
	t.tops = make(map[string][]string)
	add := func(concept, scheme string) {
		if !t.builder.hasScheme(scheme) {
			return
		}
		for _, existing := range t.tops[concept] {
			if existing == scheme {
				return
			}
		}
		if len(t.tops[concept]) == 0 {
			t.topOrder = append(t.topOrder, concept)
		}
		t.tops[concept] = append(t.tops[concept], scheme)
	}

	for _, assertion := range t.ont.Assertions(store.SKOSTopConceptOf) {
		add(assertion.Subject, assertion.Object)
	}
	for _, assertion := range t.ont.Assertions(store.SKOSHasTopConcept) {
		add(assertion.Object, assertion.Subject)
	}
}

func (t *traversal) isTop(uri string) bool {
	return len(t.tops[uri]) > 0
}

func (t *traversal) conceptPass() error {
	for _, uri := range t.ont.Individuals(store.SKOSConcept) {
		if t.isTop(uri) {
			continue
		}

		schemes := t.declaredSchemes(uri)
		if len(schemes) == 0 && t.config.EnforceClosure {
			schemes = t.inferSchemes(uri)
			t.inferred[uri] = schemes
		}

		switch {
		case len(schemes) == 0:
			t.logger.Debug("Concept is not in a known scheme", "concept", uri)
			continue
		case len(schemes) > 2:
			return fmt.Errorf("%w: %s is in %d schemes", ErrUnsupportedMembership, uri, len(schemes))
		}

		for _, scheme := range schemes {
			t.builder.addMember(t.newTerm(uri, scheme))
		}
	}
	return nil
}

// declaredSchemes returns the known schemes a concept is skos:inScheme of.
func (t *traversal) declaredSchemes(uri string) []string {
	var schemes []string
	for _, scheme := range t.ont.ObjectValues(uri, store.SKOSInScheme) {
		if t.builder.hasScheme(scheme) {
			schemes = append(schemes, scheme)
		}
	}
	return schemes
}

// inferSchemes walks the broader chain breadth first until it reaches a
// concept that is a top concept of, or declared in, a known scheme.
func (t *traversal) inferSchemes(uri string) []string {
	visited := map[string]bool{uri: true}
	queue := t.broaderOf(uri)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		if schemes := t.tops[current]; len(schemes) > 0 {
			return append([]string(nil), schemes...)
		}
		if schemes := t.declaredSchemes(current); len(schemes) > 0 {
			return schemes
		}
		queue = append(queue, t.broaderOf(current)...)
	}
	return nil
}

func (t *traversal) broaderOf(uri string) []string {
	parents := t.ont.ObjectValues(uri, store.SKOSBroader)
	return append(parents, t.ont.ObjectValues(uri, store.SKOSBroaderTransitive)...)
}

func (t *traversal) relationshipPass() error {
	for _, predicate := range []string{store.SKOSBroader, store.SKOSBroaderTransitive} {
		for _, assertion := range t.ont.Assertions(predicate) {
			child, parent := assertion.Subject, assertion.Object

			if child == parent || t.isTop(parent) || t.isTop(child) {
				continue
			}
			if len(t.declaredSchemes(parent)) == 0 && len(t.inferred[parent]) == 0 {
				continue
			}

			childTerms := t.builder.graph.Lookup(child)
			if len(childTerms) == 0 {
				return &UnresolvedConceptError{Subject: child, Predicate: predicate, Object: parent, Missing: child}
			}
			parentTerms := t.builder.graph.Lookup(parent)
			if len(parentTerms) == 0 {
				return &UnresolvedConceptError{Subject: child, Predicate: predicate, Object: parent, Missing: parent}
			}

			for _, childTerm := range childTerms {
				t.builder.addParent(childTerm.ID, closestTerm(parentTerms, childTerm.SchemeURI).ID)
			}
		}
	}
	return nil
}

// closestTerm prefers the term owned by the given scheme.
func closestTerm(terms []ConceptTerm, schemeURI string) ConceptTerm {
	for _, term := range terms {
		if term.SchemeURI == schemeURI {
			return term
		}
	}
	return terms[0]
}

func (t *traversal) topConceptPass() {
	for _, uri := range t.topOrder {
		for _, scheme := range t.tops[uri] {
			t.builder.setTop(t.newTerm(uri, scheme))
		}
	}
}

// newTerm derives the tags, identity and annotations of a concept.
func (t *traversal) newTerm(uri, scheme string) ConceptTerm {
	tags := t.tagsOf(uri)

	label := t.firstLiteral(uri, store.SKOSPrefLabel, store.RDFSLabel)
	if label == "" {
		label = tags[0]
	}

	referent := ""
	if referents := t.ont.ObjectValues(uri, store.RDFSIsDefinedBy); len(referents) > 0 {
		referent = referents[0]
	}

	established, ok := t.ont.IssuedOn(uri)
	if !ok {
		established, _ = t.ont.Date()
	}

	return ConceptTerm{
		URI:           uri,
		Tags:          tags,
		Label:         label,
		Comment:       t.firstLiteral(uri, store.SKOSDefinition, store.RDFSComment),
		Referent:      referent,
		SchemeURI:     scheme,
		UUID:          id.DeriveUUID(uri, ontology.Fragment(uri)),
		EstablishedOn: established,
	}
}

// tagsOf returns the notations of the preferred datatype, else all
// notations, else the OID annotation, else the URI fragment.
func (t *traversal) tagsOf(uri string) []string {
	notations := t.ont.Literals(uri, store.SKOSNotation)

	if t.config.TagType != "" {
		var typed []string
		for _, notation := range notations {
			if notation.Datatype == t.config.TagType {
				typed = append(typed, notation.Value)
			}
		}
		if len(typed) > 0 {
			return typed
		}
	}

	if len(notations) > 0 {
		tags := make([]string, len(notations))
		for i, notation := range notations {
			tags[i] = notation.Value
		}
		return tags
	}

	if oid, ok := t.ont.Annotation(uri, t.config.OIDAnnotation); ok && oid != "" {
		return []string{oid}
	}

	return []string{ontology.Fragment(uri)}
}

// firstLiteral returns the first value found for the predicates, in order.
// English and untagged literals are preferred.
func (t *traversal) firstLiteral(uri string, predicates ...string) string {
	for _, predicate := range predicates {
		literals := t.ont.Literals(uri, predicate)
		if len(literals) == 0 {
			continue
		}
		for _, literal := range literals {
			if literal.Language == "" || strings.HasPrefix(literal.Language, "en") {
				return literal.Value
			}
		}
		return literals[0].Value
	}
	return ""
}

// versionTagOf extracts the version segment of an ontology version IRI.
func versionTagOf(versionIRI string) string {
	if versionIRI == "" {
		return ""
	}
	if idx := strings.LastIndex(versionIRI, "/versions/"); idx != -1 {
		tag := versionIRI[idx+len("/versions/"):]
		if slash := strings.Index(tag, "/"); slash != -1 {
			tag = tag[:slash]
		}
		return tag
	}
	return ontology.Fragment(versionIRI)
}
