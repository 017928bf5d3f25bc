package skos

import (
	"github.com/coolbeans/kmdp/pkg/store"
)

// Triples renders the graph as SKOS triples: schemes, their members and top
// concepts, labels, notations and broader links. Concepts shared by several
// schemes are described once per scheme; triple identity collapses the
// duplicates.
func (g *ConceptGraph) Triples() *store.TripleStore {
	ts := store.NewTripleStore()
	add := func(subject, predicate, object string) {
		// The store only rejects empty components.
		_ = ts.Add(subject, predicate, object)
	}

	for _, scheme := range g.schemes {
		add(scheme.URI, store.RDFType, store.SKOSConceptScheme)
		if scheme.Label != "" {
			add(scheme.URI, store.SKOSPrefLabel, store.NewLiteral(scheme.Label))
		}
		if scheme.VersionTag != "" {
			add(scheme.URI, store.OWLVersionInfo, store.NewLiteral(scheme.VersionTag))
		}
		if scheme.hasTop {
			add(scheme.URI, store.SKOSHasTopConcept, g.concepts[scheme.top].URI)
		}
	}

	for _, term := range g.concepts {
		add(term.URI, store.RDFType, store.SKOSConcept)
		if term.Top {
			add(term.URI, store.SKOSTopConceptOf, term.SchemeURI)
		} else {
			add(term.URI, store.SKOSInScheme, term.SchemeURI)
		}
		if term.Label != "" {
			add(term.URI, store.SKOSPrefLabel, store.NewLiteral(term.Label))
		}
		for _, tag := range term.Tags {
			add(term.URI, store.SKOSNotation, store.NewLiteral(tag))
		}
		if term.Comment != "" {
			add(term.URI, store.SKOSDefinition, store.NewLiteral(term.Comment))
		}
		if term.Referent != "" {
			add(term.URI, store.RDFSIsDefinedBy, term.Referent)
		}
	}

	for _, edge := range g.Edges() {
		add(g.concepts[edge[0]].URI, store.SKOSBroader, g.concepts[edge[1]].URI)
	}

	return ts
}
