package skos

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/kmdp/pkg/id"
	"github.com/coolbeans/kmdp/pkg/ontology"
	"github.com/coolbeans/kmdp/pkg/store"
)

const (
	ns      = "https://example.org/taxonomy/"
	ontIRI  = ns + "ont"
	version = ns + "ont/versions/20240101"
	schemeA = ns + "A"
	schemeB = ns + "B"
	schemeC = ns + "C"
)

type triple [3]string

func newOntology(t *testing.T, groups ...[]triple) *ontology.Ontology {
	t.Helper()

	ts := store.NewTripleStore()
	for _, group := range groups {
		for _, tr := range group {
			require.NoError(t, ts.Add(tr[0], tr[1], tr[2]))
		}
	}
	return ontology.New(ts, "test")
}

func header(versionIRI string) []triple {
	triples := []triple{{ontIRI, store.RDFType, store.OWLOntology}}
	if versionIRI != "" {
		triples = append(triples, triple{ontIRI, store.OWLVersionIRI, versionIRI})
	}
	return triples
}

func scheme(uri string) []triple {
	return []triple{{uri, store.RDFType, store.SKOSConceptScheme}}
}

func concept(uri string, schemes ...string) []triple {
	triples := []triple{{uri, store.RDFType, store.SKOSConcept}}
	for _, s := range schemes {
		triples = append(triples, triple{uri, store.SKOSInScheme, s})
	}
	return triples
}

func broader(child, parent string) []triple {
	return []triple{{child, store.SKOSBroader, parent}}
}

func traverse(t *testing.T, config AbstractionConfig, ont *ontology.Ontology) *ConceptGraph {
	t.Helper()
	graph, err := NewAbstractor(config, nil).Traverse(ont)
	require.NoError(t, err)
	return graph
}

func uris(terms []ConceptTerm) []string {
	out := make([]string, len(terms))
	for i, term := range terms {
		out[i] = term.URI
	}
	return out
}

func TestTraverse_Schemes(t *testing.T) {
	ont := newOntology(t,
		header(version),
		scheme(schemeA),
		[]triple{{schemeA, store.SKOSPrefLabel, store.NewLangLiteral("Scheme A", "en")}},
		scheme(schemeB),
	)

	graph := traverse(t, DefaultAbstractionConfig(), ont)
	require.Equal(t, []string{schemeA, schemeB}, graph.SchemeURIs())

	a, ok := graph.Scheme(schemeA)
	require.True(t, ok)
	assert.Equal(t, version+"#A", a.VersionURI)
	assert.Equal(t, "20240101", a.VersionTag)
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, "Scheme A", a.Label)

	b, _ := graph.Scheme(schemeB)
	assert.Equal(t, "B", b.Label)
}

func TestTraverse_UnversionedScheme(t *testing.T) {
	graph := traverse(t, DefaultAbstractionConfig(), newOntology(t, header(""), scheme(schemeA)))

	a, ok := graph.Scheme(schemeA)
	require.True(t, ok)
	assert.Equal(t, schemeA, a.VersionURI)
	assert.Empty(t, a.VersionTag)
}

func TestTraverse_ConceptTerm(t *testing.T) {
	x := ns + "X"
	ont := newOntology(t,
		header(version),
		[]triple{{ontIRI, store.DCTermsIssued, store.NewTypedLiteral("2024-01-01", store.XSDDate)}},
		scheme(schemeA),
		concept(x, schemeA),
		[]triple{
			{x, store.SKOSNotation, store.NewLiteral("ex")},
			{x, store.SKOSNotation, store.NewLiteral("ex-alias")},
			{x, store.SKOSPrefLabel, store.NewLangLiteral("Etikett", "de")},
			{x, store.SKOSPrefLabel, store.NewLangLiteral("Ex", "en")},
			{x, store.RDFSComment, store.NewLiteral("An example.")},
			{x, store.RDFSIsDefinedBy, ns + "referents/x"},
		},
	)

	graph := traverse(t, DefaultAbstractionConfig(), ont)
	members := graph.Members(schemeA)
	require.Len(t, members, 1)

	term := members[0]
	assert.Equal(t, x, term.URI)
	assert.Equal(t, "ex", term.Tag())
	assert.Equal(t, []string{"ex-alias"}, term.Aliases())
	assert.Equal(t, "Ex", term.Label)
	assert.Equal(t, "An example.", term.Comment)
	assert.Equal(t, ns+"referents/x", term.Referent)
	assert.Equal(t, schemeA, term.SchemeURI)
	assert.Equal(t, id.DeriveUUID(x, "X"), term.UUID)
	assert.Equal(t, 2024, term.EstablishedOn.Year())
	assert.False(t, term.Top)
}

func TestTraverse_TagDerivation(t *testing.T) {
	const codeType = ns + "codeType"

	typed, plain, oid, bare := ns+"typed", ns+"plain", ns+"oid", ns+"bare"
	ont := newOntology(t,
		header(""),
		scheme(schemeA),
		concept(typed, schemeA),
		[]triple{
			{typed, store.SKOSNotation, store.NewLiteral("loose")},
			{typed, store.SKOSNotation, store.NewTypedLiteral("T-1", codeType)},
		},
		concept(plain, schemeA),
		[]triple{{plain, store.SKOSNotation, store.NewLiteral("P-1")}},
		concept(oid, schemeA),
		[]triple{{oid, store.DCTermsIdentifier, store.NewLiteral("1.2.3")}},
		concept(bare, schemeA),
	)

	config := DefaultAbstractionConfig()
	config.TagType = codeType
	graph := traverse(t, config, ont)

	tags := make(map[string]string)
	for _, term := range graph.Members(schemeA) {
		tags[term.URI] = term.Tag()
	}
	assert.Equal(t, map[string]string{
		typed: "T-1",
		plain: "P-1",
		oid:   "1.2.3",
		bare:  "bare",
	}, tags)

	term, ok := graph.Find(schemeA, bare)
	require.True(t, ok)
	assert.Equal(t, "bare", term.Label)
}

func TestTraverse_UUIDShapedFragment(t *testing.T) {
	const raw = "6b9a4f5e-3c42-4a8e-9d6a-0f2b1c3d4e5f"
	uri := ns + "concepts/" + raw

	graph := traverse(t, DefaultAbstractionConfig(), newOntology(t, header(""), scheme(schemeA), concept(uri, schemeA)))

	term, ok := graph.Find(schemeA, uri)
	require.True(t, ok)
	assert.Equal(t, uuid.MustParse(raw), term.UUID)
}

func TestTraverse_Broader(t *testing.T) {
	x, y := ns+"X", ns+"Y"
	ont := newOntology(t,
		header(""),
		scheme(schemeA),
		scheme(schemeB),
		concept(x, schemeA),
		concept(y, schemeB),
		broader(y, x),
	)

	graph := traverse(t, DefaultAbstractionConfig(), ont)

	yTerm, ok := graph.Find(schemeB, y)
	require.True(t, ok)
	ancestors := graph.Ancestors(yTerm.ID)
	require.Len(t, ancestors, 1)
	assert.Equal(t, x, ancestors[0].URI)
	assert.Equal(t, schemeA, ancestors[0].SchemeURI)

	xTerm, _ := graph.Find(schemeA, x)
	assert.Empty(t, graph.Ancestors(xTerm.ID))
}

func TestTraverse_NoSelfAncestry(t *testing.T) {
	x, y := ns+"X", ns+"Y"
	ont := newOntology(t,
		header(""),
		scheme(schemeA),
		concept(x, schemeA),
		concept(y, schemeA),
		broader(x, x),
		broader(y, x),
		[]triple{{y, store.SKOSBroaderTransitive, y}},
	)

	graph := traverse(t, DefaultAbstractionConfig(), ont)
	for i := 0; i < graph.Len(); i++ {
		term, _ := graph.Concept(ConceptID(i))
		for _, ancestor := range graph.Ancestors(term.ID) {
			assert.NotEqual(t, term.ID, ancestor.ID, "%s is its own ancestor", term.URI)
		}
	}
}

func TestTraverse_TwoSchemes(t *testing.T) {
	x := ns + "X"
	graph := traverse(t, DefaultAbstractionConfig(), newOntology(t,
		header(""),
		scheme(schemeA),
		scheme(schemeB),
		concept(x, schemeA, schemeB),
	))

	assert.Len(t, graph.Lookup(x), 2)
	assert.Equal(t, []string{x}, uris(graph.Members(schemeA)))
	assert.Equal(t, []string{x}, uris(graph.Members(schemeB)))
}

func TestTraverse_TooManySchemes(t *testing.T) {
	x := ns + "X"
	ont := newOntology(t,
		header(""),
		scheme(schemeA),
		scheme(schemeB),
		scheme(schemeC),
		concept(x, schemeA, schemeB, schemeC),
	)

	_, err := NewAbstractor(DefaultAbstractionConfig(), nil).Traverse(ont)
	assert.ErrorIs(t, err, ErrUnsupportedMembership)
}

func TestTraverse_UnresolvedParent(t *testing.T) {
	x, y := ns+"X", ns+"Y"
	ont := newOntology(t,
		header(""),
		scheme(schemeA),
		concept(y, schemeA),
		// X is declared in the scheme but never typed as a concept.
		[]triple{{x, store.SKOSInScheme, schemeA}},
		broader(y, x),
	)

	_, err := NewAbstractor(DefaultAbstractionConfig(), nil).Traverse(ont)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvedConcept))

	var unresolved *UnresolvedConceptError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, x, unresolved.Missing)
	assert.Equal(t, y, unresolved.Subject)
}

func TestTraverse_ParentOutsideSchemesIgnored(t *testing.T) {
	x, y := ns+"X", ns+"Y"
	graph := traverse(t, DefaultAbstractionConfig(), newOntology(t,
		header(""),
		scheme(schemeA),
		concept(y, schemeA),
		concept(x),
		broader(y, x),
	))

	yTerm, ok := graph.Find(schemeA, y)
	require.True(t, ok)
	assert.Empty(t, graph.Parents(yTerm.ID))
	assert.Empty(t, graph.Lookup(x))
}

func TestTraverse_TopConcepts(t *testing.T) {
	top, x := ns+"Top", ns+"X"
	ont := newOntology(t,
		header(""),
		scheme(schemeA),
		concept(top),
		[]triple{{top, store.SKOSTopConceptOf, schemeA}},
		concept(x, schemeA),
		broader(x, top),
	)

	graph := traverse(t, DefaultAbstractionConfig(), ont)

	assert.Equal(t, []string{x}, uris(graph.Members(schemeA)))

	topTerm, ok := graph.Top(schemeA)
	require.True(t, ok)
	assert.Equal(t, top, topTerm.URI)
	assert.True(t, topTerm.Top)

	xTerm, _ := graph.Find(schemeA, x)
	assert.Empty(t, graph.Parents(xTerm.ID), "broader links to top concepts are not kept")
}

func TestTraverse_HasTopConcept(t *testing.T) {
	top := ns + "Top"
	graph := traverse(t, DefaultAbstractionConfig(), newOntology(t,
		header(""),
		scheme(schemeA),
		[]triple{{schemeA, store.SKOSHasTopConcept, top}},
		concept(top),
	))

	topTerm, ok := graph.Top(schemeA)
	require.True(t, ok)
	assert.Equal(t, top, topTerm.URI)
	assert.Empty(t, graph.Members(schemeA))
}

func TestTraverse_EnforceClosureInfersScheme(t *testing.T) {
	top, y, z := ns+"Top", ns+"Y", ns+"Z"
	ont := newOntology(t,
		header(""),
		scheme(schemeA),
		scheme(schemeB),
		concept(top),
		[]triple{{top, store.SKOSTopConceptOf, schemeA}},
		concept(y, schemeB),
		concept(z),
		broader(z, y),
		concept(ns+"W"),
		broader(ns+"W", top),
	)

	config := DefaultAbstractionConfig()
	config.EnforceClosure = true
	graph := traverse(t, config, ont)

	zTerm, ok := graph.Find(schemeB, z)
	require.True(t, ok, "Z inherits the scheme of its broader concept")
	assert.Equal(t, []string{y}, uris(graph.Parents(zTerm.ID)))

	_, ok = graph.Find(schemeA, ns+"W")
	assert.True(t, ok, "W inherits the scheme headed by its top concept")
}

func TestVersionTagOf(t *testing.T) {
	tests := []struct {
		iri  string
		want string
	}{
		{"", ""},
		{"https://example.org/ont/versions/1.0.0", "1.0.0"},
		{"https://example.org/ont/versions/20240101/colors", "20240101"},
		{"https://example.org/ont/v2", "v2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, versionTagOf(tt.iri), tt.iri)
	}
}

func TestAbstract_LoadedDocument(t *testing.T) {
	ont, err := ontology.NewLoader(nil).LoadFile("../ontology/testdata/colors.rdf")
	require.NoError(t, err)

	graph, err := NewAbstractor(DefaultAbstractionConfig(), nil).Abstract(ont)
	require.NoError(t, err)
	require.Len(t, graph.SchemeURIs(), 1)

	scheme := graph.SchemeURIs()[0]
	red, ok := graph.Find(scheme, "https://example.org/taxonomy/colors#red")
	require.True(t, ok)
	assert.Equal(t, "https://example.org/referents/red", red.Referent)
}

func TestAbstract_NTriplesFile(t *testing.T) {
	ont, err := ontology.NewLoader(nil).LoadFile(filepath.Join("testdata", "colors.nt"))
	require.NoError(t, err)
	require.Equal(t, "https://example.org/taxonomy/colors/versions/20240101", ont.VersionIRI)

	graph, err := NewAbstractor(DefaultAbstractionConfig(), nil).Abstract(ont)
	require.NoError(t, err)

	colors := "https://example.org/taxonomy/colors#Colors"
	require.Equal(t, []string{colors}, graph.SchemeURIs())
	scheme, _ := graph.Scheme(colors)
	assert.Equal(t, "Colors", scheme.Label)
	assert.Equal(t, "20240101", scheme.VersionTag)

	members := graph.Members(colors)
	require.Len(t, members, 2)
	assert.Equal(t, []string{"warm", "red"}, []string{members[0].Tag(), members[1].Tag()})

	parents := graph.Parents(members[1].ID)
	require.Len(t, parents, 1)
	assert.Equal(t, "warm", parents[0].Tag())
}
