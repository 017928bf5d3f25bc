package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/kmdp/pkg/ontology"
	"github.com/coolbeans/kmdp/pkg/store"
)

func newOntology(t *testing.T, iri, issued string, imports ...string) *ontology.Ontology {
	t.Helper()
	ts := store.NewTripleStore()
	require.NoError(t, ts.Add(iri, store.RDFType, store.OWLOntology))
	if issued != "" {
		require.NoError(t, ts.Add(iri, store.DCTermsIssued, store.NewTypedLiteral(issued, store.XSDDate)))
	}
	for _, imported := range imports {
		require.NoError(t, ts.Add(iri, store.OWLImports, imported))
	}
	return ontology.New(ts, iri+".nt")
}

func sources(ontologies []*ontology.Ontology) []string {
	out := make([]string, len(ontologies))
	for i, ont := range ontologies {
		out[i] = ont.Source
	}
	return out
}

func TestRoots(t *testing.T) {
	colors := newOntology(t, "https://example.org/colors", "", "https://example.org/shades")
	shades := newOntology(t, "https://example.org/shades", "")
	shapes := newOntology(t, "https://example.org/shapes", "")

	got := roots([]*ontology.Ontology{colors, shades, shapes})
	assert.Equal(t, []string{"https://example.org/colors.nt", "https://example.org/shapes.nt"}, sources(got))
}

func TestChronological(t *testing.T) {
	v2 := newOntology(t, "https://example.org/v2", "2024-06-01")
	v1 := newOntology(t, "https://example.org/v1", "2024-01-01")
	v3 := newOntology(t, "https://example.org/v3", "2025-01-01")

	got := chronological([]*ontology.Ontology{v3, v2, v1})
	assert.Equal(t, []string{
		"https://example.org/v1.nt",
		"https://example.org/v2.nt",
		"https://example.org/v3.nt",
	}, sources(got))
}

func TestChronological_UndatedLast(t *testing.T) {
	draft := newOntology(t, "https://example.org/draft", "")
	v2 := newOntology(t, "https://example.org/v2", "2024-06-01")
	scratch := newOntology(t, "https://example.org/scratch", "")
	v1 := newOntology(t, "https://example.org/v1", "2024-01-01")

	got := chronological([]*ontology.Ontology{draft, v2, scratch, v1})
	assert.Equal(t, []string{
		"https://example.org/v1.nt",
		"https://example.org/v2.nt",
		"https://example.org/draft.nt",
		"https://example.org/scratch.nt",
	}, sources(got))
}

func TestParseThresholds(t *testing.T) {
	got, err := parseThresholds([]string{"tags.tag_coverage=0.9", " schemes.scheme_population = 0.25"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		"tags.tag_coverage":         0.9,
		"schemes.scheme_population": 0.25,
	}, got)

	for _, bad := range []string{"tags=0.9", "tags.tag_coverage", "tags.tag_coverage=high"} {
		_, err := parseThresholds([]string{bad})
		assert.Error(t, err, bad)
	}
}
