package skos

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/kmdp/pkg/hierarchy"
	"github.com/coolbeans/kmdp/pkg/store"
)

func includes() AbstractionConfig {
	config := DefaultAbstractionConfig()
	config.ClosureMode = ClosureIncludes
	return config
}

// signature describes a graph by URIs only, so graphs with different
// concept IDs can be compared.
func signature(g *ConceptGraph) []string {
	var lines []string
	for _, scheme := range g.SchemeURIs() {
		for _, member := range g.Members(scheme) {
			lines = append(lines, fmt.Sprintf("member %s %s", scheme, member.URI))
			for _, parent := range g.Parents(member.ID) {
				lines = append(lines, fmt.Sprintf("broader %s %s -> %s %s", scheme, member.URI, parent.SchemeURI, parent.URI))
			}
		}
		if top, ok := g.Top(scheme); ok {
			lines = append(lines, fmt.Sprintf("top %s %s", scheme, top.URI))
		}
	}
	sort.Strings(lines)
	return lines
}

func crossSchemeOntology(t *testing.T) (x, y string, graph *ConceptGraph) {
	t.Helper()
	x, y = ns+"X", ns+"Y"
	graph = traverse(t, DefaultAbstractionConfig(), newOntology(t,
		header(""),
		scheme(schemeA),
		scheme(schemeB),
		concept(x, schemeA),
		concept(y, schemeB),
		broader(y, x),
	))
	return x, y, graph
}

func TestApplyClosure_ImportsReturnsSameGraph(t *testing.T) {
	_, _, graph := crossSchemeOntology(t)

	closed, err := NewAbstractor(DefaultAbstractionConfig(), nil).ApplyClosure(graph)
	require.NoError(t, err)
	assert.Same(t, graph, closed)
}

func TestApplyClosure_CopiesDependencies(t *testing.T) {
	x, y, graph := crossSchemeOntology(t)
	before := signature(graph)

	closed, err := NewAbstractor(includes(), nil).ApplyClosure(graph)
	require.NoError(t, err)
	require.NotSame(t, graph, closed)

	assert.Equal(t, []string{schemeA, schemeB}, closed.SchemeURIs())
	assert.Equal(t, []string{x}, uris(closed.Members(schemeA)))
	assert.Equal(t, []string{y, x}, uris(closed.Members(schemeB)))

	yCopy, ok := closed.Find(schemeB, y)
	require.True(t, ok)
	ancestors := closed.Ancestors(yCopy.ID)
	require.Len(t, ancestors, 1)
	assert.Equal(t, x, ancestors[0].URI)
	assert.Equal(t, schemeB, ancestors[0].SchemeURI, "the ancestor is the local copy")

	xOriginal, ok := closed.Find(schemeA, x)
	require.True(t, ok)
	assert.NotEqual(t, xOriginal.ID, ancestors[0].ID)
	assert.Equal(t, xOriginal.UUID, ancestors[0].UUID)

	assert.Equal(t, before, signature(graph), "the input graph is unchanged")
	yOriginal, _ := graph.Find(schemeB, y)
	assert.Equal(t, schemeA, graph.Ancestors(yOriginal.ID)[0].SchemeURI)
}

func TestApplyClosure_Transitive(t *testing.T) {
	x, y, z := ns+"X", ns+"Y", ns+"Z"
	graph := traverse(t, DefaultAbstractionConfig(), newOntology(t,
		header(""),
		scheme(schemeC),
		scheme(schemeB),
		scheme(schemeA),
		concept(z, schemeC),
		concept(y, schemeB),
		concept(x, schemeA),
		broader(z, y),
		broader(y, x),
	))

	closed, err := NewAbstractor(includes(), nil).ApplyClosure(graph)
	require.NoError(t, err)

	assert.Equal(t, []string{schemeA, schemeB, schemeC}, closed.SchemeURIs(), "dependencies first")
	assert.ElementsMatch(t, []string{z, y, x}, uris(closed.Members(schemeC)))

	zCopy, _ := closed.Find(schemeC, z)
	ancestors := closed.Ancestors(zCopy.ID)
	assert.ElementsMatch(t, []string{y, x}, uris(ancestors))
	for _, ancestor := range ancestors {
		assert.Equal(t, schemeC, ancestor.SchemeURI)
	}
}

func TestApplyClosure_IsomorphicWithoutCrossSchemeLinks(t *testing.T) {
	x, y, top := ns+"X", ns+"Y", ns+"Top"
	graph := traverse(t, DefaultAbstractionConfig(), newOntology(t,
		header(""),
		scheme(schemeA),
		scheme(schemeB),
		concept(top),
		[]triple{{top, store.SKOSTopConceptOf, schemeB}},
		concept(x, schemeA),
		concept(y, schemeA),
		broader(y, x),
		concept(ns+"W", schemeB),
	))

	closed, err := NewAbstractor(includes(), nil).ApplyClosure(graph)
	require.NoError(t, err)
	assert.Equal(t, signature(graph), signature(closed))
	assert.Equal(t, graph.Len(), closed.Len())
}

func TestApplyClosure_Idempotent(t *testing.T) {
	_, _, graph := crossSchemeOntology(t)
	abstractor := NewAbstractor(includes(), nil)

	once, err := abstractor.ApplyClosure(graph)
	require.NoError(t, err)
	twice, err := abstractor.ApplyClosure(once)
	require.NoError(t, err)

	assert.Equal(t, signature(once), signature(twice))
}

func TestApplyClosure_SchemeCycle(t *testing.T) {
	x, y, w := ns+"X", ns+"Y", ns+"W"
	graph := traverse(t, DefaultAbstractionConfig(), newOntology(t,
		header(""),
		scheme(schemeA),
		scheme(schemeB),
		concept(x, schemeA),
		concept(w, schemeA),
		concept(y, schemeB),
		broader(x, y),
		broader(y, w),
	))

	_, err := NewAbstractor(includes(), nil).ApplyClosure(graph)
	var cycle *hierarchy.CycleError
	assert.ErrorAs(t, err, &cycle)
}

func TestSchemeDependencies(t *testing.T) {
	_, _, graph := crossSchemeOntology(t)
	assert.Equal(t, map[string][]string{schemeB: {schemeA}}, SchemeDependencies(graph))
}

func TestTriples(t *testing.T) {
	x, y, graph := crossSchemeOntology(t)
	ts := graph.Triples()

	assert.True(t, ts.Exists(schemeA, store.RDFType, store.SKOSConceptScheme))
	assert.True(t, ts.Exists(y, store.SKOSInScheme, schemeB))
	assert.True(t, ts.Exists(y, store.SKOSBroader, x))
	assert.True(t, ts.Exists(x, store.SKOSNotation, store.NewLiteral("X")))

	summary := store.Summarize(ts)
	assert.Equal(t, 2, summary.Schemes)
	assert.Equal(t, 2, summary.Concepts)
}
