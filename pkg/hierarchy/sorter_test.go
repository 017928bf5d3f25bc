package hierarchy

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexOf[K comparable](list []K, item K) int {
	for i, candidate := range list {
		if candidate == item {
			return i
		}
	}
	return -1
}

func assertTopological[K comparable](t *testing.T, sorted []K, deps map[K][]K) {
	t.Helper()
	for node, list := range deps {
		for _, dep := range list {
			assert.Less(t, indexOf(sorted, dep), indexOf(sorted, node), "%v must follow %v", node, dep)
		}
	}
}

func TestSort_DependenciesFirst(t *testing.T) {
	deps := map[string][]string{
		"B": {"A"},
		"C": {"B", "A"},
	}

	sorted, err := Sort([]string{"C", "B", "A"}, deps)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, sorted)
}

func TestSort_TiesKeepInputOrder(t *testing.T) {
	sorted, err := Sort([]string{"X", "Y", "Z"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y", "Z"}, sorted)

	sorted, err = Sort([]string{"Z", "Y", "X", "W"}, map[string][]string{"Z": {"W"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "X", "W", "Z"}, sorted)
}

func TestSort_UnknownDependenciesAppended(t *testing.T) {
	sorted, err := Sort([]string{"A"}, map[string][]string{"A": {"ext1", "ext2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ext1", "ext2", "A"}, sorted)
}

func TestSort_DuplicateEdges(t *testing.T) {
	sorted, err := Sort([]int{2, 1}, map[int][]int{2: {1, 1}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, sorted)
}

func TestSort_Cycle(t *testing.T) {
	deps := map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"A"},
		"D": {},
	}

	_, err := Sort([]string{"D", "A", "B", "C"}, deps)
	require.Error(t, err)

	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr))
	require.GreaterOrEqual(t, len(cycleErr.Path), 4)
	assert.Equal(t, cycleErr.Path[0], cycleErr.Path[len(cycleErr.Path)-1])
	assert.NotContains(t, cycleErr.Path, "D")
	assert.Contains(t, err.Error(), "circular dependency detected")
}

func TestSort_SelfDependency(t *testing.T) {
	_, err := Sort([]string{"A"}, map[string][]string{"A": {"A"}})

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"A", "A"}, cycleErr.Path)
}

func TestSort_TopologicalProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		n := 2 + rng.Intn(20)
		nodes := rng.Perm(n)

		// Edges only point from higher to lower values, so the graph is acyclic.
		deps := make(map[int][]int)
		for node := 0; node < n; node++ {
			for dep := 0; dep < node; dep++ {
				if rng.Intn(4) == 0 {
					deps[node] = append(deps[node], dep)
				}
			}
		}

		sorted, err := Sort(nodes, deps)
		require.NoError(t, err)
		require.Len(t, sorted, n)
		assertTopological(t, sorted, deps)
	}
}

func TestModuleSorter(t *testing.T) {
	decls := []StructDecl{
		{Name: "Asset", Fields: []Field{
			{Name: "id", Type: "Identifier"},
			{Name: "carriers", Type: "sequence<Artifact>"},
			{Name: "links", Type: "sequence<Asset>"},
		}},
		{Name: "Artifact", Fields: []Field{
			{Name: "id", Type: "Identifier"},
			{Name: "representation", Type: "Representation"},
		}},
		{Name: "Representation", Fields: []Field{{Name: "language", Type: "string"}}},
		{Name: "Identifier", Fields: []Field{{Name: "tag", Type: "string"}}},
	}

	sorted, err := NewModuleSorter().Sort(decls)
	require.NoError(t, err)

	names := make([]string, len(sorted))
	for i, decl := range sorted {
		names[i] = decl.Name
	}
	assert.Equal(t, []string{"Representation", "Identifier", "Artifact", "Asset"}, names)
}

func TestModuleSorter_Cycle(t *testing.T) {
	decls := []StructDecl{
		{Name: "A", Fields: []Field{{Name: "b", Type: "B"}}},
		{Name: "B", Fields: []Field{{Name: "a", Type: "*A"}}},
	}

	_, err := NewModuleSorter().Sort(decls)
	var cycleErr *CycleError
	assert.ErrorAs(t, err, &cycleErr)
}

func TestBaseType(t *testing.T) {
	assert.Equal(t, "Asset", BaseType("sequence< Asset >"))
	assert.Equal(t, "Asset", BaseType("[]*Asset"))
	assert.Equal(t, "string", BaseType("string"))
}
