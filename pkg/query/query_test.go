package query

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/kmdp/pkg/store"
)

const ex = "https://example.org/colors#"

var exPrefix = map[string]string{"ex": ex}

func newTestStore(t *testing.T) *store.TripleStore {
	t.Helper()
	ts := store.NewTripleStore()
	add := func(s, p, o string) {
		require.NoError(t, ts.Add(s, p, o))
	}
	rank := func(n string) string { return store.NewTypedLiteral(n, xsdInteger) }

	add(ex+"Colors", store.RDFType, store.SKOSConceptScheme)
	add(ex+"Colors", store.RDFSLabel, store.NewLangLiteral("Colors", "en"))
	add(ex+"Sizes", store.RDFType, store.SKOSConceptScheme)

	for _, c := range []struct{ name, scheme, label, notation, broader, rank string }{
		{"warm", "Colors", "warm", "warm", "", "2"},
		{"red", "Colors", "red", "1.2.3", "warm", "10"},
		{"cool", "Colors", "cool", "", "", "1"},
		{"blue", "Colors", "blue", "blu", "cool", ""},
		{"small", "Sizes", "small", "", "", ""},
		{"large", "Sizes", "", "", "", ""},
	} {
		add(ex+c.name, store.RDFType, store.SKOSConcept)
		add(ex+c.name, store.SKOSInScheme, ex+c.scheme)
		if c.label != "" {
			add(ex+c.name, store.SKOSPrefLabel, store.NewLangLiteral(c.label, "en"))
		}
		if c.notation != "" {
			add(ex+c.name, store.SKOSNotation, store.NewLiteral(c.notation))
		}
		if c.broader != "" {
			add(ex+c.name, store.SKOSBroader, ex+c.broader)
		}
		if c.rank != "" {
			add(ex+c.name, ex+"rank", rank(c.rank))
		}
	}
	return ts
}

func run(t *testing.T, text string) *Result {
	t.Helper()
	result, err := NewExecutor(newTestStore(t), WithPrefixes(exPrefix)).ExecuteString(context.Background(), text)
	require.NoError(t, err)
	return result
}

func column(r *Result, name string) []string {
	values := make([]string, len(r.Bindings))
	for i, row := range r.Bindings {
		values[i] = Display(row[name])
	}
	return values
}

func TestExecute_TypePattern(t *testing.T) {
	r := run(t, `SELECT ?c WHERE { ?c a skos:Concept }`)

	assert.Equal(t, []string{"c"}, r.Variables)
	assert.Equal(t, 6, r.Count)
}

func TestExecute_PredicateObjectLists(t *testing.T) {
	r := run(t, `
		# labelled colors
		SELECT ?c ?label
		WHERE {
			?c skos:inScheme ex:Colors ;
			   skos:prefLabel ?label .
		}
		ORDER BY ?label`)

	assert.Equal(t, []string{"blue", "cool", "red", "warm"}, column(r, "label"))
	assert.Equal(t, store.NewLangLiteral("blue", "en"), r.Bindings[0]["label"])
}

func TestExecute_SelectStarUsesPatternOrder(t *testing.T) {
	r := run(t, `SELECT * WHERE { ?c skos:broader ?b . ?b skos:prefLabel ?l }`)

	assert.Equal(t, []string{"c", "b", "l"}, r.Variables)
	assert.Equal(t, 2, r.Count)
}

func TestExecute_Optional(t *testing.T) {
	r := run(t, `SELECT ?c ?broader WHERE {
		?c skos:inScheme ex:Colors
		OPTIONAL { ?c skos:broader ?broader }
	} ORDER BY ?c`)

	require.Equal(t, 4, r.Count)
	assert.Equal(t, ex+"blue", r.Bindings[0]["c"])
	assert.Equal(t, ex+"cool", r.Bindings[0]["broader"])
	_, bound := r.Bindings[1]["broader"]
	assert.False(t, bound, "cool has no broader concept")
}

func TestExecute_Filters(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{"contains", `CONTAINS(?label, "e")`, []string{"blue", "red"}},
		{"regex with flags", `REGEX(?label, "^R", "i")`, []string{"red"}},
		{"strstarts", `STRSTARTS(STR(?c), "https://example.org/colors#w")`, []string{"warm"}},
		{"language", `LANGMATCHES(LANG(?label), "EN") && STRLEN(?label) = 4`, []string{"blue", "cool", "warm"}},
		{"inequality", `?label != "red"@en`, []string{"blue", "cool", "warm"}},
		{"disjunction", `?label = "red"@en || ?c = ex:cool`, []string{"cool", "red"}},
		{"negation", `!CONTAINS(?label, "o")`, []string{"blue", "red", "warm"}},
		{"plain literal differs from tagged", `?label = "red"`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, `SELECT ?label WHERE {
				?c skos:inScheme ex:Colors ; skos:prefLabel ?label
				FILTER (`+tt.filter+`)
			} ORDER BY ?label`)
			assert.Equal(t, tt.want, column(r, "label"))
		})
	}
}

func TestExecute_NumericComparisonAndOrder(t *testing.T) {
	r := run(t, `SELECT ?c ?rank WHERE { ?c ex:rank ?rank FILTER(?rank > 1) } ORDER BY DESC(?rank)`)

	assert.Equal(t, []string{"10", "2"}, column(r, "rank"))
	assert.Equal(t, ex+"red", r.Bindings[0]["c"])
}

func TestExecute_UnboundFilter(t *testing.T) {
	r := run(t, `SELECT ?c WHERE {
		?c skos:inScheme ex:Colors
		OPTIONAL { ?c skos:broader ?b }
		FILTER (!BOUND(?b))
	} ORDER BY ?c`)

	assert.Equal(t, []string{ex + "cool", ex + "warm"}, column(r, "c"))
}

func TestExecute_LiteralObjects(t *testing.T) {
	assert.Equal(t, []string{ex + "red"}, column(run(t, `SELECT ?c WHERE { ?c skos:notation "1.2.3" }`), "c"))
	assert.Equal(t, []string{ex + "red"}, column(run(t, `SELECT ?c WHERE { ?c skos:prefLabel "red"@en }`), "c"))
	assert.Equal(t, []string{ex + "red"}, column(run(t, `SELECT ?c WHERE { ?c ex:rank 10 }`), "c"))
	assert.Equal(t, 0, run(t, `SELECT ?c WHERE { ?c skos:prefLabel "red" }`).Count)
}

func TestExecute_RepeatedVariable(t *testing.T) {
	assert.Equal(t, 0, run(t, `SELECT ?x WHERE { ?x skos:broader ?x }`).Count)
}

func TestExecute_CountGroupBy(t *testing.T) {
	r := run(t, `SELECT ?scheme (COUNT(?c) AS ?n)
		WHERE { ?c skos:inScheme ?scheme }
		GROUP BY ?scheme
		ORDER BY DESC(?n)`)

	assert.Equal(t, []string{"scheme", "n"}, r.Variables)
	assert.Equal(t, []string{ex + "Colors", ex + "Sizes"}, column(r, "scheme"))
	assert.Equal(t, []string{"4", "2"}, column(r, "n"))
	assert.Equal(t, store.NewTypedLiteral("4", xsdInteger), r.Bindings[0]["n"])
}

func TestExecute_CountWithoutGroup(t *testing.T) {
	r := run(t, `SELECT (COUNT(DISTINCT ?s) AS ?schemes) (COUNT(*) AS ?rows) WHERE { ?c skos:inScheme ?s }`)
	require.Equal(t, 1, r.Count)
	assert.Equal(t, "2", Display(r.Bindings[0]["schemes"]))
	assert.Equal(t, "6", Display(r.Bindings[0]["rows"]))

	empty := run(t, `SELECT (COUNT(?c) AS ?n) WHERE { ?c skos:inScheme ex:Shapes }`)
	require.Equal(t, 1, empty.Count)
	assert.Equal(t, "0", Display(empty.Bindings[0]["n"]))
}

func TestExecute_DistinctLimitOffset(t *testing.T) {
	assert.Equal(t, 2, run(t, `SELECT DISTINCT ?s WHERE { ?c skos:inScheme ?s }`).Count)

	r := run(t, `SELECT ?label WHERE { ?c skos:prefLabel ?label } ORDER BY ?label LIMIT 2 OFFSET 1`)
	assert.Equal(t, []string{"cool", "red"}, column(r, "label"))

	assert.Equal(t, 0, run(t, `SELECT ?c WHERE { ?c a skos:Concept } OFFSET 10`).Count)
}

func TestExecute_PrefixDeclarationOverrides(t *testing.T) {
	r := run(t, `PREFIX ex: <https://example.org/other#>
		SELECT ?c WHERE { ?c skos:inScheme ex:Colors }`)
	assert.Equal(t, 0, r.Count)
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExecutor(newTestStore(t)).ExecuteString(ctx, `SELECT ?c WHERE { ?c a skos:Concept }`)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		unsupported bool
	}{
		{"construct", `CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }`, true},
		{"union", `SELECT ?s WHERE { { ?s ?p ?o } UNION { ?s ?p ?o } }`, true},
		{"filter in optional", `SELECT ?s WHERE { ?s ?p ?o OPTIONAL { ?s ?q ?r FILTER(BOUND(?r)) } }`, true},
		{"unknown function", `SELECT ?s WHERE { ?s ?p ?o FILTER(ENCODE_FOR_URI(?o)) }`, true},
		{"sum aggregate", `SELECT (SUM(?o) AS ?t) WHERE { ?s ?p ?o }`, true},
		{"undeclared prefix", `SELECT ?s WHERE { ?s foo:bar ?o }`, false},
		{"unterminated group", `SELECT ?s WHERE { ?s ?p ?o`, false},
		{"unterminated string", `SELECT ?s WHERE { ?s ?p "open }`, false},
		{"ungrouped variable", `SELECT ?s (COUNT(?o) AS ?n) WHERE { ?s ?p ?o }`, false},
		{"no patterns", `SELECT ?s WHERE { }`, false},
		{"negative limit", `SELECT ?s WHERE { ?s ?p ?o } LIMIT -1`, false},
		{"trailing input", `SELECT ?s WHERE { ?s ?p ?o } ?s`, false},
		{"bad regex", `SELECT ?s WHERE { ?s ?p ?o FILTER REGEX(?o, "(") }`, false},
		{"wrong arity", `SELECT ?s WHERE { ?s ?p ?o FILTER CONTAINS(?o) }`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.query, nil)
			require.Error(t, err)
			if tt.unsupported {
				assert.ErrorIs(t, err, ErrUnsupported)
			}
		})
	}
}

func TestParse_Structure(t *testing.T) {
	q, err := Parse(`PREFIX ex: <https://example.org/colors#>
		SELECT DISTINCT ?c ?l WHERE {
			?c a skos:Concept ; skos:prefLabel ?l , "x"^^xsd:token .
			OPTIONAL { ?c skos:broader ?b }
			FILTER regex(?l, "r")
		} ORDER BY ASC(?l) DESC(?c) LIMIT 5`, nil)
	require.NoError(t, err)

	assert.True(t, q.Distinct)
	assert.Equal(t, []string{"c", "l"}, q.Variables)
	assert.Equal(t, []Pattern{
		{Subject: "?c", Predicate: store.RDFType, Object: store.SKOSConcept},
		{Subject: "?c", Predicate: store.SKOSPrefLabel, Object: "?l"},
		{Subject: "?c", Predicate: store.SKOSPrefLabel, Object: store.NewTypedLiteral("x", store.XSDToken)},
	}, q.Where)
	require.Len(t, q.Optional, 1)
	require.Len(t, q.Filters, 1)
	assert.Equal(t, []OrderBy{{Variable: "l"}, {Variable: "c", Descending: true}}, q.OrderBy)
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, ex, q.Prefixes["ex"])
}

func TestPlan_StartsFromSelectivePattern(t *testing.T) {
	ts := newTestStore(t)
	patterns := []Pattern{
		{Subject: "?c", Predicate: store.RDFType, Object: store.SKOSConcept},
		{Subject: "?c", Predicate: store.SKOSPrefLabel, Object: "?l"},
		{Subject: ex + "red", Predicate: store.SKOSBroader, Object: "?c"},
	}

	ordered := plan(patterns, ts.Stats())
	assert.Equal(t, patterns[2], ordered[0])
	assert.Len(t, ordered, 3)

	planned, err := NewExecutor(ts).ExecuteString(context.Background(),
		`SELECT ?l WHERE { ?c a skos:Concept . ?c skos:prefLabel ?l . <`+ex+`red> skos:broader ?c }`)
	require.NoError(t, err)
	unplanned, err := NewExecutor(ts, WithPlanning(false)).ExecuteString(context.Background(),
		`SELECT ?l WHERE { ?c a skos:Concept . ?c skos:prefLabel ?l . <`+ex+`red> skos:broader ?c }`)
	require.NoError(t, err)
	assert.Equal(t, unplanned.Bindings, planned.Bindings)
	assert.Equal(t, []string{"warm"}, column(planned, "l"))
}

func TestResult_Write(t *testing.T) {
	r := run(t, `SELECT ?c ?label ?n WHERE {
		?c skos:prefLabel ?label
		OPTIONAL { ?c skos:notation ?n }
		FILTER (?c = ex:red || ?c = ex:cool)
	} ORDER BY ?label`)

	var table bytes.Buffer
	require.NoError(t, r.Write(&table, FormatTable))
	assert.Contains(t, table.String(), "| label |")
	assert.Contains(t, table.String(), "| 1.2.3 |")
	assert.Contains(t, table.String(), "2 rows")

	var csv bytes.Buffer
	require.NoError(t, r.Write(&csv, FormatCSV))
	assert.Equal(t, "c,label,n\n"+ex+"cool,cool,\n"+ex+"red,red,1.2.3\n", csv.String())

	var out bytes.Buffer
	require.NoError(t, r.Write(&out, FormatJSON))
	var doc struct {
		Head struct {
			Vars []string `json:"vars"`
		} `json:"head"`
		Results struct {
			Bindings []map[string]map[string]string `json:"bindings"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, []string{"c", "label", "n"}, doc.Head.Vars)
	require.Len(t, doc.Results.Bindings, 2)
	assert.Equal(t, map[string]string{"type": "uri", "value": ex + "cool"}, doc.Results.Bindings[0]["c"])
	assert.Equal(t, map[string]string{"type": "literal", "value": "cool", "xml:lang": "en"}, doc.Results.Bindings[0]["label"])
	assert.NotContains(t, doc.Results.Bindings[0], "n")

	assert.Error(t, r.Write(&out, "xml"))
}

func TestResult_EmptyTable(t *testing.T) {
	assert.Equal(t, "No results\n", run(t, `SELECT ?c WHERE { ?c a ex:Nothing }`).Table())
}
