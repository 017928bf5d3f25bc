// Package query evaluates a subset of SPARQL SELECT over a triple store.
//
// The supported subset covers what is useful for inspecting concept graphs:
// PREFIX declarations, SELECT with DISTINCT and COUNT aggregates, basic
// graph patterns, OPTIONAL blocks, FILTER expressions, GROUP BY, ORDER BY,
// LIMIT and OFFSET.
//
// Terms in results use the store's representation: IRIs are bare and
// literals keep their N-Triples form ("red"@en, "2024-01-01"^^<...#date>).
package query

import (
	"strings"

	"github.com/coolbeans/kmdp/pkg/store"
)

// Query is a parsed SELECT query.
type Query struct {
	Variables  []string // projected variables without the leading '?'
	Aggregates []Aggregate
	Distinct   bool
	Where      []Pattern
	Optional   [][]Pattern
	Filters    []Filter
	GroupBy    []string
	OrderBy    []OrderBy
	Limit      int // 0 means no limit
	Offset     int
	Prefixes   map[string]string
}

// Pattern is a triple pattern. Each position holds either a variable
// ("?x") or a resolved term in store form.
type Pattern struct {
	Subject   string
	Predicate string
	Object    string
}

// Aggregate is a projected (COUNT(?x) AS ?n) expression. An empty
// Variable counts rows.
type Aggregate struct {
	Variable string
	Alias    string
	Distinct bool
}

// Filter is a compiled FILTER expression.
type Filter struct {
	Expression string
	expr       expr
}

// OrderBy is one ORDER BY key.
type OrderBy struct {
	Variable   string
	Descending bool
}

// Binding maps variable names to terms.
type Binding map[string]string

// Outputs returns the result columns: projected variables followed by
// aggregate aliases.
func (q *Query) Outputs() []string {
	out := append([]string(nil), q.Variables...)
	for _, agg := range q.Aggregates {
		out = append(out, agg.Alias)
	}
	return out
}

// patternVariables lists the variables of the WHERE and OPTIONAL patterns
// in order of first appearance.
func (q *Query) patternVariables() []string {
	var vars []string
	seen := make(map[string]bool)
	add := func(patterns []Pattern) {
		for _, p := range patterns {
			for _, term := range []string{p.Subject, p.Predicate, p.Object} {
				if name, ok := variable(term); ok && !seen[name] {
					seen[name] = true
					vars = append(vars, name)
				}
			}
		}
	}
	add(q.Where)
	for _, block := range q.Optional {
		add(block)
	}
	return vars
}

func variable(term string) (string, bool) {
	if strings.HasPrefix(term, "?") || strings.HasPrefix(term, "$") {
		return term[1:], true
	}
	return "", false
}

// Display renders a term for humans: literals show their lexical value.
func Display(term string) string {
	if strings.HasPrefix(term, `"`) {
		return store.LiteralValue(term)
	}
	return term
}
