package query

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/coolbeans/kmdp/pkg/store"
)

// Executor evaluates queries against a triple store.
type Executor struct {
	store    *store.TripleStore
	planning bool
	timeout  time.Duration
	prefixes map[string]string
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithPlanning enables or disables join reordering. Enabled by default.
func WithPlanning(enabled bool) ExecutorOption {
	return func(e *Executor) {
		e.planning = enabled
	}
}

// WithTimeout bounds the execution time of each query.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = d
	}
}

// WithPrefixes declares extra prefixes for queries parsed by ExecuteString.
func WithPrefixes(prefixes map[string]string) ExecutorOption {
	return func(e *Executor) {
		e.prefixes = prefixes
	}
}

// NewExecutor creates an executor over the given store.
func NewExecutor(ts *store.TripleStore, opts ...ExecutorOption) *Executor {
	e := &Executor{
		store:    ts,
		planning: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result holds the solutions of a query.
type Result struct {
	Variables []string
	Bindings  []Binding
	Count     int
	Duration  time.Duration
}

// ExecuteString parses and executes a query.
func (e *Executor) ExecuteString(ctx context.Context, text string) (*Result, error) {
	q, err := Parse(text, e.prefixes)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return e.Execute(ctx, q)
}

// Execute evaluates a parsed query.
func (e *Executor) Execute(ctx context.Context, q *Query) (*Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	started := time.Now()

	where := q.Where
	if e.planning {
		where = plan(where, e.store.Stats())
	}

	solutions, err := e.join(ctx, where, []Binding{{}})
	if err != nil {
		return nil, err
	}

	for _, block := range q.Optional {
		if solutions, err = e.optional(ctx, block, solutions); err != nil {
			return nil, err
		}
	}

	if len(q.Filters) > 0 {
		solutions = filter(q.Filters, solutions)
	}

	variables := q.Outputs()
	if len(q.Aggregates) > 0 || len(q.GroupBy) > 0 {
		solutions = aggregate(q, solutions)
	} else if len(variables) == 0 {
		variables = q.patternVariables()
	}

	if len(q.OrderBy) > 0 {
		order(q.OrderBy, solutions)
	}

	solutions = project(variables, solutions)
	if q.Distinct {
		solutions = distinct(variables, solutions)
	}
	solutions = slice(solutions, q.Offset, q.Limit)

	return &Result{
		Variables: variables,
		Bindings:  solutions,
		Count:     len(solutions),
		Duration:  time.Since(started),
	}, nil
}

func (e *Executor) join(ctx context.Context, patterns []Pattern, solutions []Binding) ([]Binding, error) {
	for _, pattern := range patterns {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("query cancelled: %w", err)
		}
		solutions = e.match(pattern, solutions)
		if len(solutions) == 0 {
			break
		}
	}
	return solutions, nil
}

// optional extends each solution with the block when it matches and keeps
// it unchanged otherwise.
func (e *Executor) optional(ctx context.Context, block []Pattern, solutions []Binding) ([]Binding, error) {
	var out []Binding
	for _, solution := range solutions {
		extended, err := e.join(ctx, block, []Binding{solution})
		if err != nil {
			return nil, err
		}
		if len(extended) == 0 {
			out = append(out, solution)
			continue
		}
		out = append(out, extended...)
	}
	return out, nil
}

func (e *Executor) match(pattern Pattern, solutions []Binding) []Binding {
	var out []Binding
	for _, solution := range solutions {
		s := resolve(pattern.Subject, solution)
		p := resolve(pattern.Predicate, solution)
		o := resolve(pattern.Object, solution)

		for _, triple := range e.store.Find(s, p, o) {
			extended := make(Binding, len(solution)+3)
			for k, v := range solution {
				extended[k] = v
			}
			if bind(extended, pattern.Subject, triple.Subject) &&
				bind(extended, pattern.Predicate, triple.Predicate) &&
				bind(extended, pattern.Object, triple.Object) {
				out = append(out, extended)
			}
		}
	}
	return out
}

// resolve returns the store term for a pattern position, or "" when it is
// an unbound variable.
func resolve(term string, solution Binding) string {
	if name, ok := variable(term); ok {
		return solution[name]
	}
	return term
}

// bind records a variable's value, failing when the variable already holds
// a different term (a variable repeated within one pattern).
func bind(solution Binding, term, value string) bool {
	name, ok := variable(term)
	if !ok {
		return true
	}
	if existing, bound := solution[name]; bound {
		return existing == value
	}
	solution[name] = value
	return true
}

func filter(filters []Filter, solutions []Binding) []Binding {
	out := solutions[:0:0]
	for _, solution := range solutions {
		keep := true
		for _, f := range filters {
			if v, ok := truth(f.expr, solution); !ok || !v {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, solution)
		}
	}
	return out
}

// aggregate groups solutions by the GROUP BY variables and computes the
// COUNT aggregates per group. Without GROUP BY all solutions form a single
// group, which exists even when there are no solutions.
func aggregate(q *Query, solutions []Binding) []Binding {
	type group struct {
		key  Binding
		rows []Binding
	}

	var groups []*group
	index := make(map[string]*group)
	for _, solution := range solutions {
		key := solutionKey(q.GroupBy, solution)
		g, ok := index[key]
		if !ok {
			g = &group{key: make(Binding, len(q.GroupBy))}
			for _, name := range q.GroupBy {
				if v, bound := solution[name]; bound {
					g.key[name] = v
				}
			}
			index[key] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, solution)
	}
	if len(groups) == 0 && len(q.GroupBy) == 0 {
		groups = append(groups, &group{key: Binding{}})
	}

	out := make([]Binding, 0, len(groups))
	for _, g := range groups {
		row := g.key
		for _, agg := range q.Aggregates {
			row[agg.Alias] = store.NewTypedLiteral(strconv.Itoa(count(agg, g.rows)), xsdInteger)
		}
		out = append(out, row)
	}
	return out
}

func count(agg Aggregate, rows []Binding) int {
	if agg.Variable == "" && !agg.Distinct {
		return len(rows)
	}
	seen := make(map[string]bool)
	n := 0
	for _, row := range rows {
		var key string
		if agg.Variable == "" {
			key = fullKey(row)
		} else {
			v, bound := row[agg.Variable]
			if !bound {
				continue
			}
			key = v
		}
		if agg.Distinct {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		n++
	}
	return n
}

// order sorts solutions in place. Unbound values sort first.
func order(keys []OrderBy, solutions []Binding) {
	sort.SliceStable(solutions, func(i, j int) bool {
		for _, key := range keys {
			a, aok := solutions[i][key.Variable]
			b, bok := solutions[j][key.Variable]
			var cmp int
			switch {
			case !aok && !bok:
				continue
			case !aok:
				cmp = -1
			case !bok:
				cmp = 1
			default:
				cmp = compareTerms(a, b)
			}
			if cmp == 0 {
				continue
			}
			if key.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func project(variables []string, solutions []Binding) []Binding {
	out := make([]Binding, len(solutions))
	for i, solution := range solutions {
		row := make(Binding, len(variables))
		for _, name := range variables {
			if v, ok := solution[name]; ok {
				row[name] = v
			}
		}
		out[i] = row
	}
	return out
}

func distinct(variables []string, solutions []Binding) []Binding {
	seen := make(map[string]bool, len(solutions))
	out := solutions[:0:0]
	for _, solution := range solutions {
		key := solutionKey(variables, solution)
		if !seen[key] {
			seen[key] = true
			out = append(out, solution)
		}
	}
	return out
}

func slice(solutions []Binding, offset, limit int) []Binding {
	if offset >= len(solutions) {
		return nil
	}
	solutions = solutions[offset:]
	if limit > 0 && limit < len(solutions) {
		solutions = solutions[:limit]
	}
	return solutions
}

func solutionKey(variables []string, solution Binding) string {
	var sb strings.Builder
	for _, name := range variables {
		if v, ok := solution[name]; ok {
			sb.WriteString(v)
		} else {
			sb.WriteByte(0x01)
		}
		sb.WriteByte(0)
	}
	return sb.String()
}

func fullKey(solution Binding) string {
	names := make([]string, 0, len(solution))
	for name := range solution {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(solution[name])
		sb.WriteByte(0)
	}
	return sb.String()
}

// plan orders patterns greedily: at each step it picks the cheapest
// pattern given the variables bound so far, preferring patterns connected
// to earlier ones so the join never degenerates into a cross product.
func plan(patterns []Pattern, stats store.IndexStats) []Pattern {
	remaining := append([]Pattern(nil), patterns...)
	ordered := make([]Pattern, 0, len(patterns))
	bound := make(map[string]bool)

	for len(remaining) > 0 {
		best, bestCost := 0, math.Inf(1)
		for i, p := range remaining {
			c := cost(p, bound, stats)
			if len(ordered) > 0 && !connected(p, bound) {
				c += float64(stats.TotalTriples) + 1
			}
			if c < bestCost {
				best, bestCost = i, c
			}
		}

		chosen := remaining[best]
		ordered = append(ordered, chosen)
		remaining = append(remaining[:best], remaining[best+1:]...)
		for _, term := range []string{chosen.Subject, chosen.Predicate, chosen.Object} {
			if name, ok := variable(term); ok {
				bound[name] = true
			}
		}
	}
	return ordered
}

// cost estimates how many triples a pattern matches.
func cost(p Pattern, bound map[string]bool, stats store.IndexStats) float64 {
	isBound := func(term string) bool {
		name, ok := variable(term)
		return !ok || bound[name]
	}

	estimate := float64(stats.TotalTriples)
	if _, isVar := variable(p.Predicate); !isVar {
		estimate = float64(stats.PredicateCounts[p.Predicate])
	} else if bound[strings.TrimPrefix(p.Predicate, "?")] && stats.UniquePredicates > 0 {
		estimate /= float64(stats.UniquePredicates)
	}
	if isBound(p.Subject) && stats.UniqueSubjects > 0 {
		estimate /= float64(stats.UniqueSubjects)
	}
	if isBound(p.Object) && stats.UniqueObjects > 0 {
		estimate /= float64(stats.UniqueObjects)
	}
	return estimate
}

func connected(p Pattern, bound map[string]bool) bool {
	for _, term := range []string{p.Subject, p.Predicate, p.Object} {
		name, ok := variable(term)
		if ok && bound[name] {
			return true
		}
	}
	return false
}
