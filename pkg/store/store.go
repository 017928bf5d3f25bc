package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrEmptyTerm is returned when a triple has an empty subject, predicate or object.
var ErrEmptyTerm = errors.New("triple terms cannot be empty")

// IndexStats contains statistics about the triple store.
type IndexStats struct {
	TotalTriples     int            `json:"total_triples"`
	UniqueSubjects   int            `json:"unique_subjects"`
	UniquePredicates int            `json:"unique_predicates"`
	UniqueObjects    int            `json:"unique_objects"`
	PredicateCounts  map[string]int `json:"predicate_counts"`
}

// index is one permutation of the triple set, keyed first, second, third.
type index map[string]map[string]map[string]struct{}

func (ix index) insert(a, b, c string) {
	second, ok := ix[a]
	if !ok {
		second = make(map[string]map[string]struct{})
		ix[a] = second
	}
	third, ok := second[b]
	if !ok {
		third = make(map[string]struct{})
		second[b] = third
	}
	third[c] = struct{}{}
}

func (ix index) has(a, b, c string) bool {
	_, ok := ix[a][b][c]
	return ok
}

// TripleStore is an in-memory set of triples indexed three ways: by
// subject (SPO), by predicate (POS) and by object (OSP). Lookups pick the
// index of the most selective bound term.
//
// Subjects are remembered in first-insertion order so that walking a loaded
// ontology, and serializing a concept graph, is deterministic.
type TripleStore struct {
	mu sync.RWMutex

	spo index
	pos index
	osp index

	count           int
	order           []string
	rank            map[string]int
	predicateCounts map[string]int
}

// NewTripleStore creates an empty store.
func NewTripleStore() *TripleStore {
	return &TripleStore{
		spo:             make(index),
		pos:             make(index),
		osp:             make(index),
		rank:            make(map[string]int),
		predicateCounts: make(map[string]int),
	}
}

// Add inserts a triple. Adding a triple that is already present is a no-op.
func (ts *TripleStore) Add(subject, predicate, object string) error {
	if subject == "" || predicate == "" || object == "" {
		return fmt.Errorf("adding (%q, %q, %q): %w", subject, predicate, object, ErrEmptyTerm)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.insert(subject, predicate, object)
	return nil
}

// BulkAdd inserts triples under a single write lock. Incomplete triples are
// skipped and reported as an ErrEmptyTerm error once the rest are inserted.
func (ts *TripleStore) BulkAdd(triples []Triple) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	skipped := 0
	for _, t := range triples {
		if !t.Valid() {
			skipped++
			continue
		}
		ts.insert(t.Subject, t.Predicate, t.Object)
	}
	if skipped > 0 {
		return fmt.Errorf("skipped %d of %d triples: %w", skipped, len(triples), ErrEmptyTerm)
	}
	return nil
}

// MergeFrom copies the triples of source into the store and returns how
// many were new.
func (ts *TripleStore) MergeFrom(source *TripleStore) int {
	before := ts.Count()
	_ = ts.BulkAdd(source.All())
	return ts.Count() - before
}

func (ts *TripleStore) insert(s, p, o string) {
	if ts.spo.has(s, p, o) {
		return
	}
	ts.spo.insert(s, p, o)
	ts.pos.insert(p, o, s)
	ts.osp.insert(o, s, p)

	if _, seen := ts.rank[s]; !seen {
		ts.rank[s] = len(ts.order)
		ts.order = append(ts.order, s)
	}
	ts.predicateCounts[p]++
	ts.count++
}

// Find returns the triples matching a pattern; "" matches any term.
func (ts *TripleStore) Find(subject, predicate, object string) []Triple {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	var out []Triple
	emit := func(s, p, o string) {
		if (subject == "" || s == subject) && (predicate == "" || p == predicate) && (object == "" || o == object) {
			out = append(out, Triple{Subject: s, Predicate: p, Object: o})
		}
	}

	switch {
	case subject != "":
		for p, objects := range ts.spo[subject] {
			for o := range objects {
				emit(subject, p, o)
			}
		}
	case predicate != "":
		for o, subjects := range ts.pos[predicate] {
			for s := range subjects {
				emit(s, predicate, o)
			}
		}
	case object != "":
		for s, predicates := range ts.osp[object] {
			for p := range predicates {
				emit(s, p, object)
			}
		}
	default:
		for s, predicates := range ts.spo {
			for p, objects := range predicates {
				for o := range objects {
					emit(s, p, o)
				}
			}
		}
	}
	return out
}

// Exists reports whether the exact triple is present.
func (ts *TripleStore) Exists(subject, predicate, object string) bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.spo.has(subject, predicate, object)
}

// Get returns every property of a subject as predicate -> sorted objects.
func (ts *TripleStore) Get(subject string) map[string][]string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	props := make(map[string][]string, len(ts.spo[subject]))
	for p, objects := range ts.spo[subject] {
		props[p] = sortedKeys(objects)
	}
	return props
}

// Values returns the sorted objects of a subject and predicate.
func (ts *TripleStore) Values(subject, predicate string) []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	objects, ok := ts.spo[subject][predicate]
	if !ok {
		return nil
	}
	return sortedKeys(objects)
}

// GetOne returns the first of Values, or "" when there is none.
func (ts *TripleStore) GetOne(subject, predicate string) string {
	if values := ts.Values(subject, predicate); len(values) > 0 {
		return values[0]
	}
	return ""
}

// SubjectsWith returns the subjects having predicate=object in insertion order.
func (ts *TripleStore) SubjectsWith(predicate, object string) []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	subjects := make([]string, 0, len(ts.pos[predicate][object]))
	for s := range ts.pos[predicate][object] {
		subjects = append(subjects, s)
	}
	sort.Slice(subjects, func(i, j int) bool {
		return ts.rank[subjects[i]] < ts.rank[subjects[j]]
	})
	return subjects
}

// Subjects returns every subject in insertion order.
func (ts *TripleStore) Subjects() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return append([]string(nil), ts.order...)
}

// Predicates returns every predicate in sorted order.
func (ts *TripleStore) Predicates() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return sortedKeys(ts.pos)
}

// Count returns the number of triples.
func (ts *TripleStore) Count() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.count
}

// Stats returns index statistics, used by the query planner.
func (ts *TripleStore) Stats() IndexStats {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	counts := make(map[string]int, len(ts.predicateCounts))
	for p, n := range ts.predicateCounts {
		counts[p] = n
	}
	return IndexStats{
		TotalTriples:     ts.count,
		UniqueSubjects:   len(ts.spo),
		UniquePredicates: len(ts.pos),
		UniqueObjects:    len(ts.osp),
		PredicateCounts:  counts,
	}
}

func (ts *TripleStore) String() string {
	stats := ts.Stats()
	return fmt.Sprintf("TripleStore{triples: %d, subjects: %d, predicates: %d, objects: %d}",
		stats.TotalTriples, stats.UniqueSubjects, stats.UniquePredicates, stats.UniqueObjects)
}

// All returns every triple, subjects in insertion order, then predicates
// and objects sorted.
func (ts *TripleStore) All() []Triple {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	out := make([]Triple, 0, ts.count)
	for _, s := range ts.order {
		predicates := ts.spo[s]
		for _, p := range sortedKeys(predicates) {
			for _, o := range sortedKeys(predicates[p]) {
				out = append(out, Triple{Subject: s, Predicate: p, Object: o})
			}
		}
	}
	return out
}

// sortedKeys returns the keys of a map in sorted order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
