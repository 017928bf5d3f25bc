package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

const (
	exScheme = "https://example.org/taxonomy/Colors"
	exRed    = "https://example.org/taxonomy/Colors#red"
	exWarm   = "https://example.org/taxonomy/Colors#warm"
	exBlue   = "https://example.org/taxonomy/Colors#blue"
)

func newColorStore(t *testing.T) *TripleStore {
	t.Helper()

	store := NewTripleStore()
	triples := []Triple{
		NewTriple(exScheme, RDFType, SKOSConceptScheme),
		NewTriple(exWarm, RDFType, SKOSConcept),
		NewTriple(exWarm, SKOSInScheme, exScheme),
		NewTriple(exWarm, SKOSPrefLabel, NewLangLiteral("warm", "en")),
		NewTriple(exRed, RDFType, SKOSConcept),
		NewTriple(exRed, SKOSInScheme, exScheme),
		NewTriple(exRed, SKOSBroader, exWarm),
		NewTriple(exRed, SKOSNotation, NewLiteral("red")),
		NewTriple(exBlue, RDFType, SKOSConcept),
		NewTriple(exBlue, SKOSInScheme, exScheme),
	}
	if err := store.BulkAdd(triples); err != nil {
		t.Fatalf("BulkAdd failed: %v", err)
	}
	return store
}

func TestNewTripleStore(t *testing.T) {
	store := NewTripleStore()

	if store == nil {
		t.Fatal("NewTripleStore returned nil")
	}

	if store.Count() != 0 {
		t.Errorf("New store should have 0 triples, got %d", store.Count())
	}
}

func TestTripleStore_Add(t *testing.T) {
	store := NewTripleStore()

	if err := store.Add(exRed, RDFType, SKOSConcept); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("Expected 1 triple, got %d", store.Count())
	}

	// Adding the same triple again is idempotent
	if err := store.Add(exRed, RDFType, SKOSConcept); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("Expected 1 triple after duplicate add, got %d", store.Count())
	}

	if err := store.Add(exRed, SKOSNotation, NewLiteral("red")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if store.Count() != 2 {
		t.Errorf("Expected 2 triples, got %d", store.Count())
	}
}

func TestTripleStore_AddEmptyTerms(t *testing.T) {
	store := NewTripleStore()

	cases := []Triple{
		{"", RDFType, SKOSConcept},
		{exRed, "", SKOSConcept},
		{exRed, RDFType, ""},
	}
	for _, c := range cases {
		err := store.Add(c.Subject, c.Predicate, c.Object)
		if !errors.Is(err, ErrEmptyTerm) {
			t.Errorf("Expected ErrEmptyTerm adding %v, got %v", c, err)
		}
	}
	if store.Count() != 0 {
		t.Errorf("Expected empty store, got %d", store.Count())
	}
}

func TestTripleStore_BulkAddSkipsInvalid(t *testing.T) {
	store := NewTripleStore()

	err := store.BulkAdd([]Triple{
		NewTriple(exRed, RDFType, SKOSConcept),
		NewTriple("", RDFType, SKOSConcept),
		NewTriple(exBlue, RDFType, SKOSConcept),
	})
	if !errors.Is(err, ErrEmptyTerm) {
		t.Fatalf("Expected ErrEmptyTerm, got %v", err)
	}
	if !strings.Contains(err.Error(), "skipped 1 of 3") {
		t.Errorf("Expected skip count in %q", err)
	}
	if store.Count() != 2 {
		t.Errorf("Expected 2 triples, got %d", store.Count())
	}
}

func TestTripleStore_Find(t *testing.T) {
	store := newColorStore(t)

	tests := []struct {
		name      string
		subject   string
		predicate string
		object    string
		expected  int
	}{
		{"all concepts", "", RDFType, SKOSConcept, 3},
		{"facts about red", exRed, "", "", 4},
		{"members of scheme", "", SKOSInScheme, exScheme, 3},
		{"pointing at scheme", "", "", exScheme, 3},
		{"exact triple", exRed, SKOSBroader, exWarm, 1},
		{"missing", exBlue, SKOSBroader, "", 0},
		{"everything", "", "", "", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := store.Find(tt.subject, tt.predicate, tt.object)
			if len(results) != tt.expected {
				t.Errorf("Expected %d results, got %d: %v", tt.expected, len(results), results)
			}
		})
	}
}

func TestTripleStore_Exists(t *testing.T) {
	store := newColorStore(t)

	if !store.Exists(exRed, SKOSBroader, exWarm) {
		t.Error("Expected red broader warm to exist")
	}
	if store.Exists(exWarm, SKOSBroader, exRed) {
		t.Error("Did not expect warm broader red to exist")
	}
}

func TestTripleStore_GetAndValues(t *testing.T) {
	store := newColorStore(t)

	props := store.Get(exRed)
	if len(props) != 4 {
		t.Errorf("Expected 4 predicates for red, got %d", len(props))
	}
	if got := props[SKOSBroader]; len(got) != 1 || got[0] != exWarm {
		t.Errorf("Unexpected broader values: %v", got)
	}

	if got := store.GetOne(exRed, SKOSNotation); LiteralValue(got) != "red" {
		t.Errorf("Expected notation 'red', got %q", got)
	}
	if got := store.GetOne(exBlue, SKOSNotation); got != "" {
		t.Errorf("Expected no notation for blue, got %q", got)
	}
	if got := store.Values(exWarm, SKOSPrefLabel); len(got) != 1 {
		t.Errorf("Expected one prefLabel for warm, got %v", got)
	}
}

func TestTripleStore_SubjectsPreserveInsertionOrder(t *testing.T) {
	store := newColorStore(t)

	subjects := store.Subjects()
	expected := []string{exScheme, exWarm, exRed, exBlue}
	if len(subjects) != len(expected) {
		t.Fatalf("Expected %d subjects, got %d", len(expected), len(subjects))
	}
	for i := range expected {
		if subjects[i] != expected[i] {
			t.Errorf("Subject %d: expected %s, got %s", i, expected[i], subjects[i])
		}
	}

	members := store.SubjectsWith(SKOSInScheme, exScheme)
	if len(members) != 3 || members[0] != exWarm || members[1] != exRed || members[2] != exBlue {
		t.Errorf("Unexpected member order: %v", members)
	}
}

func TestTripleStore_Stats(t *testing.T) {
	store := newColorStore(t)

	stats := store.Stats()
	if stats.TotalTriples != 10 {
		t.Errorf("Expected 10 triples, got %d", stats.TotalTriples)
	}
	if stats.UniqueSubjects != 4 {
		t.Errorf("Expected 4 subjects, got %d", stats.UniqueSubjects)
	}
	if stats.PredicateCounts[RDFType] != 4 {
		t.Errorf("Expected 4 rdf:type triples, got %d", stats.PredicateCounts[RDFType])
	}
	if stats.UniqueObjects != 6 {
		t.Errorf("Expected 6 distinct objects, got %d", stats.UniqueObjects)
	}

	// The returned counts are a copy.
	stats.PredicateCounts[RDFType] = 0
	if store.Stats().PredicateCounts[RDFType] != 4 {
		t.Error("Stats exposed the store's predicate counts")
	}
}

func TestTripleStore_MergeFrom(t *testing.T) {
	store := newColorStore(t)

	other := NewTripleStore()
	_ = other.Add(exBlue, SKOSBroader, exWarm)
	_ = other.Add(exRed, SKOSBroader, exWarm)

	added := store.MergeFrom(other)
	if added != 1 {
		t.Errorf("Expected 1 new triple, got %d", added)
	}
}

func TestTripleStore_ConcurrentAccess(t *testing.T) {
	store := NewTripleStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				subject := fmt.Sprintf("https://example.org/c%d-%d", n, j)
				_ = store.Add(subject, RDFType, SKOSConcept)
				_ = store.Find("", RDFType, SKOSConcept)
			}
		}(i)
	}
	wg.Wait()

	if store.Count() != 500 {
		t.Errorf("Expected 500 triples, got %d", store.Count())
	}
}
