// Package terms is the runtime model of generated terminology code: terms,
// versioned term tables, series across versions and a registry of providers
// used to resolve concepts across generated modules.
package terms

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Term is one concept of a concept scheme version.
type Term struct {
	UUID          uuid.UUID `json:"uuid"`
	Tag           string    `json:"tag"`
	Aliases       []string  `json:"aliases,omitempty"`
	Label         string    `json:"label"`
	Comment       string    `json:"comment,omitempty"`
	ConceptID     string    `json:"conceptId"`
	Referent      string    `json:"referent,omitempty"`
	SchemeID      string    `json:"schemeId"`
	VersionTag    string    `json:"versionTag,omitempty"`
	EstablishedOn time.Time `json:"establishedOn,omitempty"`
	Ancestors     []string  `json:"ancestors,omitempty"`
}

// HasTag reports whether tag is the primary tag or an alias.
func (t Term) HasTag(tag string) bool {
	if t.Tag == tag {
		return true
	}
	for _, alias := range t.Aliases {
		if alias == tag {
			return true
		}
	}
	return false
}

// IsZero reports whether the term is the zero value.
func (t Term) IsZero() bool {
	return t.ConceptID == "" && t.Tag == ""
}

// Table is the set of terms of one concept scheme version, indexed for lookup.
type Table struct {
	SchemeID   string
	VersionID  string
	VersionTag string

	terms     []Term
	byTag     map[string]int
	byUUID    map[uuid.UUID]int
	byConcept map[string]int
	byLabel   map[string]int
}

// NewTable indexes terms. Later duplicates of a tag or label do not replace
// earlier ones.
func NewTable(schemeID, versionID, versionTag string, terms []Term) *Table {
	table := &Table{
		SchemeID:   schemeID,
		VersionID:  versionID,
		VersionTag: versionTag,
		terms:      terms,
		byTag:      make(map[string]int, len(terms)),
		byUUID:     make(map[uuid.UUID]int, len(terms)),
		byConcept:  make(map[string]int, len(terms)),
		byLabel:    make(map[string]int, len(terms)),
	}

	for i, term := range terms {
		setOnce(table.byTag, term.Tag, i)
		for _, alias := range term.Aliases {
			setOnce(table.byTag, alias, i)
		}
		if _, ok := table.byUUID[term.UUID]; !ok {
			table.byUUID[term.UUID] = i
		}
		setOnce(table.byConcept, term.ConceptID, i)
		setOnce(table.byLabel, strings.ToLower(term.Label), i)
	}

	return table
}

func setOnce(index map[string]int, key string, i int) {
	if key == "" {
		return
	}
	if _, ok := index[key]; !ok {
		index[key] = i
	}
}

// All returns the terms in declaration order.
func (t *Table) All() []Term {
	return append([]Term(nil), t.terms...)
}

// Len returns the number of terms.
func (t *Table) Len() int {
	return len(t.terms)
}

// At returns the i-th term.
func (t *Table) At(i int) Term {
	return t.terms[i]
}

// ByTag looks a term up by primary tag or alias.
func (t *Table) ByTag(tag string) (Term, bool) {
	return t.lookup(t.byTag, tag)
}

// ByConceptID looks a term up by concept URI.
func (t *Table) ByConceptID(conceptID string) (Term, bool) {
	return t.lookup(t.byConcept, conceptID)
}

// ByLabel looks a term up by label, ignoring case.
func (t *Table) ByLabel(label string) (Term, bool) {
	return t.lookup(t.byLabel, strings.ToLower(label))
}

// ByUUID looks a term up by UUID.
func (t *Table) ByUUID(u uuid.UUID) (Term, bool) {
	i, ok := t.byUUID[u]
	if !ok {
		return Term{}, false
	}
	return t.terms[i], true
}

// Index returns the position of the term with the given tag.
func (t *Table) Index(tag string) (int, bool) {
	i, ok := t.byTag[tag]
	return i, ok
}

func (t *Table) lookup(index map[string]int, key string) (Term, bool) {
	i, ok := index[key]
	if !ok {
		return Term{}, false
	}
	return t.terms[i], true
}

// Lookup implements Provider.
func (t *Table) Lookup(conceptID string) (Term, bool) {
	return t.ByConceptID(conceptID)
}

// Scheme implements Provider.
func (t *Table) Scheme() string {
	return t.SchemeID
}
