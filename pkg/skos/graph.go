// Package skos abstracts the SKOS concept schemes declared in OWL ontologies
// into concept graphs: schemes, their member concepts and the broader
// relation between concepts, optionally closed over cross-scheme references.
package skos

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// ConceptID indexes a concept term within one ConceptGraph.
type ConceptID int

// ConceptTerm is one concept as a member of one scheme. A concept that is a
// member of two schemes has one term per scheme.
type ConceptTerm struct {
	ID            ConceptID
	URI           string
	Tags          []string
	Label         string
	Comment       string
	Referent      string
	SchemeURI     string
	UUID          uuid.UUID
	EstablishedOn time.Time
	Top           bool
}

// Tag returns the primary tag.
func (c ConceptTerm) Tag() string {
	if len(c.Tags) == 0 {
		return ""
	}
	return c.Tags[0]
}

// Aliases returns the tags after the primary one.
func (c ConceptTerm) Aliases() []string {
	if len(c.Tags) < 2 {
		return nil
	}
	return c.Tags[1:]
}

// ConceptScheme is a versioned vocabulary within a ConceptGraph.
type ConceptScheme struct {
	URI        string
	VersionURI string
	VersionTag string
	Name       string
	Label      string

	members []ConceptID
	top     ConceptID
	hasTop  bool
}

// MemberIDs returns the IDs of the member concepts in insertion order.
func (s ConceptScheme) MemberIDs() []ConceptID {
	return append([]ConceptID(nil), s.members...)
}

// TopID returns the ID of the top concept.
func (s ConceptScheme) TopID() (ConceptID, bool) {
	return s.top, s.hasTop
}

type idSet map[ConceptID]struct{}

// ConceptGraph holds concept schemes and the ancestor relation between their
// concepts. Concepts live in one arena; schemes refer to them by ID. A graph
// is not modified once built.
type ConceptGraph struct {
	concepts  []ConceptTerm
	schemes   []*ConceptScheme
	byScheme  map[string]int
	byURI     map[string][]ConceptID
	ancestors map[ConceptID]idSet
}

// Schemes returns the schemes in insertion order.
func (g *ConceptGraph) Schemes() []ConceptScheme {
	schemes := make([]ConceptScheme, len(g.schemes))
	for i, scheme := range g.schemes {
		schemes[i] = *scheme
		schemes[i].members = append([]ConceptID(nil), scheme.members...)
	}
	return schemes
}

// Scheme returns the scheme with the given URI.
func (g *ConceptGraph) Scheme(uri string) (ConceptScheme, bool) {
	i, ok := g.byScheme[uri]
	if !ok {
		return ConceptScheme{}, false
	}
	scheme := *g.schemes[i]
	scheme.members = append([]ConceptID(nil), scheme.members...)
	return scheme, true
}

// SchemeURIs returns the scheme URIs in insertion order.
func (g *ConceptGraph) SchemeURIs() []string {
	uris := make([]string, len(g.schemes))
	for i, scheme := range g.schemes {
		uris[i] = scheme.URI
	}
	return uris
}

// Len returns the number of concept terms, top concepts included.
func (g *ConceptGraph) Len() int {
	return len(g.concepts)
}

// Concept returns a concept term by ID.
func (g *ConceptGraph) Concept(id ConceptID) (ConceptTerm, bool) {
	if id < 0 || int(id) >= len(g.concepts) {
		return ConceptTerm{}, false
	}
	return g.concepts[id], true
}

// Members returns the member concepts of a scheme in insertion order.
func (g *ConceptGraph) Members(schemeURI string) []ConceptTerm {
	i, ok := g.byScheme[schemeURI]
	if !ok {
		return nil
	}
	members := make([]ConceptTerm, len(g.schemes[i].members))
	for j, id := range g.schemes[i].members {
		members[j] = g.concepts[id]
	}
	return members
}

// Top returns the top concept of a scheme.
func (g *ConceptGraph) Top(schemeURI string) (ConceptTerm, bool) {
	i, ok := g.byScheme[schemeURI]
	if !ok || !g.schemes[i].hasTop {
		return ConceptTerm{}, false
	}
	return g.concepts[g.schemes[i].top], true
}

// Find returns the term of a concept within a scheme.
func (g *ConceptGraph) Find(schemeURI, conceptURI string) (ConceptTerm, bool) {
	for _, id := range g.byURI[conceptURI] {
		if g.concepts[id].SchemeURI == schemeURI {
			return g.concepts[id], true
		}
	}
	return ConceptTerm{}, false
}

// Lookup returns every term of a concept URI, one per owning scheme.
func (g *ConceptGraph) Lookup(conceptURI string) []ConceptTerm {
	ids := g.byURI[conceptURI]
	terms := make([]ConceptTerm, len(ids))
	for i, id := range ids {
		terms[i] = g.concepts[id]
	}
	return terms
}

// Parents returns the direct broader concepts of a term, ordered by ID.
func (g *ConceptGraph) Parents(id ConceptID) []ConceptTerm {
	ids := sortedIDs(g.ancestors[id])
	parents := make([]ConceptTerm, len(ids))
	for i, parent := range ids {
		parents[i] = g.concepts[parent]
	}
	return parents
}

// Ancestors returns every transitive broader concept of a term, ordered by ID.
func (g *ConceptGraph) Ancestors(id ConceptID) []ConceptTerm {
	visited := make(idSet)
	queue := sortedIDs(g.ancestors[id])
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}
		queue = append(queue, sortedIDs(g.ancestors[current])...)
	}

	ids := sortedIDs(visited)
	ancestors := make([]ConceptTerm, len(ids))
	for i, ancestor := range ids {
		ancestors[i] = g.concepts[ancestor]
	}
	return ancestors
}

// Edges returns every (child, parent) pair, ordered by child then parent.
func (g *ConceptGraph) Edges() [][2]ConceptID {
	children := make(idSet, len(g.ancestors))
	for child := range g.ancestors {
		children[child] = struct{}{}
	}

	var edges [][2]ConceptID
	for _, child := range sortedIDs(children) {
		for _, parent := range sortedIDs(g.ancestors[child]) {
			edges = append(edges, [2]ConceptID{child, parent})
		}
	}
	return edges
}

func sortedIDs(set idSet) []ConceptID {
	ids := make([]ConceptID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// graphBuilder assembles a ConceptGraph. Only the abstractor and the closure
// use it; the graph it returns is not touched again.
type graphBuilder struct {
	graph *ConceptGraph
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{graph: &ConceptGraph{
		byScheme:  make(map[string]int),
		byURI:     make(map[string][]ConceptID),
		ancestors: make(map[ConceptID]idSet),
	}}
}

func (b *graphBuilder) addScheme(scheme ConceptScheme) {
	if _, exists := b.graph.byScheme[scheme.URI]; exists {
		return
	}
	scheme.members = nil
	scheme.hasTop = false
	b.graph.byScheme[scheme.URI] = len(b.graph.schemes)
	b.graph.schemes = append(b.graph.schemes, &scheme)
}

func (b *graphBuilder) hasScheme(uri string) bool {
	_, ok := b.graph.byScheme[uri]
	return ok
}

// addTerm stores a term, returning the existing ID when the scheme already
// holds the concept.
func (b *graphBuilder) addTerm(term ConceptTerm) ConceptID {
	if existing, ok := b.graph.Find(term.SchemeURI, term.URI); ok {
		return existing.ID
	}
	term.ID = ConceptID(len(b.graph.concepts))
	b.graph.concepts = append(b.graph.concepts, term)
	b.graph.byURI[term.URI] = append(b.graph.byURI[term.URI], term.ID)
	return term.ID
}

func (b *graphBuilder) addMember(term ConceptTerm) ConceptID {
	_, existed := b.graph.Find(term.SchemeURI, term.URI)
	id := b.addTerm(term)
	if !existed {
		scheme := b.graph.schemes[b.graph.byScheme[term.SchemeURI]]
		scheme.members = append(scheme.members, id)
	}
	return id
}

func (b *graphBuilder) setTop(term ConceptTerm) ConceptID {
	term.Top = true
	id := b.addTerm(term)
	scheme := b.graph.schemes[b.graph.byScheme[term.SchemeURI]]
	if !scheme.hasTop {
		scheme.top = id
		scheme.hasTop = true
	}
	return id
}

func (b *graphBuilder) addParent(child, parent ConceptID) {
	if child == parent {
		return
	}
	if b.graph.ancestors[child] == nil {
		b.graph.ancestors[child] = make(idSet)
	}
	b.graph.ancestors[child][parent] = struct{}{}
}

func (b *graphBuilder) build() *ConceptGraph {
	return b.graph
}
