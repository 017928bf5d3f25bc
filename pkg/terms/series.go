package terms

import (
	"fmt"
	"sort"
	"sync"
)

// Series aggregates the versions of one concept scheme, latest first.
type Series struct {
	SchemeID string
	versions []*Table
}

// NewSeries orders the tables from the latest to the earliest version. The
// input order is taken as chronological.
func NewSeries(schemeID string, chronological ...*Table) *Series {
	versions := make([]*Table, len(chronological))
	for i, table := range chronological {
		versions[len(chronological)-1-i] = table
	}
	return &Series{SchemeID: schemeID, versions: versions}
}

// Latest returns the most recent version.
func (s *Series) Latest() (*Table, bool) {
	if len(s.versions) == 0 {
		return nil, false
	}
	return s.versions[0], true
}

// Version returns the table with the given version tag.
func (s *Series) Version(versionTag string) (*Table, bool) {
	for _, table := range s.versions {
		if table.VersionTag == versionTag {
			return table, true
		}
	}
	return nil, false
}

// Versions returns the version tags, latest first.
func (s *Series) Versions() []string {
	tags := make([]string, len(s.versions))
	for i, table := range s.versions {
		tags[i] = table.VersionTag
	}
	return tags
}

// Resolve finds the latest version of the term with the given tag.
func (s *Series) Resolve(tag string) (Term, bool) {
	for _, table := range s.versions {
		if term, ok := table.ByTag(tag); ok {
			return term, true
		}
	}
	return Term{}, false
}

// History returns every version of the concept, latest first.
func (s *Series) History(conceptID string) []Term {
	var history []Term
	for _, table := range s.versions {
		if term, ok := table.ByConceptID(conceptID); ok {
			history = append(history, term)
		}
	}
	return history
}

// Lookup implements Provider over all versions.
func (s *Series) Lookup(conceptID string) (Term, bool) {
	history := s.History(conceptID)
	if len(history) == 0 {
		return Term{}, false
	}
	return history[0], true
}

// Scheme implements Provider.
func (s *Series) Scheme() string {
	return s.SchemeID
}

// Provider resolves concepts of one scheme. Generated code registers one
// provider per series.
type Provider interface {
	Scheme() string
	Lookup(conceptID string) (Term, bool)
}

// Registry resolves concept URIs across providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider. Registering a second provider for the same
// scheme is an error.
func (r *Registry) Register(provider Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	scheme := provider.Scheme()
	if _, exists := r.providers[scheme]; exists {
		return fmt.Errorf("provider already registered for scheme %s", scheme)
	}
	r.providers[scheme] = provider
	return nil
}

// Resolve asks every provider, in scheme order, for the concept.
func (r *Registry) Resolve(conceptID string) (Term, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, scheme := range r.schemesUnsafe() {
		if term, ok := r.providers[scheme].Lookup(conceptID); ok {
			return term, true
		}
	}
	return Term{}, false
}

// Provider returns the provider of a scheme.
func (r *Registry) Provider(scheme string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[scheme]
	return provider, ok
}

// Schemes lists the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemesUnsafe()
}

func (r *Registry) schemesUnsafe() []string {
	schemes := make([]string, 0, len(r.providers))
	for scheme := range r.providers {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}
