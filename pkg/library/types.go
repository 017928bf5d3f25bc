package library

import (
	"time"

	"github.com/coolbeans/kmdp/pkg/store"
)

// EntryStatus represents the state of an ontology version in the library.
type EntryStatus string

const (
	// StatusReady indicates the version is stored and can be loaded.
	StatusReady EntryStatus = "ready"

	// StatusFailed indicates the version could not be stored.
	StatusFailed EntryStatus = "failed"
)

// Manifest is the top-level index of every stored ontology version.
type Manifest struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Entries   []*Entry  `json:"entries"`
}

// Entry is one version of an ontology stored in the library.
type Entry struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	VersionTag  string      `json:"version_tag,omitempty"`
	OntologyIRI string      `json:"ontology_iri,omitempty"`
	VersionIRI  string      `json:"version_iri,omitempty"`
	Source      string      `json:"source,omitempty"`
	IssuedOn    time.Time   `json:"issued_on,omitempty"`
	Status      EntryStatus `json:"status"`
	IngestedAt  time.Time   `json:"ingested_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Stats       *EntryStats `json:"stats,omitempty"`
	StorageHash string      `json:"storage_hash"`
	Error       string      `json:"error,omitempty"`
}

// EntryStats holds counts taken when a version is stored.
type EntryStats struct {
	Triples      int `json:"triples"`
	Schemes      int `json:"schemes"`
	Concepts     int `json:"concepts"`
	TopConcepts  int `json:"top_concepts"`
	BroaderLinks int `json:"broader_links"`
	MaxDepth     int `json:"max_depth"`
}

// AddOptions configures how an ontology version is added.
type AddOptions struct {
	// Name groups versions of the same ontology. Derived from the file name
	// when empty.
	Name string

	// Version overrides the version tag read from owl:versionIRI.
	Version string

	// Force replaces an existing entry with the same ID.
	Force bool
}

// Stats aggregates counts across the library.
type Stats struct {
	Ontologies int            `json:"ontologies"`
	Versions   int            `json:"versions"`
	Triples    int            `json:"triples"`
	Schemes    int            `json:"schemes"`
	Concepts   int            `json:"concepts"`
	ByStatus   map[string]int `json:"by_status"`
}

// ImportReport summarizes a bulk import.
type ImportReport struct {
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Files     []ImportState `json:"files"`
}

// ImportState records the outcome of importing one file.
type ImportState struct {
	Path   string `json:"path"`
	ID     string `json:"id,omitempty"`
	Status string `json:"status"` // "imported", "skipped", "failed"
	Error  string `json:"error,omitempty"`
}

func statsOf(triples *store.TripleStore) *EntryStats {
	summary := store.Summarize(triples)
	return &EntryStats{
		Triples:      triples.Count(),
		Schemes:      summary.Schemes,
		Concepts:     summary.Concepts,
		TopConcepts:  summary.TopConcepts,
		BroaderLinks: summary.BroaderLinks,
		MaxDepth:     summary.MaxDepth,
	}
}
