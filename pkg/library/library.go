// Package library keeps a persistent, on-disk collection of ontology
// versions. Versions of the same ontology are grouped by name so that the
// generator can be fed a full version history.
package library

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coolbeans/kmdp/pkg/id"
	"github.com/coolbeans/kmdp/pkg/ontology"
	"github.com/coolbeans/kmdp/pkg/store"
)

const (
	manifestFileName = "library.json"
	entriesDir       = "ontologies"
	triplesFileName  = "triples.json"
	metadataFileName = "metadata.json"
	sourcePrefix     = "source"
	manifestVersion  = "1.0.0"
)

// ErrNotFound is returned for versions that are not in the library.
var ErrNotFound = errors.New("ontology version not found")

// Library manages a persistent collection of ontology versions.
type Library struct {
	mu       sync.RWMutex
	path     string
	manifest *Manifest
	logger   *slog.Logger
}

// Init creates a new library at the given path.
func Init(libraryPath string, logger *slog.Logger) (*Library, error) {
	if err := os.MkdirAll(filepath.Join(libraryPath, entriesDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	now := time.Now().UTC()
	lib := &Library{
		path: libraryPath,
		manifest: &Manifest{
			Version:   manifestVersion,
			CreatedAt: now,
			UpdatedAt: now,
			Entries:   []*Entry{},
		},
		logger: loggerOrDefault(logger),
	}

	if err := lib.saveManifest(); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}
	return lib, nil
}

// Open loads an existing library from disk.
func Open(libraryPath string, logger *slog.Logger) (*Library, error) {
	data, err := os.ReadFile(filepath.Join(libraryPath, manifestFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read library manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse library manifest: %w", err)
	}

	return &Library{
		path:     libraryPath,
		manifest: &manifest,
		logger:   loggerOrDefault(logger),
	}, nil
}

// OpenOrInit opens the library at path, creating it when no manifest exists.
func OpenOrInit(libraryPath string, logger *slog.Logger) (*Library, error) {
	if _, err := os.Stat(filepath.Join(libraryPath, manifestFileName)); errors.Is(err, os.ErrNotExist) {
		return Init(libraryPath, logger)
	}
	return Open(libraryPath, logger)
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// EntryID names a version of an ontology: "name@version", or just the name
// for unversioned ontologies.
func EntryID(name, version string) string {
	if version == "" {
		return name
	}
	return name + "@" + version
}

// AddOntology stores the triples of an ontology version. Adding an ID that
// already exists returns the existing entry unless opts.Force is set.
func (lib *Library) AddOntology(name, version string, triples *store.TripleStore, opts AddOptions) (*Entry, error) {
	if name == "" {
		return nil, errors.New("ontology name is required")
	}
	if triples == nil || triples.Count() == 0 {
		return nil, fmt.Errorf("ontology %s has no triples", name)
	}

	ont := ontology.New(triples, EntryID(name, version))
	return lib.add(name, version, ont, nil, "", opts)
}

// AddOntologyFile loads an ontology document and stores it with its source.
// The version tag is read from owl:versionIRI unless opts.Version is set.
func (lib *Library) AddOntologyFile(path string, opts AddOptions) (*Entry, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	ont, err := ontology.NewLoader(lib.logger).LoadFile(path)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = DeriveName(path)
	}
	version := opts.Version
	if version == "" {
		version = VersionTag(ont)
	}

	return lib.add(name, version, ont, source, filepath.Ext(path), opts)
}

func (lib *Library) add(name, version string, ont *ontology.Ontology, source []byte, ext string, opts AddOptions) (*Entry, error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	entryID := EntryID(name, version)
	if existing := lib.findUnsafe(entryID); existing != nil && !opts.Force {
		return existing, nil
	}

	now := time.Now().UTC()
	entry := &Entry{
		ID:          entryID,
		Name:        name,
		VersionTag:  version,
		OntologyIRI: ont.IRI,
		VersionIRI:  ont.VersionIRI,
		Source:      ont.Source,
		Status:      StatusReady,
		IngestedAt:  now,
		UpdatedAt:   now,
		Stats:       statsOf(ont.Store()),
		StorageHash: hashEntryID(entryID),
	}
	if issued, ok := ont.Date(); ok {
		entry.IssuedOn = issued
	}

	if err := lib.persist(entry, ont.Store(), source, ext); err != nil {
		entry.Status = StatusFailed
		entry.Error = err.Error()
		entry.Stats = nil
		lib.upsertUnsafe(entry)
		if saveErr := lib.saveManifest(); saveErr != nil {
			return nil, fmt.Errorf("storing %s failed (%v) and failed to save manifest: %w", entryID, err, saveErr)
		}
		return nil, fmt.Errorf("storing %s: %w", entryID, err)
	}

	lib.upsertUnsafe(entry)
	if err := lib.saveManifest(); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}

	lib.logger.Info("Stored ontology version",
		"id", entry.ID,
		"triples", entry.Stats.Triples,
		"schemes", entry.Stats.Schemes,
		"concepts", entry.Stats.Concepts)

	return entry, nil
}

func (lib *Library) persist(entry *Entry, triples *store.TripleStore, source []byte, ext string) error {
	data, err := EncodeTriples(triples)
	if err != nil {
		return fmt.Errorf("failed to encode triples: %w", err)
	}
	if err := lib.writeFile(entry.StorageHash, triplesFileName, data); err != nil {
		return fmt.Errorf("failed to save triples: %w", err)
	}

	metadata, err := json.MarshalIndent(entry.Stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := lib.writeFile(entry.StorageHash, metadataFileName, metadata); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	if len(source) > 0 {
		if err := lib.writeFile(entry.StorageHash, sourcePrefix+ext, source); err != nil {
			return fmt.Errorf("failed to save source: %w", err)
		}
	}
	return nil
}

// RemoveOntology deletes a version and its files.
func (lib *Library) RemoveOntology(name, version string) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	entryID := EntryID(name, version)
	entry := lib.findUnsafe(entryID)
	if entry == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, entryID)
	}

	if err := os.RemoveAll(lib.entryDir(entry.StorageHash)); err != nil {
		return fmt.Errorf("failed to remove ontology files: %w", err)
	}

	filtered := make([]*Entry, 0, len(lib.manifest.Entries))
	for _, e := range lib.manifest.Entries {
		if e.ID != entryID {
			filtered = append(filtered, e)
		}
	}
	lib.manifest.Entries = filtered
	lib.manifest.UpdatedAt = time.Now().UTC()

	return lib.saveManifest()
}

// Entry returns the entry of a version.
func (lib *Library) Entry(name, version string) (*Entry, bool) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	entry := lib.findUnsafe(EntryID(name, version))
	return entry, entry != nil
}

// Entries returns every entry, sorted by ID.
func (lib *Library) Entries() []*Entry {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	result := make([]*Entry, len(lib.manifest.Entries))
	copy(result, lib.manifest.Entries)
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Names returns the distinct ontology names, sorted.
func (lib *Library) Names() []string {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, entry := range lib.manifest.Entries {
		if !seen[entry.Name] {
			seen[entry.Name] = true
			names = append(names, entry.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Versions returns the ready versions of an ontology in chronological order:
// by issue date when both versions carry one, else in the order they were
// added.
func (lib *Library) Versions(name string) []*Entry {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	var versions []*Entry
	for _, entry := range lib.manifest.Entries {
		if entry.Name == name && entry.Status == StatusReady {
			versions = append(versions, entry)
		}
	}
	sort.SliceStable(versions, func(i, j int) bool {
		a, b := versions[i].IssuedOn, versions[j].IssuedOn
		if a.IsZero() || b.IsZero() {
			return false
		}
		return a.Before(b)
	})
	return versions
}

// LoadOntology reads a stored version back as an ontology.
func (lib *Library) LoadOntology(name, version string) (*ontology.Ontology, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	entryID := EntryID(name, version)
	entry := lib.findUnsafe(entryID)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, entryID)
	}
	if entry.Status != StatusReady {
		return nil, fmt.Errorf("ontology %s is not ready (status: %s)", entryID, entry.Status)
	}

	data, err := os.ReadFile(filepath.Join(lib.entryDir(entry.StorageHash), triplesFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read triples for %s: %w", entryID, err)
	}
	triples, err := DecodeTriples(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode triples for %s: %w", entryID, err)
	}

	source := entry.Source
	if source == "" {
		source = entryID
	}
	return ontology.New(triples, source), nil
}

// LoadSeries loads every ready version of an ontology, oldest first.
func (lib *Library) LoadSeries(name string) ([]*ontology.Ontology, error) {
	versions := lib.Versions(name)
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	ontologies := make([]*ontology.Ontology, 0, len(versions))
	for _, entry := range versions {
		ont, err := lib.LoadOntology(entry.Name, entry.VersionTag)
		if err != nil {
			return nil, err
		}
		ontologies = append(ontologies, ont)
	}
	return ontologies, nil
}

// Stats returns counts across the library.
func (lib *Library) Stats() *Stats {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	stats := &Stats{ByStatus: make(map[string]int)}
	names := make(map[string]bool)

	for _, entry := range lib.manifest.Entries {
		stats.Versions++
		stats.ByStatus[string(entry.Status)]++
		names[entry.Name] = true

		if entry.Stats != nil {
			stats.Triples += entry.Stats.Triples
			stats.Schemes += entry.Stats.Schemes
			stats.Concepts += entry.Stats.Concepts
		}
	}
	stats.Ontologies = len(names)

	return stats
}

// Path returns the library's root directory.
func (lib *Library) Path() string {
	return lib.path
}

// DeriveName lowercases the base name of a file without its extension.
func DeriveName(path string) string {
	base := filepath.Base(path)
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return strings.ToLower(base)
}

// VersionTag reads the version tag from the ontology's version IRI.
func VersionTag(ont *ontology.Ontology) string {
	if ont.VersionIRI == "" {
		return ""
	}
	rid, err := id.NewFromURI(ont.VersionIRI)
	if err == nil && rid.VersionTag != "" {
		return rid.VersionTag
	}
	return ontology.Fragment(strings.TrimRight(ont.VersionIRI, "/#"))
}

func (lib *Library) findUnsafe(entryID string) *Entry {
	for _, entry := range lib.manifest.Entries {
		if entry.ID == entryID {
			return entry
		}
	}
	return nil
}

func (lib *Library) upsertUnsafe(entry *Entry) {
	lib.manifest.UpdatedAt = time.Now().UTC()
	for i, existing := range lib.manifest.Entries {
		if existing.ID == entry.ID {
			lib.manifest.Entries[i] = entry
			return
		}
	}
	lib.manifest.Entries = append(lib.manifest.Entries, entry)
}

func (lib *Library) saveManifest() error {
	data, err := json.MarshalIndent(lib.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(lib.path, manifestFileName), data, 0644)
}

func (lib *Library) entryDir(storageHash string) string {
	return filepath.Join(lib.path, entriesDir, storageHash)
}

func (lib *Library) writeFile(storageHash, fileName string, data []byte) error {
	dir := lib.entryDir(storageHash)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, fileName), data, 0644)
}

func hashEntryID(entryID string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(entryID)))
}
