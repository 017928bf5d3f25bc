package ontology

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/coolbeans/kmdp/pkg/store"
)

// Format identifies an ontology serialization.
type Format string

const (
	FormatRDFXML   Format = "rdfxml"
	FormatNTriples Format = "ntriples"
	FormatJSONLD   Format = "jsonld"
)

// ErrUnsupportedFormat is returned for files whose serialization cannot be read.
var ErrUnsupportedFormat = errors.New("unsupported ontology format")

// DetectFormat guesses the serialization from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rdf", ".owl", ".xml":
		return FormatRDFXML, nil
	case ".nt", ".nq":
		return FormatNTriples, nil
	case ".jsonld", ".json":
		return FormatJSONLD, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Loader reads ontology documents from disk.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader. A nil logger uses slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load parses one document in the given format.
func (l *Loader) Load(r io.Reader, format Format, source string) (*Ontology, error) {
	var (
		triples *store.TripleStore
		err     error
	)

	switch format {
	case FormatRDFXML:
		triples, err = ParseRDFXML(r, source)
	case FormatNTriples:
		triples, err = store.ParseNTriples(r)
	case FormatJSONLD:
		triples, err = store.ParseJSONLD(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", source, err)
	}

	ont := New(triples, source)
	l.logger.Debug("Loaded ontology",
		"source", source,
		"iri", ont.IRI,
		"version", ont.VersionIRI,
		"triples", triples.Count())

	return ont, nil
}

// LoadFile parses one file, detecting its format from the extension.
func (l *Loader) LoadFile(path string) (*Ontology, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ontology: %w", err)
	}
	defer file.Close()

	return l.Load(file, format, path)
}

// Expand resolves file paths and doublestar glob patterns into a sorted list
// of distinct files. Directories expand to the ontology files they contain.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if _, err := DetectFormat(path); err != nil {
			return
		}
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			info, err := os.Stat(pattern)
			if err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", pattern, err)
			}
			if !info.IsDir() {
				add(pattern)
				continue
			}
			pattern = filepath.Join(pattern, "**", "*")
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob error: %w", err)
		}
		for _, match := range matches {
			if info, err := os.Stat(match); err == nil && !info.IsDir() {
				add(match)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// LoadAll expands the patterns and loads every matching file.
func (l *Loader) LoadAll(patterns []string) ([]*Ontology, error) {
	files, err := Expand(patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no ontology files match %s", strings.Join(patterns, ", "))
	}

	ontologies := make([]*Ontology, 0, len(files))
	for _, file := range files {
		ont, err := l.LoadFile(file)
		if err != nil {
			return nil, err
		}
		ontologies = append(ontologies, ont)
	}

	l.logger.Info("Loaded ontologies", "count", len(ontologies))
	return ontologies, nil
}

// ResolveImports merges into each ontology the loaded ontologies it imports,
// transitively. Imports that were not loaded are logged and skipped.
func (l *Loader) ResolveImports(ontologies []*Ontology) []*Ontology {
	byIRI := make(map[string]*Ontology)
	for _, ont := range ontologies {
		if ont.IRI != "" {
			byIRI[ont.IRI] = ont
		}
		if ont.VersionIRI != "" {
			byIRI[ont.VersionIRI] = ont
		}
	}

	resolved := make([]*Ontology, 0, len(ontologies))
	for _, ont := range ontologies {
		if len(ont.Imports) == 0 {
			resolved = append(resolved, ont)
			continue
		}

		visited := map[*Ontology]bool{ont: true}
		var imported []*Ontology
		queue := append([]string(nil), ont.Imports...)

		for len(queue) > 0 {
			iri := queue[0]
			queue = queue[1:]

			dependency, ok := byIRI[iri]
			if !ok {
				l.logger.Warn("Import not loaded", "ontology", ont.ID(), "import", iri)
				continue
			}
			if visited[dependency] {
				continue
			}
			visited[dependency] = true
			imported = append(imported, dependency)
			queue = append(queue, dependency.Imports...)
		}

		resolved = append(resolved, Merge(ont, imported...))
	}

	return resolved
}
