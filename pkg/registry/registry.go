// Package registry holds the catalog of knowledge representation languages,
// serialization formats, lexicons and namespace prefixes known to kmdp.
//
// The catalog is an N-Triples document embedded in the binary. It is parsed
// when Load is called; there is no package level state.
package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/coolbeans/kmdp/pkg/store"
)

// Vocabulary of the catalog.
const (
	NamespaceAPI4KP = "https://www.omg.org/spec/API4KP/api4kp/"

	ClassLanguage   = NamespaceAPI4KP + "KnowledgeRepresentationLanguage"
	ClassFormat     = NamespaceAPI4KP + "SerializationFormat"
	ClassLexicon    = NamespaceAPI4KP + "Lexicon"
	ClassVocabulary = NamespaceAPI4KP + "Vocabulary"

	PropertyMIMECode  = NamespaceAPI4KP + "mimeCode"
	PropertyMediaType = NamespaceAPI4KP + "mediaType"
	PropertyNamespace = NamespaceAPI4KP + "namespace"
	PropertyPrefix    = NamespaceAPI4KP + "prefix"
)

//go:embed catalog.nt
var catalog []byte

// ErrDuplicateEntry is returned when two catalog entries share a tag or code.
var ErrDuplicateEntry = errors.New("duplicate registry entry")

// ErrEmptyCatalog is returned when a catalog declares no languages.
var ErrEmptyCatalog = errors.New("registry catalog declares no languages")

// Kind distinguishes catalog entries.
type Kind string

const (
	KindLanguage Kind = "language"
	KindFormat   Kind = "format"
	KindLexicon  Kind = "lexicon"
)

// Entry is one language, format or lexicon.
type Entry struct {
	Kind      Kind   `json:"kind"`
	URI       string `json:"uri"`
	Tag       string `json:"tag"`
	Label     string `json:"label"`
	Code      string `json:"code"`
	MediaType string `json:"mediaType,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
}

type index struct {
	byTag  map[string]Entry
	byCode map[string]Entry
}

func newIndex() index {
	return index{byTag: map[string]Entry{}, byCode: map[string]Entry{}}
}

func (ix index) add(entry Entry) error {
	if _, dup := ix.byTag[entry.Tag]; dup {
		return fmt.Errorf("%w: %s tag %q", ErrDuplicateEntry, entry.Kind, entry.Tag)
	}
	if _, dup := ix.byCode[entry.Code]; dup && entry.Code != "" {
		return fmt.Errorf("%w: %s code %q", ErrDuplicateEntry, entry.Kind, entry.Code)
	}
	ix.byTag[entry.Tag] = entry
	if entry.Code != "" {
		ix.byCode[entry.Code] = entry
	}
	return nil
}

func (ix index) sorted() []Entry {
	entries := make([]Entry, 0, len(ix.byTag))
	for _, entry := range ix.byTag {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Tag < entries[j].Tag })
	return entries
}

// Registry answers lookups over a loaded catalog. It is read-only once built
// and safe for concurrent use.
type Registry struct {
	languages  index
	formats    index
	lexicons   index
	prefixes   map[string]string // namespace -> prefix
	namespaces map[string]string // prefix -> namespace
}

// Load parses the embedded catalog.
func Load() (*Registry, error) {
	return LoadFrom(bytes.NewReader(catalog))
}

// LoadFrom parses a catalog in N-Triples.
func LoadFrom(r io.Reader) (*Registry, error) {
	triples, err := store.ParseNTriples(r)
	if err != nil {
		return nil, fmt.Errorf("loading registry catalog: %w", err)
	}
	return build(triples)
}

func build(triples *store.TripleStore) (*Registry, error) {
	reg := &Registry{
		languages:  newIndex(),
		formats:    newIndex(),
		lexicons:   newIndex(),
		prefixes:   map[string]string{},
		namespaces: map[string]string{},
	}

	kinds := []struct {
		class string
		kind  Kind
		idx   index
	}{
		{ClassLanguage, KindLanguage, reg.languages},
		{ClassFormat, KindFormat, reg.formats},
		{ClassLexicon, KindLexicon, reg.lexicons},
	}

	for _, k := range kinds {
		for _, subject := range triples.SubjectsWith(store.RDFType, k.class) {
			entry := Entry{
				Kind:      k.kind,
				URI:       subject,
				Tag:       literal(triples, subject, store.SKOSNotation),
				Label:     literal(triples, subject, store.SKOSPrefLabel),
				Code:      literal(triples, subject, PropertyMIMECode),
				MediaType: literal(triples, subject, PropertyMediaType),
				Namespace: triples.GetOne(subject, PropertyNamespace),
				Prefix:    literal(triples, subject, PropertyPrefix),
			}
			if entry.Tag == "" {
				return nil, fmt.Errorf("registry entry %s has no notation", subject)
			}
			if err := k.idx.add(entry); err != nil {
				return nil, err
			}
			reg.bind(entry.Prefix, entry.Namespace)
		}
	}

	for _, subject := range triples.SubjectsWith(store.RDFType, ClassVocabulary) {
		reg.bind(literal(triples, subject, PropertyPrefix), triples.GetOne(subject, PropertyNamespace))
	}

	if len(reg.languages.byTag) == 0 {
		return nil, fmt.Errorf("%d triples read: %w", triples.Count(), ErrEmptyCatalog)
	}
	return reg, nil
}

func (r *Registry) bind(prefix, namespace string) {
	if prefix == "" || namespace == "" {
		return
	}
	if _, taken := r.namespaces[prefix]; !taken {
		r.namespaces[prefix] = namespace
	}
	if _, taken := r.prefixes[namespace]; !taken {
		r.prefixes[namespace] = prefix
	}
}

func literal(triples *store.TripleStore, subject, predicate string) string {
	value := triples.GetOne(subject, predicate)
	if value == "" {
		return ""
	}
	return store.LiteralValue(value)
}

// Language returns the language with the given tag.
func (r *Registry) Language(tag string) (Entry, bool) {
	entry, ok := r.languages.byTag[tag]
	return entry, ok
}

// LanguageByCode returns the language with the given MIME code.
func (r *Registry) LanguageByCode(code string) (Entry, bool) {
	entry, ok := r.languages.byCode[code]
	return entry, ok
}

// Format returns the serialization format with the given tag.
func (r *Registry) Format(tag string) (Entry, bool) {
	entry, ok := r.formats.byTag[tag]
	return entry, ok
}

// FormatByCode returns the format with the given MIME code.
func (r *Registry) FormatByCode(code string) (Entry, bool) {
	entry, ok := r.formats.byCode[code]
	return entry, ok
}

// Lexicon returns the lexicon with the given tag.
func (r *Registry) Lexicon(tag string) (Entry, bool) {
	entry, ok := r.lexicons.byTag[tag]
	return entry, ok
}

// LexiconByCode returns the lexicon with the given MIME code.
func (r *Registry) LexiconByCode(code string) (Entry, bool) {
	entry, ok := r.lexicons.byCode[code]
	return entry, ok
}

// Languages returns every language, sorted by tag.
func (r *Registry) Languages() []Entry {
	return r.languages.sorted()
}

// Formats returns every format, sorted by tag.
func (r *Registry) Formats() []Entry {
	return r.formats.sorted()
}

// Lexicons returns every lexicon, sorted by tag.
func (r *Registry) Lexicons() []Entry {
	return r.lexicons.sorted()
}

// PrefixFor returns the preferred prefix of a namespace.
func (r *Registry) PrefixFor(namespace string) (string, bool) {
	prefix, ok := r.prefixes[namespace]
	return prefix, ok
}

// NamespaceFor returns the namespace bound to a prefix.
func (r *Registry) NamespaceFor(prefix string) (string, bool) {
	namespace, ok := r.namespaces[prefix]
	return namespace, ok
}

// Prefixes returns the prefix bindings, keyed by prefix.
func (r *Registry) Prefixes() map[string]string {
	out := make(map[string]string, len(r.namespaces))
	for prefix, namespace := range r.namespaces {
		out[prefix] = namespace
	}
	return out
}

// MIMEForLanguage returns the media type used for a language when no
// format is requested.
func (r *Registry) MIMEForLanguage(tag string) (string, bool) {
	entry, ok := r.Language(tag)
	if !ok || entry.MediaType == "" {
		return "", false
	}
	return entry.MediaType, true
}
