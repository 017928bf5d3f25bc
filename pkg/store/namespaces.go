package store

import (
	"sort"
	"strings"
)

// Namespaces maps prefixes to namespace IRIs. The serializers use it to
// abbreviate IRIs; the zero value is not usable, use NewNamespaces.
type Namespaces struct {
	byPrefix map[string]string
}

// NewNamespaces returns an empty table.
func NewNamespaces() *Namespaces {
	return &Namespaces{byPrefix: make(map[string]string)}
}

// DefaultNamespaces returns the vocabularies every terminology document uses.
func DefaultNamespaces() *Namespaces {
	n := NewNamespaces()
	n.Bind("rdf", NamespaceRDF)
	n.Bind("rdfs", NamespaceRDFS)
	n.Bind("owl", NamespaceOWL)
	n.Bind("xsd", NamespaceXSD)
	n.Bind("skos", NamespaceSKOS)
	n.Bind("dct", NamespaceDCTerms)
	n.Bind("api4kp", NamespaceAPI4KP)
	return n
}

// Bind maps prefix to namespace, replacing any earlier binding of prefix.
func (n *Namespaces) Bind(prefix, namespace string) {
	n.byPrefix[prefix] = namespace
}

// Clone returns an independent copy.
func (n *Namespaces) Clone() *Namespaces {
	c := NewNamespaces()
	for p, ns := range n.byPrefix {
		c.byPrefix[p] = ns
	}
	return c
}

// Len returns the number of bindings.
func (n *Namespaces) Len() int { return len(n.byPrefix) }

// Prefixes returns the bound prefixes in sorted order.
func (n *Namespaces) Prefixes() []string {
	return sortedKeys(n.byPrefix)
}

// Namespace returns the namespace bound to prefix.
func (n *Namespaces) Namespace(prefix string) (string, bool) {
	ns, ok := n.byPrefix[prefix]
	return ns, ok
}

// Compact abbreviates iri as prefix:local using the longest matching
// namespace. When two prefixes share a namespace the smaller prefix wins.
func (n *Namespaces) Compact(iri string) (string, bool) {
	prefix, local, ok := n.split(iri)
	if !ok {
		return "", false
	}
	return prefix + ":" + local, true
}

func (n *Namespaces) split(iri string) (prefix, local string, ok bool) {
	best := ""
	for _, p := range n.Prefixes() {
		ns := n.byPrefix[p]
		if len(ns) <= len(best) || !strings.HasPrefix(iri, ns) {
			continue
		}
		if l := iri[len(ns):]; isLocalName(l) {
			prefix, local, best, ok = p, l, ns, true
		}
	}
	return prefix, local, ok
}

// Expand resolves a prefixed name. Anything else is returned unchanged.
func (n *Namespaces) Expand(name string) string {
	if isFullURI(name) {
		return name
	}
	prefix, local, found := strings.Cut(name, ":")
	if !found {
		return name
	}
	if ns, ok := n.byPrefix[prefix]; ok {
		return ns + local
	}
	return name
}

// Option configures a serializer.
type Option func(*settings)

type settings struct {
	namespaces *Namespaces
	expanded   bool
}

// WithPrefix binds one more prefix.
func WithPrefix(prefix, namespace string) Option {
	return func(s *settings) { s.namespaces.Bind(prefix, namespace) }
}

// WithPrefixes binds every prefix of a prefix -> namespace map.
func WithPrefixes(prefixes map[string]string) Option {
	return func(s *settings) {
		for p, ns := range prefixes {
			s.namespaces.Bind(p, ns)
		}
	}
}

// WithoutDefaultPrefixes drops the default bindings. Options apply in
// order, so it must come before WithPrefix.
func WithoutDefaultPrefixes() Option {
	return func(s *settings) { s.namespaces = NewNamespaces() }
}

// Expanded makes the JSON-LD serializer emit expanded JSON-LD.
func Expanded() Option {
	return func(s *settings) { s.expanded = true }
}

func newSettings(options []Option) settings {
	s := settings{namespaces: DefaultNamespaces()}
	for _, option := range options {
		option(&s)
	}
	return s
}

// resource is one subject and its properties, rdf:type first and the
// remaining predicates sorted.
type resource struct {
	subject    string
	predicates []string
	objects    map[string][]string
}

func (r resource) types() []string {
	return r.objects[RDFType]
}

// resources groups the store by subject in insertion order.
func resources(ts *TripleStore) []resource {
	var out []resource
	at := make(map[string]int)
	for _, t := range ts.All() {
		i, ok := at[t.Subject]
		if !ok {
			i = len(out)
			at[t.Subject] = i
			out = append(out, resource{subject: t.Subject, objects: make(map[string][]string)})
		}
		r := &out[i]
		if _, seen := r.objects[t.Predicate]; !seen {
			r.predicates = append(r.predicates, t.Predicate)
		}
		r.objects[t.Predicate] = append(r.objects[t.Predicate], t.Object)
	}
	for i := range out {
		sort.SliceStable(out[i].predicates, func(a, b int) bool {
			return out[i].predicates[a] == RDFType && out[i].predicates[b] != RDFType
		})
	}
	return out
}

var iriSchemes = []string{"http://", "https://", "urn:", "tag:", "file:", "mailto:", "ftp://"}

// isFullURI reports whether value starts with a known IRI scheme.
func isFullURI(value string) bool {
	for _, scheme := range iriSchemes {
		if strings.HasPrefix(value, scheme) {
			return true
		}
	}
	return false
}

// isPrefixedName reports whether value looks like prefix:local.
func isPrefixedName(value string) bool {
	prefix, local, ok := strings.Cut(value, ":")
	if !ok || prefix == "" || local == "" || strings.ContainsAny(local, " \t\r\n") {
		return false
	}
	for _, r := range prefix {
		if !isAlnum(r) {
			return false
		}
	}
	return true
}

// isLocalName reports whether s can follow "prefix:" in Turtle, and so in
// a JSON-LD compact IRI.
func isLocalName(s string) bool {
	if s == "" || strings.HasSuffix(s, ".") {
		return false
	}
	for _, r := range s {
		if !isAlnum(r) && !strings.ContainsRune("_-.", r) {
			return false
		}
	}
	return true
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

func escapeLiteralString(value string) string {
	return literalEscaper.Replace(value)
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

func escapeIRI(iri string) string {
	return iriEscaper.Replace(iri)
}

var iriEscaper = strings.NewReplacer(
	"<", `\u003C`, ">", `\u003E`, `"`, `\u0022`, " ", `\u0020`, "{", `\u007B`, "}", `\u007D`)
