package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gopkg.in/yaml.v3"

	"github.com/coolbeans/kmdp/pkg/answer"
	"github.com/coolbeans/kmdp/pkg/id"
	"github.com/coolbeans/kmdp/pkg/negotiation"
	"github.com/coolbeans/kmdp/pkg/ontology"
	"github.com/coolbeans/kmdp/pkg/registry"
	"github.com/coolbeans/kmdp/pkg/skos"
	"github.com/coolbeans/kmdp/pkg/store"
)

// Media types offered by the resource endpoints, in order of preference.
const (
	MIMEJSON     = "application/json"
	MIMEJSONLD   = "application/ld+json"
	MIMETurtle   = "text/turtle"
	MIMERDFXML   = "application/rdf+xml"
	MIMENTriples = "application/n-triples"
	MIMEXML      = "application/xml"
	MIMEYAML     = "application/yaml"
)

var resourceOffers = []string{MIMEJSON, MIMEJSONLD, MIMETurtle, MIMERDFXML, MIMENTriples}

var idOffers = []string{MIMEJSON, MIMEXML, MIMEYAML}

func offeredList() string {
	return strings.Join(resourceOffers, ", ")
}

type schemeView struct {
	URI        string `json:"uri"`
	VersionURI string `json:"versionUri,omitempty"`
	VersionTag string `json:"versionTag,omitempty"`
	Name       string `json:"name"`
	Label      string `json:"label,omitempty"`
	Concepts   int    `json:"concepts"`
	Top        string `json:"topConcept,omitempty"`
}

type conceptView struct {
	URI           string   `json:"uri"`
	Tag           string   `json:"tag"`
	Aliases       []string `json:"aliases,omitempty"`
	Label         string   `json:"label,omitempty"`
	Comment       string   `json:"comment,omitempty"`
	Referent      string   `json:"referent,omitempty"`
	Scheme        string   `json:"scheme"`
	UUID          string   `json:"uuid"`
	EstablishedOn string   `json:"establishedOn,omitempty"`
	Top           bool     `json:"top,omitempty"`
	Broader       []string `json:"broader,omitempty"`
}

func newSchemeView(graph *skos.ConceptGraph, scheme skos.ConceptScheme) schemeView {
	view := schemeView{
		URI:        scheme.URI,
		VersionURI: scheme.VersionURI,
		VersionTag: scheme.VersionTag,
		Name:       scheme.Name,
		Label:      scheme.Label,
		Concepts:   len(scheme.MemberIDs()),
	}
	if top, ok := graph.Top(scheme.URI); ok {
		view.Top = top.URI
		view.Concepts++
	}
	return view
}

func newConceptView(graph *skos.ConceptGraph, term skos.ConceptTerm) conceptView {
	view := conceptView{
		URI:      term.URI,
		Tag:      term.Tag(),
		Aliases:  term.Aliases(),
		Label:    term.Label,
		Comment:  term.Comment,
		Referent: term.Referent,
		Scheme:   term.SchemeURI,
		UUID:     term.UUID.String(),
		Top:      term.Top,
	}
	if !term.EstablishedOn.IsZero() {
		view.EstablishedOn = term.EstablishedOn.Format(time.DateOnly)
	}
	for _, parent := range graph.Parents(term.ID) {
		view.Broader = append(view.Broader, parent.URI)
	}
	return view
}

// concepts returns the top concept of a scheme followed by its members.
func concepts(graph *skos.ConceptGraph, schemeURI string) []skos.ConceptTerm {
	var terms []skos.ConceptTerm
	if top, ok := graph.Top(schemeURI); ok {
		terms = append(terms, top)
	}
	return append(terms, graph.Members(schemeURI)...)
}

// findScheme matches a scheme by public name or URI fragment.
func findScheme(graph *skos.ConceptGraph, key string) answer.Answer[skos.ConceptScheme] {
	if graph == nil {
		return answer.FailedWith[skos.ConceptScheme](answer.NotFound, "no concept graph loaded")
	}
	for _, scheme := range graph.Schemes() {
		if strings.EqualFold(scheme.Name, key) || ontology.Fragment(scheme.URI) == key {
			return answer.Of(scheme)
		}
	}
	return answer.FailedWith[skos.ConceptScheme](answer.NotFound, fmt.Sprintf("scheme %q not found", key))
}

// findConcept matches a concept of a scheme by any tag or URI fragment.
func findConcept(graph *skos.ConceptGraph, scheme skos.ConceptScheme, key string) answer.Answer[skos.ConceptTerm] {
	for _, term := range concepts(graph, scheme.URI) {
		if ontology.Fragment(term.URI) == key {
			return answer.Of(term)
		}
		for _, tag := range term.Tags {
			if tag == key {
				return answer.Of(term)
			}
		}
	}
	return answer.FailedWith[skos.ConceptTerm](answer.NotFound,
		fmt.Sprintf("concept %q not found in %s", key, scheme.Name))
}

// subjects copies the triples about the given subjects.
func subjects(triples *store.TripleStore, uris ...string) *store.TripleStore {
	out := store.NewTripleStore()
	for _, uri := range uris {
		// Triples from a valid store are never rejected.
		_ = out.BulkAdd(triples.Find(uri, "", ""))
	}
	return out
}

func (s *Server) listSchemes(c echo.Context) error {
	graph, triples := s.snapshot()
	views := []schemeView{}
	var uris []string
	if graph != nil {
		for _, scheme := range graph.Schemes() {
			views = append(views, newSchemeView(graph, scheme))
			uris = append(uris, scheme.URI)
		}
	}
	return s.respond(c, views, func() *store.TripleStore { return subjects(triples, uris...) })
}

func (s *Server) getScheme(c echo.Context) error {
	graph, triples := s.snapshot()
	found := findScheme(graph, c.Param("scheme"))
	scheme, ok := found.Get()
	if !ok {
		return found.Err()
	}

	uris := []string{scheme.URI}
	for _, term := range concepts(graph, scheme.URI) {
		uris = append(uris, term.URI)
	}
	return s.respond(c, newSchemeView(graph, scheme), func() *store.TripleStore {
		return subjects(triples, uris...)
	})
}

func (s *Server) listConcepts(c echo.Context) error {
	graph, triples := s.snapshot()
	found := findScheme(graph, c.Param("scheme"))
	scheme, ok := found.Get()
	if !ok {
		return found.Err()
	}

	terms := concepts(graph, scheme.URI)
	views := make([]conceptView, len(terms))
	uris := make([]string, len(terms))
	for i, term := range terms {
		views[i] = newConceptView(graph, term)
		uris[i] = term.URI
	}
	return s.respond(c, views, func() *store.TripleStore { return subjects(triples, uris...) })
}

func (s *Server) getConcept(c echo.Context) error {
	graph, triples := s.snapshot()
	key := c.Param("concept")
	found := answer.FlatMap(findScheme(graph, c.Param("scheme")), func(scheme skos.ConceptScheme) answer.Answer[skos.ConceptTerm] {
		return findConcept(graph, scheme, key)
	})
	term, ok := found.Get()
	if !ok {
		return found.Err()
	}
	return s.respond(c, newConceptView(graph, term), func() *store.TripleStore {
		return subjects(triples, term.URI)
	})
}

func (s *Server) getID(c echo.Context) error {
	namespace := c.QueryParam("ns")
	tag := c.QueryParam("tag")
	version := c.QueryParam("version")

	var (
		rid id.ResourceIdentifier
		err error
	)
	if version != "" {
		rid, err = id.NewVersionedID(namespace, tag, version)
	} else {
		rid, err = id.NewID(namespace, tag)
	}
	if err != nil {
		return BadRequestError("Invalid identifier", err.Error())
	}

	mime, err := s.negotiate(c, idOffers)
	if err != nil {
		return err
	}
	switch mime {
	case MIMEXML:
		return c.XML(http.StatusOK, rid)
	case MIMEYAML:
		data, err := yaml.Marshal(rid)
		if err != nil {
			return fmt.Errorf("encoding identifier: %w", err)
		}
		return c.Blob(http.StatusOK, MIMEYAML, data)
	default:
		return c.JSON(http.StatusOK, rid)
	}
}

func (s *Server) listEntries(kind registry.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var entries []registry.Entry
		switch kind {
		case registry.KindLanguage:
			entries = s.registry.Languages()
		case registry.KindFormat:
			entries = s.registry.Formats()
		default:
			entries = s.registry.Lexicons()
		}
		return c.JSON(http.StatusOK, entries)
	}
}

// negotiate picks a media type from ?format= or the Accept header.
func (s *Server) negotiate(c echo.Context, offers []string) (string, error) {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	if code := c.QueryParam("format"); code != "" {
		entry, ok := s.registry.FormatByCode(code)
		if !ok || entry.MediaType == "" {
			return "", BadRequestError("Unknown format", code)
		}
		accept = entry.MediaType
	}

	mime, err := negotiation.Negotiate(accept, offers)
	if err != nil {
		return "", NotAcceptableError(accept)
	}
	return mime, nil
}

// respond writes view as JSON, or the triples built by rdf in the
// negotiated RDF syntax.
func (s *Server) respond(c echo.Context, view any, rdf func() *store.TripleStore) error {
	mime, err := s.negotiate(c, resourceOffers)
	if err != nil {
		return err
	}
	if mime == MIMEJSON {
		return c.JSON(http.StatusOK, view)
	}

	syntax, ok := store.SyntaxForMediaType(mime)
	if !ok {
		return NotAcceptableError(mime)
	}
	data, err := store.Marshal(rdf(), syntax, store.WithPrefixes(s.registry.Prefixes()))
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, mime, data)
}
