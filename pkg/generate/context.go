package generate

import (
	"fmt"
	"path"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/coolbeans/kmdp/pkg/ontology"
	"github.com/coolbeans/kmdp/pkg/skos"
	"github.com/coolbeans/kmdp/pkg/terms"
)

// ConceptContext is one concept as the templates see it.
type ConceptContext struct {
	ConstName     string
	Tag           string
	Aliases       []string
	Label         string
	Comment       string
	ConceptURI    string
	Referent      string
	UUID          uuid.UUID
	EstablishedOn string
	Ancestors     []string
}

// SchemeContext carries everything the templates need to render one
// version of a concept scheme.
type SchemeContext struct {
	SchemeURI  string
	VersionURI string
	VersionTag string
	Name       string
	Label      string

	// TypeName is the Go type of the version's concepts.
	TypeName string

	// SeriesSchemeURI is the scheme whose series this version joins; it
	// differs from SchemeURI when an interface override applies.
	SeriesSchemeURI string
	SeriesName      string
	Overridden      bool

	PackagePath        string
	PackageName        string
	VersionPackage     string
	VersionPackagePath string

	TermsProvider string
	API4KPRelease string

	Concepts []ConceptContext
	Top      *ConceptContext
}

// Terms converts the context back into runtime terms.
func (c *SchemeContext) Terms() []terms.Term {
	out := make([]terms.Term, len(c.Concepts))
	for i, concept := range c.Concepts {
		term := terms.Term{
			UUID:       concept.UUID,
			Tag:        concept.Tag,
			Aliases:    concept.Aliases,
			Label:      concept.Label,
			Comment:    concept.Comment,
			ConceptID:  concept.ConceptURI,
			Referent:   concept.Referent,
			SchemeID:   c.SchemeURI,
			VersionTag: c.VersionTag,
			Ancestors:  concept.Ancestors,
		}
		if concept.EstablishedOn != "" {
			term.EstablishedOn, _ = time.Parse(time.DateOnly, concept.EstablishedOn)
		}
		out[i] = term
	}
	return out
}

// Context returns the template context of a scheme version. Contexts are
// cached by version URI.
func (g *Generator) Context(graph *skos.ConceptGraph, schemeURI string) (*SchemeContext, error) {
	scheme, ok := graph.Scheme(schemeURI)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, schemeURI)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if cached, ok := g.contexts[scheme.VersionURI]; ok {
		return cached, nil
	}

	ctx := g.buildContext(graph, scheme)
	g.contexts[scheme.VersionURI] = ctx
	return ctx, nil
}

func (g *Generator) buildContext(graph *skos.ConceptGraph, scheme skos.ConceptScheme) *SchemeContext {
	seriesURI, overridden := g.config.seriesScheme(scheme.URI)
	packagePath := g.config.packagePath(ontology.Fragment(seriesURI))
	versionPackage := VersionPackage(scheme.VersionTag)
	if overridden {
		// Versions of different schemes can share a tag inside one series package.
		versionPackage += "_" + PackageIdent(scheme.Name)
	}

	ctx := &SchemeContext{
		SchemeURI:          scheme.URI,
		VersionURI:         scheme.VersionURI,
		VersionTag:         scheme.VersionTag,
		Name:               scheme.Name,
		Label:              scheme.Label,
		TypeName:           typeName(scheme.Name, versionIdents),
		SeriesSchemeURI:    seriesURI,
		SeriesName:         typeName(ontology.Fragment(seriesURI), seriesIdents),
		Overridden:         overridden,
		PackagePath:        packagePath,
		PackageName:        PackageIdent(path.Base(packagePath)),
		VersionPackage:     versionPackage,
		VersionPackagePath: packagePath + "/" + versionPackage,
		TermsProvider:      g.config.TermsProvider,
		API4KPRelease:      g.config.API4KPRelease,
	}

	names := reserved(ctx.TypeName, versionIdents...)
	for _, member := range graph.Members(scheme.URI) {
		ctx.Concepts = append(ctx.Concepts, conceptContext(graph, member, names))
	}
	if top, ok := graph.Top(scheme.URI); ok {
		topCtx := conceptContext(graph, top, uniqueNames{})
		ctx.Top = &topCtx
	}

	return ctx
}

func conceptContext(graph *skos.ConceptGraph, term skos.ConceptTerm, names uniqueNames) ConceptContext {
	name := Identifier(term.Label)
	if name == "" {
		name = Identifier(term.Tag())
	}
	if name == "" {
		name = "Concept"
	}

	var ancestors []string
	for _, ancestor := range graph.Ancestors(term.ID) {
		ancestors = append(ancestors, ancestor.URI)
	}

	ctx := ConceptContext{
		ConstName:  names.claim(name),
		Tag:        term.Tag(),
		Aliases:    term.Aliases(),
		Label:      term.Label,
		Comment:    term.Comment,
		ConceptURI: term.URI,
		Referent:   term.Referent,
		UUID:       term.UUID,
		Ancestors:  ancestors,
	}
	if !term.EstablishedOn.IsZero() {
		ctx.EstablishedOn = term.EstablishedOn.Format(time.DateOnly)
	}
	return ctx
}

// Identifiers declared by every generated version package.
var versionIdents = []string{"SchemeID", "SchemeVersionID", "VersionTag", "Terms", "Parse"}

// Identifiers declared by every generated series package.
var seriesIdents = []string{"SchemeID", "Series", "Parse", "Register"}

func reserved(typeName string, idents ...string) uniqueNames {
	names := uniqueNames{typeName: 1}
	for _, ident := range idents {
		names[ident] = 1
	}
	return names
}

// typeName derives the type of a scheme, suffixing it with "Type" while it
// collides with an identifier the generated package declares.
func typeName(schemeName string, idents []string) string {
	name := Identifier(schemeName)
	if name == "" {
		name = "Scheme"
	}
	for slices.Contains(idents, name) {
		name += "Type"
	}
	return name
}
