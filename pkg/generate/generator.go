package generate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"text/template"

	"github.com/coolbeans/kmdp/pkg/skos"
)

// ErrUnknownScheme is returned when a scheme is not part of the graph.
var ErrUnknownScheme = errors.New("unknown concept scheme")

// Generator renders concept graphs into source, schema and data files.
type Generator struct {
	config     Config
	logger     *slog.Logger
	templateFS fs.FS
	templates  *template.Template

	mu       sync.Mutex
	contexts map[string]*SchemeContext
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemplates replaces the bundled templates. The file system root must
// hold the *.tmpl files.
func WithTemplates(fsys fs.FS) Option {
	return func(g *Generator) {
		g.templateFS = fsys
	}
}

// NewGenerator creates a Generator. A nil logger uses slog.Default().
func NewGenerator(config Config, logger *slog.Logger, options ...Option) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Generator{
		config:     config.withDefaults(),
		logger:     logger,
		templateFS: DefaultTemplates(),
		contexts:   make(map[string]*SchemeContext),
	}
	for _, option := range options {
		option(g)
	}

	templates, err := parseTemplates(g.templateFS)
	if err != nil {
		return nil, err
	}
	g.templates = templates

	return g, nil
}

// SeriesContext is the template context of a series package: every
// version of a scheme, and of the schemes overridden onto it.
type SeriesContext struct {
	SchemeURI     string
	Label         string
	SeriesName    string
	PackageName   string
	PackagePath   string
	TermsProvider string
	API4KPRelease string

	// Versions are ordered oldest first.
	Versions []*SchemeContext

	// Concepts is the union of the concepts of all versions, latest first.
	Concepts []ConceptContext
	Tags     []string
}

// Report summarizes a generation run.
type Report struct {
	Files    []string
	Schemes  int
	Versions int
	Concepts int
}

// Generate renders the graphs into outDir. Graphs are taken as versions in
// chronological order: a scheme found in several graphs yields one series
// with one version package per graph.
func (g *Generator) Generate(graphs []*skos.ConceptGraph, outDir string) (*Report, error) {
	seriesList, err := g.collectSeries(graphs)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var catalog []CatalogEntry

	for _, series := range seriesList {
		report.Schemes++

		for _, version := range series.Versions {
			report.Versions++
			report.Concepts += len(version.Concepts)

			entry, err := g.writeVersion(version, outDir, report)
			if err != nil {
				return nil, err
			}
			catalog = append(catalog, entry)
		}

		entry, err := g.writeSeries(series, outDir, report)
		if err != nil {
			return nil, err
		}
		catalog = append(catalog, entry)
	}

	path, err := NewCatalogGenerator().Generate(catalog, outDir)
	if err != nil {
		return nil, err
	}
	report.Files = append(report.Files, path)

	g.logger.Info("Generated terminology",
		"schemes", report.Schemes,
		"versions", report.Versions,
		"concepts", report.Concepts,
		"files", len(report.Files))

	return report, nil
}

func (g *Generator) collectSeries(graphs []*skos.ConceptGraph) ([]*SeriesContext, error) {
	var order []*SeriesContext
	bySeries := make(map[string]*SeriesContext)

	for _, graph := range graphs {
		for _, schemeURI := range graph.SchemeURIs() {
			ctx, err := g.Context(graph, schemeURI)
			if err != nil {
				return nil, err
			}

			series, ok := bySeries[ctx.SeriesSchemeURI]
			if !ok {
				series = &SeriesContext{
					SchemeURI:     ctx.SeriesSchemeURI,
					Label:         ctx.SeriesName,
					SeriesName:    ctx.SeriesName,
					PackageName:   ctx.PackageName,
					PackagePath:   ctx.PackagePath,
					TermsProvider: ctx.TermsProvider,
					API4KPRelease: ctx.API4KPRelease,
				}
				bySeries[ctx.SeriesSchemeURI] = series
				order = append(order, series)
			}
			if !ctx.Overridden {
				series.Label = ctx.Label
			}

			if existing := series.version(ctx.VersionPackage); existing != nil {
				if existing != ctx {
					g.logger.Warn("Skipping duplicate scheme version",
						"scheme", ctx.SchemeURI,
						"version", ctx.VersionURI,
						"package", ctx.VersionPackagePath)
				}
				continue
			}
			series.Versions = append(series.Versions, ctx)
		}
	}

	for _, series := range order {
		series.collectConcepts()
	}
	return order, nil
}

func (s *SeriesContext) version(pkg string) *SchemeContext {
	for _, version := range s.Versions {
		if version.VersionPackage == pkg {
			return version
		}
	}
	return nil
}

func (s *SeriesContext) collectConcepts() {
	names := reserved(s.SeriesName, seriesIdents...)
	seen := make(map[string]bool)
	tags := make(map[string]bool)

	for i := len(s.Versions) - 1; i >= 0; i-- {
		for _, concept := range s.Versions[i].Concepts {
			if !tags[concept.Tag] {
				tags[concept.Tag] = true
				s.Tags = append(s.Tags, concept.Tag)
			}
			if seen[concept.ConceptURI] {
				continue
			}
			seen[concept.ConceptURI] = true

			name := Identifier(concept.Label)
			if name == "" {
				name = Identifier(concept.Tag)
			}
			if name == "" {
				name = "Concept"
			}
			concept.ConstName = names.claim(name)
			s.Concepts = append(s.Concepts, concept)
		}
	}
}

func (g *Generator) writeVersion(ctx *SchemeContext, outDir string, report *Report) (CatalogEntry, error) {
	dir := filepath.Join(outDir, filepath.FromSlash(ctx.VersionPackagePath))

	source, err := g.renderGo(versionGoTemplate, ctx)
	if err != nil {
		return CatalogEntry{}, fmt.Errorf("scheme %s: %w", ctx.VersionURI, err)
	}
	if err := g.write(report, filepath.Join(dir, PackageIdent(ctx.TypeName)+".go"), source); err != nil {
		return CatalogEntry{}, err
	}

	xsdPath := filepath.Join(dir, ctx.TypeName+".xsd")
	if err := g.writeTemplate(report, xsdPath, versionXSDTemplate, ctx); err != nil {
		return CatalogEntry{}, err
	}

	if g.config.WithJAXB {
		if err := g.writeTemplate(report, filepath.Join(dir, ctx.TypeName+".xjb"), versionXJBTemplate, ctx); err != nil {
			return CatalogEntry{}, err
		}
	}

	if g.config.WithJSON {
		data, err := json.MarshalIndent(ctx.Terms(), "", "  ")
		if err != nil {
			return CatalogEntry{}, fmt.Errorf("encoding terms of %s: %w", ctx.VersionURI, err)
		}
		if err := g.write(report, filepath.Join(dir, ctx.TypeName+".terms.json"), append(data, '\n')); err != nil {
			return CatalogEntry{}, err
		}
	}

	if g.config.WithJSONLD {
		data, err := json.MarshalIndent(jsonLDContext(ctx), "", "  ")
		if err != nil {
			return CatalogEntry{}, fmt.Errorf("encoding context of %s: %w", ctx.VersionURI, err)
		}
		if err := g.write(report, filepath.Join(dir, ctx.TypeName+".context.jsonld"), append(data, '\n')); err != nil {
			return CatalogEntry{}, err
		}
	}

	return catalogEntry(outDir, ctx.VersionURI, xsdPath)
}

func (g *Generator) writeSeries(series *SeriesContext, outDir string, report *Report) (CatalogEntry, error) {
	dir := filepath.Join(outDir, filepath.FromSlash(series.PackagePath))

	source, err := g.renderGo(seriesGoTemplate, series)
	if err != nil {
		return CatalogEntry{}, fmt.Errorf("series %s: %w", series.SchemeURI, err)
	}
	if err := g.write(report, filepath.Join(dir, PackageIdent(series.SeriesName)+"_series.go"), source); err != nil {
		return CatalogEntry{}, err
	}

	xsdPath := filepath.Join(dir, series.SeriesName+".series.xsd")
	if err := g.writeTemplate(report, xsdPath, seriesXSDTemplate, series); err != nil {
		return CatalogEntry{}, err
	}

	if g.config.WithJAXB {
		if err := g.writeTemplate(report, filepath.Join(dir, series.SeriesName+".series.xjb"), seriesXJBTemplate, series); err != nil {
			return CatalogEntry{}, err
		}
	}

	return catalogEntry(outDir, series.SchemeURI, xsdPath)
}

func (g *Generator) writeTemplate(report *Report, path, name string, data any) error {
	output, _, err := g.render(name, data)
	if err != nil {
		return err
	}
	return g.write(report, path, []byte(output))
}

func (g *Generator) write(report *Report, path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	g.logger.Debug("Wrote file", "path", path, "bytes", len(data))
	report.Files = append(report.Files, path)
	return nil
}

func catalogEntry(outDir, namespace, schemaPath string) (CatalogEntry, error) {
	rel, err := filepath.Rel(outDir, schemaPath)
	if err != nil {
		return CatalogEntry{}, fmt.Errorf("locating %s: %w", schemaPath, err)
	}
	return CatalogEntry{Namespace: namespace, Location: rel}, nil
}

// jsonLDContext maps every tag and alias of a version to its concept.
func jsonLDContext(ctx *SchemeContext) map[string]any {
	context := map[string]any{
		ctx.TypeName: map[string]string{"@id": ctx.VersionURI},
	}
	for _, concept := range ctx.Concepts {
		context[concept.Tag] = map[string]string{"@id": concept.ConceptURI}
		for _, alias := range concept.Aliases {
			if _, taken := context[alias]; !taken {
				context[alias] = map[string]string{"@id": concept.ConceptURI}
			}
		}
	}
	return map[string]any{"@context": context}
}
