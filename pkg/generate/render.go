package generate

import (
	"bytes"
	"embed"
	"encoding/xml"
	"fmt"
	"go/format"
	"io/fs"
	"strconv"
	"text/template"
)

//go:embed templates/*.tmpl
var embedded embed.FS

// Template names.
const (
	versionGoTemplate   = "version.go.tmpl"
	seriesGoTemplate    = "series.go.tmpl"
	versionXSDTemplate  = "version.xsd.tmpl"
	seriesXSDTemplate   = "series.xsd.tmpl"
	versionXJBTemplate  = "version.xjb.tmpl"
	seriesXJBTemplate   = "series.xjb.tmpl"
	templateFilePattern = "*.tmpl"
)

var templateFuncs = template.FuncMap{
	"quote": strconv.Quote,
	"xml":   escapeXML,
}

func escapeXML(value string) string {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer do not fail.
	_ = xml.EscapeText(&buf, []byte(value))
	return buf.String()
}

// DefaultTemplates returns the bundled templates.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	root := template.New("kmdp").Funcs(templateFuncs)
	matches, err := fs.Glob(fsys, templateFilePattern)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	if len(matches) == 0 {
		return root, nil
	}
	parsed, err := root.ParseFS(fsys, templateFilePattern)
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return parsed, nil
}

// render executes a named template. A missing template yields an inline
// error text in place of the output, and a warning.
func (g *Generator) render(name string, data any) (string, bool, error) {
	tmpl := g.templates.Lookup(name)
	if tmpl == nil {
		g.logger.Warn("Template not found", "template", name)
		return fmt.Sprintf("template %s not found", name), false, nil
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", false, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), true, nil
}

// renderGo renders a Go template and formats the result.
func (g *Generator) renderGo(name string, data any) ([]byte, error) {
	source, found, err := g.render(name, data)
	if err != nil || !found {
		return []byte(source), err
	}

	formatted, err := format.Source([]byte(source))
	if err != nil {
		return nil, fmt.Errorf("formatting %s output: %w", name, err)
	}
	return formatted, nil
}
