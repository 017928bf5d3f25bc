package idl

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/coolbeans/kmdp/pkg/hierarchy"
)

// Translator renders API schemas as an IDL module.
type Translator struct {
	sorter *hierarchy.ModuleSorter
	logger *slog.Logger
}

// NewTranslator creates a Translator.
func NewTranslator(logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{sorter: hierarchy.NewModuleSorter(), logger: logger}
}

type enumDecl struct {
	name    string
	members []string
}

// Translate emits an IDL module. Enumerations come first, then structs in an
// order where every struct follows the structs its members reference.
func (t *Translator) Translate(doc *Document, module string) (string, error) {
	schemas := doc.Schemas()
	if len(schemas) == 0 {
		return "", ErrNoDefinitions
	}
	if module == "" {
		module = doc.Info.Title
	}

	var enums []enumDecl
	var structs []hierarchy.StructDecl

	for _, named := range schemas {
		name := Identifier(named.Name)
		schema := named.Schema
		switch {
		case len(schema.Enum) > 0:
			members := make([]string, len(schema.Enum))
			for i, value := range schema.Enum {
				members[i] = Identifier(value)
			}
			enums = append(enums, enumDecl{name: name, members: members})
		case isObject(schema):
			fields, err := t.fields(schemas, schema, map[string]bool{named.Name: true})
			if err != nil {
				return "", fmt.Errorf("definition %s: %w", named.Name, err)
			}
			structs = append(structs, hierarchy.StructDecl{
				Name:        name,
				Description: schema.Description,
				Fields:      fields,
			})
		default:
			t.logger.Debug("Skipping non-object definition", "name", named.Name, "type", schema.Type)
		}
	}

	sorted, err := t.sorter.Sort(structs)
	if err != nil {
		return "", fmt.Errorf("ordering definitions: %w", err)
	}

	t.logger.Debug("Translated definitions to IDL",
		"module", module,
		"structs", len(sorted),
		"enums", len(enums))

	return render(Identifier(module), enums, sorted), nil
}

func isObject(schema *Schema) bool {
	return schema.Type == "object" || len(schema.Properties) > 0 || len(schema.AllOf) > 0
}

// fields flattens properties, including those inherited through allOf.
// visiting guards against allOf cycles.
func (t *Translator) fields(schemas Schemas, schema *Schema, visiting map[string]bool) ([]hierarchy.Field, error) {
	var fields []hierarchy.Field

	for _, part := range schema.AllOf {
		target := part
		if part.Ref != "" {
			name := refName(part.Ref)
			if visiting[name] {
				return nil, fmt.Errorf("allOf cycle through %s", name)
			}
			resolved, ok := schemas.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("unresolved reference %s", part.Ref)
			}
			visiting[name] = true
			inherited, err := t.fields(schemas, resolved, visiting)
			delete(visiting, name)
			if err != nil {
				return nil, err
			}
			fields = append(fields, inherited...)
			continue
		}
		inherited, err := t.fields(schemas, target, visiting)
		if err != nil {
			return nil, err
		}
		fields = append(fields, inherited...)
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	for _, prop := range schema.Properties {
		typ, sequence := idlType(prop.Schema)
		fields = append(fields, hierarchy.Field{
			Name:     Identifier(prop.Name),
			Type:     typ,
			Sequence: sequence,
			Optional: !required[prop.Name],
		})
	}
	return fields, nil
}

// idlType maps a property schema to an IDL type expression.
func idlType(schema *Schema) (string, bool) {
	if schema.Ref != "" {
		return Identifier(refName(schema.Ref)), false
	}
	switch schema.Type {
	case "array":
		if schema.Items == nil {
			return "sequence<any>", true
		}
		inner, _ := idlType(schema.Items)
		return "sequence<" + inner + ">", true
	case "integer":
		if schema.Format == "int64" {
			return "long long", false
		}
		return "long", false
	case "number":
		if schema.Format == "float" {
			return "float", false
		}
		return "double", false
	case "boolean":
		return "boolean", false
	case "string":
		if schema.Format == "byte" || schema.Format == "binary" {
			return "sequence<octet>", true
		}
		return "string", false
	default:
		return "any", false
	}
}

func refName(ref string) string {
	return ref[strings.LastIndex(ref, "/")+1:]
}

var nonIdentifier = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// Identifier makes an IDL identifier: runs of other characters become an
// underscore and a leading digit is prefixed.
func Identifier(name string) string {
	ident := strings.Trim(nonIdentifier.ReplaceAllString(name, "_"), "_")
	if ident == "" {
		return "_"
	}
	if ident[0] >= '0' && ident[0] <= '9' {
		ident = "_" + ident
	}
	return ident
}

func render(module string, enums []enumDecl, structs []hierarchy.StructDecl) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s {\n", module)

	for _, e := range enums {
		fmt.Fprintf(&b, "\n  enum %s { %s };\n", e.name, strings.Join(e.members, ", "))
	}

	for _, s := range structs {
		b.WriteString("\n")
		if s.Description != "" {
			for _, line := range strings.Split(strings.TrimSpace(s.Description), "\n") {
				fmt.Fprintf(&b, "  // %s\n", strings.TrimSpace(line))
			}
		}
		fmt.Fprintf(&b, "  struct %s {\n", s.Name)
		for _, f := range s.Fields {
			annotation := ""
			if f.Optional {
				annotation = "@optional "
			}
			fmt.Fprintf(&b, "    %s%s %s;\n", annotation, f.Type, f.Name)
		}
		b.WriteString("  };\n")
	}

	b.WriteString("};\n")
	return b.String()
}
