package hierarchy

import "strings"

// Field is a named, typed member of a struct declaration.
type Field struct {
	Name     string
	Type     string
	Sequence bool
	Optional bool
}

// StructDecl is a struct type declaration.
type StructDecl struct {
	Name        string
	Description string
	Fields      []Field
}

// ModuleSorter orders struct declarations so that every struct is declared
// after the structs its fields reference.
type ModuleSorter struct{}

// NewModuleSorter creates a ModuleSorter.
func NewModuleSorter() *ModuleSorter {
	return &ModuleSorter{}
}

// Sort returns the declarations in dependency order. References to types
// outside the set and self references are ignored.
func (m *ModuleSorter) Sort(decls []StructDecl) ([]StructDecl, error) {
	byName := make(map[string]StructDecl, len(decls))
	names := make([]string, 0, len(decls))
	for _, decl := range decls {
		if _, dup := byName[decl.Name]; dup {
			continue
		}
		byName[decl.Name] = decl
		names = append(names, decl.Name)
	}

	deps := make(map[string][]string, len(names))
	for _, name := range names {
		for _, field := range byName[name].Fields {
			ref := BaseType(field.Type)
			if ref == name {
				continue
			}
			if _, known := byName[ref]; known {
				deps[name] = append(deps[name], ref)
			}
		}
	}

	ordered, err := Sort(names, deps)
	if err != nil {
		return nil, err
	}

	sorted := make([]StructDecl, len(ordered))
	for i, name := range ordered {
		sorted[i] = byName[name]
	}
	return sorted, nil
}

// BaseType strips sequence, slice and pointer wrappers from a type expression.
func BaseType(typ string) string {
	typ = strings.TrimSpace(typ)
	for {
		switch {
		case strings.HasPrefix(typ, "sequence<") && strings.HasSuffix(typ, ">"):
			typ = strings.TrimSpace(typ[len("sequence<") : len(typ)-1])
		case strings.HasPrefix(typ, "[]"):
			typ = typ[2:]
		case strings.HasPrefix(typ, "*"):
			typ = typ[1:]
		default:
			return typ
		}
	}
}
