package skos

import (
	"fmt"

	"github.com/coolbeans/kmdp/pkg/hierarchy"
)

// ApplyClosure makes every scheme self-contained. In IMPORTS mode the graph
// is returned unchanged. Otherwise a new graph is built where each scheme
// also holds copies of the concepts of the schemes its members descend from,
// with broader links pointing at the local copies. The input graph is never
// modified.
func (a *Abstractor) ApplyClosure(g *ConceptGraph) (*ConceptGraph, error) {
	if a.config.ClosureMode == ClosureImports {
		return g, nil
	}

	deps := SchemeDependencies(g)
	order, err := hierarchy.Sort(g.SchemeURIs(), deps)
	if err != nil {
		return nil, fmt.Errorf("ordering concept schemes: %w", err)
	}

	c := &closure{source: g, builder: newGraphBuilder(), deps: deps}
	for _, schemeURI := range order {
		if _, ok := g.byScheme[schemeURI]; !ok {
			continue
		}
		c.cloneScheme(schemeURI)
	}

	closed := c.builder.build()
	a.logger.Debug("Applied scheme closure",
		"mode", string(a.config.ClosureMode),
		"schemes", len(closed.schemes),
		"concepts", closed.Len(),
		"copied", closed.Len()-g.Len())

	return closed, nil
}

// SchemeDependencies maps each scheme URI to the other schemes that own
// ancestors of its members, in first-seen order.
func SchemeDependencies(g *ConceptGraph) map[string][]string {
	deps := make(map[string][]string)
	for _, scheme := range g.schemes {
		seen := map[string]bool{scheme.URI: true}
		for _, member := range scheme.members {
			for _, ancestor := range g.Ancestors(member) {
				if seen[ancestor.SchemeURI] {
					continue
				}
				seen[ancestor.SchemeURI] = true
				deps[scheme.URI] = append(deps[scheme.URI], ancestor.SchemeURI)
			}
		}
	}
	return deps
}

type closure struct {
	source  *ConceptGraph
	builder *graphBuilder
	deps    map[string][]string
}

// origin records where a cloned term was copied from.
type origin struct {
	local  ConceptID
	graph  *ConceptGraph
	source ConceptID
}

func (c *closure) cloneScheme(schemeURI string) {
	scheme := c.source.schemes[c.source.byScheme[schemeURI]]
	c.builder.addScheme(*scheme)

	var origins []origin
	for _, member := range scheme.members {
		term := c.source.concepts[member]
		origins = append(origins, origin{
			local:  c.builder.addMember(copyTerm(term, schemeURI)),
			graph:  c.source,
			source: member,
		})
	}
	if scheme.hasTop {
		c.builder.setTop(copyTerm(c.source.concepts[scheme.top], schemeURI))
	}

	// Dependencies were cloned earlier, so their copies already carry the
	// concepts of their own dependencies.
	cloned := c.builder.graph
	for _, dep := range c.deps[schemeURI] {
		depIndex, ok := cloned.byScheme[dep]
		if !ok {
			continue
		}
		for _, member := range cloned.schemes[depIndex].members {
			term := cloned.concepts[member]
			if _, exists := cloned.Find(schemeURI, term.URI); exists {
				continue
			}
			origins = append(origins, origin{
				local:  c.builder.addMember(copyTerm(term, schemeURI)),
				graph:  cloned,
				source: member,
			})
		}
	}

	for _, o := range origins {
		for _, parent := range o.graph.Parents(o.source) {
			if local, ok := cloned.Find(schemeURI, parent.URI); ok {
				c.builder.addParent(o.local, local.ID)
			} else if remote, ok := cloned.Find(parent.SchemeURI, parent.URI); ok {
				c.builder.addParent(o.local, remote.ID)
			}
		}
	}
}

func copyTerm(term ConceptTerm, schemeURI string) ConceptTerm {
	term.SchemeURI = schemeURI
	term.Tags = append([]string(nil), term.Tags...)
	return term
}
