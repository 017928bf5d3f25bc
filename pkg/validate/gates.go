package validate

import (
	"github.com/coolbeans/kmdp/pkg/skos"
)

// SchemeGate checks that the graph declares schemes and that they have members.
type SchemeGate struct{}

func (SchemeGate) Name() string { return "schemes" }

func (SchemeGate) Defaults() map[string]float64 {
	return map[string]float64{"schemes_present": 1, "scheme_population": 0.5}
}

func (SchemeGate) Check(in *Input, sheet *Sheet) {
	schemes := schemesOf(in.Graph)

	present := 0.0
	if len(schemes) > 0 {
		present = 1
	}
	sheet.Measure("schemes_present", present)

	populated := 0
	for _, scheme := range schemes {
		if len(scheme.MemberIDs()) == 0 {
			sheet.Warn("scheme_population", scheme.URI, "scheme %s has no member concepts", scheme.URI)
			continue
		}
		populated++
	}
	sheet.Measure("scheme_population", fraction(populated, len(schemes)))
}

// HierarchyGate checks the broader relation. No concept may be its own
// ancestor and every parent must belong to a scheme of the graph.
type HierarchyGate struct{}

func (HierarchyGate) Name() string { return "hierarchy" }

func (HierarchyGate) Defaults() map[string]float64 {
	return map[string]float64{"acyclicity": 1, "ancestor_resolution": 1}
}

func (HierarchyGate) Check(in *Input, sheet *Sheet) {
	graph := in.Graph
	if graph == nil {
		sheet.Measure("acyclicity", 0)
		sheet.Measure("ancestor_resolution", 0)
		return
	}

	cyclic := 0
	for i := range graph.Len() {
		term, _ := graph.Concept(skos.ConceptID(i))
		if ownAncestor(graph, term) {
			cyclic++
			sheet.Fail("acyclicity", term.URI, "%s is its own ancestor in %s", term.URI, term.SchemeURI)
		}
	}
	sheet.Measure("acyclicity", fraction(graph.Len()-cyclic, graph.Len()))

	edges := graph.Edges()
	resolved := 0
	for _, edge := range edges {
		child, _ := graph.Concept(edge[0])
		parent, ok := graph.Concept(edge[1])
		if ok {
			if _, known := graph.Scheme(parent.SchemeURI); known {
				resolved++
				continue
			}
		}
		sheet.Fail("ancestor_resolution", child.URI, "parent %s of %s is not in a scheme of the graph", parent.URI, child.URI)
	}
	sheet.Measure("ancestor_resolution", fraction(resolved, len(edges)))
}

func ownAncestor(graph *skos.ConceptGraph, term skos.ConceptTerm) bool {
	for _, ancestor := range graph.Ancestors(term.ID) {
		if ancestor.ID == term.ID {
			return true
		}
	}
	return false
}

// TagGate checks that member concepts carry tags and that no two members
// of a scheme share one.
type TagGate struct{}

func (TagGate) Name() string { return "tags" }

func (TagGate) Defaults() map[string]float64 {
	return map[string]float64{"tag_coverage": 1, "tag_uniqueness": 1}
}

func (TagGate) Check(in *Input, sheet *Sheet) {
	var members, tagged, unique int
	for _, scheme := range schemesOf(in.Graph) {
		terms := in.Graph.Members(scheme.URI)
		uses := make(map[string]int, len(terms))
		for _, term := range terms {
			members++
			if tag := term.Tag(); tag != "" {
				tagged++
				uses[tag]++
			}
		}
		for _, term := range terms {
			tag := term.Tag()
			switch {
			case tag == "":
			case uses[tag] == 1:
				unique++
			default:
				sheet.Fail("tag_uniqueness", term.URI, "tag %q of %s is shared in %s", tag, term.URI, scheme.URI)
			}
		}
	}
	sheet.Measure("tag_coverage", fraction(tagged, members))
	sheet.Measure("tag_uniqueness", fraction(unique, tagged))
}

// ClosureGate checks that broader links stay inside the scheme of the
// child. It applies only when the input requires closure.
type ClosureGate struct{}

func (ClosureGate) Name() string { return "closure" }

func (ClosureGate) Defaults() map[string]float64 {
	return map[string]float64{"closure_completeness": 1}
}

func (ClosureGate) Applies(in *Input) (string, bool) {
	if !in.RequireClosure {
		return "closure not required", false
	}
	return "", true
}

func (ClosureGate) Check(in *Input, sheet *Sheet) {
	if in.Graph == nil {
		sheet.Measure("closure_completeness", 1)
		return
	}
	edges := in.Graph.Edges()
	local := 0
	for _, edge := range edges {
		child, _ := in.Graph.Concept(edge[0])
		parent, _ := in.Graph.Concept(edge[1])
		if child.SchemeURI == parent.SchemeURI {
			local++
			continue
		}
		sheet.Fail("closure_completeness", child.URI, "%s in %s has parent %s in %s",
			child.URI, child.SchemeURI, parent.URI, parent.SchemeURI)
	}
	sheet.Measure("closure_completeness", fraction(local, len(edges)))
}

func schemesOf(graph *skos.ConceptGraph) []skos.ConceptScheme {
	if graph == nil {
		return nil
	}
	return graph.Schemes()
}
