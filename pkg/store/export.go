package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// GraphNode is a scheme, concept or ontology in a visual export.
type GraphNode struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	Type     string            `json:"type"`
	Scheme   string            `json:"scheme,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// GraphEdge is a hierarchy or membership link between two nodes.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	Type   string `json:"type"`
}

// GraphExport is the node-link form of a concept graph.
type GraphExport struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
	Stats GraphStats  `json:"stats"`
}

// GraphStats counts the nodes and edges of an export.
type GraphStats struct {
	TotalNodes  int            `json:"total_nodes"`
	TotalEdges  int            `json:"total_edges"`
	NodesByType map[string]int `json:"nodes_by_type"`
	EdgesByType map[string]int `json:"edges_by_type"`
}

var edgePredicates = map[string]string{
	SKOSBroader:       "blue",
	SKOSNarrower:      "blue",
	SKOSInScheme:      "gray",
	SKOSTopConceptOf:  "darkgreen",
	SKOSHasTopConcept: "darkgreen",
	RDFSSubClassOf:    "purple",
	OWLImports:        "red",
}

var nodeTypes = []string{SKOSConceptScheme, SKOSConcept, OWLOntology}

// ExportGraph exports the schemes, concepts and ontologies of a store with
// the hierarchy links between them. Nodes appear in insertion order.
func ExportGraph(ts *TripleStore) *GraphExport {
	export := &GraphExport{
		Nodes: []GraphNode{},
		Edges: []GraphEdge{},
		Stats: GraphStats{NodesByType: map[string]int{}, EdgesByType: map[string]int{}},
	}

	seen := make(map[string]bool)
	addNode := func(iri string) {
		if seen[iri] {
			return
		}
		seen[iri] = true
		node := describeNode(ts, iri)
		export.Nodes = append(export.Nodes, node)
		export.Stats.NodesByType[node.Type]++
	}

	for _, t := range ts.All() {
		if IsLiteral(t.Object) {
			continue
		}
		if t.Predicate == RDFType {
			for _, nt := range nodeTypes {
				if t.Object == nt {
					addNode(t.Subject)
				}
			}
			continue
		}
		if _, ok := edgePredicates[t.Predicate]; !ok {
			continue
		}
		addNode(t.Subject)
		addNode(t.Object)
		export.Edges = append(export.Edges, GraphEdge{
			Source: t.Subject,
			Target: t.Object,
			Label:  localName(t.Predicate),
			Type:   t.Predicate,
		})
		export.Stats.EdgesByType[t.Predicate]++
	}

	export.Stats.TotalNodes = len(export.Nodes)
	export.Stats.TotalEdges = len(export.Edges)
	return export
}

func describeNode(ts *TripleStore, iri string) GraphNode {
	node := GraphNode{ID: iri, Label: localName(iri), Type: "Node", Metadata: map[string]string{}}

	for _, p := range []string{SKOSPrefLabel, RDFSLabel, SKOSNotation} {
		if v := ts.GetOne(iri, p); v != "" {
			node.Label = LiteralValue(v)
			break
		}
	}

	types := ts.Values(iri, RDFType)
	for i := len(nodeTypes) - 1; i >= 0; i-- {
		for _, t := range types {
			if t == nodeTypes[i] {
				node.Type = localName(t)
			}
		}
	}
	if node.Type == "Node" && len(types) > 0 {
		node.Type = localName(types[0])
	}

	if scheme := ts.GetOne(iri, SKOSInScheme); scheme != "" {
		node.Scheme = scheme
	} else if scheme := ts.GetOne(iri, SKOSTopConceptOf); scheme != "" {
		node.Scheme = scheme
	}

	for p, objects := range ts.Get(iri) {
		if len(objects) > 0 && IsLiteral(objects[0]) {
			node.Metadata[localName(p)] = LiteralValue(objects[0])
		}
	}
	return node
}

// localName returns the part of an IRI after its last '#', '/' or ':'.
func localName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/:"); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	return iri
}

// ToJSON serializes the export.
func (g *GraphExport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// ToDOT renders the export for Graphviz. Concepts are drawn inside a
// cluster for their scheme.
func (g *GraphExport) ToDOT() string {
	var sb strings.Builder
	sb.WriteString("digraph ConceptGraph {\n")
	sb.WriteString("  rankdir=BT;\n")
	sb.WriteString("  node [shape=box style=filled];\n")

	clusters := make(map[string][]GraphNode)
	var loose []GraphNode
	labels := make(map[string]string)
	for _, n := range g.Nodes {
		labels[n.ID] = n.Label
		switch {
		case n.Scheme != "":
			clusters[n.Scheme] = append(clusters[n.Scheme], n)
		case n.Type == "ConceptScheme":
			if _, ok := clusters[n.ID]; !ok {
				clusters[n.ID] = nil
			}
		default:
			loose = append(loose, n)
		}
	}

	schemes := make([]string, 0, len(clusters))
	for s := range clusters {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)

	for i, scheme := range schemes {
		fmt.Fprintf(&sb, "\n  subgraph cluster_%d {\n", i)
		label := labels[scheme]
		if label == "" {
			label = localName(scheme)
		}
		fmt.Fprintf(&sb, "    label=%s;\n", dotQuote(label))
		fmt.Fprintf(&sb, "    %s [label=%s fillcolor=gold];\n", dotQuote(scheme), dotQuote(label))
		for _, n := range clusters[scheme] {
			fmt.Fprintf(&sb, "    %s\n", dotNode(n))
		}
		sb.WriteString("  }\n")
	}
	if len(loose) > 0 {
		sb.WriteString("\n")
	}
	for _, n := range loose {
		fmt.Fprintf(&sb, "  %s\n", dotNode(n))
	}

	sb.WriteString("\n")
	for _, e := range g.Edges {
		if e.Type == SKOSInScheme {
			continue
		}
		fmt.Fprintf(&sb, "  %s -> %s [label=%s color=%s];\n",
			dotQuote(e.Source), dotQuote(e.Target), dotQuote(e.Label), edgePredicates[e.Type])
	}
	sb.WriteString("}\n")
	return sb.String()
}

func dotNode(n GraphNode) string {
	color := map[string]string{"ConceptScheme": "gold", "Concept": "lightblue", "Ontology": "lightgray"}[n.Type]
	if color == "" {
		color = "white"
	}
	label := n.Label
	if len(label) > 30 {
		label = label[:30] + "..."
	}
	return fmt.Sprintf("%s [label=%s fillcolor=%s];", dotQuote(n.ID), dotQuote(label), color)
}

func dotQuote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

// HierarchySummary counts the concept hierarchy held in a store.
type HierarchySummary struct {
	Schemes          int            `json:"schemes"`
	Concepts         int            `json:"concepts"`
	TopConcepts      int            `json:"top_concepts"`
	BroaderLinks     int            `json:"broader_links"`
	MaxDepth         int            `json:"max_depth"`
	ConceptsByScheme map[string]int `json:"concepts_by_scheme"`
	WidestParents    []ParentCount  `json:"widest_parents"`
}

// ParentCount is the number of direct children of a concept.
type ParentCount struct {
	Concept  string `json:"concept"`
	Children int    `json:"children"`
}

// Summarize counts schemes, concepts and broader links, and measures the
// longest broader chain. Cycles are cut where they are found.
func Summarize(ts *TripleStore) *HierarchySummary {
	summary := &HierarchySummary{
		Schemes:          len(ts.SubjectsWith(RDFType, SKOSConceptScheme)),
		Concepts:         len(ts.SubjectsWith(RDFType, SKOSConcept)),
		TopConcepts:      len(ts.Find("", SKOSTopConceptOf, "")),
		ConceptsByScheme: make(map[string]int),
	}

	parents := make(map[string][]string)
	children := make(map[string]int)
	for _, t := range ts.Find("", SKOSBroader, "") {
		summary.BroaderLinks++
		parents[t.Subject] = append(parents[t.Subject], t.Object)
		children[t.Object]++
	}
	for _, t := range ts.Find("", SKOSInScheme, "") {
		summary.ConceptsByScheme[localName(t.Object)]++
	}

	depth := make(map[string]int)
	var walk func(c string, visiting map[string]bool) int
	walk = func(c string, visiting map[string]bool) int {
		if d, ok := depth[c]; ok {
			return d
		}
		if visiting[c] {
			return 0
		}
		visiting[c] = true
		d := 0
		for _, p := range parents[c] {
			d = max(d, walk(p, visiting)+1)
		}
		delete(visiting, c)
		depth[c] = d
		return d
	}
	for c := range parents {
		summary.MaxDepth = max(summary.MaxDepth, walk(c, map[string]bool{}))
	}

	for concept, n := range children {
		summary.WidestParents = append(summary.WidestParents, ParentCount{Concept: concept, Children: n})
	}
	sort.Slice(summary.WidestParents, func(i, j int) bool {
		a, b := summary.WidestParents[i], summary.WidestParents[j]
		if a.Children != b.Children {
			return a.Children > b.Children
		}
		return a.Concept < b.Concept
	})
	if len(summary.WidestParents) > 10 {
		summary.WidestParents = summary.WidestParents[:10]
	}
	return summary
}
