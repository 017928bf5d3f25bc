package store

import (
	"strings"
	"testing"
)

func TestExportGraph(t *testing.T) {
	store := newColorStore(t)

	export := ExportGraph(store)

	if export.Stats.TotalNodes != 4 {
		t.Errorf("Expected 4 nodes, got %d", export.Stats.TotalNodes)
	}
	if export.Stats.EdgesByType[SKOSBroader] != 1 {
		t.Errorf("Expected 1 broader edge, got %d", export.Stats.EdgesByType[SKOSBroader])
	}
	if export.Stats.NodesByType["Concept"] != 3 || export.Stats.NodesByType["ConceptScheme"] != 1 {
		t.Errorf("Unexpected node types: %v", export.Stats.NodesByType)
	}
	if export.Nodes[0].ID != exScheme {
		t.Errorf("Expected the scheme first, got %s", export.Nodes[0].ID)
	}

	for _, node := range export.Nodes {
		if node.ID == exWarm {
			if node.Label != "warm" {
				t.Errorf("Expected prefLabel as node label, got %s", node.Label)
			}
			if node.Scheme != exScheme {
				t.Errorf("Expected warm in the Colors scheme, got %q", node.Scheme)
			}
		}
	}
}

func TestGraphExport_ToDOT(t *testing.T) {
	dot := ExportGraph(newColorStore(t)).ToDOT()

	for _, expected := range []string{
		"digraph ConceptGraph {",
		"subgraph cluster_0 {",
		`label="Colors";`,
		`"` + exWarm + `" [label="warm" fillcolor=lightblue];`,
		`"` + exRed + `" -> "` + exWarm + `" [label="broader" color=blue];`,
	} {
		if !strings.Contains(dot, expected) {
			t.Errorf("Expected DOT output to contain %q\n%s", expected, dot)
		}
	}
	if strings.Contains(dot, `[label="inScheme"`) {
		t.Errorf("Membership should be drawn as clusters, not edges:\n%s", dot)
	}
}

func TestSummarize(t *testing.T) {
	store := newColorStore(t)
	_ = store.Add(exBlue, SKOSBroader, exRed)

	summary := Summarize(store)

	if summary.Schemes != 1 || summary.Concepts != 3 {
		t.Errorf("Unexpected counts: %+v", summary)
	}
	if summary.BroaderLinks != 2 {
		t.Errorf("Expected 2 broader links, got %d", summary.BroaderLinks)
	}
	if summary.MaxDepth != 2 {
		t.Errorf("Expected blue -> red -> warm to have depth 2, got %d", summary.MaxDepth)
	}
	if summary.ConceptsByScheme["Colors"] != 3 {
		t.Errorf("Expected 3 concepts in Colors, got %v", summary.ConceptsByScheme)
	}
	if len(summary.WidestParents) != 2 || summary.WidestParents[0].Children != 1 {
		t.Errorf("Unexpected widest parents: %+v", summary.WidestParents)
	}
}

func TestSummarize_Cycle(t *testing.T) {
	store := NewTripleStore()
	_ = store.Add(exRed, SKOSBroader, exWarm)
	_ = store.Add(exWarm, SKOSBroader, exRed)

	if summary := Summarize(store); summary.BroaderLinks != 2 {
		t.Errorf("Expected 2 broader links, got %d", summary.BroaderLinks)
	}
}
