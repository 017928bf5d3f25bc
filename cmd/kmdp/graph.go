package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coolbeans/kmdp/pkg/skos"
	"github.com/coolbeans/kmdp/pkg/store"
)

type conceptSummary struct {
	URI     string   `json:"uri"`
	Tags    []string `json:"tags"`
	Label   string   `json:"label,omitempty"`
	Top     bool     `json:"top,omitempty"`
	Broader []string `json:"broader,omitempty"`
}

type schemeSummary struct {
	URI        string           `json:"uri"`
	VersionURI string           `json:"version_uri"`
	VersionTag string           `json:"version_tag,omitempty"`
	Name       string           `json:"name"`
	Concepts   []conceptSummary `json:"concepts"`
}

func summarize(graph *skos.ConceptGraph) []schemeSummary {
	var out []schemeSummary
	for _, scheme := range graph.Schemes() {
		summary := schemeSummary{
			URI:        scheme.URI,
			VersionURI: scheme.VersionURI,
			VersionTag: scheme.VersionTag,
			Name:       scheme.Name,
		}
		var terms []skos.ConceptTerm
		if top, ok := graph.Top(scheme.URI); ok {
			terms = append(terms, top)
		}
		for _, term := range append(terms, graph.Members(scheme.URI)...) {
			concept := conceptSummary{URI: term.URI, Tags: term.Tags, Label: term.Label, Top: term.Top}
			for _, parent := range graph.Parents(term.ID) {
				concept.Broader = append(concept.Broader, parent.URI)
			}
			summary.Concepts = append(summary.Concepts, concept)
		}
		out = append(out, summary)
	}
	return out
}

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [ontology files or globs...]",
		Short: "Show the concept graph abstracted from ontologies",
		Long: `Abstract SKOS concept schemes from ontologies and print them.

Formats: text (default), json, or an RDF syntax of the SKOS rendering:
turtle, ntriples, rdfxml, jsonld.

Examples:
  kmdp graph ontologies/colors.rdf
  kmdp graph ontologies/colors.rdf --closure INCLUDES --format turtle
  kmdp graph --library colors --format json
  kmdp graph ontologies --format dot | dot -Tsvg > graph.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, sourceBindings...)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")

			graphs, err := loadGraphs(cmd, args, cfg, logger)
			if err != nil {
				return err
			}

			for i, graph := range graphs {
				if i > 0 && format == "text" {
					fmt.Println()
				}
				if err := printGraph(graph, format); err != nil {
					return err
				}
			}
			return nil
		},
	}

	addSourceFlags(cmd)
	cmd.Flags().StringP("format", "f", "text", "Output format: text, json, dot, turtle, ntriples, rdfxml, jsonld")
	return cmd
}

func printGraph(graph *skos.ConceptGraph, format string) error {
	switch strings.ToLower(format) {
	case "text":
		for _, scheme := range summarize(graph) {
			fmt.Printf("Scheme %s (%s)\n", scheme.Name, scheme.URI)
			if scheme.VersionTag != "" {
				fmt.Printf("  Version: %s\n", scheme.VersionTag)
			}
			fmt.Printf("  Concepts: %d\n", len(scheme.Concepts))
			for _, concept := range scheme.Concepts {
				marker := " "
				if concept.Top {
					marker = "*"
				}
				fmt.Printf("  %s %-24s %s\n", marker, strings.Join(concept.Tags, ","), concept.URI)
				for _, parent := range concept.Broader {
					fmt.Printf("      broader %s\n", parent)
				}
			}
		}
		return nil
	case "json":
		return printJSON(summarize(graph))
	case "dot":
		fmt.Print(store.ExportGraph(graph.Triples()).ToDOT())
		return nil
	default:
		syntax, err := store.ParseSyntax(format)
		if err != nil {
			return fmt.Errorf("unknown format %q", format)
		}
		encoder, err := store.NewEncoder(syntax)
		if err != nil {
			return err
		}
		return encoder.Encode(os.Stdout, graph.Triples())
	}
}
