package main

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/coolbeans/kmdp/pkg/config"
	"github.com/coolbeans/kmdp/pkg/library"
	"github.com/coolbeans/kmdp/pkg/ontology"
	"github.com/coolbeans/kmdp/pkg/skos"
)

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("library", "", "Read every version of this library ontology instead of files")
	cmd.Flags().String("library-path", "", "Library directory (default from configuration)")
	cmd.Flags().String("closure", "", "Closure mode: IMPORTS or INCLUDES")
	cmd.Flags().Bool("enforce-closure", false, "Infer the scheme of concepts that declare none")
}

var sourceBindings = []binding{
	{"library.path", "library-path"},
	{"abstraction.closure_mode", "closure"},
	{"abstraction.enforce_closure", "enforce-closure"},
}

// loadOntologies reads the ontologies named by the arguments, or the series
// of a library ontology, in chronological order.
func loadOntologies(cmd *cobra.Command, args []string, cfg *config.Config, logger *slog.Logger) ([]*ontology.Ontology, error) {
	name, _ := cmd.Flags().GetString("library")
	if name != "" {
		lib, err := library.Open(cfg.Library.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("library not found at %s (run 'kmdp library init' first): %w", cfg.Library.Path, err)
		}
		return lib.LoadSeries(name)
	}

	if len(args) == 0 {
		return nil, errors.New("no ontology files given (pass paths or globs, or --library)")
	}

	loader := ontology.NewLoader(logger)
	ontologies, err := loader.LoadAll(args)
	if err != nil {
		return nil, err
	}
	return chronological(roots(loader.ResolveImports(ontologies))), nil
}

// roots drops ontologies imported by another loaded ontology; their content
// is already merged into the importer.
func roots(ontologies []*ontology.Ontology) []*ontology.Ontology {
	imported := make(map[string]bool)
	for _, ont := range ontologies {
		for _, iri := range ont.Imports {
			if iri != ont.IRI {
				imported[iri] = true
			}
		}
	}

	var out []*ontology.Ontology
	for _, ont := range ontologies {
		if ont.IRI != "" && imported[ont.IRI] {
			continue
		}
		out = append(out, ont)
	}
	return out
}

// chronological orders dated ontologies by date, followed by the undated
// ones. Ties keep their input order.
func chronological(ontologies []*ontology.Ontology) []*ontology.Ontology {
	slices.SortStableFunc(ontologies, func(x, y *ontology.Ontology) int {
		a, okA := x.Date()
		b, okB := y.Date()
		switch {
		case okA && okB:
			return a.Compare(b)
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
	return ontologies
}

// abstractAll turns each ontology into a closed concept graph.
func abstractAll(ontologies []*ontology.Ontology, cfg *config.Config, logger *slog.Logger) ([]*skos.ConceptGraph, error) {
	abstractor := skos.NewAbstractor(cfg.SKOS(), logger)
	graphs := make([]*skos.ConceptGraph, 0, len(ontologies))
	for _, ont := range ontologies {
		graph, err := abstractor.Abstract(ont)
		if err != nil {
			return nil, fmt.Errorf("abstracting %s: %w", ont.Source, err)
		}
		graphs = append(graphs, graph)
	}
	return graphs, nil
}

// loadGraphs combines loadOntologies and abstractAll.
func loadGraphs(cmd *cobra.Command, args []string, cfg *config.Config, logger *slog.Logger) ([]*skos.ConceptGraph, error) {
	ontologies, err := loadOntologies(cmd, args, cfg, logger)
	if err != nil {
		return nil, err
	}
	return abstractAll(ontologies, cfg, logger)
}
