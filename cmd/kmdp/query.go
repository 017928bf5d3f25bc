package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coolbeans/kmdp/pkg/ontology"
	"github.com/coolbeans/kmdp/pkg/query"
	"github.com/coolbeans/kmdp/pkg/registry"
	"github.com/coolbeans/kmdp/pkg/store"
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [SPARQL] [ontology files or globs...]",
		Short: "Run a SPARQL SELECT query over concept graphs",
		Long: `Evaluate a SPARQL SELECT query.

By default the query runs over the SKOS triples of the abstracted concept
graph. With --raw it runs over the merged ontology triples instead.

The rdf, rdfs, owl, xsd, skos, dct and api4kp prefixes are predeclared,
along with every prefix of the registry.

Examples:
  kmdp query 'SELECT ?c ?tag WHERE { ?c skos:notation ?tag }' ontologies/*.rdf
  kmdp query -q counts.rq --library colors --format csv
  kmdp query --raw 'SELECT ?o WHERE { ?o a owl:Ontology }' ontologies`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, append(sourceBindings,
				binding{"server.query_timeout", "timeout"})...)
			if err != nil {
				return err
			}

			queryFile, _ := cmd.Flags().GetString("query-file")
			raw, _ := cmd.Flags().GetBool("raw")
			format, _ := cmd.Flags().GetString("format")

			var text string
			if queryFile != "" {
				data, err := os.ReadFile(queryFile)
				if err != nil {
					return fmt.Errorf("reading query: %w", err)
				}
				text = string(data)
			} else {
				if len(args) == 0 {
					return errors.New("no query given")
				}
				text, args = args[0], args[1:]
			}

			var triples *store.TripleStore
			if raw {
				ontologies, err := loadOntologies(cmd, args, cfg, logger)
				if err != nil {
					return err
				}
				if len(ontologies) == 0 {
					return errors.New("no ontologies to query")
				}
				triples = ontology.Merge(ontologies[0], ontologies[1:]...).Store()
			} else {
				graph, err := servedGraph(cmd, args, cfg, logger)
				if err != nil {
					return err
				}
				triples = graph.Triples()
			}

			reg, err := registry.Load()
			if err != nil {
				return fmt.Errorf("loading registry: %w", err)
			}

			executor := query.NewExecutor(triples,
				query.WithTimeout(cfg.Server.QueryTimeout),
				query.WithPrefixes(reg.Prefixes()))
			result, err := executor.ExecuteString(context.Background(), text)
			if err != nil {
				return err
			}
			logger.Debug("Query evaluated", "rows", result.Count, "duration", result.Duration)

			return result.Write(os.Stdout, query.OutputFormat(format))
		},
	}

	addSourceFlags(cmd)
	cmd.Flags().StringP("query-file", "q", "", "Read the query from a file")
	cmd.Flags().Bool("raw", false, "Query the ontology triples instead of the concept graph")
	cmd.Flags().StringP("format", "f", "table", "Output format: table, json, csv")
	cmd.Flags().Duration("timeout", 0, "Maximum evaluation time")
	return cmd
}
