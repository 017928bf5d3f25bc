package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coolbeans/kmdp/pkg/api"
	"github.com/coolbeans/kmdp/pkg/config"
	"github.com/coolbeans/kmdp/pkg/ontology"
	"github.com/coolbeans/kmdp/pkg/registry"
	"github.com/coolbeans/kmdp/pkg/skos"
	"github.com/coolbeans/kmdp/pkg/watch"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [ontology files or globs...]",
		Short: "Serve concept schemes and identifiers over HTTP",
		Long: `Start a read-only terminology server.

Ontology files are merged into one concept graph. With --library the
latest version of a library ontology is served. With --watch the graph is
rebuilt when the files change.

Endpoints:
  GET /health
  GET /schemes
  GET /schemes/{scheme}
  GET /schemes/{scheme}/concepts
  GET /schemes/{scheme}/concepts/{tag}
  GET /ids?ns=&tag=&version=
  GET /registry/{languages,formats,lexicons}
  GET|POST /sparql?query=

Representations are negotiated from the Accept header or ?format=
(json, jsonld, ttl, rdfxml, nt).

Examples:
  kmdp serve ontologies/*.rdf --port 8095
  kmdp serve --library colors
  kmdp serve ontologies --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, append(sourceBindings,
				binding{"server.host", "host"},
				binding{"server.port", "port"},
				binding{"server.rate_limit", "rate-limit"},
				binding{"watch.debounce", "debounce"},
			)...)
			if err != nil {
				return err
			}

			graph, err := servedGraph(cmd, args, cfg, logger)
			if err != nil {
				return err
			}

			reg, err := registry.Load()
			if err != nil {
				return fmt.Errorf("loading registry: %w", err)
			}

			server := api.NewServer(graph, reg, logger,
				api.WithRateLimit(cfg.Server.RateLimit),
				api.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
				api.WithQueryTimeout(cfg.Server.QueryTimeout))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errs := make(chan error, 2)
			go func() {
				errs <- server.Start(cfg.Server.Address())
			}()

			watchMode, _ := cmd.Flags().GetBool("watch")
			if watchMode && len(args) > 0 {
				watcher, err := watch.New(watch.Config{
					Paths:    args,
					Debounce: cfg.Watch.Debounce,
					Logger:   logger,
				})
				if err != nil {
					return err
				}
				go func() {
					errs <- watcher.Run(ctx, func(ctx context.Context, changed []string) error {
						graph, err := servedGraph(cmd, args, cfg, logger)
						if err != nil {
							return err
						}
						server.SetGraph(graph)
						return nil
					})
				}()
			}

			fmt.Printf("Serving terminology at http://%s\n", cfg.Server.Address())

			select {
			case err := <-errs:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	addSourceFlags(cmd)
	cmd.Flags().String("host", "", "Listen host")
	cmd.Flags().IntP("port", "p", 0, "Listen port")
	cmd.Flags().Float64("rate-limit", 0, "Requests per second allowed per client")
	cmd.Flags().Bool("watch", false, "Rebuild the graph when the input files change")
	cmd.Flags().Duration("debounce", 0, "Quiet period before rebuilding in watch mode")
	return cmd
}

// servedGraph builds the graph to serve: the merge of the given files, or
// the latest version of a library ontology.
func servedGraph(cmd *cobra.Command, args []string, cfg *config.Config, logger *slog.Logger) (*skos.ConceptGraph, error) {
	ontologies, err := loadOntologies(cmd, args, cfg, logger)
	if err != nil {
		return nil, err
	}
	if len(ontologies) == 0 {
		return nil, errors.New("nothing to serve")
	}

	var served *ontology.Ontology
	if name, _ := cmd.Flags().GetString("library"); name != "" {
		served = ontologies[len(ontologies)-1]
	} else {
		served = ontology.Merge(ontologies[0], ontologies[1:]...)
	}

	return skos.NewAbstractor(cfg.SKOS(), logger).Abstract(served)
}
