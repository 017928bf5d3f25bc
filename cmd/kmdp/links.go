package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coolbeans/kmdp/pkg/linkcheck"
)

func linksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links [ontology files or globs...]",
		Short: "Resolve the referent IRIs of concept graphs",
		Long: `Resolve the IRIs that concepts point at over HTTP.

Every concept referent is requested with HEAD (GET when HEAD is refused).
With --documents the scheme and concept IRIs are resolved as well, once
per defining document. Requests to one host are spaced by --interval.

Examples:
  kmdp links ontologies/*.rdf
  kmdp links --library colors --documents --format markdown
  kmdp links ontologies --skip-host localhost --interval 1s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, append(sourceBindings,
				binding{"links.interval", "interval"},
				binding{"links.timeout", "timeout"},
				binding{"links.retries", "retries"},
				binding{"links.concurrency", "concurrency"},
				binding{"links.skip_hosts", "skip-host"})...)
			if err != nil {
				return err
			}

			documents, _ := cmd.Flags().GetBool("documents")
			format, _ := cmd.Flags().GetString("format")

			graph, err := servedGraph(cmd, args, cfg, logger)
			if err != nil {
				return err
			}
			links := linkcheck.Links(graph, documents)
			if len(links) == 0 {
				fmt.Println("No links to check")
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := linkcheck.NewChecker(cfg.Links.Checker(), nil, logger).Check(ctx, links)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				data, err := report.ToJSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			case "markdown", "md":
				fmt.Println(report.ToMarkdown())
			default:
				fmt.Print(report.String())
			}

			if !report.Passed() {
				return fmt.Errorf("%d of %d links failed to resolve", len(report.Failures), report.Total)
			}
			return nil
		},
	}

	addSourceFlags(cmd)
	cmd.Flags().Bool("documents", false, "Also resolve scheme and concept IRIs")
	cmd.Flags().StringP("format", "f", "text", "Report format: text, markdown, json")
	cmd.Flags().Duration("interval", 0, "Minimum time between requests to one host")
	cmd.Flags().Duration("timeout", 0, "Per-request timeout")
	cmd.Flags().Int("retries", 0, "Extra attempts after a timeout or 5xx response")
	cmd.Flags().Int("concurrency", 0, "Hosts checked in parallel")
	cmd.Flags().StringSlice("skip-host", nil, "Hosts not to contact")
	return cmd
}
