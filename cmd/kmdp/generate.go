package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coolbeans/kmdp/pkg/config"
	"github.com/coolbeans/kmdp/pkg/generate"
	"github.com/coolbeans/kmdp/pkg/metrics"
	"github.com/coolbeans/kmdp/pkg/validate"
	"github.com/coolbeans/kmdp/pkg/watch"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [ontology files or globs...]",
		Short: "Generate terminology packages from SKOS ontologies",
		Long: `Load ontologies, abstract their SKOS concept schemes and generate one Go
package per scheme version plus a series package per scheme.

Files are read as versions in chronological order (dct:issued). With
--library, every stored version of a library ontology is used instead.

Examples:
  kmdp generate ontologies/*.rdf --output generated --package example.com/vocab
  kmdp generate --library colors --with-jsonld
  kmdp generate 'ontologies/**/*.owl' --watch
  kmdp generate ontologies/*.rdf --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, append(sourceBindings,
				binding{"generation.output_dir", "output"},
				binding{"generation.package_name", "package"},
				binding{"generation.package_overrides", "package-override"},
				binding{"generation.interface_overrides", "interface-override"},
				binding{"generation.with_jaxb", "with-jaxb"},
				binding{"generation.with_json", "with-json"},
				binding{"generation.with_jsonld", "with-jsonld"},
				binding{"generation.api4kp_release", "api4kp-release"},
				binding{"generation.terms_provider", "terms-provider"},
				binding{"metrics.textfile", "metrics-textfile"},
				binding{"watch.debounce", "debounce"},
			)...)
			if err != nil {
				return err
			}

			run := func() error {
				return runGenerate(cmd, args, cfg, logger)
			}

			if err := run(); err != nil {
				return err
			}

			watchMode, _ := cmd.Flags().GetBool("watch")
			if !watchMode {
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("--watch needs ontology paths")
			}

			watcher, err := watch.New(watch.Config{
				Paths:    args,
				Debounce: cfg.Watch.Debounce,
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Watching %d path(s) for changes (Ctrl+C to stop)\n", len(args))
			return watcher.Run(ctx, func(ctx context.Context, changed []string) error {
				fmt.Printf("\n%d file(s) changed, regenerating\n", len(changed))
				return run()
			})
		},
	}

	addSourceFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "Output directory")
	cmd.Flags().String("package", "", "Import path prefix of the generated packages")
	cmd.Flags().StringSlice("package-override", nil, "Package override as native=override")
	cmd.Flags().StringSlice("interface-override", nil, "Series interface override as schemeURI=overrideURI")
	cmd.Flags().Bool("with-jaxb", false, "Write .xjb and .series.xjb XML binding files next to each schema")
	cmd.Flags().Bool("with-json", true, "Emit JSON marshaling")
	cmd.Flags().Bool("with-jsonld", false, "Emit JSON-LD contexts")
	cmd.Flags().String("api4kp-release", "", "API4KP release recorded in file headers")
	cmd.Flags().String("terms-provider", "", "Import path of the terms runtime")
	cmd.Flags().String("metrics-textfile", "", "Write run metrics to this node-exporter textfile")
	cmd.Flags().Bool("check", false, "Run the quality gates and stop before generating when one fails")
	cmd.Flags().Bool("watch", false, "Regenerate when the input files change")
	cmd.Flags().Duration("debounce", 0, "Quiet period before regenerating in watch mode")

	return cmd
}

// runGenerate performs one generation run and records its metrics.
func runGenerate(cmd *cobra.Command, args []string, cfg *config.Config, logger *slog.Logger) error {
	started := time.Now()
	m, err := metrics.New()
	if err != nil {
		return err
	}
	defer func() {
		if cfg.Metrics.Textfile == "" {
			return
		}
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("Failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
		}
	}()

	ontologies, err := loadOntologies(cmd, args, cfg, logger)
	if err != nil {
		m.RecordFailure("load", started)
		return err
	}
	m.RecordOntologies(len(ontologies))

	graphs, err := abstractAll(ontologies, cfg, logger)
	if err != nil {
		m.RecordFailure("abstract", started)
		return err
	}

	if checkFirst, _ := cmd.Flags().GetBool("check"); checkFirst {
		runner := validate.NewDefaultRunner(validate.Options{}, logger)
		for i, graph := range graphs {
			report := runner.Run(&validate.Input{Graph: graph, Source: ontologies[i].Source})
			m.RecordGates(report)
			if !report.Passed {
				m.RecordFailure("validate", started)
				_ = report.WriteText(os.Stderr)
				return fmt.Errorf("%s failed the quality gates", ontologies[i].Source)
			}
		}
	}

	genConfig, err := cfg.Generate()
	if err != nil {
		m.RecordFailure("configure", started)
		return err
	}
	generator, err := generate.NewGenerator(genConfig, logger)
	if err != nil {
		m.RecordFailure("configure", started)
		return err
	}

	report, err := generator.Generate(graphs, cfg.Generation.OutputDir)
	if err != nil {
		m.RecordFailure("generate", started)
		return fmt.Errorf("generation failed: %w", err)
	}
	m.RecordGeneration(report, started)

	fmt.Printf("Generated %d scheme(s), %d version(s), %d concept(s)\n",
		report.Schemes, report.Versions, report.Concepts)
	fmt.Printf("  Output: %s (%d files)\n", cfg.Generation.OutputDir, len(report.Files))
	fmt.Printf("  Took: %s\n", time.Since(started).Round(time.Millisecond))
	return nil
}
