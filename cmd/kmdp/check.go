package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coolbeans/kmdp/pkg/skos"
	"github.com/coolbeans/kmdp/pkg/validate"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [ontology files or globs...]",
		Short: "Run quality gates over concept graphs",
		Long: `Check the concept graphs abstracted from ontologies.

Gates:
  schemes    schemes are present and populated
  hierarchy  broader links are acyclic and resolve
  tags       concepts carry tags that are unique in their scheme
  closure    broader links stay inside their scheme (with --require-closure)

Examples:
  kmdp check ontologies/*.rdf
  kmdp check ontologies/*.rdf --strict --require-closure
  kmdp check --library colors --threshold tags.tag_coverage=0.9 --format markdown`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, sourceBindings...)
			if err != nil {
				return err
			}

			strict, _ := cmd.Flags().GetBool("strict")
			failOnWarn, _ := cmd.Flags().GetBool("fail-on-warn")
			skip, _ := cmd.Flags().GetStringSlice("skip")
			thresholdFlags, _ := cmd.Flags().GetStringSlice("threshold")
			requireClosure, _ := cmd.Flags().GetBool("require-closure")
			format, _ := cmd.Flags().GetString("format")

			thresholds, err := parseThresholds(thresholdFlags)
			if err != nil {
				return err
			}

			ontologies, err := loadOntologies(cmd, args, cfg, logger)
			if err != nil {
				return err
			}

			// Closure checks look at the raw graph: in INCLUDES mode the
			// closed graph would always pass.
			abstractor := skos.NewAbstractor(cfg.SKOS(), logger)
			runner := validate.NewDefaultRunner(validate.Options{
				Thresholds: thresholds,
				Skip:       skip,
				Strict:     strict,
				FailOnWarn: failOnWarn,
			}, logger)

			failed := 0
			for _, ont := range ontologies {
				graph, err := abstractor.Traverse(ont)
				if err != nil {
					return fmt.Errorf("abstracting %s: %w", ont.Source, err)
				}

				report := runner.Run(&validate.Input{
					Graph:          graph,
					Source:         ont.Source,
					RequireClosure: requireClosure,
				})

				switch format {
				case "json":
					data, err := report.JSON()
					if err != nil {
						return err
					}
					fmt.Println(string(data))
				case "markdown", "md":
					fmt.Println(report.Markdown())
				default:
					if err := report.WriteText(os.Stdout); err != nil {
						return err
					}
				}

				if !report.Passed {
					failed++
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d ontologies failed the quality gates", failed, len(ontologies))
			}
			return nil
		},
	}

	addSourceFlags(cmd)
	cmd.Flags().Bool("strict", false, "Stop at the first failing gate")
	cmd.Flags().Bool("fail-on-warn", false, "Stop at the first warning")
	cmd.Flags().StringSlice("skip", nil, "Gates to skip")
	cmd.Flags().StringSlice("threshold", nil, "Metric threshold as gate.metric=value")
	cmd.Flags().Bool("require-closure", false, "Fail broader links that leave their scheme")
	cmd.Flags().StringP("format", "f", "text", "Report format: text, markdown, json")
	return cmd
}

func parseThresholds(entries []string) (map[string]float64, error) {
	thresholds := make(map[string]float64, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.Contains(key, ".") {
			return nil, fmt.Errorf("invalid threshold %q (want gate.metric=value)", entry)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold %q: %w", entry, err)
		}
		thresholds[strings.TrimSpace(key)] = f
	}
	return thresholds, nil
}
