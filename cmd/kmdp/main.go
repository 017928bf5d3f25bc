package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/coolbeans/kmdp/pkg/config"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "kmdp",
		Short: "Knowledge management and terminology toolkit",
		Long: `kmdp turns SKOS terminologies published as OWL ontologies into
versioned, typed Go terminology packages.

It also provides:
  - Resource identifiers and knowledge-asset surrogates
  - Model MIME codes and content negotiation
  - IDL translation of API schemas
  - A versioned ontology library
  - Concept graph quality checks and SPARQL queries
  - Referent link resolution
  - A read-only terminology HTTP server`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Configuration file (default: ./kmdp.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text, json")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(graphCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(linksCmd())
	rootCmd.AddCommand(idCmd())
	rootCmd.AddCommand(surrogateCmd())
	rootCmd.AddCommand(idlCmd())
	rootCmd.AddCommand(mimeCmd())
	rootCmd.AddCommand(libraryCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// binding ties a configuration key to a command line flag.
type binding struct {
	key  string
	flag string
}

// loadConfig reads the configuration with the command's flags layered on
// top, and installs the configured logger as the default.
func loadConfig(cmd *cobra.Command, bindings ...binding) (*config.Config, *slog.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")

	bindings = append(bindings,
		binding{"logging.level", "log-level"},
		binding{"logging.format", "log-format"},
	)
	options := make([]config.Option, 0, len(bindings))
	for _, b := range bindings {
		options = append(options, config.WithFlag(b.key, cmd.Flag(b.flag)))
	}

	cfg, err := config.Load(cfgFile, options...)
	if err != nil {
		return nil, nil, err
	}

	logger := cfg.Logging.Logger(os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
