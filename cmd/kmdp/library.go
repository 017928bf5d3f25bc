package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coolbeans/kmdp/pkg/library"
)

func libraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the ontology library",
		Long: `Manage a persistent library of ontology versions.

The library stores each version's source file and its parsed triples on
disk, so terminology can be regenerated or served without the original
files.

Examples:
  kmdp library init
  kmdp library add ontologies/colors.rdf
  kmdp library import 'ontologies/**/*.rdf'
  kmdp library list
  kmdp library versions colors
  kmdp library stats
  kmdp library remove colors --version 20240101`,
	}

	cmd.PersistentFlags().String("library-path", "", "Library directory (default from configuration)")

	cmd.AddCommand(libraryInitCmd())
	cmd.AddCommand(libraryAddCmd())
	cmd.AddCommand(libraryImportCmd())
	cmd.AddCommand(libraryListCmd())
	cmd.AddCommand(libraryVersionsCmd())
	cmd.AddCommand(libraryRemoveCmd())
	cmd.AddCommand(libraryStatsCmd())

	return cmd
}

func openLibrary(cmd *cobra.Command) (*library.Library, error) {
	cfg, logger, err := loadConfig(cmd, binding{"library.path", "library-path"})
	if err != nil {
		return nil, err
	}
	lib, err := library.Open(cfg.Library.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("library not found at %s (run 'kmdp library init' first): %w", cfg.Library.Path, err)
	}
	return lib, nil
}

func libraryInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new ontology library",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, binding{"library.path", "library-path"})
			if err != nil {
				return err
			}

			lib, err := library.Init(cfg.Library.Path, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize library: %w", err)
			}

			fmt.Printf("Library initialized at: %s\n", lib.Path())
			fmt.Println("\nNext steps:")
			fmt.Println("  kmdp library add path/to/ontology.rdf")
			fmt.Println("  kmdp library import 'ontologies/**/*.rdf'")
			return nil
		},
	}
}

func libraryAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <ontology file>",
		Short: "Add an ontology version to the library",
		Long: `Parse an ontology file and store it as one version in the library.

The name defaults to the file name and the version to the tag of the
ontology's version IRI.

Examples:
  kmdp library add ontologies/colors.rdf
  kmdp library add colors-v2.nt --name colors --version 2.0.0 --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			version, _ := cmd.Flags().GetString("version")
			force, _ := cmd.Flags().GetBool("force")

			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}

			entry, err := lib.AddOntologyFile(args[0], library.AddOptions{
				Name:    name,
				Version: version,
				Force:   force,
			})
			if err != nil {
				return fmt.Errorf("failed to add ontology: %w", err)
			}

			fmt.Printf("Added: %s\n", entry.ID)
			if entry.Stats != nil {
				fmt.Printf("  Triples: %d\n", entry.Stats.Triples)
				fmt.Printf("  Schemes: %d\n", entry.Stats.Schemes)
				fmt.Printf("  Concepts: %d\n", entry.Stats.Concepts)
				fmt.Printf("  Broader links: %d (max depth %d)\n", entry.Stats.BroaderLinks, entry.Stats.MaxDepth)
			}
			return nil
		},
	}

	cmd.Flags().String("name", "", "Ontology name (default: file name)")
	cmd.Flags().String("version", "", "Version tag (default: from owl:versionIRI)")
	cmd.Flags().Bool("force", false, "Replace an existing version")
	return cmd
}

func libraryImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <paths or globs>...",
		Short: "Import every ontology file matching the patterns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			cfg, logger, err := loadConfig(cmd, binding{"library.path", "library-path"})
			if err != nil {
				return err
			}
			lib, err := library.OpenOrInit(cfg.Library.Path, logger)
			if err != nil {
				return err
			}

			report, err := library.Import(lib, args, force)
			if err != nil {
				return err
			}

			for _, file := range report.Files {
				switch file.Status {
				case "failed":
					fmt.Printf("  FAIL  %s: %s\n", file.Path, file.Error)
				case "skipped":
					fmt.Printf("  SKIP  %s (%s)\n", file.Path, file.ID)
				default:
					fmt.Printf("  OK    %s -> %s\n", file.Path, file.ID)
				}
			}
			fmt.Printf("\nImported %d, skipped %d, failed %d of %d file(s)\n",
				report.Succeeded, report.Skipped, report.Failed, report.Attempted)

			if report.Failed > 0 {
				return fmt.Errorf("%d file(s) failed to import", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Re-import versions already in the library")
	return cmd
}

func libraryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the stored ontology versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			entries := lib.Entries()

			if asJSON {
				return printJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Println("Library is empty.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tISSUED\tSCHEMES\tCONCEPTS")
			for _, entry := range entries {
				issued := "-"
				if !entry.IssuedOn.IsZero() {
					issued = entry.IssuedOn.Format("2006-01-02")
				}
				schemes, concepts := 0, 0
				if entry.Stats != nil {
					schemes, concepts = entry.Stats.Schemes, entry.Stats.Concepts
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", entry.ID, entry.Status, issued, schemes, concepts)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Bool("json", false, "Print entries as JSON")
	return cmd
}

func libraryVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions <name>",
		Short: "List the versions of an ontology in chronological order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}

			versions := lib.Versions(args[0])
			if len(versions) == 0 {
				return fmt.Errorf("no versions of %s in the library", args[0])
			}
			for _, entry := range versions {
				issued := ""
				if !entry.IssuedOn.IsZero() {
					issued = " (" + entry.IssuedOn.Format("2006-01-02") + ")"
				}
				fmt.Printf("%s%s\n", entry.VersionTag, issued)
			}
			return nil
		},
	}
}

func libraryRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove an ontology version from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, _ := cmd.Flags().GetString("version")

			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			if err := lib.RemoveOntology(args[0], version); err != nil {
				return err
			}
			fmt.Printf("Removed: %s\n", library.EntryID(args[0], version))
			return nil
		},
	}

	cmd.Flags().String("version", "", "Version tag")
	return cmd
}

func libraryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			stats := lib.Stats()

			fmt.Printf("Library: %s\n", lib.Path())
			fmt.Printf("  Ontologies: %d\n", stats.Ontologies)
			fmt.Printf("  Versions:   %d\n", stats.Versions)
			fmt.Printf("  Triples:    %d\n", stats.Triples)
			fmt.Printf("  Schemes:    %d\n", stats.Schemes)
			fmt.Printf("  Concepts:   %d\n", stats.Concepts)
			for status, count := range stats.ByStatus {
				fmt.Printf("  %s: %d\n", status, count)
			}
			return nil
		},
	}
}
