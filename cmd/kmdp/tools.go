package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/coolbeans/kmdp/pkg/id"
	"github.com/coolbeans/kmdp/pkg/idl"
	"github.com/coolbeans/kmdp/pkg/negotiation"
	"github.com/coolbeans/kmdp/pkg/registry"
	"github.com/coolbeans/kmdp/pkg/surrogate"
)

func idCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "id",
		Short: "Build or parse a resource identifier",
		Long: `Build a resource identifier from a namespace and a tag, or parse one
from a URI. Identifiers with the same namespace and tag always get the
same UUID.

Examples:
  kmdp id --ns http://foo.bar/ --tag baz --version 1.1.0
  kmdp id --uri http://foo.bar/baz/versions/1.1.0
  kmdp id --ns urn:example --uuid 2d9c5a8b-76b5-4b6f-9c53-0b52d0a4f1f7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := loadConfig(cmd); err != nil {
				return err
			}
			namespace, _ := cmd.Flags().GetString("ns")
			tag, _ := cmd.Flags().GetString("tag")
			version, _ := cmd.Flags().GetString("version")
			name, _ := cmd.Flags().GetString("name")
			uri, _ := cmd.Flags().GetString("uri")
			rawUUID, _ := cmd.Flags().GetString("uuid")
			date, _ := cmd.Flags().GetString("date")

			var (
				rid id.ResourceIdentifier
				err error
			)
			switch {
			case uri != "":
				rid, err = id.NewFromURI(uri)
			case rawUUID != "":
				u, parseErr := uuid.Parse(rawUUID)
				if parseErr != nil {
					return fmt.Errorf("invalid --uuid: %w", parseErr)
				}
				rid, err = id.NewUUIDID(namespace, u, version)
			case date != "":
				established, parseErr := time.Parse("2006-01-02", date)
				if parseErr != nil {
					return fmt.Errorf("invalid --date: %w", parseErr)
				}
				rid, err = id.NewVersionedIDWithDate(namespace, tag, version, established)
			case name != "":
				rid, err = id.NewIDWithName(namespace, tag, version, name)
			case version != "":
				rid, err = id.NewVersionedID(namespace, tag, version)
			default:
				rid, err = id.NewID(namespace, tag)
			}
			if err != nil {
				return err
			}

			if err := printJSON(rid); err != nil {
				return err
			}
			if rid.VersionTag != "" {
				fmt.Printf("version tag type: %s\n", id.ClassifyVersionTag(rid.VersionTag))
			}
			return nil
		},
	}

	cmd.Flags().String("ns", "", "Namespace URI")
	cmd.Flags().String("tag", "", "Resource tag")
	cmd.Flags().String("version", "", "Version tag")
	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("uri", "", "Parse an identifier from a resource or version URI")
	cmd.Flags().String("uuid", "", "Identify a resource by UUID")
	cmd.Flags().String("date", "", "Established-on date (YYYY-MM-DD)")
	return cmd
}

// surrogateFormat maps a file extension or format name to a format tag.
func surrogateFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "xml", "":
		return surrogate.XMLFormat, nil
	case "json":
		return surrogate.JSONFormat, nil
	case "yaml", "yml":
		return surrogate.YAMLFormat, nil
	default:
		return "", fmt.Errorf("unsupported surrogate format %q", name)
	}
}

func readSurrogate(path string) (*surrogate.KnowledgeAsset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format, err := surrogateFormat(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	asset, err := surrogate.Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return asset, nil
}

func surrogateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surrogate",
		Short: "Create, validate and compare knowledge asset surrogates",
	}
	cmd.AddCommand(surrogateNewCmd())
	cmd.AddCommand(surrogateValidateCmd())
	cmd.AddCommand(surrogateDiffCmd())
	return cmd
}

func surrogateNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a surrogate for an asset",
		Long: `Create a knowledge asset surrogate. The canonical surrogate artifact is
attached first; carriers are added with --carrier language[:format].

Examples:
  kmdp surrogate new --ns https://example.org/assets/ --tag rules --version 1.0.0 \
    --name "Eligibility rules" --carrier DMN_1_2:XML_1_1 --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := loadConfig(cmd); err != nil {
				return err
			}
			namespace, _ := cmd.Flags().GetString("ns")
			tag, _ := cmd.Flags().GetString("tag")
			version, _ := cmd.Flags().GetString("version")
			name, _ := cmd.Flags().GetString("name")
			description, _ := cmd.Flags().GetString("description")
			root, _ := cmd.Flags().GetBool("root")
			carriers, _ := cmd.Flags().GetStringSlice("carrier")
			formatName, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			format, err := surrogateFormat(formatName)
			if err != nil {
				return err
			}

			assetID, err := id.NewVersionedID(namespace, tag, version)
			if err != nil {
				return err
			}
			builder, err := surrogate.NewBuilder(assetID, root)
			if err != nil {
				return err
			}
			builder.WithName(name, description)

			for i, carrier := range carriers {
				language, serialization, _ := strings.Cut(carrier, ":")
				artifactID, err := id.NewVersionedID(namespace, fmt.Sprintf("%s-carrier-%d", tag, i+1), version)
				if err != nil {
					return err
				}
				builder.WithCarrier(artifactID, surrogate.Rep(language, serialization))
			}

			asset := builder.Get()
			if err := surrogate.Validate(asset); err != nil {
				return err
			}
			data, err := surrogate.Encode(asset, format)
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Printf("Surrogate written to: %s\n", output)
			return nil
		},
	}

	cmd.Flags().String("ns", "", "Asset namespace URI")
	cmd.Flags().String("tag", "", "Asset tag")
	cmd.Flags().String("version", "1.0.0", "Asset version")
	cmd.Flags().String("name", "", "Asset name")
	cmd.Flags().String("description", "", "Asset description")
	cmd.Flags().Bool("root", false, "Mark the asset as a root asset")
	cmd.Flags().StringSlice("carrier", nil, "Carrier representation as language[:format] tags")
	cmd.Flags().StringP("format", "f", "xml", "Output format: xml, json, yaml")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	return cmd
}

func surrogateValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a surrogate file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := loadConfig(cmd); err != nil {
				return err
			}
			asset, err := readSurrogate(args[0])
			if err != nil {
				return err
			}
			if err := surrogate.Validate(asset); err != nil {
				return fmt.Errorf("%s is invalid: %w", args[0], err)
			}
			fmt.Printf("%s is valid (%d carrier(s), %d surrogate(s))\n",
				args[0], len(asset.Carriers), len(asset.Surrogates))
			return nil
		},
	}
}

func surrogateDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <a> <b>",
		Short: "Compare two surrogates",
		Long: `Compare two surrogate files, in any supported format. Prints EQUAL,
EQUIVALENT (same content in a different order) or DIFFERENT.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := loadConfig(cmd); err != nil {
				return err
			}
			a, err := readSurrogate(args[0])
			if err != nil {
				return err
			}
			b, err := readSurrogate(args[1])
			if err != nil {
				return err
			}
			fmt.Println(surrogate.Diff(a, b))
			return nil
		},
	}
}

func idlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "idl <api document>",
		Short: "Translate Swagger or OpenAPI schemas to an IDL module",
		Long: `Read the definitions of a Swagger 2 or OpenAPI 3 document (YAML or
JSON) and write them as an IDL module, each struct after the structs it
references.

Examples:
  kmdp idl api.yaml --module Terms
  kmdp idl api.json -o api.idl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			module, _ := cmd.Flags().GetString("module")
			output, _ := cmd.Flags().GetString("output")

			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			doc, err := idl.Parse(file)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			text, err := idl.NewTranslator(logger).Translate(doc, module)
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Print(text)
				return nil
			}
			if err := os.WriteFile(output, []byte(text), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Printf("IDL written to: %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringP("module", "m", "", "Module name (default: document title)")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	return cmd
}

func mimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mime",
		Short: "Encode, decode and negotiate model MIME codes",
	}
	cmd.AddCommand(mimeEncodeCmd())
	cmd.AddCommand(mimeDecodeCmd())
	cmd.AddCommand(mimeNegotiateCmd())
	cmd.AddCommand(mimeListCmd())
	return cmd
}

func newCoder() (*negotiation.Coder, *registry.Registry, error) {
	reg, err := registry.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading registry: %w", err)
	}
	return negotiation.NewCoder(reg), reg, nil
}

func mimeEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a representation as a model MIME code",
		Long: `Examples:
  kmdp mime encode --language DMN_1_2 --format XML_1_1 --charset UTF-8
  kmdp mime encode --language SKOS --format Turtle --lexicon PCV`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := loadConfig(cmd); err != nil {
				return err
			}
			coder, _, err := newCoder()
			if err != nil {
				return err
			}

			var rep surrogate.SyntacticRepresentation
			rep.Language, _ = cmd.Flags().GetString("language")
			rep.Format, _ = cmd.Flags().GetString("format")
			rep.Profile, _ = cmd.Flags().GetString("profile")
			rep.Serialization, _ = cmd.Flags().GetString("serialization")
			rep.Lexicon, _ = cmd.Flags().GetStringSlice("lexicon")
			rep.Charset, _ = cmd.Flags().GetString("charset")
			rep.Encoding, _ = cmd.Flags().GetString("encoding")

			code, err := coder.Encode(rep)
			if err != nil {
				return err
			}
			fmt.Println(code)
			return nil
		},
	}

	cmd.Flags().String("language", "", "Language tag")
	cmd.Flags().String("format", "", "Serialization format tag")
	cmd.Flags().String("profile", "", "Language profile")
	cmd.Flags().String("serialization", "", "Serialization")
	cmd.Flags().StringSlice("lexicon", nil, "Lexicon tags")
	cmd.Flags().String("charset", "", "Character set")
	cmd.Flags().String("encoding", "", "Encoding")
	return cmd
}

func mimeDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <code>",
		Short: "Decode a model MIME code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := loadConfig(cmd); err != nil {
				return err
			}
			coder, _, err := newCoder()
			if err != nil {
				return err
			}
			rep, err := coder.Decode(args[0])
			if err != nil {
				return err
			}
			return printJSON(rep)
		},
	}
}

func mimeNegotiateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "negotiate <accept header> <offered code>...",
		Short: "Pick the offered code preferred by an Accept header",
		Long: `Example:
  kmdp mime negotiate "model/dmn-v12+xml;q=0.8, model/owl2+rdf" model/dmn-v12+xml model/owl2+rdfxml`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := loadConfig(cmd); err != nil {
				return err
			}
			coder, _, err := newCoder()
			if err != nil {
				return err
			}

			offered := make([]surrogate.SyntacticRepresentation, 0, len(args)-1)
			for _, code := range args[1:] {
				rep, err := coder.Decode(code)
				if err != nil {
					return err
				}
				offered = append(offered, rep)
			}

			chosen, err := coder.Negotiate(args[0], offered)
			if err != nil {
				return err
			}
			code, err := coder.Encode(chosen)
			if err != nil {
				return err
			}
			fmt.Println(code)
			return nil
		},
	}
	return cmd
}

func mimeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the known languages, formats and lexicons",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := loadConfig(cmd); err != nil {
				return err
			}
			_, reg, err := newCoder()
			if err != nil {
				return err
			}

			sections := []struct {
				title   string
				entries []registry.Entry
			}{
				{"Languages", reg.Languages()},
				{"Formats", reg.Formats()},
				{"Lexicons", reg.Lexicons()},
			}
			for _, section := range sections {
				fmt.Printf("%s:\n", section.title)
				for _, entry := range section.entries {
					fmt.Printf("  %-32s %-22s %s\n", entry.Tag, entry.Code, entry.MediaType)
				}
			}
			return nil
		},
	}
}
