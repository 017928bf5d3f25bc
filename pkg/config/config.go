// Package config loads kmdp configuration.
//
// Configuration is layered, later sources overriding earlier ones:
//  1. Default values
//  2. A YAML configuration file (./kmdp.yaml, ./configs/kmdp.yaml, ~/.kmdp/kmdp.yaml)
//  3. Environment variables with the KMDP_ prefix
//  4. Command line flags bound with WithFlag
//
// Nested keys use underscores in the environment:
//   - KMDP_ABSTRACTION_CLOSURE_MODE=INCLUDES
//   - KMDP_GENERATION_PACKAGE_NAME=example.com/vocab
//   - KMDP_GENERATION_INTERFACE_OVERRIDES=https://a#S=https://b#S
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/coolbeans/kmdp/pkg/generate"
	"github.com/coolbeans/kmdp/pkg/linkcheck"
	"github.com/coolbeans/kmdp/pkg/skos"
	"github.com/coolbeans/kmdp/pkg/store"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "KMDP"

// Config is the root configuration.
type Config struct {
	Abstraction AbstractionConfig `mapstructure:"abstraction"`
	Generation  GenerationConfig  `mapstructure:"generation"`
	Library     LibraryConfig     `mapstructure:"library"`
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Watch       WatchConfig       `mapstructure:"watch"`
	Links       LinksConfig       `mapstructure:"links"`
}

// AbstractionConfig controls how ontologies become concept graphs.
type AbstractionConfig struct {
	// ClosureMode is IMPORTS to keep cross-scheme references, or INCLUDES to
	// copy referenced concepts into each scheme.
	ClosureMode string `mapstructure:"closure_mode" validate:"oneof=IMPORTS INCLUDES"`

	// EnforceClosure infers the scheme of concepts that declare none.
	EnforceClosure bool `mapstructure:"enforce_closure"`

	// TagType is the datatype IRI of preferred notations.
	TagType string `mapstructure:"tag_type" validate:"omitempty,uri"`

	// OIDAnnotation is the annotation property read when no notation exists.
	OIDAnnotation string `mapstructure:"oid_annotation" validate:"omitempty,uri"`
}

// GenerationConfig controls code and schema generation.
type GenerationConfig struct {
	// PackageName is the import path prefix of generated packages.
	PackageName string `mapstructure:"package_name" validate:"required"`

	// PackageOverrides are nativePkg=override entries.
	PackageOverrides []string `mapstructure:"package_overrides"`

	// InterfaceOverrides are schemeURI=overrideURI entries.
	InterfaceOverrides []string `mapstructure:"interface_overrides"`

	WithJAXB   bool `mapstructure:"with_jaxb"`
	WithJSON   bool `mapstructure:"with_json"`
	WithJSONLD bool `mapstructure:"with_jsonld"`

	API4KPRelease string `mapstructure:"api4kp_release"`
	TermsProvider string `mapstructure:"terms_provider" validate:"required"`

	// OutputDir receives the generated tree.
	OutputDir string `mapstructure:"output_dir" validate:"required"`
}

// LibraryConfig locates the on-disk ontology library.
type LibraryConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`

	// RateLimit is the requests per second allowed per client; 0 disables it.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// MetricsConfig locates the node-exporter textfile written after batch runs.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// WatchConfig controls the regeneration loop.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" validate:"gte=0"`
}

// LinksConfig controls how referent IRIs are resolved.
type LinksConfig struct {
	Interval    time.Duration `mapstructure:"interval" validate:"gte=0"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Retries     int           `mapstructure:"retries" validate:"gte=0"`
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1"`
	SkipHosts   []string      `mapstructure:"skip_hosts"`
}

// Checker returns the link checker settings.
func (l LinksConfig) Checker() linkcheck.Config {
	cfg := linkcheck.DefaultConfig()
	cfg.Interval = l.Interval
	cfg.Timeout = l.Timeout
	cfg.Retries = l.Retries
	cfg.Concurrency = l.Concurrency
	cfg.SkipHosts = l.SkipHosts
	return cfg
}

// Option adjusts the viper instance before configuration is decoded.
type Option func(*viper.Viper) error

// WithFlag binds a command line flag to a configuration key. The flag only
// takes precedence when it was set.
func WithFlag(key string, flag *pflag.Flag) Option {
	return func(v *viper.Viper) error {
		if flag == nil {
			return nil
		}
		return v.BindPFlag(key, flag)
	}
}

// Load reads configuration from a file, the environment and bound flags.
// If cfgFile is empty, standard locations are searched; a missing file is
// not an error.
func Load(cfgFile string, options ...Option) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("kmdp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.kmdp")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isFileNotFoundError(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, option := range options {
		if err := option(v); err != nil {
			return nil, fmt.Errorf("binding configuration: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("abstraction.closure_mode", string(skos.ClosureImports))
	v.SetDefault("abstraction.enforce_closure", false)
	v.SetDefault("abstraction.tag_type", "")
	v.SetDefault("abstraction.oid_annotation", store.DCTermsIdentifier)

	v.SetDefault("generation.package_name", "kmdp.local/terms")
	v.SetDefault("generation.package_overrides", []string{})
	v.SetDefault("generation.interface_overrides", []string{})
	v.SetDefault("generation.with_jaxb", false)
	v.SetDefault("generation.with_json", true)
	v.SetDefault("generation.with_jsonld", false)
	v.SetDefault("generation.api4kp_release", "")
	v.SetDefault("generation.terms_provider", generate.DefaultTermsProvider)
	v.SetDefault("generation.output_dir", "./generated")

	v.SetDefault("library.path", "./library")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8095)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.query_timeout", "10s")
	v.SetDefault("server.rate_limit", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("metrics.textfile", "")

	v.SetDefault("watch.debounce", "500ms")

	v.SetDefault("links.interval", "500ms")
	v.SetDefault("links.timeout", "15s")
	v.SetDefault("links.retries", 1)
	v.SetDefault("links.concurrency", 4)
}

var validate = validator.New()

// Validate checks the struct constraints of a configuration.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		messages[i] = fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
	}
	return errors.New(strings.Join(messages, "; "))
}

// SKOS returns the abstraction settings.
func (c *Config) SKOS() skos.AbstractionConfig {
	return skos.AbstractionConfig{
		ClosureMode:    skos.ClosureMode(c.Abstraction.ClosureMode),
		EnforceClosure: c.Abstraction.EnforceClosure,
		TagType:        c.Abstraction.TagType,
		OIDAnnotation:  c.Abstraction.OIDAnnotation,
	}
}

// Generate returns the generation settings with overrides parsed.
func (c *Config) Generate() (generate.Config, error) {
	packages, err := generate.ParseOverrides(c.Generation.PackageOverrides)
	if err != nil {
		return generate.Config{}, fmt.Errorf("package_overrides: %w", err)
	}
	interfaces, err := generate.ParseOverrides(c.Generation.InterfaceOverrides)
	if err != nil {
		return generate.Config{}, fmt.Errorf("interface_overrides: %w", err)
	}

	return generate.Config{
		PackageName:        c.Generation.PackageName,
		PackageOverrides:   packages,
		InterfaceOverrides: interfaces,
		WithJAXB:           c.Generation.WithJAXB,
		WithJSON:           c.Generation.WithJSON,
		WithJSONLD:         c.Generation.WithJSONLD,
		API4KPRelease:      c.Generation.API4KPRelease,
		TermsProvider:      c.Generation.TermsProvider,
	}, nil
}

// isFileNotFoundError checks if an error is a file not found error.
func isFileNotFoundError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return errors.Is(pathErr, os.ErrNotExist)
	}
	return false
}
