// Package generate renders concept graphs into Go term packages, XML
// schemas, JAXB bindings, JSON term lists, JSON-LD contexts and an OASIS
// XML catalog.
package generate

import (
	"fmt"
	"strings"
)

// DefaultTermsProvider is the import path of the runtime package generated
// code is written against.
const DefaultTermsProvider = "github.com/coolbeans/kmdp/pkg/terms"

// Config holds the generation options.
type Config struct {
	// PackageName is the import path prefix of the generated packages.
	PackageName string

	// PackageOverrides replaces a derived package path with another one.
	PackageOverrides map[string]string

	// InterfaceOverrides maps a scheme URI to the URI of the scheme whose
	// series type it reuses.
	InterfaceOverrides map[string]string

	WithJAXB   bool
	WithJSON   bool
	WithJSONLD bool

	// API4KPRelease is recorded in generated file headers.
	API4KPRelease string

	// TermsProvider is the import path of the terms runtime.
	TermsProvider string
}

// ParseOverrides reads "key=value" entries, separated by commas or given as
// separate items, into a map.
func ParseOverrides(entries []string) (map[string]string, error) {
	overrides := make(map[string]string)
	for _, entry := range entries {
		for _, pair := range strings.Split(entry, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			key, value, ok := strings.Cut(pair, "=")
			key, value = strings.TrimSpace(key), strings.TrimSpace(value)
			if !ok || key == "" || value == "" {
				return nil, fmt.Errorf("invalid override %q: expected key=value", pair)
			}
			overrides[key] = value
		}
	}
	return overrides, nil
}

func (c Config) withDefaults() Config {
	if c.PackageName == "" {
		c.PackageName = "terms"
	}
	c.PackageName = strings.TrimSuffix(c.PackageName, "/")
	if c.TermsProvider == "" {
		c.TermsProvider = DefaultTermsProvider
	}
	return c
}

// seriesScheme resolves the scheme whose series type a scheme uses.
func (c Config) seriesScheme(schemeURI string) (string, bool) {
	target, ok := c.InterfaceOverrides[schemeURI]
	if !ok || target == schemeURI {
		return schemeURI, false
	}
	return target, true
}

// packagePath derives the import path of a scheme series package.
func (c Config) packagePath(schemeName string) string {
	native := c.PackageName + "/" + PackageIdent(schemeName)
	if override, ok := c.PackageOverrides[native]; ok {
		return override
	}
	return native
}
