package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/kmdp/pkg/generate"
	"github.com/coolbeans/kmdp/pkg/skos"
	"github.com/coolbeans/kmdp/pkg/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kmdp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)

	assert.Equal(t, "IMPORTS", cfg.Abstraction.ClosureMode)
	assert.False(t, cfg.Abstraction.EnforceClosure)
	assert.Equal(t, store.DCTermsIdentifier, cfg.Abstraction.OIDAnnotation)
	assert.Equal(t, "kmdp.local/terms", cfg.Generation.PackageName)
	assert.Equal(t, generate.DefaultTermsProvider, cfg.Generation.TermsProvider)
	assert.True(t, cfg.Generation.WithJSON)
	assert.Equal(t, 8095, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "0.0.0.0:8095", cfg.Server.Address())
	assert.Equal(t, 10*time.Second, cfg.Server.QueryTimeout)

	links := cfg.Links.Checker()
	assert.Equal(t, 500*time.Millisecond, links.Interval)
	assert.Equal(t, 15*time.Second, links.Timeout)
	assert.Equal(t, 4, links.Concurrency)
	assert.NotEmpty(t, links.Accept)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
abstraction:
  closure_mode: INCLUDES
  enforce_closure: true
  tag_type: https://example.org/codes
generation:
  package_name: example.com/vocab
  with_jaxb: true
  interface_overrides:
    - https://example.org/a#A=https://example.org/b#B
  package_overrides:
    - example.com/vocab/a=example.com/other/a
server:
  port: 9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	abstraction := cfg.SKOS()
	assert.Equal(t, skos.ClosureIncludes, abstraction.ClosureMode)
	assert.True(t, abstraction.EnforceClosure)
	assert.Equal(t, "https://example.org/codes", abstraction.TagType)

	gen, err := cfg.Generate()
	require.NoError(t, err)
	assert.Equal(t, "example.com/vocab", gen.PackageName)
	assert.True(t, gen.WithJAXB)
	assert.Equal(t, map[string]string{"https://example.org/a#A": "https://example.org/b#B"}, gen.InterfaceOverrides)
	assert.Equal(t, map[string]string{"example.com/vocab/a": "example.com/other/a"}, gen.PackageOverrides)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "generation:\n  package_name: example.com/file\n")
	t.Setenv("KMDP_GENERATION_PACKAGE_NAME", "example.com/env")
	t.Setenv("KMDP_ABSTRACTION_CLOSURE_MODE", "INCLUDES")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "example.com/env", cfg.Generation.PackageName)
	assert.Equal(t, "INCLUDES", cfg.Abstraction.ClosureMode)
}

func TestLoadFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("KMDP_SERVER_PORT", "9100")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	require.NoError(t, flags.Parse([]string{"--port", "9200"}))

	cfg, err := Load("nonexistent.yaml", WithFlag("server.port", flags.Lookup("port")))
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Server.Port)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"closure mode", "abstraction:\n  closure_mode: SOMETIMES\n"},
		{"port", "server:\n  port: 70000\n"},
		{"log level", "logging:\n  level: loud\n"},
		{"tag type", "abstraction:\n  tag_type: not a uri\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestGenerateBadOverride(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)

	cfg.Generation.InterfaceOverrides = []string{"no-equals-sign"}
	_, err = cfg.Generate()
	assert.ErrorContains(t, err, "interface_overrides")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggingConfig{Level: "warn", Format: "json"}.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"service":"kmdp"`)
}
