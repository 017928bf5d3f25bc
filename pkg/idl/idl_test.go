package idl

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFile(t *testing.T, path string) *Document {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	doc, err := Parse(f)
	require.NoError(t, err)
	return doc
}

func TestParse_KeepsDefinitionOrder(t *testing.T) {
	doc := parseFile(t, "testdata/petstore.yaml")

	var names []string
	for _, named := range doc.Schemas() {
		names = append(names, named.Name)
	}
	assert.Equal(t, []string{"Pet", "Status", "Tag", "Category"}, names)

	pet, ok := doc.Schemas().Lookup("Pet")
	require.True(t, ok)
	assert.Equal(t, "id", pet.Properties[0].Name)
	assert.Equal(t, []string{"name"}, pet.Required)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoDefinitions)

	_, err = Parse(strings.NewReader("swagger: '2.0'\ndefinitions: {}\n"))
	assert.ErrorIs(t, err, ErrNoDefinitions)

	_, err = Parse(strings.NewReader("definitions: [1, 2]\n"))
	assert.Error(t, err)
}

func TestTranslate(t *testing.T) {
	doc := parseFile(t, "testdata/petstore.yaml")

	out, err := NewTranslator(nil).Translate(doc, "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "module petstore {\n"))
	assert.Contains(t, out, "  enum Status { available, pending, sold };\n")
	assert.Contains(t, out, "  // A pet for sale.\n  struct Pet {\n")
	assert.Contains(t, out, "    @optional long long id;\n")
	assert.Contains(t, out, "    string name;\n")
	assert.Contains(t, out, "    @optional sequence<Tag> tags;\n")
	assert.Contains(t, out, "    @optional float weight;\n")
	assert.Contains(t, out, "    @optional Category parent;\n")

	pet := strings.Index(out, "struct Pet ")
	assert.Less(t, strings.Index(out, "enum Status"), strings.Index(out, "struct Tag "))
	assert.Less(t, strings.Index(out, "struct Tag "), pet)
	assert.Less(t, strings.Index(out, "struct Category "), pet)
}

func TestTranslate_OpenAPI3AllOf(t *testing.T) {
	doc, err := Parse(strings.NewReader(`{
  "openapi": "3.0.1",
  "info": {"title": "kmdp assets", "version": "1"},
  "components": {"schemas": {
    "Asset": {"allOf": [
      {"$ref": "#/components/schemas/Resource"},
      {"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}
    ]},
    "Resource": {"type": "object", "required": ["uri"], "properties": {
      "uri": {"type": "string"},
      "payload": {"type": "string", "format": "byte"},
      "meta": {"type": "object"}
    }}
  }}
}`))
	require.NoError(t, err)

	out, err := NewTranslator(nil).Translate(doc, "assets")
	require.NoError(t, err)

	assert.Contains(t, out, "module assets {")
	assert.Contains(t, out, "  struct Asset {\n    string uri;\n    @optional sequence<octet> payload;\n    @optional any meta;\n    string name;\n  };")
}

func TestTranslate_UnresolvedAllOf(t *testing.T) {
	doc, err := Parse(strings.NewReader(`
definitions:
  A:
    allOf:
      - $ref: '#/definitions/Missing'
`))
	require.NoError(t, err)

	_, err = NewTranslator(nil).Translate(doc, "m")
	assert.ErrorContains(t, err, "unresolved reference")
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "kmdp_assets", Identifier("kmdp assets"))
	assert.Equal(t, "_2xx", Identifier("2xx"))
	assert.Equal(t, "in_progress", Identifier("in-progress"))
	assert.Equal(t, "_", Identifier("!!"))
}
