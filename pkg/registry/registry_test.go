package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	dmn, ok := reg.Language("DMN_1_2")
	require.True(t, ok)
	assert.Equal(t, "dmn-v12", dmn.Code)
	assert.Equal(t, "Decision Model and Notation 1.2", dmn.Label)
	assert.Equal(t, "http://www.omg.org/spec/DMN/20180521/MODEL/", dmn.Namespace)
	assert.Equal(t, KindLanguage, dmn.Kind)

	byCode, ok := reg.LanguageByCode("dmn-v12")
	require.True(t, ok)
	assert.Equal(t, dmn, byCode)

	xml, ok := reg.Format("XML_1_1")
	require.True(t, ok)
	assert.Equal(t, "xml", xml.Code)

	_, ok = reg.FormatByCode("ttl")
	assert.True(t, ok)

	pcv, ok := reg.LexiconByCode("pcv")
	require.True(t, ok)
	assert.Equal(t, "PCV", pcv.Tag)

	_, ok = reg.Language("COBOL")
	assert.False(t, ok)
}

func TestPrefixes(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	ns, ok := reg.NamespaceFor("skos")
	require.True(t, ok)
	assert.Equal(t, "http://www.w3.org/2004/02/skos/core#", ns)

	prefix, ok := reg.PrefixFor("http://purl.org/dc/terms/")
	require.True(t, ok)
	assert.Equal(t, "dct", prefix)

	_, ok = reg.PrefixFor("https://unknown.example/")
	assert.False(t, ok)

	assert.Equal(t, "http://snomed.info/id/", reg.Prefixes()["sct"])
}

func TestMIMEForLanguage(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	mime, ok := reg.MIMEForLanguage("OWL_2")
	require.True(t, ok)
	assert.Equal(t, "application/rdf+xml", mime)

	_, ok = reg.MIMEForLanguage("nope")
	assert.False(t, ok)
}

func TestListsAreSorted(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	languages := reg.Languages()
	require.NotEmpty(t, languages)
	for i := 1; i < len(languages); i++ {
		assert.Less(t, languages[i-1].Tag, languages[i].Tag)
	}
	assert.Len(t, reg.Lexicons(), 3)
}

func TestLoadFrom_Duplicate(t *testing.T) {
	doc := `<https://example.org/a> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://www.omg.org/spec/API4KP/api4kp/SerializationFormat> .
<https://example.org/a> <http://www.w3.org/2004/02/skos/core#notation> "X" .
<https://example.org/b> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://www.omg.org/spec/API4KP/api4kp/SerializationFormat> .
<https://example.org/b> <http://www.w3.org/2004/02/skos/core#notation> "X" .
`
	_, err := LoadFrom(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrDuplicateEntry)
}

func TestLoadFrom_MissingNotation(t *testing.T) {
	doc := `<https://example.org/a> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://www.omg.org/spec/API4KP/api4kp/Lexicon> .
`
	_, err := LoadFrom(strings.NewReader(doc))
	assert.ErrorContains(t, err, "no notation")
}

func TestLoadFrom_NoLanguages(t *testing.T) {
	doc := `<https://example.org/a> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://www.omg.org/spec/API4KP/api4kp/SerializationFormat> .
<https://example.org/a> <http://www.w3.org/2004/02/skos/core#notation> "X" .
`
	_, err := LoadFrom(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = LoadFrom(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestLoadFrom_SingleLanguage(t *testing.T) {
	doc := "<https://example.org/l> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <" + ClassLanguage + "> .\n" +
		`<https://example.org/l> <http://www.w3.org/2004/02/skos/core#notation> "L_1" .` + "\n" +
		"<https://example.org/l> <" + PropertyMIMECode + `> "l-v1" .` + "\n"

	reg, err := LoadFrom(strings.NewReader(doc))
	require.NoError(t, err)

	entry, ok := reg.LanguageByCode("l-v1")
	require.True(t, ok)
	assert.Equal(t, "L_1", entry.Tag)
	assert.Equal(t, "https://example.org/l", entry.URI)
}
