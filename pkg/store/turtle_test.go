package store

import (
	"strings"
	"testing"
)

const colorsNS = "https://example.org/taxonomy/Colors#"

func TestTurtleSerializer_Serialize(t *testing.T) {
	store := newColorStore(t)

	output := NewTurtleSerializer(WithPrefix("colors", colorsNS)).Serialize(store)

	expectations := []string{
		"@prefix skos: <http://www.w3.org/2004/02/skos/core#> .",
		"@prefix colors: <https://example.org/taxonomy/Colors#> .",
		"colors:red a skos:Concept ;\n    skos:broader colors:warm ;",
		`skos:notation "red"`,
		`skos:prefLabel "warm"@en`,
		"<https://example.org/taxonomy/Colors> a skos:ConceptScheme .",
	}
	for _, expected := range expectations {
		if !strings.Contains(output, expected) {
			t.Errorf("Expected output to contain %q\n%s", expected, output)
		}
	}

	// Unused default prefixes are not declared.
	if strings.Contains(output, "@prefix owl:") {
		t.Errorf("Expected only used prefixes, got:\n%s", output)
	}

	// Subjects keep insertion order: the scheme comes first.
	if strings.Index(output, "Colors> a skos:ConceptScheme") > strings.Index(output, "colors:warm a") {
		t.Errorf("Expected scheme before concepts:\n%s", output)
	}
}

func TestTurtleSerializer_TypedLiteralAndBlankNode(t *testing.T) {
	store := NewTripleStore()
	_ = store.Add(exRed, DCTermsIssued, NewTypedLiteral("2024-01-01", XSDDate))
	_ = store.Add("_:n1", RDFSComment, NewLiteral("line one\nline two"))

	output := NewTurtleSerializer().Serialize(store)

	for _, expected := range []string{
		`"2024-01-01"^^xsd:date`,
		"@prefix xsd: <" + NamespaceXSD + "> .",
		"_:n1 rdfs:comment",
		`"line one\nline two"`,
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("Expected output to contain %q\n%s", expected, output)
		}
	}
}

func TestTurtleSerializer_MultipleObjects(t *testing.T) {
	store := NewTripleStore()
	_ = store.Add(exRed, SKOSAltLabel, NewLiteral("crimson"))
	_ = store.Add(exRed, SKOSAltLabel, NewLiteral("scarlet"))

	output := NewTurtleSerializer(WithoutDefaultPrefixes()).Serialize(store)

	expected := "<" + exRed + "> <" + SKOSAltLabel + `> "crimson" , "scarlet" .` + "\n"
	if output != expected {
		t.Errorf("Expected %q, got %q", expected, output)
	}
}

func TestIsFullURI(t *testing.T) {
	tests := map[string]bool{
		"http://example.org/x":          true,
		"https://example.org/x":         true,
		"urn:uuid:1234":                 true,
		"skos:Concept":                  false,
		"plain":                         false,
		"_:b0":                          false,
		"tag:example.org,2024:concepts": true,
	}

	for input, expected := range tests {
		if got := isFullURI(input); got != expected {
			t.Errorf("isFullURI(%q): expected %v, got %v", input, expected, got)
		}
	}
}
