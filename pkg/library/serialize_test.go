package library

import (
	"testing"

	"github.com/coolbeans/kmdp/pkg/store"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := store.NewTripleStore()
	original.Add("https://example.org/colors#red", store.RDFType, store.SKOSConcept)
	original.Add("https://example.org/colors#red", store.SKOSPrefLabel, store.NewLangLiteral("red", "en"))
	original.Add("https://example.org/colors#red", store.DCTermsIssued, store.NewTypedLiteral("2024-01-01", store.XSDDate))
	original.Add("https://example.org/colors#red", store.SKOSBroader, "https://example.org/colors#warm")

	data, err := EncodeTriples(original)
	if err != nil {
		t.Fatalf("EncodeTriples failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("encoded data is empty")
	}

	restored, err := DecodeTriples(data)
	if err != nil {
		t.Fatalf("DecodeTriples failed: %v", err)
	}

	if restored.Count() != original.Count() {
		t.Errorf("triple count mismatch: got %d, want %d", restored.Count(), original.Count())
	}
	for _, triple := range original.All() {
		if !restored.Exists(triple.Subject, triple.Predicate, triple.Object) {
			t.Errorf("missing triple: %s", triple)
		}
	}
}

func TestEncodeEmptyStore(t *testing.T) {
	data, err := EncodeTriples(store.NewTripleStore())
	if err != nil {
		t.Fatalf("EncodeTriples failed: %v", err)
	}

	restored, err := DecodeTriples(data)
	if err != nil {
		t.Fatalf("DecodeTriples failed: %v", err)
	}
	if restored.Count() != 0 {
		t.Errorf("expected empty store, got %d triples", restored.Count())
	}
}

func TestEncodeNilStore(t *testing.T) {
	if _, err := EncodeTriples(nil); err == nil {
		t.Error("expected error for nil store")
	}
}

func TestDecodeEmptyData(t *testing.T) {
	if _, err := DecodeTriples(nil); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	if _, err := DecodeTriples([]byte("{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
