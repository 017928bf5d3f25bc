package library

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coolbeans/kmdp/pkg/store"
)

// storedTriple is the on-disk form of one triple. Objects keep the store's
// N-Triples lexical encoding, so literals survive with their datatype.
type storedTriple struct {
	S string `json:"s"`
	P string `json:"p"`
	O string `json:"o"`
}

// EncodeTriples writes every triple of the store as a JSON array, in
// subject insertion order.
func EncodeTriples(triples *store.TripleStore) ([]byte, error) {
	if triples == nil {
		return nil, errors.New("triple store is nil")
	}

	all := triples.All()
	stored := make([]storedTriple, len(all))
	for i, t := range all {
		stored[i] = storedTriple{S: t.Subject, P: t.Predicate, O: t.Object}
	}
	return json.Marshal(stored)
}

// DecodeTriples reads a JSON array written by EncodeTriples into a new store.
func DecodeTriples(data []byte) (*store.TripleStore, error) {
	if len(data) == 0 {
		return nil, errors.New("empty triple data")
	}

	var stored []storedTriple
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal triples: %w", err)
	}

	triples := make([]store.Triple, len(stored))
	for i, st := range stored {
		triples[i] = store.NewTriple(st.S, st.P, st.O)
	}

	ts := store.NewTripleStore()
	if err := ts.BulkAdd(triples); err != nil {
		return nil, fmt.Errorf("failed to add triples: %w", err)
	}
	return ts, nil
}
