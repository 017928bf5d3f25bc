package skos

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedConcept is returned when a broader assertion refers to an
	// individual that is not a concept of any scheme in the graph.
	ErrUnresolvedConcept = errors.New("unresolved concept")

	// ErrUnsupportedMembership is returned for a concept declared in more
	// than two schemes.
	ErrUnsupportedMembership = errors.New("concept membership in more than two schemes is not supported")
)

// UnresolvedConceptError describes a broader assertion that cannot be resolved.
type UnresolvedConceptError struct {
	Subject   string
	Predicate string
	Object    string
	Missing   string
}

func (e *UnresolvedConceptError) Error() string {
	return fmt.Sprintf("unresolved concept %s in <%s> <%s> <%s>", e.Missing, e.Subject, e.Predicate, e.Object)
}

func (e *UnresolvedConceptError) Unwrap() error {
	return ErrUnresolvedConcept
}
