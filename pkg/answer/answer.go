// Package answer provides Answer, a result type that carries an outcome
// code, an optional value, metadata and an accumulating explanation.
// Failures short-circuit Map and FlatMap while keeping every explanation
// collected so far.
package answer

import (
	"fmt"
	"sort"
	"strings"
)

// Outcome is a response-code-like status. Codes of 300 and above are failures.
type Outcome int

// Outcomes used across kmdp.
const (
	OK                  Outcome = 200
	Created             Outcome = 201
	NoContent           Outcome = 204
	BadRequest          Outcome = 400
	NotFound            Outcome = 404
	NotAcceptable       Outcome = 406
	Conflict            Outcome = 409
	UnprocessableEntity Outcome = 422
	InternalError       Outcome = 500
	NotImplemented      Outcome = 501
)

// IsSuccess reports whether the outcome is below 300.
func (o Outcome) IsSuccess() bool {
	return o < 300
}

func (o Outcome) String() string {
	switch o {
	case OK:
		return "OK"
	case Created:
		return "Created"
	case NoContent:
		return "No Content"
	case BadRequest:
		return "Bad Request"
	case NotFound:
		return "Not Found"
	case NotAcceptable:
		return "Not Acceptable"
	case Conflict:
		return "Conflict"
	case UnprocessableEntity:
		return "Unprocessable Entity"
	case InternalError:
		return "Internal Error"
	case NotImplemented:
		return "Not Implemented"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Meta is a multimap of string metadata.
type Meta map[string][]string

func (m Meta) clone() Meta {
	if len(m) == 0 {
		return nil
	}
	out := make(Meta, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// merge adds the values of other not already present under each key.
func (m Meta) merge(other Meta) Meta {
	if len(other) == 0 {
		return m
	}
	out := m.clone()
	if out == nil {
		out = make(Meta, len(other))
	}
	for k, values := range other {
		for _, v := range values {
			if !contains(out[k], v) {
				out[k] = append(out[k], v)
			}
		}
	}
	return out
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

// strategy decides whether a transformation runs. It is picked once, from
// the outcome, when an Answer is made.
type strategy interface {
	proceeds() bool
}

type successStrategy struct{}

func (successStrategy) proceeds() bool { return true }

type failureStrategy struct{}

func (failureStrategy) proceeds() bool { return false }

func strategyFor(outcome Outcome) strategy {
	if outcome.IsSuccess() {
		return successStrategy{}
	}
	return failureStrategy{}
}

// Answer is the result of an operation.
type Answer[T any] struct {
	outcome     Outcome
	value       T
	present     bool
	meta        Meta
	explanation []string
	strategy    strategy
}

// Void is the value type of answers that carry no value.
type Void = struct{}

func newAnswer[T any](outcome Outcome, value T, present bool, meta Meta, explanation []string) Answer[T] {
	return Answer[T]{
		outcome:     outcome,
		value:       value,
		present:     present,
		meta:        meta,
		explanation: explanation,
		strategy:    strategyFor(outcome),
	}
}

// Of wraps a value in a successful answer.
func Of[T any](value T) Answer[T] {
	return newAnswer(OK, value, true, nil, nil)
}

// OfOptional succeeds with the value when ok, else fails with NotFound.
func OfOptional[T any](value T, ok bool) Answer[T] {
	if !ok {
		return FailedWith[T](NotFound, "no value")
	}
	return Of(value)
}

// Succeed returns a successful answer without a value.
func Succeed() Answer[Void] {
	return newAnswer(NoContent, Void{}, false, nil, nil)
}

// Failed turns an error into a failed answer. The error text becomes the
// explanation.
func Failed[T any](err error) Answer[T] {
	var zero T
	var explanation []string
	if err != nil {
		explanation = []string{err.Error()}
	}
	return newAnswer(InternalError, zero, false, nil, explanation)
}

// FailedWith returns a failed answer with an outcome and explanation. A
// success outcome is replaced by InternalError.
func FailedWith[T any](outcome Outcome, explanation string) Answer[T] {
	if outcome.IsSuccess() {
		outcome = InternalError
	}
	var zero T
	var lines []string
	if explanation != "" {
		lines = []string{explanation}
	}
	return newAnswer(outcome, zero, false, nil, lines)
}

// Map applies f to the value of a successful answer. A failed answer is
// propagated with its explanation and metadata.
func Map[T, U any](a Answer[T], f func(T) U) Answer[U] {
	if !a.proceeds() {
		return propagate[T, U](a)
	}
	return newAnswer(a.outcome, f(a.value), true, a.meta.clone(), a.explanationCopy())
}

// FlatMap chains an operation that returns an answer. The metadata and
// explanations of both answers are merged.
func FlatMap[T, U any](a Answer[T], f func(T) Answer[U]) Answer[U] {
	if !a.proceeds() {
		return propagate[T, U](a)
	}
	next := f(a.value)
	return newAnswer(next.outcome, next.value, next.present,
		a.meta.merge(next.meta), append(a.explanationCopy(), next.explanation...))
}

// FlatOpt applies a lookup to the value; a miss fails with NotFound.
func FlatOpt[T, U any](a Answer[T], f func(T) (U, bool)) Answer[U] {
	return FlatMap(a, func(value T) Answer[U] {
		return OfOptional(f(value))
	})
}

// Merge combines two answers. Both must succeed for combine to run;
// otherwise the result carries the worst outcome. Explanations and metadata
// of both are kept.
func Merge[T any](a, b Answer[T], combine func(T, T) T) Answer[T] {
	meta := a.meta.merge(b.meta)
	explanation := append(a.explanationCopy(), b.explanation...)

	if a.proceeds() && b.proceeds() {
		return newAnswer(a.outcome, combine(a.value, b.value), true, meta, explanation)
	}

	outcome := a.outcome
	if b.outcome > outcome {
		outcome = b.outcome
	}
	var zero T
	return newAnswer(outcome, zero, false, meta, explanation)
}

// Aggregate collects the values of several answers. It fails with the worst
// outcome when any of them failed, reporting every explanation.
func Aggregate[T any](answers []Answer[T]) Answer[[]T] {
	values := make([]T, 0, len(answers))
	var meta Meta
	var explanation []string
	worst := OK

	for _, a := range answers {
		meta = meta.merge(a.meta)
		explanation = append(explanation, a.explanation...)
		if !a.proceeds() {
			if a.outcome > worst {
				worst = a.outcome
			}
			continue
		}
		if a.present {
			values = append(values, a.value)
		}
	}

	if !worst.IsSuccess() {
		return newAnswer[[]T](worst, nil, false, meta, explanation)
	}
	return newAnswer(OK, values, true, meta, explanation)
}

func propagate[T, U any](a Answer[T]) Answer[U] {
	var zero U
	return newAnswer(a.outcome, zero, false, a.meta.clone(), a.explanationCopy())
}

func (a Answer[T]) proceeds() bool {
	if a.strategy == nil {
		// The zero Answer has no outcome and is treated as a failure.
		return false
	}
	return a.strategy.proceeds()
}

func (a Answer[T]) explanationCopy() []string {
	return append([]string(nil), a.explanation...)
}

// Get returns the value and whether one is present.
func (a Answer[T]) Get() (T, bool) {
	return a.value, a.present && a.proceeds()
}

// Value returns the value, or the zero value when there is none.
func (a Answer[T]) Value() T {
	value, _ := a.Get()
	return value
}

// OrElse returns the value, or fallback when there is none.
func (a Answer[T]) OrElse(fallback T) T {
	if value, ok := a.Get(); ok {
		return value
	}
	return fallback
}

// IsSuccess reports whether the answer succeeded.
func (a Answer[T]) IsSuccess() bool {
	return a.proceeds()
}

// IsFailure reports whether the answer failed.
func (a Answer[T]) IsFailure() bool {
	return !a.proceeds()
}

// Outcome returns the outcome code.
func (a Answer[T]) Outcome() Outcome {
	return a.outcome
}

// Meta returns a copy of the metadata.
func (a Answer[T]) Meta() Meta {
	return a.meta.clone()
}

// MetaKeys returns the metadata keys in sorted order.
func (a Answer[T]) MetaKeys() []string {
	keys := make([]string, 0, len(a.meta))
	for k := range a.meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Explanation returns the accumulated explanation, one entry per line.
func (a Answer[T]) Explanation() string {
	return strings.Join(a.explanation, "\n")
}

// WithMeta returns a copy with values added under key.
func (a Answer[T]) WithMeta(key string, values ...string) Answer[T] {
	a.meta = a.meta.merge(Meta{key: values})
	return a
}

// WithExplanation returns a copy with a line added to the explanation.
func (a Answer[T]) WithExplanation(format string, args ...any) Answer[T] {
	a.explanation = append(a.explanationCopy(), fmt.Sprintf(format, args...))
	return a
}

// Err returns nil for a success and an *Error for a failure.
func (a Answer[T]) Err() error {
	if a.proceeds() {
		return nil
	}
	return &Error{Outcome: a.outcome, Explanation: a.Explanation()}
}

// Error is a failed answer seen as an error.
type Error struct {
	Outcome     Outcome
	Explanation string
}

func (e *Error) Error() string {
	if e.Explanation == "" {
		return fmt.Sprintf("%d %s", int(e.Outcome), e.Outcome)
	}
	return fmt.Sprintf("%d %s: %s", int(e.Outcome), e.Outcome, e.Explanation)
}
