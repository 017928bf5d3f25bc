package answer

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	a := Of(42)

	assert.True(t, a.IsSuccess())
	assert.Equal(t, OK, a.Outcome())
	value, ok := a.Get()
	assert.True(t, ok)
	assert.Equal(t, 42, value)
	assert.NoError(t, a.Err())
}

func TestOfOptional(t *testing.T) {
	assert.Equal(t, "x", OfOptional("x", true).Value())

	missing := OfOptional("", false)
	assert.True(t, missing.IsFailure())
	assert.Equal(t, NotFound, missing.Outcome())
}

func TestSucceed(t *testing.T) {
	a := Succeed()
	assert.True(t, a.IsSuccess())
	_, ok := a.Get()
	assert.False(t, ok)
}

func TestFailed(t *testing.T) {
	a := Failed[int](errors.New("boom"))

	assert.True(t, a.IsFailure())
	assert.Equal(t, InternalError, a.Outcome())
	assert.Equal(t, "boom", a.Explanation())
	assert.Equal(t, 7, a.OrElse(7))

	var answerErr *Error
	require.ErrorAs(t, a.Err(), &answerErr)
	assert.Equal(t, InternalError, answerErr.Outcome)
	assert.EqualError(t, a.Err(), "500 Internal Error: boom")
}

func TestFailedWith_SuccessOutcomeIsCoerced(t *testing.T) {
	a := FailedWith[string](OK, "not really")
	assert.True(t, a.IsFailure())
	assert.Equal(t, InternalError, a.Outcome())
}

func TestZeroAnswerIsFailure(t *testing.T) {
	var a Answer[int]
	assert.True(t, a.IsFailure())
	assert.Error(t, a.Err())
}

func TestMap(t *testing.T) {
	a := Map(Of(21).WithMeta("source", "test"), func(v int) string {
		return strconv.Itoa(v * 2)
	})

	assert.Equal(t, "42", a.Value())
	assert.Equal(t, Meta{"source": {"test"}}, a.Meta())
}

func TestMap_PropagatesFailure(t *testing.T) {
	called := false
	a := Map(FailedWith[int](NotFound, "missing scheme"), func(v int) int {
		called = true
		return v
	})

	assert.False(t, called)
	assert.Equal(t, NotFound, a.Outcome())
	assert.Equal(t, "missing scheme", a.Explanation())
}

func TestFlatMap_MergesExplanation(t *testing.T) {
	first := Of(1).WithExplanation("loaded %d", 1).WithMeta("k", "a")
	a := FlatMap(first, func(v int) Answer[int] {
		return FailedWith[int](Conflict, "clash").WithMeta("k", "b", "a")
	})

	assert.Equal(t, Conflict, a.Outcome())
	assert.Equal(t, "loaded 1\nclash", a.Explanation())
	assert.Equal(t, Meta{"k": {"a", "b"}}, a.Meta())
}

func TestFlatMap_ShortCircuits(t *testing.T) {
	a := FlatMap(FailedWith[int](BadRequest, "bad"), func(v int) Answer[int] {
		t.Fatal("must not run")
		return Of(v)
	})
	assert.Equal(t, BadRequest, a.Outcome())
}

func TestFlatOpt(t *testing.T) {
	lookup := map[string]int{"red": 1}
	find := func(key string) (int, bool) {
		v, ok := lookup[key]
		return v, ok
	}

	assert.Equal(t, 1, FlatOpt(Of("red"), find).Value())
	assert.Equal(t, NotFound, FlatOpt(Of("blue"), find).Outcome())
}

func TestMerge(t *testing.T) {
	sum := func(a, b int) int { return a + b }

	assert.Equal(t, 5, Merge(Of(2), Of(3), sum).Value())

	failed := Merge(FailedWith[int](NotFound, "a"), FailedWith[int](InternalError, "b"), sum)
	assert.Equal(t, InternalError, failed.Outcome())
	assert.Equal(t, "a\nb", failed.Explanation())

	half := Merge(Of(2), FailedWith[int](Conflict, "c"), sum)
	assert.True(t, half.IsFailure())
	assert.Equal(t, Conflict, half.Outcome())
}

func TestAggregate(t *testing.T) {
	all := Aggregate([]Answer[int]{Of(1), Of(2), Of(3)})
	assert.Equal(t, []int{1, 2, 3}, all.Value())

	mixed := Aggregate([]Answer[int]{
		Of(1),
		FailedWith[int](NotFound, "two"),
		FailedWith[int](UnprocessableEntity, "three"),
	})
	assert.True(t, mixed.IsFailure())
	assert.Equal(t, UnprocessableEntity, mixed.Outcome())
	assert.Equal(t, "two\nthree", mixed.Explanation())

	empty := Aggregate[int](nil)
	assert.True(t, empty.IsSuccess())
	assert.Empty(t, empty.Value())
}

func TestMetaIsCopied(t *testing.T) {
	a := Of(1).WithMeta("k", "v")
	meta := a.Meta()
	meta["k"][0] = "changed"

	assert.Equal(t, []string{"v"}, a.Meta()["k"])
	assert.Equal(t, []string{"k"}, a.MetaKeys())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "Not Found", NotFound.String())
	assert.Equal(t, "Outcome(418)", Outcome(418).String())
	assert.True(t, Outcome(299).IsSuccess())
	assert.False(t, Outcome(300).IsSuccess())
}
