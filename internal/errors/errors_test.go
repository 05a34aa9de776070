package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

var errSentinelError = fmt.Errorf("sentinel error")

type fooError struct {
	message string
}

var _ error = (*fooError)(nil)

func (f *fooError) Error() string {
	return f.message
}

func TestWith(t *testing.T) {
	fooErr := &fooError{message: "foo"}
	require.NotErrorIs(t, fooErr, errSentinelError)
	sentinelFooErr := With(fooErr, errSentinelError)
	require.ErrorIs(t, sentinelFooErr, errSentinelError)
	require.Equal(t, "foo", sentinelFooErr.Error())

	var target *fooError
	require.ErrorAs(t, sentinelFooErr, &target)
	require.Equal(t, "foo", target.message)

	require.NoError(t, With(nil, nil))
	require.Equal(t, fooErr, With(fooErr, nil))
	require.Equal(t, errSentinelError, With(nil, errSentinelError))
}

func TestTaxonomy(t *testing.T) {
	t.Run("condition", func(t *testing.T) {
		err := Conditionf("argument %d out of range", 17)
		require.ErrorIs(t, err, ErrCondition)
		require.NotErrorIs(t, err, ErrRuntime)
		require.Equal(t, "argument 17 out of range", err.Error())
		require.Equal(t, StatusCondition, Status(err))
	})

	t.Run("runtime", func(t *testing.T) {
		err := fmt.Errorf("launch: %w", Runtimef("device %d unavailable", 1))
		require.ErrorIs(t, err, ErrRuntime)
		require.Equal(t, StatusRuntime, Status(err))
	})

	t.Run("foreign_errors_are_runtime", func(t *testing.T) {
		require.Equal(t, StatusRuntime, Status(errors.New("boom")))
		require.Equal(t, StatusNone, Status(nil))
	})

	t.Run("from_status", func(t *testing.T) {
		require.NoError(t, FromStatus(StatusNone))
		require.ErrorIs(t, FromStatus(StatusCondition), ErrCondition)
		require.ErrorIs(t, FromStatus(StatusRuntime), ErrRuntime)
		require.ErrorIs(t, FromStatus(-7), ErrRuntime)
	})
}

func ExampleWith() {
	sentinelError := fmt.Errorf("some concrete error value")

	fooErr := &fooError{message: "foo"}
	if !errors.Is(fooErr, sentinelError) {
		fmt.Println("1")
	}

	sentinelFooErr := With(fooErr, sentinelError)
	if errors.Is(sentinelFooErr, sentinelError) {
		fmt.Println("2")
	}

	// Output: 1
	// 2
}
