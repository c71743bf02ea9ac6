package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinels(t *testing.T) {
	t.Run("wrapped sentinels remain detectable", func(t *testing.T) {
		err := Wrap(ErrInvalidSpec, "line 3: unknown distribution")
		err = Wrap(err, "parsing model for chapter geocentric")

		assert.True(t, Is(err, ErrInvalidSpec))
		assert.False(t, Is(err, ErrNotFound))
		assert.True(t, IsInvalidSpecError(err))
	})

	t.Run("formatted constructors preserve sentinel identity", func(t *testing.T) {
		err := NewNotFoundError("dataset %q", "milk")
		require.Error(t, err)
		assert.True(t, IsNotFoundError(err))
		assert.Contains(t, err.Error(), `dataset "milk"`)
	})

	t.Run("errors carry stack traces", func(t *testing.T) {
		err := New("sampler stalled")
		detailed := fmt.Sprintf("%+v", err)
		assert.Contains(t, detailed, "errors_test.go")
	})

	t.Run("hints flatten for display", func(t *testing.T) {
		err := WithHint(ErrDidNotConverge, "try a different start point")
		hints := GetAllHints(err)
		require.Len(t, hints, 1)
		assert.Equal(t, "try a different start point", hints[0])
	})
}
