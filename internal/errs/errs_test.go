package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := New(KindInsufficientCategoryBalance, "category %d has %d", 7, 100)
	wrapped := fmt.Errorf("move: %w", err)

	assert.True(t, errors.Is(wrapped, ErrInsufficientCategoryBalance))
	assert.False(t, errors.Is(wrapped, ErrInvalidAccount))
	assert.Equal(t, "InsufficientCategoryBalance: category 7 has 100", err.Error())
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(fmt.Errorf("wrap: %w", New(KindGoalNotFound, "category 3")))
	assert.True(t, ok)
	assert.Equal(t, KindGoalNotFound, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
