package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("message includes code and cause", func(t *testing.T) {
		err := NewAppError("RATE_LIMITED", "Rate limited", ErrRateLimited)
		assert.Equal(t, "RATE_LIMITED: Rate limited: rate limited", err.Error())
		assert.True(t, errors.Is(err, ErrRateLimited))
	})

	t.Run("message without cause", func(t *testing.T) {
		err := NewAppError("CONFIG_ERROR", "PORT must not be empty", nil)
		assert.Equal(t, "CONFIG_ERROR: PORT must not be empty", err.Error())
	})

	t.Run("sentinels stay distinguishable through wrapping", func(t *testing.T) {
		err := NewAppError("NOT_A_LABEL", "Not a product label", ErrNotLabel)
		assert.True(t, errors.Is(err, ErrNotLabel))
		assert.False(t, errors.Is(err, ErrInvalidInput))
	})
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(nil, "context"))

	wrapped := WrapError(ErrUpstream, "calling model")
	assert.True(t, errors.Is(wrapped, ErrUpstream))
	assert.Contains(t, wrapped.Error(), "calling model")
}
