package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	wrapped := errors.New("connection refused")
	err := NewFetch("https://example.com", "failed after 3 attempts", wrapped)

	assert.Equal(t, "[fetch] https://example.com: failed after 3 attempts - connection refused", err.Error())
	assert.ErrorIs(t, err, wrapped)

	bare := NewParse("https://example.com", "failed to parse HTML", nil)
	assert.Equal(t, "[parse] https://example.com: failed to parse HTML", bare.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, NewFetch("u", "m", nil).IsRetryable())
	assert.False(t, NewParse("u", "m", nil).IsRetryable())
	assert.False(t, NewRateLimit("u", time.Minute).IsRetryable())
	assert.False(t, NewPersistence("m", nil).IsRetryable())
	assert.False(t, NewDispatch("m", nil).IsRetryable())
	assert.False(t, NewConfiguration("m", nil).IsRetryable())
}

func TestNewRateLimitMessage(t *testing.T) {
	err := NewRateLimit("https://example.com", 5*time.Minute)
	assert.Equal(t, ErrorTypeRateLimit, err.Type)
	assert.Contains(t, err.Error(), "rate limited for 5m0s")
}
